// Package settlement carries post-claim settlement notifications to the value
// transfer mechanism. Settlement is advisory: the claim store is the ledger of record.
package settlement

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tweet-giveaway-backend/internal/features/giveaway/models"
)

// RoutingKeyClaimRecorded is used for claim events on topic exchanges.
const RoutingKeyClaimRecorded = "giveaway.claim.recorded"

// Event describes a recorded claim awaiting settlement.
type Event struct {
	ID             string          `json:"id"`
	GiveawayID     string          `json:"giveaway_id"`
	ClaimID        int64           `json:"claim_id"`
	ClaimantID     string          `json:"claimant_id"`
	ClaimantHandle string          `json:"claimant_handle"`
	WalletAddress  string          `json:"wallet_address,omitempty"`
	Token          string          `json:"token"`
	Amount         decimal.Decimal `json:"amount"`
	ClaimedAt      time.Time       `json:"claimed_at"`
}

// NewClaimEvent builds the event for a durable claim. Wallet addresses are
// emitted in EIP-55 checksum form; malformed ones are dropped.
func NewClaimEvent(g *models.Giveaway, c *models.Claim) Event {
	ev := Event{
		ID:             uuid.New().String(),
		GiveawayID:     g.ID,
		ClaimID:        c.ID,
		ClaimantID:     c.ClaimantID,
		ClaimantHandle: c.ClaimantHandle,
		Token:          g.Token,
		Amount:         c.Amount,
		ClaimedAt:      c.ClaimedAt,
	}
	if c.WalletAddress != nil && common.IsHexAddress(*c.WalletAddress) {
		ev.WalletAddress = common.HexToAddress(*c.WalletAddress).Hex()
	}
	return ev
}

// Values flattens the event into redis stream fields.
func (e Event) Values() map[string]interface{} {
	return map[string]interface{}{
		"type":            RoutingKeyClaimRecorded,
		"id":              e.ID,
		"giveaway_id":     e.GiveawayID,
		"claim_id":        strconv.FormatInt(e.ClaimID, 10),
		"claimant_id":     e.ClaimantID,
		"claimant_handle": e.ClaimantHandle,
		"wallet_address":  e.WalletAddress,
		"token":           e.Token,
		"amount":          e.Amount.String(),
		"claimed_at":      e.ClaimedAt.UTC().Format(time.RFC3339Nano),
	}
}

// EventFromValues parses stream fields written by Values.
func EventFromValues(values map[string]interface{}) (Event, error) {
	str := func(key string) string {
		v, _ := values[key].(string)
		return v
	}

	if t := str("type"); t != RoutingKeyClaimRecorded {
		return Event{}, fmt.Errorf("unexpected event type %q", t)
	}

	ev := Event{
		ID:             str("id"),
		GiveawayID:     str("giveaway_id"),
		ClaimantID:     str("claimant_id"),
		ClaimantHandle: str("claimant_handle"),
		WalletAddress:  str("wallet_address"),
		Token:          str("token"),
	}
	if ev.GiveawayID == "" || ev.ClaimantID == "" {
		return Event{}, fmt.Errorf("event is missing giveaway or claimant")
	}

	var err error
	if ev.ClaimID, err = strconv.ParseInt(str("claim_id"), 10, 64); err != nil {
		return Event{}, fmt.Errorf("invalid claim_id: %w", err)
	}
	if ev.Amount, err = decimal.NewFromString(str("amount")); err != nil {
		return Event{}, fmt.Errorf("invalid amount: %w", err)
	}
	if ev.ClaimedAt, err = time.Parse(time.RFC3339Nano, str("claimed_at")); err != nil {
		return Event{}, fmt.Errorf("invalid claimed_at: %w", err)
	}
	return ev, nil
}
