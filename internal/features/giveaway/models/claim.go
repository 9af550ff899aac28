package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Claim is the durable record that a claimant received their share. Immutable.
type Claim struct {
	ID             int64           `json:"id"`
	GiveawayID     string          `json:"giveaway_id"`
	ClaimantID     string          `json:"claimant_id"`
	ClaimantHandle string          `json:"claimant_handle"`
	WalletAddress  *string         `json:"wallet_address,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	ClaimedAt      time.Time       `json:"claimed_at"`
}

// WhitelistEntry records a verified proof permitting a claim before expiry.
type WhitelistEntry struct {
	GiveawayID     string    `json:"giveaway_id"`
	ClaimantID     string    `json:"claimant_id"`
	ClaimantHandle string    `json:"claimant_handle"`
	ProofRef       string    `json:"proof_ref"`
	CreatedAt      time.Time `json:"created_at"`
}

// ClaimWithGiveaway is a claim joined with the giveaway token, used by activity feeds.
type ClaimWithGiveaway struct {
	Claim
	Token string `json:"token"`
}

// ClaimResult is returned by the direct-claim path.
type ClaimResult struct {
	Claim      *Claim
	Settlement SettlementState
}

// VerificationResult is returned by the verify-then-claim path.
type VerificationResult struct {
	Verified   bool
	Outcome    ClaimOutcome
	Claim      *Claim
	Settlement SettlementState
}
