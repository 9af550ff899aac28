package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GiveawayStatus represents the lifecycle status of a giveaway
type GiveawayStatus string

const (
	GiveawayStatusActive    GiveawayStatus = "active"    // Accepting claims
	GiveawayStatusCompleted GiveawayStatus = "completed" // Claimed amount reached the funded total
	GiveawayStatusCancelled GiveawayStatus = "cancelled" // Cancelled by the creator
)

// IsTerminal reports whether no further transitions are allowed.
func (s GiveawayStatus) IsTerminal() bool {
	return s == GiveawayStatusCompleted || s == GiveawayStatusCancelled
}

func (s GiveawayStatus) Valid() bool {
	switch s {
	case GiveawayStatusActive, GiveawayStatusCompleted, GiveawayStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether s -> next is a legal move. Only active rows move.
func (s GiveawayStatus) CanTransitionTo(next GiveawayStatus) bool {
	return s == GiveawayStatusActive && next.IsTerminal()
}

// Giveaway represents a funded, time-bounded offer of equal payouts
type Giveaway struct {
	ID                 string          `json:"id"`
	CreatorID          string          `json:"creator_id"`
	CreatorHandle      string          `json:"creator_handle"`
	Token              string          `json:"token"`
	AmountPerRecipient decimal.Decimal `json:"amount_per_recipient"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	Keywords           []string        `json:"keywords"`
	Receiver           *string         `json:"receiver,omitempty"`
	MaxRecipients      *int            `json:"max_recipients,omitempty"`
	AllowEarlyClaim    bool            `json:"allow_early_claim"`
	ClaimLink          string          `json:"claim_link"`
	Status             GiveawayStatus  `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	ExpiresAt          time.Time       `json:"expires_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// IsExpired is true once now reaches expires_at. It is recomputed on every
// decision and never persisted.
func (g *Giveaway) IsExpired(now time.Time) bool {
	return !now.Before(g.ExpiresAt)
}

// IsActive проверяет, принимает ли гив клеймы по статусу
func (g *Giveaway) IsActive() bool {
	return g.Status == GiveawayStatusActive
}

// HasCap reports whether a recipient cap is set.
func (g *Giveaway) HasCap() bool {
	return g.MaxRecipients != nil && *g.MaxRecipients > 0
}

// IsFunded проверяет, покрыта ли общая сумма выплаченными клеймами
func (g *Giveaway) IsFunded(claimed decimal.Decimal) bool {
	return claimed.GreaterThanOrEqual(g.TotalAmount)
}
