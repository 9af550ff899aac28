package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tweet-giveaway-backend/internal/features/giveaway/keywords"
	"tweet-giveaway-backend/internal/features/giveaway/models"
)

// KeywordList accepts either a JSON array or a comma-separated string.
type KeywordList []string

func (k *KeywordList) UnmarshalJSON(data []byte) error {
	var csv string
	if err := json.Unmarshal(data, &csv); err == nil {
		*k = keywords.ParseList(csv)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("keywords must be a string or an array of strings")
	}
	*k = keywords.Normalize(list)
	return nil
}

// CreateGiveawayRequest represents the request body for creating a giveaway
type CreateGiveawayRequest struct {
	ID                 string          `json:"id,omitempty"`
	Token              string          `json:"token" binding:"required"`
	AmountPerRecipient decimal.Decimal `json:"amount_per_recipient" swaggertype:"string"`
	TotalAmount        decimal.Decimal `json:"total_amount" swaggertype:"string"`
	Keywords           KeywordList     `json:"keywords" swaggertype:"array,string"`
	ExpirationHours    *int            `json:"expiration_hours"`
	Receiver           *string         `json:"receiver,omitempty"`
	MaxRecipients      *int            `json:"max_recipients,omitempty"`
	AllowEarlyClaim    bool            `json:"allow_early_claim"`
}

// ClaimRequest is the optional body of a direct claim
type ClaimRequest struct {
	WalletAddress *string `json:"wallet_address,omitempty"`
}

// VerifyRequest submits a tweet as eligibility proof
type VerifyRequest struct {
	TweetURL      string  `json:"tweet_url" binding:"required"`
	WalletAddress *string `json:"wallet_address,omitempty"`
}

// GiveawayResponse is a giveaway with derived claim progress
type GiveawayResponse struct {
	models.Giveaway
	IsExpired     bool            `json:"is_expired"`
	ClaimsCount   int             `json:"claims_count"`
	ClaimedAmount decimal.Decimal `json:"claimed_amount" swaggertype:"string"`
}

// CreateGiveawayResponse is returned after creation
type CreateGiveawayResponse struct {
	Success   bool              `json:"success"`
	Giveaway  *GiveawayResponse `json:"giveaway"`
	ClaimLink string            `json:"claim_link"`
}

// ClaimResponse is returned after a successful direct claim
type ClaimResponse struct {
	Success    bool                   `json:"success"`
	Claim      *models.Claim          `json:"claim"`
	Settlement models.SettlementState `json:"settlement"`
	Message    string                 `json:"message"`
}

// VerificationResponse distinguishes a fresh claim from one already on record
type VerificationResponse struct {
	Success      bool                   `json:"success"`
	Verified     bool                   `json:"verified"`
	ClaimOutcome models.ClaimOutcome    `json:"claim_outcome"`
	Claim        *models.Claim          `json:"claim,omitempty"`
	Settlement   models.SettlementState `json:"settlement,omitempty"`
	Message      string                 `json:"message"`
}

// ActivityResponse wraps a user's activity feed
type ActivityResponse struct {
	Items       []models.ActivityItem `json:"items"`
	GeneratedAt time.Time             `json:"generated_at"`
}
