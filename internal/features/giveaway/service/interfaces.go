package service

import (
	"context"

	"tweet-giveaway-backend/internal/features/giveaway/models"
	"tweet-giveaway-backend/internal/features/giveaway/models/dto"
)

// GiveawayService defines the interface for giveaway operations
type GiveawayService interface {
	Create(ctx context.Context, actor models.Actor, input *dto.CreateGiveawayRequest) (*dto.GiveawayResponse, error)
	GetByID(ctx context.Context, giveawayID string) (*dto.GiveawayResponse, error)
	Cancel(ctx context.Context, actor models.Actor, giveawayID string) error

	// SubmitClaim is the direct-claim path: eligibility check, atomic insert,
	// completion check and settlement hand-off.
	SubmitClaim(ctx context.Context, actor models.Actor, giveawayID string, walletAddress *string) (*models.ClaimResult, error)
	// SubmitVerification checks a tweet for the required keywords, whitelists
	// the claimant and then runs the direct-claim path.
	SubmitVerification(ctx context.Context, actor models.Actor, giveawayID, tweetURL string, walletAddress *string) (*models.VerificationResult, error)

	GetStats(ctx context.Context, actor models.Actor) (*models.UserStats, error)
	GetActivity(ctx context.Context, actor models.Actor) ([]models.ActivityItem, error)

	Reconciler
}

// Reconciler repairs giveaways whose completion post-check was lost.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}
