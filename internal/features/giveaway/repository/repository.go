package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"tweet-giveaway-backend/internal/features/giveaway/models"
)

var (
	ErrGiveawayNotFound = errors.New("giveaway not found")
	ErrDuplicateID      = errors.New("giveaway id already exists")
	ErrDuplicateClaim   = errors.New("claim already exists for claimant")
	ErrNotActive        = errors.New("giveaway is not active")
	ErrCapacityReached  = errors.New("giveaway reached max recipients")
	ErrInvalidStatus    = errors.New("invalid status transition")
)

// ActivityLimit caps each half of the activity feed.
const ActivityLimit = 50

// Store is the durable record store for giveaways, claims and whitelist entries.
//
// InsertClaim is the only path that creates claims and must be atomic: it
// re-checks the giveaway status and cap under a per-giveaway lock and relies
// on the (giveaway_id, claimant_id) uniqueness for double-claim protection.
type Store interface {
	CreateGiveaway(ctx context.Context, giveaway *models.Giveaway) error
	GetGiveaway(ctx context.Context, id string) (*models.Giveaway, error)

	CountClaims(ctx context.Context, giveawayID string) (int, error)
	SumClaimedAmount(ctx context.Context, giveawayID string) (decimal.Decimal, error)
	HasClaimed(ctx context.Context, giveawayID, claimantID string) (bool, error)
	InsertClaim(ctx context.Context, claim *models.Claim) error

	InsertWhitelistEntry(ctx context.Context, entry *models.WhitelistEntry) error
	IsWhitelisted(ctx context.Context, giveawayID, claimantID string) (bool, error)

	// UpdateStatus moves an active giveaway to a terminal status. It returns
	// false without error when the giveaway is already terminal.
	UpdateStatus(ctx context.Context, giveawayID string, status models.GiveawayStatus) (bool, error)

	ListByCreator(ctx context.Context, creatorID string, limit int) ([]*models.Giveaway, error)
	ListClaimsByClaimant(ctx context.Context, claimantID string, limit int) ([]*models.ClaimWithGiveaway, error)
	UserStats(ctx context.Context, userID string) (*models.UserStats, error)
	// ListCompletable returns ids of active giveaways whose claimed sum reached the total.
	ListCompletable(ctx context.Context, limit int) ([]string, error)
}
