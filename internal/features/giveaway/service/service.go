package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tweet-giveaway-backend/internal/common/cache"
	"tweet-giveaway-backend/internal/common/config"
	"tweet-giveaway-backend/internal/common/errors"
	"tweet-giveaway-backend/internal/common/logger"
	"tweet-giveaway-backend/internal/common/validation"
	"tweet-giveaway-backend/internal/features/giveaway/keywords"
	"tweet-giveaway-backend/internal/features/giveaway/mapper"
	"tweet-giveaway-backend/internal/features/giveaway/models"
	"tweet-giveaway-backend/internal/features/giveaway/models/dto"
	"tweet-giveaway-backend/internal/features/giveaway/repository"
	"tweet-giveaway-backend/internal/features/proof"
	"tweet-giveaway-backend/internal/features/settlement"
)

const (
	statsCacheTTL = 5 * time.Minute
	// reconcileBatch ограничивает количество гивов за один проход
	reconcileBatch = 500
)

type giveawayService struct {
	store         repository.Store
	proofs        proof.Source
	notifier      settlement.Notifier
	cache         *cache.CacheService
	publicBaseURL string
	fetchTimeout  time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
}

// NewGiveawayService собирает сервис гивов. cache может быть nil.
func NewGiveawayService(
	store repository.Store,
	proofs proof.Source,
	notifier settlement.Notifier,
	cache *cache.CacheService,
	cfg *config.Config,
) GiveawayService {
	return &giveawayService{
		store:         store,
		proofs:        proofs,
		notifier:      notifier,
		cache:         cache,
		publicBaseURL: cfg.Server.PublicBaseURL,
		fetchTimeout:  cfg.Twitter.FetchTimeout,
		notifyTimeout: cfg.Settlement.Timeout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *giveawayService) Create(ctx context.Context, actor models.Actor, input *dto.CreateGiveawayRequest) (*dto.GiveawayResponse, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.New().String()
	}

	now := s.now()
	giveaway := &models.Giveaway{
		ID:                 id,
		CreatorID:          actor.ID,
		CreatorHandle:      actor.Handle,
		Token:              strings.TrimSpace(input.Token),
		AmountPerRecipient: input.AmountPerRecipient,
		TotalAmount:        input.TotalAmount,
		Keywords:           keywords.Normalize(input.Keywords),
		Receiver:           input.Receiver,
		MaxRecipients:      input.MaxRecipients,
		AllowEarlyClaim:    input.AllowEarlyClaim,
		ClaimLink:          fmt.Sprintf("%s/claim/%s", s.publicBaseURL, id),
		Status:             models.GiveawayStatusActive,
		CreatedAt:          now,
		ExpiresAt:          now.Add(time.Duration(*input.ExpirationHours) * time.Hour),
		UpdatedAt:          now,
	}

	if err := s.store.CreateGiveaway(ctx, giveaway); err != nil {
		if stderrors.Is(err, repository.ErrDuplicateID) {
			return nil, errors.NewDuplicateIDError(id)
		}
		return nil, errors.NewInternalError("create giveaway", err)
	}

	logger.Info().
		Str("giveaway_id", id).
		Str("creator_id", actor.ID).
		Str("token", giveaway.Token).
		Str("total_amount", giveaway.TotalAmount.String()).
		Time("expires_at", giveaway.ExpiresAt).
		Msg("Giveaway created")

	s.invalidateStats(ctx, actor.ID)
	return mapper.ToGiveawayResponse(giveaway, 0, decimal.Zero, now), nil
}

func validateCreate(input *dto.CreateGiveawayRequest) error {
	if input.ID != "" {
		if err := validation.ValidateGiveawayID(strings.TrimSpace(input.ID)); err != nil {
			return errors.NewValidationError("id", err.Error())
		}
	}
	if err := validation.ValidateToken(input.Token); err != nil {
		return errors.NewValidationError("token", err.Error())
	}
	if err := validation.ValidateAmount(input.AmountPerRecipient); err != nil {
		return errors.NewValidationError("amount_per_recipient", err.Error())
	}
	if err := validation.ValidateAmount(input.TotalAmount); err != nil {
		return errors.NewValidationError("total_amount", err.Error())
	}
	if input.TotalAmount.LessThan(input.AmountPerRecipient) {
		return errors.NewValidationError("total_amount", "total amount cannot be less than amount per recipient")
	}
	if err := validation.ValidateKeywords(input.Keywords); err != nil {
		return errors.NewValidationError("keywords", err.Error())
	}
	if input.ExpirationHours == nil {
		return errors.NewValidationError("expiration_hours", "expiration is required")
	}
	if err := validation.ValidateDurationHours(*input.ExpirationHours); err != nil {
		return errors.NewValidationError("expiration_hours", err.Error())
	}
	if input.MaxRecipients != nil {
		if err := validation.ValidateMaxRecipients(*input.MaxRecipients); err != nil {
			return errors.NewValidationError("max_recipients", err.Error())
		}
	}
	if err := validation.ValidateFunding(input.TotalAmount, input.AmountPerRecipient, input.MaxRecipients); err != nil {
		return errors.NewValidationError("total_amount", err.Error())
	}
	if input.Receiver != nil {
		if err := validation.ValidateWalletAddress(*input.Receiver); err != nil {
			return errors.NewValidationError("receiver", err.Error())
		}
	}
	return nil
}

func (s *giveawayService) GetByID(ctx context.Context, giveawayID string) (*dto.GiveawayResponse, error) {
	giveaway, err := s.getGiveaway(ctx, giveawayID)
	if err != nil {
		return nil, err
	}

	count, err := s.store.CountClaims(ctx, giveawayID)
	if err != nil {
		return nil, errors.NewInternalError("count claims", err)
	}
	claimed, err := s.store.SumClaimedAmount(ctx, giveawayID)
	if err != nil {
		return nil, errors.NewInternalError("sum claimed amount", err)
	}

	return mapper.ToGiveawayResponse(giveaway, count, claimed, s.now()), nil
}

// Cancel переводит активный гив в cancelled. Доступно только создателю.
func (s *giveawayService) Cancel(ctx context.Context, actor models.Actor, giveawayID string) error {
	giveaway, err := s.getGiveaway(ctx, giveawayID)
	if err != nil {
		return err
	}
	if giveaway.CreatorID != actor.ID {
		return errors.NewForbiddenError("only the creator can cancel a giveaway")
	}

	changed, err := s.store.UpdateStatus(ctx, giveawayID, models.GiveawayStatusCancelled)
	if err != nil {
		return errors.NewInternalError("cancel giveaway", err)
	}
	if !changed {
		current, err := s.getGiveaway(ctx, giveawayID)
		if err != nil {
			return err
		}
		return errors.NewNotActiveError(giveawayID, string(current.Status))
	}

	logger.Info().
		Str("giveaway_id", giveawayID).
		Str("creator_id", actor.ID).
		Msg("Giveaway cancelled")

	s.invalidateStats(ctx, actor.ID)
	return nil
}

func (s *giveawayService) GetStats(ctx context.Context, actor models.Actor) (*models.UserStats, error) {
	load := func() (interface{}, error) {
		return s.store.UserStats(ctx, actor.ID)
	}

	if s.cache == nil {
		stats, err := s.store.UserStats(ctx, actor.ID)
		if err != nil {
			return nil, errors.NewInternalError("get user stats", err)
		}
		return stats, nil
	}

	var stats models.UserStats
	if err := s.cache.GetOrSet(ctx, cache.UserStatsKey(actor.ID), &stats, statsCacheTTL, load); err != nil {
		return nil, errors.NewInternalError("get user stats", err)
	}
	return &stats, nil
}

func (s *giveawayService) GetActivity(ctx context.Context, actor models.Actor) ([]models.ActivityItem, error) {
	created, err := s.store.ListByCreator(ctx, actor.ID, repository.ActivityLimit)
	if err != nil {
		return nil, errors.NewInternalError("list created giveaways", err)
	}
	claims, err := s.store.ListClaimsByClaimant(ctx, actor.ID, repository.ActivityLimit)
	if err != nil {
		return nil, errors.NewInternalError("list claims", err)
	}
	return mapper.ToActivity(created, claims), nil
}

// Reconcile marks completed every active giveaway whose claimed sum reached its
// total. Returns the number of giveaways moved.
func (s *giveawayService) Reconcile(ctx context.Context) (int, error) {
	ids, err := s.store.ListCompletable(ctx, reconcileBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list completable giveaways: %w", err)
	}

	completed := 0
	for _, id := range ids {
		changed, err := s.store.UpdateStatus(ctx, id, models.GiveawayStatusCompleted)
		if err != nil {
			logger.Error().Err(err).Str("giveaway_id", id).Msg("Failed to complete giveaway")
			continue
		}
		if changed {
			completed++
			logger.Info().Str("giveaway_id", id).Msg("Giveaway completed by reconciler")
			s.invalidateCreatorStats(ctx, id)
		}
	}
	return completed, nil
}

func (s *giveawayService) getGiveaway(ctx context.Context, giveawayID string) (*models.Giveaway, error) {
	giveaway, err := s.store.GetGiveaway(ctx, giveawayID)
	if err != nil {
		if stderrors.Is(err, repository.ErrGiveawayNotFound) {
			return nil, errors.NewGiveawayNotFoundError(giveawayID)
		}
		return nil, errors.NewInternalError("get giveaway", err)
	}
	return giveaway, nil
}

func (s *giveawayService) invalidateStats(ctx context.Context, userIDs ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUserStats(ctx, userIDs...); err != nil {
		logger.Warn().Err(err).Strs("user_ids", userIDs).Msg("Failed to invalidate stats cache")
	}
}

func (s *giveawayService) invalidateCreatorStats(ctx context.Context, giveawayID string) {
	if s.cache == nil {
		return
	}
	giveaway, err := s.store.GetGiveaway(ctx, giveawayID)
	if err != nil {
		return
	}
	s.invalidateStats(ctx, giveaway.CreatorID)
}
