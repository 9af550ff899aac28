package service

import (
	"context"
	stderrors "errors"
	"time"

	"tweet-giveaway-backend/internal/common/errors"
	"tweet-giveaway-backend/internal/common/logger"
	"tweet-giveaway-backend/internal/common/validation"
	"tweet-giveaway-backend/internal/features/giveaway/models"
	"tweet-giveaway-backend/internal/features/giveaway/repository"
	"tweet-giveaway-backend/internal/features/settlement"
)

// CanClaim decides whether claimantID may claim from g at now. The checks are
// advisory: InsertClaim repeats status, cap and uniqueness atomically.
func (s *giveawayService) CanClaim(ctx context.Context, g *models.Giveaway, claimantID string, now time.Time) (models.Decision, error) {
	if !g.IsActive() {
		return models.Deny(models.DenyNotActive), nil
	}

	claimed, err := s.store.HasClaimed(ctx, g.ID, claimantID)
	if err != nil {
		return models.Decision{}, err
	}
	if claimed {
		return models.Deny(models.DenyAlreadyClaimed), nil
	}

	if g.HasCap() {
		count, err := s.store.CountClaims(ctx, g.ID)
		if err != nil {
			return models.Decision{}, err
		}
		if count >= *g.MaxRecipients {
			return models.Deny(models.DenyCapacityReached), nil
		}
	}

	// До истечения срока без раннего клейма нужна верификация
	if !g.IsExpired(now) && !g.AllowEarlyClaim {
		whitelisted, err := s.store.IsWhitelisted(ctx, g.ID, claimantID)
		if err != nil {
			return models.Decision{}, err
		}
		if !whitelisted {
			return models.Deny(models.DenyNotVerified), nil
		}
	}

	return models.Allow(), nil
}

func (s *giveawayService) SubmitClaim(ctx context.Context, actor models.Actor, giveawayID string, walletAddress *string) (*models.ClaimResult, error) {
	wallet, err := normalizeWallet(walletAddress)
	if err != nil {
		return nil, err
	}

	giveaway, err := s.getGiveaway(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	return s.claim(ctx, actor, giveaway, wallet)
}

// claim runs the eligibility decision, the atomic insert and the post-commit
// steps shared by both claim paths.
func (s *giveawayService) claim(ctx context.Context, actor models.Actor, g *models.Giveaway, wallet *string) (*models.ClaimResult, error) {
	decision, err := s.CanClaim(ctx, g, actor.ID, s.now())
	if err != nil {
		return nil, errors.NewInternalError("check eligibility", err)
	}
	if !decision.Allowed {
		return nil, denyError(g, decision.Reason)
	}

	claim := &models.Claim{
		GiveawayID:     g.ID,
		ClaimantID:     actor.ID,
		ClaimantHandle: actor.Handle,
		WalletAddress:  wallet,
		Amount:         g.AmountPerRecipient,
		ClaimedAt:      s.now(),
	}
	if err := s.store.InsertClaim(ctx, claim); err != nil {
		return nil, s.insertError(ctx, g, err)
	}

	logger.Info().
		Str("giveaway_id", g.ID).
		Str("claimant_id", actor.ID).
		Int64("claim_id", claim.ID).
		Str("amount", claim.Amount.String()).
		Msg("Claim recorded")

	s.completeIfFunded(ctx, g)
	state := s.notifySettlement(ctx, g, claim)
	s.invalidateStats(ctx, actor.ID)

	return &models.ClaimResult{Claim: claim, Settlement: state}, nil
}

// completeIfFunded moves g to completed once the claimed sum reaches the total.
// Errors are only logged; the reconciler repeats the check.
func (s *giveawayService) completeIfFunded(ctx context.Context, g *models.Giveaway) {
	claimed, err := s.store.SumClaimedAmount(ctx, g.ID)
	if err != nil {
		logger.Error().Err(err).Str("giveaway_id", g.ID).Msg("Failed to sum claimed amount")
		return
	}
	if !g.IsFunded(claimed) {
		return
	}

	changed, err := s.store.UpdateStatus(ctx, g.ID, models.GiveawayStatusCompleted)
	if err != nil {
		logger.Error().Err(err).Str("giveaway_id", g.ID).Msg("Failed to complete giveaway")
		return
	}
	if changed {
		logger.Info().
			Str("giveaway_id", g.ID).
			Str("claimed_amount", claimed.String()).
			Str("total_amount", g.TotalAmount.String()).
			Msg("Giveaway completed")
		s.invalidateStats(ctx, g.CreatorID)
	}
}

// notifySettlement hands the durable claim to the settlement notifier. A
// failure degrades the response but never fails the claim.
func (s *giveawayService) notifySettlement(ctx context.Context, g *models.Giveaway, claim *models.Claim) models.SettlementState {
	notifyCtx := context.WithoutCancel(ctx)
	if s.notifyTimeout > 0 {
		var cancel context.CancelFunc
		notifyCtx, cancel = context.WithTimeout(notifyCtx, s.notifyTimeout)
		defer cancel()
	}

	ev := settlement.NewClaimEvent(g, claim)
	if err := s.notifier.Notify(notifyCtx, ev); err != nil {
		logger.Warn().
			Err(err).
			Str("event_id", ev.ID).
			Str("giveaway_id", g.ID).
			Int64("claim_id", claim.ID).
			Msg("Settlement notification failed")
		return models.SettlementDegraded
	}
	return models.SettlementQueued
}

func (s *giveawayService) insertError(ctx context.Context, g *models.Giveaway, err error) error {
	switch {
	case stderrors.Is(err, repository.ErrDuplicateClaim):
		return errors.NewDuplicateClaimError(g.ID)
	case stderrors.Is(err, repository.ErrCapacityReached):
		return errors.NewCapacityReachedError(g.ID, *g.MaxRecipients)
	case stderrors.Is(err, repository.ErrNotActive):
		status := models.GiveawayStatusCompleted
		if current, getErr := s.store.GetGiveaway(ctx, g.ID); getErr == nil {
			status = current.Status
		}
		return errors.NewNotActiveError(g.ID, string(status))
	case stderrors.Is(err, repository.ErrGiveawayNotFound):
		return errors.NewGiveawayNotFoundError(g.ID)
	default:
		return errors.NewInternalError("insert claim", err)
	}
}

func denyError(g *models.Giveaway, reason models.DenyReason) error {
	switch reason {
	case models.DenyNotActive:
		return errors.NewNotActiveError(g.ID, string(g.Status))
	case models.DenyAlreadyClaimed:
		return errors.NewAlreadyClaimedError(g.ID)
	case models.DenyCapacityReached:
		return errors.NewCapacityReachedError(g.ID, *g.MaxRecipients)
	case models.DenyNotVerified:
		return errors.NewNotVerifiedError(g.ID)
	default:
		return errors.New(errors.ErrCodeInternal, "unknown deny reason")
	}
}

func normalizeWallet(address *string) (*string, error) {
	if address == nil || *address == "" {
		return nil, nil
	}
	normalized, err := validation.NormalizeWalletAddress(*address)
	if err != nil {
		return nil, errors.NewValidationError("wallet_address", err.Error())
	}
	return &normalized, nil
}
