package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"tweet-giveaway-backend/internal/common/errors"
	"tweet-giveaway-backend/internal/common/logger"
	"tweet-giveaway-backend/internal/features/giveaway/keywords"
	"tweet-giveaway-backend/internal/features/giveaway/models"
	"tweet-giveaway-backend/internal/features/proof"
)

// SubmitVerification moves a claimant through
// Submitted -> ProofFetched -> KeywordsChecked -> Whitelisted and Claimed.
// Any rejection before the whitelist insert leaves the store untouched.
func (s *giveawayService) SubmitVerification(ctx context.Context, actor models.Actor, giveawayID, tweetURL string, walletAddress *string) (*models.VerificationResult, error) {
	wallet, err := normalizeWallet(walletAddress)
	if err != nil {
		return nil, err
	}

	giveaway, err := s.getGiveaway(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	if !giveaway.IsActive() {
		return nil, errors.NewNotActiveError(giveawayID, string(giveaway.Status))
	}
	if giveaway.IsExpired(s.now()) {
		return nil, errors.NewExpiredError(giveawayID)
	}
	claimed, err := s.store.HasClaimed(ctx, giveawayID, actor.ID)
	if err != nil {
		return nil, errors.NewInternalError("check existing claim", err)
	}
	if claimed {
		return nil, errors.NewAlreadyClaimedError(giveawayID)
	}

	tweetID, err := proof.ExtractTweetID(tweetURL)
	if err != nil {
		return nil, errors.NewInvalidProofFormatError(tweetURL)
	}

	text, err := s.fetchProof(ctx, tweetID)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("giveaway_id", giveawayID).
			Str("claimant_id", actor.ID).
			Str("tweet_id", tweetID).
			Msg("Proof fetch failed")
		return nil, errors.NewProofFetchFailedError(tweetID, err)
	}

	if missing := keywords.Missing(text, giveaway.Keywords); len(missing) > 0 {
		logger.Debug().
			Str("giveaway_id", giveawayID).
			Str("claimant_id", actor.ID).
			Strs("missing", missing).
			Msg("Proof rejected: keywords missing")
		return nil, errors.NewKeywordsMissingError(missing)
	}

	entry := &models.WhitelistEntry{
		GiveawayID:     giveawayID,
		ClaimantID:     actor.ID,
		ClaimantHandle: actor.Handle,
		ProofRef:       tweetURL,
		CreatedAt:      s.now(),
	}
	if err := s.store.InsertWhitelistEntry(ctx, entry); err != nil {
		return nil, errors.NewInternalError("insert whitelist entry", err)
	}

	logger.Info().
		Str("giveaway_id", giveawayID).
		Str("claimant_id", actor.ID).
		Str("tweet_id", tweetID).
		Msg("Claimant verified")

	result, err := s.claim(ctx, actor, giveaway, wallet)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeDuplicateClaim) || errors.HasCode(err, errors.ErrCodeAlreadyClaimed) {
			return &models.VerificationResult{
				Verified: true,
				Outcome:  models.ClaimOutcomeAlreadyClaimed,
			}, nil
		}
		return nil, err
	}

	return &models.VerificationResult{
		Verified:   true,
		Outcome:    models.ClaimOutcomeClaimed,
		Claim:      result.Claim,
		Settlement: result.Settlement,
	}, nil
}

// fetchProof bounds the proof source call by the configured timeout.
func (s *giveawayService) fetchProof(ctx context.Context, tweetID string) (string, error) {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	text, err := s.proofs.FetchText(ctx, tweetID)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("proof fetch timed out after %s: %w", s.fetchTimeout, err)
		}
		return "", err
	}
	return text, nil
}
