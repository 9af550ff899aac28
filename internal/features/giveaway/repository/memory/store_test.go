package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweet-giveaway-backend/internal/features/giveaway/models"
	"tweet-giveaway-backend/internal/features/giveaway/repository"
)

func newGiveaway(id string, maxRecipients *int) *models.Giveaway {
	now := time.Now()
	return &models.Giveaway{
		ID:                 id,
		CreatorID:          "creator",
		Token:              "ETH",
		AmountPerRecipient: decimal.NewFromInt(1),
		TotalAmount:        decimal.NewFromInt(1000),
		MaxRecipients:      maxRecipients,
		Status:             models.GiveawayStatusActive,
		CreatedAt:          now,
		ExpiresAt:          now.Add(time.Hour),
	}
}

func claimFor(giveawayID, claimantID string) *models.Claim {
	return &models.Claim{
		GiveawayID:     giveawayID,
		ClaimantID:     claimantID,
		ClaimantHandle: claimantID,
		Amount:         decimal.NewFromInt(1),
	}
}

func TestCreateGiveawayDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.CreateGiveaway(ctx, newGiveaway("g1", nil)))
	assert.ErrorIs(t, s.CreateGiveaway(ctx, newGiveaway("g1", nil)), repository.ErrDuplicateID)

	_, err := s.GetGiveaway(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrGiveawayNotFound)
}

func TestGetGiveawayReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	g := newGiveaway("g1", nil)
	g.Keywords = []string{"win"}
	require.NoError(t, s.CreateGiveaway(ctx, g))

	got, err := s.GetGiveaway(ctx, "g1")
	require.NoError(t, err)
	got.Status = models.GiveawayStatusCancelled
	got.Keywords[0] = "changed"

	again, err := s.GetGiveaway(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusActive, again.Status)
	assert.Equal(t, []string{"win"}, again.Keywords)
}

func TestInsertClaimDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.CreateGiveaway(ctx, newGiveaway("g1", nil)))

	require.NoError(t, s.InsertClaim(ctx, claimFor("g1", "alice")))
	assert.ErrorIs(t, s.InsertClaim(ctx, claimFor("g1", "alice")), repository.ErrDuplicateClaim)

	count, err := s.CountClaims(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInsertClaimRejectsInactive(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.CreateGiveaway(ctx, newGiveaway("g1", nil)))

	changed, err := s.UpdateStatus(ctx, "g1", models.GiveawayStatusCancelled)
	require.NoError(t, err)
	require.True(t, changed)

	assert.ErrorIs(t, s.InsertClaim(ctx, claimFor("g1", "alice")), repository.ErrNotActive)
}

func TestConcurrentClaimsRespectCap(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	const capacity, extra = 5, 20
	max := capacity
	require.NoError(t, s.CreateGiveaway(ctx, newGiveaway("g1", &max)))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	start := make(chan struct{})
	for i := 0; i < capacity+extra; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			err := s.InsertClaim(ctx, claimFor("g1", fmt.Sprintf("claimant-%d", i)))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
			} else {
				assert.ErrorIs(t, err, repository.ErrCapacityReached)
				rejected++
			}
		}(i)
	}
	close(start)
	wg.Wait()

	count, err := s.CountClaims(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, capacity, count)
	assert.Equal(t, capacity, accepted)
	assert.Equal(t, extra, rejected)
}

func TestConcurrentClaimsSameClaimant(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.CreateGiveaway(ctx, newGiveaway("g1", nil)))

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.InsertClaim(ctx, claimFor("g1", "alice"))
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrDuplicateClaim)
	}
	assert.Equal(t, 1, succeeded)
}

func TestUpdateStatusIsMonotonic(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.CreateGiveaway(ctx, newGiveaway("g1", nil)))

	changed, err := s.UpdateStatus(ctx, "g1", models.GiveawayStatusCompleted)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.UpdateStatus(ctx, "g1", models.GiveawayStatusCompleted)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = s.UpdateStatus(ctx, "g1", models.GiveawayStatusCancelled)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = s.UpdateStatus(ctx, "g1", models.GiveawayStatusActive)
	assert.ErrorIs(t, err, repository.ErrInvalidStatus)

	g, err := s.GetGiveaway(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusCompleted, g.Status)
}

func TestWhitelistIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.CreateGiveaway(ctx, newGiveaway("g1", nil)))

	entry := &models.WhitelistEntry{GiveawayID: "g1", ClaimantID: "alice", ProofRef: "https://x.com/a/status/1"}
	require.NoError(t, s.InsertWhitelistEntry(ctx, entry))
	require.NoError(t, s.InsertWhitelistEntry(ctx, entry))

	ok, err := s.IsWhitelisted(ctx, "g1", "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsWhitelisted(ctx, "g1", "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadModels(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	g1 := newGiveaway("g1", nil)
	g1.TotalAmount = decimal.NewFromInt(1)
	g2 := newGiveaway("g2", nil)
	g2.CreatedAt = g1.CreatedAt.Add(time.Minute)
	require.NoError(t, s.CreateGiveaway(ctx, g1))
	require.NoError(t, s.CreateGiveaway(ctx, g2))

	require.NoError(t, s.InsertClaim(ctx, claimFor("g1", "creator")))

	created, err := s.ListByCreator(ctx, "creator", 50)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "g2", created[0].ID)

	claims, err := s.ListClaimsByClaimant(ctx, "creator", 50)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, "ETH", claims[0].Token)

	stats, err := s.UserStats(ctx, "creator")
	require.NoError(t, err)
	assert.Equal(t, &models.UserStats{TotalGiveaways: 2, ActiveGiveaways: 2, VerifiedClaims: 1}, stats)

	ids, err := s.ListCompletable(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, ids)
}
