// Package memory is an in-process Store used by tests and STORE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tweet-giveaway-backend/internal/features/giveaway/models"
	"tweet-giveaway-backend/internal/features/giveaway/repository"
)

type whitelistKey struct {
	giveawayID string
	claimantID string
}

// Store keeps all state behind one mutex, so every InsertClaim is serialised
// the same way the postgres row lock serialises claims per giveaway.
type Store struct {
	mu        sync.RWMutex
	giveaways map[string]*models.Giveaway
	claims    map[string]map[string]*models.Claim // giveaway -> claimant -> claim
	whitelist map[whitelistKey]*models.WhitelistEntry
	nextID    int64
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		giveaways: make(map[string]*models.Giveaway),
		claims:    make(map[string]map[string]*models.Claim),
		whitelist: make(map[whitelistKey]*models.WhitelistEntry),
		now:       time.Now,
	}
}

var _ repository.Store = (*Store)(nil)

func copyGiveaway(g *models.Giveaway) *models.Giveaway {
	c := *g
	c.Keywords = append([]string(nil), g.Keywords...)
	if g.MaxRecipients != nil {
		max := *g.MaxRecipients
		c.MaxRecipients = &max
	}
	if g.Receiver != nil {
		r := *g.Receiver
		c.Receiver = &r
	}
	return &c
}

func (s *Store) CreateGiveaway(ctx context.Context, giveaway *models.Giveaway) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.giveaways[giveaway.ID]; exists {
		return repository.ErrDuplicateID
	}
	if giveaway.UpdatedAt.IsZero() {
		giveaway.UpdatedAt = giveaway.CreatedAt
	}
	s.giveaways[giveaway.ID] = copyGiveaway(giveaway)
	return nil
}

func (s *Store) GetGiveaway(ctx context.Context, id string) (*models.Giveaway, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.giveaways[id]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}
	return copyGiveaway(g), nil
}

func (s *Store) CountClaims(ctx context.Context, giveawayID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.claims[giveawayID]), nil
}

func (s *Store) SumClaimedAmount(ctx context.Context, giveawayID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sumLocked(giveawayID), nil
}

func (s *Store) sumLocked(giveawayID string) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range s.claims[giveawayID] {
		sum = sum.Add(c.Amount)
	}
	return sum
}

func (s *Store) HasClaimed(ctx context.Context, giveawayID, claimantID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.claims[giveawayID][claimantID]
	return ok, nil
}

func (s *Store) InsertClaim(ctx context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.giveaways[claim.GiveawayID]
	if !ok {
		return repository.ErrGiveawayNotFound
	}
	if !g.IsActive() {
		return repository.ErrNotActive
	}

	byClaimant := s.claims[claim.GiveawayID]
	if _, dup := byClaimant[claim.ClaimantID]; dup {
		return repository.ErrDuplicateClaim
	}
	if g.HasCap() && len(byClaimant) >= *g.MaxRecipients {
		return repository.ErrCapacityReached
	}

	if byClaimant == nil {
		byClaimant = make(map[string]*models.Claim)
		s.claims[claim.GiveawayID] = byClaimant
	}
	s.nextID++
	claim.ID = s.nextID
	if claim.ClaimedAt.IsZero() {
		claim.ClaimedAt = s.now()
	}
	stored := *claim
	byClaimant[claim.ClaimantID] = &stored
	return nil
}

// InsertWhitelistEntry keeps the first entry for a claimant; repeats are no-ops.
func (s *Store) InsertWhitelistEntry(ctx context.Context, entry *models.WhitelistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.giveaways[entry.GiveawayID]; !ok {
		return repository.ErrGiveawayNotFound
	}
	key := whitelistKey{giveawayID: entry.GiveawayID, claimantID: entry.ClaimantID}
	if _, exists := s.whitelist[key]; exists {
		return nil
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	stored := *entry
	s.whitelist[key] = &stored
	return nil
}

func (s *Store) IsWhitelisted(ctx context.Context, giveawayID, claimantID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.whitelist[whitelistKey{giveawayID: giveawayID, claimantID: claimantID}]
	return ok, nil
}

func (s *Store) UpdateStatus(ctx context.Context, giveawayID string, status models.GiveawayStatus) (bool, error) {
	if !status.IsTerminal() {
		return false, repository.ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.giveaways[giveawayID]
	if !ok {
		return false, repository.ErrGiveawayNotFound
	}
	if !g.Status.CanTransitionTo(status) {
		return false, nil
	}
	g.Status = status
	g.UpdatedAt = s.now()
	return true, nil
}

func (s *Store) ListByCreator(ctx context.Context, creatorID string, limit int) ([]*models.Giveaway, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Giveaway
	for _, g := range s.giveaways {
		if g.CreatorID == creatorID {
			out = append(out, copyGiveaway(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListClaimsByClaimant(ctx context.Context, claimantID string, limit int) ([]*models.ClaimWithGiveaway, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.ClaimWithGiveaway
	for giveawayID, byClaimant := range s.claims {
		c, ok := byClaimant[claimantID]
		if !ok {
			continue
		}
		item := &models.ClaimWithGiveaway{Claim: *c}
		if g, ok := s.giveaways[giveawayID]; ok {
			item.Token = g.Token
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClaimedAt.After(out[j].ClaimedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.UserStats{}
	for _, g := range s.giveaways {
		if g.CreatorID != userID {
			continue
		}
		stats.TotalGiveaways++
		switch g.Status {
		case models.GiveawayStatusActive:
			stats.ActiveGiveaways++
		case models.GiveawayStatusCompleted:
			stats.CompletedGiveaways++
		}
	}
	for _, byClaimant := range s.claims {
		if _, ok := byClaimant[userID]; ok {
			stats.VerifiedClaims++
		}
	}
	return stats, nil
}

func (s *Store) ListCompletable(ctx context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, g := range s.giveaways {
		if !g.IsActive() || len(s.claims[id]) == 0 {
			continue
		}
		if g.IsFunded(s.sumLocked(id)) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}
