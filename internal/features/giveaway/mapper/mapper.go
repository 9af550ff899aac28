package mapper

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tweet-giveaway-backend/internal/features/giveaway/models"
	"tweet-giveaway-backend/internal/features/giveaway/models/dto"
)

// ToGiveawayResponse преобразует гив в ответ API с прогрессом клеймов
func ToGiveawayResponse(g *models.Giveaway, claimsCount int, claimed decimal.Decimal, now time.Time) *dto.GiveawayResponse {
	return &dto.GiveawayResponse{
		Giveaway:      *g,
		IsExpired:     g.IsExpired(now),
		ClaimsCount:   claimsCount,
		ClaimedAmount: claimed,
	}
}

// ToActivity merges created giveaways and claims into one feed, newest first.
func ToActivity(created []*models.Giveaway, claims []*models.ClaimWithGiveaway) []models.ActivityItem {
	items := make([]models.ActivityItem, 0, len(created)+len(claims))

	for _, g := range created {
		items = append(items, models.ActivityItem{
			ID:          g.ID,
			Type:        models.ActivityCreated,
			Description: fmt.Sprintf("Created %s", strings.ToUpper(g.Token)),
			Amount:      g.TotalAmount.String(),
			Token:       g.Token,
			Status:      string(g.Status),
			Date:        g.CreatedAt,
		})
	}
	for _, c := range claims {
		items = append(items, models.ActivityItem{
			ID:          c.GiveawayID,
			Type:        models.ActivityClaimed,
			Description: fmt.Sprintf("Claimed %s", strings.ToUpper(c.Token)),
			Amount:      c.Amount.String(),
			Token:       c.Token,
			Status:      "claimed",
			Date:        c.ClaimedAt,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})
	return items
}
