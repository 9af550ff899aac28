package http

import (
	"github.com/gin-gonic/gin"

	"tweet-giveaway-backend/internal/common/middleware"
	"tweet-giveaway-backend/internal/features/giveaway/models"
)

// actorFromContext returns the authenticated caller. RequireAuth guarantees it is set.
func actorFromContext(c *gin.Context) models.Actor {
	identity, _ := middleware.GetIdentity(c)
	return models.Actor{ID: identity.ID, Handle: identity.Handle}
}

func settlementMessage(state models.SettlementState) string {
	if state == models.SettlementDegraded {
		return "Claim recorded, payout is delayed"
	}
	return "Claim recorded, payout queued"
}
