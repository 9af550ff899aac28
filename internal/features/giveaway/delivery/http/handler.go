package http

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tweet-giveaway-backend/internal/common/errors"
	"tweet-giveaway-backend/internal/common/middleware"
	"tweet-giveaway-backend/internal/features/giveaway/models"
	"tweet-giveaway-backend/internal/features/giveaway/models/dto"
	giveawayservice "tweet-giveaway-backend/internal/features/giveaway/service"
)

type GiveawayHandler struct {
	service      giveawayservice.GiveawayService
	limiter      middleware.Limiter
	claimsPerMin int
}

// NewGiveawayHandler creates the handler. limiter may be nil, which disables
// rate limiting of claim and verify.
func NewGiveawayHandler(service giveawayservice.GiveawayService, limiter middleware.Limiter, claimsPerMin int) *GiveawayHandler {
	return &GiveawayHandler{
		service:      service,
		limiter:      limiter,
		claimsPerMin: claimsPerMin,
	}
}

func (h *GiveawayHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.RequireAuth()

	giveaways := router.Group("/giveaways")
	{
		giveaways.POST("", auth, h.create)
		giveaways.GET("/:id", h.getByID)
		giveaways.POST("/:id/claim", auth, h.rateLimit("claim"), h.claim)
		giveaways.POST("/:id/verify", auth, h.rateLimit("verify"), h.verify)
		giveaways.POST("/:id/cancel", auth, h.cancel)
	}

	me := router.Group("/me", auth)
	{
		me.GET("/stats", h.getStats)
		me.GET("/activity", h.getActivity)
	}
}

func (h *GiveawayHandler) rateLimit(scope string) gin.HandlerFunc {
	if h.limiter == nil || h.claimsPerMin <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RateLimit(h.limiter, scope, h.claimsPerMin, time.Minute)
}

// @Summary Create a giveaway
// @Description Creates a funded giveaway. Keywords may be an array or a comma-separated string.
// @Tags giveaways
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body dto.CreateGiveawayRequest true "Giveaway parameters"
// @Success 201 {object} dto.CreateGiveawayResponse
// @Failure 400 {object} middleware.ErrorResponse "Validation error"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 409 {object} middleware.ErrorResponse "Duplicate id"
// @Router /giveaways [post]
func (h *GiveawayHandler) create(c *gin.Context) {
	var input dto.CreateGiveawayRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.RespondError(c, errors.NewValidationError("body", err.Error()))
		return
	}

	giveaway, err := h.service.Create(c.Request.Context(), actorFromContext(c), &input)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateGiveawayResponse{
		Success:   true,
		Giveaway:  giveaway,
		ClaimLink: giveaway.ClaimLink,
	})
}

// @Summary Get a giveaway
// @Description Returns the giveaway with claim progress and the derived expiry flag
// @Tags giveaways
// @Produce json
// @Param id path string true "Giveaway ID"
// @Success 200 {object} dto.GiveawayResponse
// @Failure 404 {object} middleware.ErrorResponse "Not found"
// @Router /giveaways/{id} [get]
func (h *GiveawayHandler) getByID(c *gin.Context) {
	giveaway, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, giveaway)
}

// @Summary Claim from a giveaway
// @Description Records a claim when the caller is eligible and queues settlement
// @Tags claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Giveaway ID"
// @Param input body dto.ClaimRequest false "Optional payout wallet"
// @Success 200 {object} dto.ClaimResponse
// @Failure 409 {object} middleware.ErrorResponse "Already claimed"
// @Failure 422 {object} middleware.ErrorResponse "Not eligible"
// @Failure 429 {object} middleware.ErrorResponse "Rate limited"
// @Router /giveaways/{id}/claim [post]
func (h *GiveawayHandler) claim(c *gin.Context) {
	var input dto.ClaimRequest
	// Body is optional
	if err := c.ShouldBindJSON(&input); err != nil && err != io.EOF {
		middleware.RespondError(c, errors.NewValidationError("body", err.Error()))
		return
	}

	result, err := h.service.SubmitClaim(c.Request.Context(), actorFromContext(c), c.Param("id"), input.WalletAddress)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ClaimResponse{
		Success:    true,
		Claim:      result.Claim,
		Settlement: result.Settlement,
		Message:    settlementMessage(result.Settlement),
	})
}

// @Summary Verify a tweet and claim
// @Description Fetches the tweet, checks the required keywords, whitelists the caller and claims
// @Tags claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Giveaway ID"
// @Param input body dto.VerifyRequest true "Tweet URL"
// @Success 200 {object} dto.VerificationResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid tweet URL"
// @Failure 422 {object} middleware.ErrorResponse "Keywords missing or not eligible"
// @Failure 502 {object} middleware.ErrorResponse "Tweet could not be fetched"
// @Router /giveaways/{id}/verify [post]
func (h *GiveawayHandler) verify(c *gin.Context) {
	var input dto.VerifyRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.RespondError(c, errors.NewValidationError("tweet_url", err.Error()))
		return
	}

	result, err := h.service.SubmitVerification(c.Request.Context(), actorFromContext(c), c.Param("id"), input.TweetURL, input.WalletAddress)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	resp := dto.VerificationResponse{
		Success:      true,
		Verified:     result.Verified,
		ClaimOutcome: result.Outcome,
		Claim:        result.Claim,
		Settlement:   result.Settlement,
	}
	if result.Outcome == models.ClaimOutcomeAlreadyClaimed {
		resp.Message = "Tweet verified, claim already recorded"
	} else {
		resp.Message = settlementMessage(result.Settlement)
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Cancel a giveaway
// @Tags giveaways
// @Produce json
// @Security BearerAuth
// @Param id path string true "Giveaway ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} middleware.ErrorResponse "Not the creator"
// @Failure 422 {object} middleware.ErrorResponse "Already terminal"
// @Router /giveaways/{id}/cancel [post]
func (h *GiveawayHandler) cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": models.GiveawayStatusCancelled})
}

// @Summary Current user stats
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserStats
// @Router /me/stats [get]
func (h *GiveawayHandler) getStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context(), actorFromContext(c))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary Current user activity
// @Description Up to 50 created giveaways and 50 claims, newest first
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ActivityResponse
// @Router /me/activity [get]
func (h *GiveawayHandler) getActivity(c *gin.Context) {
	items, err := h.service.GetActivity(c.Request.Context(), actorFromContext(c))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ActivityResponse{Items: items, GeneratedAt: time.Now().UTC()})
}
