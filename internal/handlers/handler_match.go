package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/carrylink/carrylink_backend/internal/apperrors"
	"github.com/carrylink/carrylink_backend/internal/core/domain"
	portssvc "github.com/carrylink/carrylink_backend/internal/core/ports/services"
	"github.com/carrylink/carrylink_backend/internal/dto"
	"github.com/carrylink/carrylink_backend/internal/middleware"
)

// matchHandler handles HTTP requests related to matches.
type matchHandler struct {
	matchingService portssvc.MatchingSvcFacade
}

// newMatchHandler creates a new matchHandler.
func newMatchHandler(ms portssvc.MatchingSvcFacade) *matchHandler {
	return &matchHandler{
		matchingService: ms,
	}
}

// registerMatchRoutes registers routes related to matches. Discovery routes fan out
// to the external sources, so they take the extra rate limiting middleware.
func registerMatchRoutes(rg *gin.RouterGroup, matchingService portssvc.MatchingSvcFacade, discoveryMiddleware ...gin.HandlerFunc) {
	h := newMatchHandler(matchingService)

	matches := rg.Group("/matches")
	{
		matches.GET("", h.listMyMatches)
		matches.GET("/:matchID", h.getMatch)
		matches.POST("/:matchID/demander-confirmation", h.confirmByDemander)
		matches.POST("/:matchID/traveler-confirmation", h.confirmByTraveler)
		matches.POST("/:matchID/complete", h.completeMatch)
		matches.POST("/:matchID/cancel", h.cancelMatch)
	}

	demands := rg.Group("/demands")
	{
		demands.GET("/:demandID/matches", h.listMatchesForDemand)
		demands.POST("/:demandID/matches/discover", append(discoveryMiddleware, h.discoverForDemand)...)
	}

	journeys := rg.Group("/journeys")
	{
		journeys.GET("/:journeyID/matches", h.listMatchesForJourney)
		journeys.POST("/:journeyID/matches/discover", append(discoveryMiddleware, h.discoverForJourney)...)
	}
}

// respondMatchError maps service errors to HTTP responses consistently.
func respondMatchError(c *gin.Context, logger *slog.Logger, err error, action string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidState):
		logger.Warn("Invalid state for action", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Warn("Forbidden action", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("Service call failed", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

// discoverForDemand godoc
// @Summary Discover matches for a demand
// @Description Finds active journeys compatible with the demand, persists newly qualifying matches and returns the full match set for the demand
// @Tags matches
// @Produce json
// @Param demandID path string true "Demand ID"
// @Success 200 {array} dto.MatchDetailResponse
// @Failure 404 {object} map[string]string "Demand not found"
// @Failure 409 {object} map[string]string "Demand not in a matchable status"
// @Security BearerAuth
// @Router /demands/{demandID}/matches/discover [post]
func (h *matchHandler) discoverForDemand(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	demandID := c.Param("demandID")

	details, err := h.matchingService.FindMatchesForDemand(c.Request.Context(), demandID)
	if err != nil {
		respondMatchError(c, logger, err, "discover matches for demand")
		return
	}

	logger.Info("Discovery for demand completed", slog.String("demand_id", demandID), slog.Int("matches", len(details)))
	c.JSON(http.StatusOK, dto.ToListMatchDetailResponse(details))
}

// discoverForJourney godoc
// @Summary Discover matches for a journey
// @Description Finds pending demands compatible with the journey, persists newly qualifying matches and returns the full match set for the journey
// @Tags matches
// @Produce json
// @Param journeyID path int true "Journey ID"
// @Success 200 {array} dto.MatchDetailResponse
// @Failure 404 {object} map[string]string "Journey not found"
// @Failure 409 {object} map[string]string "Journey not in a matchable status"
// @Security BearerAuth
// @Router /journeys/{journeyID}/matches/discover [post]
func (h *matchHandler) discoverForJourney(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	journeyID, err := strconv.ParseInt(c.Param("journeyID"), 10, 64)
	if err != nil {
		logger.Warn("Invalid journey ID", slog.String("journey_id", c.Param("journeyID")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid journey ID"})
		return
	}

	details, err := h.matchingService.FindMatchesForJourney(c.Request.Context(), journeyID)
	if err != nil {
		respondMatchError(c, logger, err, "discover matches for journey")
		return
	}

	logger.Info("Discovery for journey completed", slog.Int64("journey_id", journeyID), slog.Int("matches", len(details)))
	c.JSON(http.StatusOK, dto.ToListMatchDetailResponse(details))
}

// getMatch godoc
// @Summary Get a match by ID
// @Description Retrieves details for a specific match by its ID
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Success 200 {object} dto.MatchResponse
// @Failure 404 {object} map[string]string "Match not found"
// @Security BearerAuth
// @Router /matches/{matchID} [get]
func (h *matchHandler) getMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	matchID := c.Param("matchID")

	match, err := h.matchingService.GetMatchByID(c.Request.Context(), matchID)
	if err != nil {
		respondMatchError(c, logger, err, "get match")
		return
	}

	c.JSON(http.StatusOK, dto.ToMatchResponse(match))
}

// listMyMatches godoc
// @Summary List the caller's matches
// @Description Retrieves a paginated list of matches where the caller is demander or traveler, optionally filtered by status
// @Tags matches
// @Produce json
// @Param status query string false "Match status filter"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param nextToken query string false "Pagination token from a previous page"
// @Success 200 {object} dto.ListMatchesResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Security BearerAuth
// @Router /matches [get]
func (h *matchHandler) listMyMatches(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ListMatchesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.Warn("Failed to bind query for listMyMatches", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var status *domain.MatchStatus
	if req.Status != nil {
		s := domain.MatchStatus(*req.Status)
		status = &s
	}

	details, nextToken, err := h.matchingService.ListMatchesForUser(c.Request.Context(), userID, status, req.Limit, req.NextToken)
	if err != nil {
		respondMatchError(c, logger, err, "list matches")
		return
	}

	c.JSON(http.StatusOK, dto.ListMatchesResponse{
		Matches:   dto.ToListMatchDetailResponse(details),
		NextToken: nextToken,
	})
}

// listMatchesForDemand godoc
// @Summary List matches for a demand
// @Description Retrieves all matches (active and historical) recorded for a demand
// @Tags matches
// @Produce json
// @Param demandID path string true "Demand ID"
// @Success 200 {array} dto.MatchDetailResponse
// @Security BearerAuth
// @Router /demands/{demandID}/matches [get]
func (h *matchHandler) listMatchesForDemand(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	demandID := c.Param("demandID")

	details, err := h.matchingService.ListMatchesForDemand(c.Request.Context(), demandID)
	if err != nil {
		respondMatchError(c, logger, err, "list matches for demand")
		return
	}

	c.JSON(http.StatusOK, dto.ToListMatchDetailResponse(details))
}

// listMatchesForJourney godoc
// @Summary List matches for a journey
// @Description Retrieves all matches (active and historical) recorded for a journey
// @Tags matches
// @Produce json
// @Param journeyID path int true "Journey ID"
// @Success 200 {array} dto.MatchDetailResponse
// @Security BearerAuth
// @Router /journeys/{journeyID}/matches [get]
func (h *matchHandler) listMatchesForJourney(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	journeyID, err := strconv.ParseInt(c.Param("journeyID"), 10, 64)
	if err != nil {
		logger.Warn("Invalid journey ID", slog.String("journey_id", c.Param("journeyID")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid journey ID"})
		return
	}

	details, err := h.matchingService.ListMatchesForJourney(c.Request.Context(), journeyID)
	if err != nil {
		respondMatchError(c, logger, err, "list matches for journey")
		return
	}

	c.JSON(http.StatusOK, dto.ToListMatchDetailResponse(details))
}

// confirmByDemander godoc
// @Summary Apply the demander-side confirmation
// @Description Accepts or rejects the match on behalf of the demand owner
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path string true "Match ID"
// @Param confirmation body dto.ConfirmMatchRequest true "Confirmation decision"
// @Success 200 {object} dto.MatchResponse
// @Failure 403 {object} map[string]string "Caller is not the demand owner"
// @Failure 404 {object} map[string]string "Match not found"
// @Failure 409 {object} map[string]string "Match no longer accepts confirmation"
// @Security BearerAuth
// @Router /matches/{matchID}/demander-confirmation [post]
func (h *matchHandler) confirmByDemander(c *gin.Context) {
	h.confirm(c, h.matchingService.ConfirmMatchByDemander, "confirm match as demander")
}

// confirmByTraveler godoc
// @Summary Apply the traveler-side confirmation
// @Description Accepts or rejects the match on behalf of the journey owner
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path string true "Match ID"
// @Param confirmation body dto.ConfirmMatchRequest true "Confirmation decision"
// @Success 200 {object} dto.MatchResponse
// @Failure 403 {object} map[string]string "Caller is not the journey owner"
// @Failure 404 {object} map[string]string "Match not found"
// @Failure 409 {object} map[string]string "Match no longer accepts confirmation"
// @Security BearerAuth
// @Router /matches/{matchID}/traveler-confirmation [post]
func (h *matchHandler) confirmByTraveler(c *gin.Context) {
	h.confirm(c, h.matchingService.ConfirmMatchByTraveler, "confirm match as traveler")
}

func (h *matchHandler) confirm(c *gin.Context, apply func(ctx context.Context, matchID string, callerUserID string, accept bool) (*domain.Match, error), action string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	matchID := c.Param("matchID")

	var req dto.ConfirmMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for confirmation", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	match, err := apply(c.Request.Context(), matchID, userID, *req.Accept)
	if err != nil {
		respondMatchError(c, logger, err, action)
		return
	}

	logger.Info("Confirmation applied",
		slog.String("match_id", matchID),
		slog.Bool("accepted", *req.Accept),
		slog.String("status", string(match.Status)))
	c.JSON(http.StatusOK, dto.ToMatchResponse(match))
}

// completeMatch godoc
// @Summary Complete a confirmed match
// @Description Marks a CONFIRMED match as COMPLETED
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Success 200 {object} dto.MatchResponse
// @Failure 404 {object} map[string]string "Match not found"
// @Failure 409 {object} map[string]string "Match is not CONFIRMED"
// @Security BearerAuth
// @Router /matches/{matchID}/complete [post]
func (h *matchHandler) completeMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	matchID := c.Param("matchID")

	match, err := h.matchingService.CompleteMatch(c.Request.Context(), matchID)
	if err != nil {
		respondMatchError(c, logger, err, "complete match")
		return
	}

	logger.Info("Match completed", slog.String("match_id", matchID))
	c.JSON(http.StatusOK, dto.ToMatchResponse(match))
}

// cancelMatch godoc
// @Summary Cancel a confirmed match
// @Description Marks a CONFIRMED match as CANCELLED
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Success 200 {object} dto.MatchResponse
// @Failure 404 {object} map[string]string "Match not found"
// @Failure 409 {object} map[string]string "Match is not CONFIRMED"
// @Security BearerAuth
// @Router /matches/{matchID}/cancel [post]
func (h *matchHandler) cancelMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	matchID := c.Param("matchID")

	match, err := h.matchingService.CancelMatch(c.Request.Context(), matchID)
	if err != nil {
		respondMatchError(c, logger, err, "cancel match")
		return
	}

	logger.Info("Match cancelled", slog.String("match_id", matchID))
	c.JSON(http.StatusOK, dto.ToMatchResponse(match))
}
