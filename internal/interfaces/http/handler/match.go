package handler

import (
	"context"

	matchingapp "github.com/Rafcin/openship/internal/application/matching"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MatchService manages shop item to channel item matches
type MatchService interface {
	CreateMatch(ctx context.Context, ownerID uuid.UUID, req matchingapp.CreateMatchRequest) (*matchingapp.MatchResponse, error)
	UpdateMatch(ctx context.Context, ownerID, matchID uuid.UUID, req matchingapp.UpdateMatchRequest) (*matchingapp.MatchResponse, error)
	DeleteMatch(ctx context.Context, ownerID, matchID uuid.UUID) error
	GetMatch(ctx context.Context, ownerID, matchID uuid.UUID) (*matchingapp.MatchResponse, error)
	ListMatches(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]matchingapp.MatchResponse, int64, error)
	FetchLiveExternalDetails(ctx context.Context, ownerID, matchID uuid.UUID) ([]matchingapp.LiveItemDetail, error)
}

// ListMatchesQuery pages through matches
type ListMatchesQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MatchHandler handles match-related API endpoints
type MatchHandler struct {
	BaseHandler
	matchService MatchService
}

// NewMatchHandler creates a new MatchHandler
func NewMatchHandler(matchService MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// Create godoc
// @ID           createMatch
//
//	@Summary		Create a match
//	@Description	Map a set of shop items to the channel items that fulfill them
//	@Tags			matches
//	@Accept			json
//	@Produce		json
//	@Param			request	body		matchingapp.CreateMatchRequest	true	"Match creation request"
//	@Success		201		{object}	APIResponse[matchingapp.MatchResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/matches [post]
func (h *MatchHandler) Create(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req matchingapp.CreateMatchRequest
	if !h.bindJSON(c, &req) {
		return
	}

	match, err := h.matchService.CreateMatch(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, match)
}

// List godoc
// @ID           listMatches
//
//	@Summary		List matches
//	@Tags			matches
//	@Produce		json
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Success		200			{object}	APIResponse[[]matchingapp.MatchResponse]
//	@Security		BearerAuth
//	@Router			/matches [get]
func (h *MatchHandler) List(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var q ListMatchesQuery
	if !h.bindQuery(c, &q) {
		return
	}

	filter := shared.DefaultFilter()
	filter.Page, filter.PageSize = normalizePage(q.Page, q.PageSize)
	if q.OrderDir != "" {
		filter.OrderDir = q.OrderDir
	}

	matches, total, err := h.matchService.ListMatches(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, matches, total, filter.Page, filter.PageSize)
}

// Get godoc
// @ID           getMatch
//
//	@Summary		Get a match
//	@Tags			matches
//	@Produce		json
//	@Param			id	path		string	true	"Match ID"	format(uuid)
//	@Success		200	{object}	APIResponse[matchingapp.MatchResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/matches/{id} [get]
func (h *MatchHandler) Get(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "match")
	if !ok {
		return
	}

	match, err := h.matchService.GetMatch(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, match)
}

// Update godoc
// @ID           updateMatch
//
//	@Summary		Replace a match
//	@Tags			matches
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Match ID"	format(uuid)
//	@Param			request	body		matchingapp.UpdateMatchRequest	true	"Match update request"
//	@Success		200		{object}	APIResponse[matchingapp.MatchResponse]
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/matches/{id} [put]
func (h *MatchHandler) Update(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "match")
	if !ok {
		return
	}
	var req matchingapp.UpdateMatchRequest
	if !h.bindJSON(c, &req) {
		return
	}

	match, err := h.matchService.UpdateMatch(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, match)
}

// Delete godoc
// @ID           deleteMatch
//
//	@Summary		Delete a match
//	@Tags			matches
//	@Param			id	path	string	true	"Match ID"	format(uuid)
//	@Success		204
//	@Security		BearerAuth
//	@Router			/matches/{id} [delete]
func (h *MatchHandler) Delete(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "match")
	if !ok {
		return
	}

	if err := h.matchService.DeleteMatch(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// LiveDetails godoc
// @ID           getMatchLiveDetails
//
//	@Summary		Fetch live channel item details
//	@Description	Price and availability of each output item, fetched from its channel
//	@Tags			matches
//	@Produce		json
//	@Param			id	path		string	true	"Match ID"	format(uuid)
//	@Success		200	{object}	APIResponse[[]matchingapp.LiveItemDetail]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		502	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/matches/{id}/live [get]
func (h *MatchHandler) LiveDetails(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "match")
	if !ok {
		return
	}

	details, err := h.matchService.FetchLiveExternalDetails(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, details)
}

// RegisterRoutes mounts the match endpoints
func (h *MatchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/matches")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/live", h.LiveDetails)
}
