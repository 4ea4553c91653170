package handler

import (
	"context"

	integrationapp "github.com/Rafcin/openship/internal/application/integration"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PlatformService manages an owner's platform adapter definitions
type PlatformService interface {
	CreatePlatform(ctx context.Context, ownerID uuid.UUID, req integrationapp.CreatePlatformRequest) (*integrationapp.PlatformResponse, error)
	UpdatePlatform(ctx context.Context, ownerID, id uuid.UUID, req integrationapp.UpdatePlatformRequest) (*integrationapp.PlatformResponse, error)
	GetPlatform(ctx context.Context, ownerID, id uuid.UUID) (*integrationapp.PlatformResponse, error)
	ListPlatforms(ctx context.Context, ownerID uuid.UUID, kind string) ([]integrationapp.PlatformResponse, error)
	DeletePlatform(ctx context.Context, ownerID, id uuid.UUID) error
}

// PlatformHandler handles platform-related API endpoints
type PlatformHandler struct {
	BaseHandler
	platformService PlatformService
}

// NewPlatformHandler creates a new PlatformHandler
func NewPlatformHandler(platformService PlatformService) *PlatformHandler {
	return &PlatformHandler{platformService: platformService}
}

// ListPlatformsQuery filters platforms by kind
type ListPlatformsQuery struct {
	Kind string `form:"kind" binding:"omitempty,oneof=shop channel"`
}

// Create godoc
// @ID           createPlatform
//
//	@Summary		Create a platform
//	@Description	Define a shop or channel platform with its adapter targets
//	@Tags			platforms
//	@Accept			json
//	@Produce		json
//	@Param			request	body		integrationapp.CreatePlatformRequest	true	"Platform creation request"
//	@Success		201		{object}	APIResponse[integrationapp.PlatformResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/platforms [post]
func (h *PlatformHandler) Create(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req integrationapp.CreatePlatformRequest
	if !h.bindJSON(c, &req) {
		return
	}

	platform, err := h.platformService.CreatePlatform(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, platform)
}

// List godoc
// @ID           listPlatforms
//
//	@Summary		List platforms
//	@Tags			platforms
//	@Produce		json
//	@Param			kind	query		string	false	"shop or channel"
//	@Success		200		{object}	APIResponse[[]integrationapp.PlatformResponse]
//	@Failure		401		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/platforms [get]
func (h *PlatformHandler) List(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var q ListPlatformsQuery
	if !h.bindQuery(c, &q) {
		return
	}

	platforms, err := h.platformService.ListPlatforms(c.Request.Context(), ownerID, q.Kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, platforms)
}

// Get godoc
// @ID           getPlatform
//
//	@Summary		Get a platform
//	@Tags			platforms
//	@Produce		json
//	@Param			id	path		string	true	"Platform ID"	format(uuid)
//	@Success		200	{object}	APIResponse[integrationapp.PlatformResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/platforms/{id} [get]
func (h *PlatformHandler) Get(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "platform")
	if !ok {
		return
	}

	platform, err := h.platformService.GetPlatform(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, platform)
}

// Update godoc
// @ID           updatePlatform
//
//	@Summary		Update a platform
//	@Tags			platforms
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string									true	"Platform ID"	format(uuid)
//	@Param			request	body		integrationapp.UpdatePlatformRequest	true	"Platform update request"
//	@Success		200		{object}	APIResponse[integrationapp.PlatformResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/platforms/{id} [put]
func (h *PlatformHandler) Update(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "platform")
	if !ok {
		return
	}
	var req integrationapp.UpdatePlatformRequest
	if !h.bindJSON(c, &req) {
		return
	}

	platform, err := h.platformService.UpdatePlatform(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, platform)
}

// Delete godoc
// @ID           deletePlatform
//
//	@Summary		Delete a platform
//	@Tags			platforms
//	@Param			id	path	string	true	"Platform ID"	format(uuid)
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/platforms/{id} [delete]
func (h *PlatformHandler) Delete(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "platform")
	if !ok {
		return
	}

	if err := h.platformService.DeletePlatform(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes mounts the platform endpoints
func (h *PlatformHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/platforms")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
