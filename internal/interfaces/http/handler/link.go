package handler

import (
	"context"

	routingapp "github.com/Rafcin/openship/internal/application/routing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LinkService manages routing links between shops and channels
type LinkService interface {
	CreateLink(ctx context.Context, ownerID uuid.UUID, req routingapp.CreateLinkRequest) (*routingapp.LinkResponse, error)
	DeleteLink(ctx context.Context, ownerID, linkID uuid.UUID) error
}

// LinkHandler handles link-related API endpoints
type LinkHandler struct {
	BaseHandler
	linkService LinkService
}

// NewLinkHandler creates a new LinkHandler
func NewLinkHandler(linkService LinkService) *LinkHandler {
	return &LinkHandler{linkService: linkService}
}

// Create godoc
// @ID           createLink
//
//	@Summary		Create a link
//	@Description	Append a link to the shop's ranking. An empty filter matches every order.
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			request	body		routingapp.CreateLinkRequest	true	"Link creation request"
//	@Success		201		{object}	APIResponse[routingapp.LinkResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/links [post]
func (h *LinkHandler) Create(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req routingapp.CreateLinkRequest
	if !h.bindJSON(c, &req) {
		return
	}

	link, err := h.linkService.CreateLink(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, link)
}

// Delete godoc
// @ID           deleteLink
//
//	@Summary		Delete a link
//	@Tags			links
//	@Param			id	path	string	true	"Link ID"	format(uuid)
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/links/{id} [delete]
func (h *LinkHandler) Delete(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "link")
	if !ok {
		return
	}

	if err := h.linkService.DeleteLink(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes mounts the link endpoints
func (h *LinkHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/links")
	g.POST("", h.Create)
	g.DELETE("/:id", h.Delete)
}
