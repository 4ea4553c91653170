package handler

import (
	"context"

	integrationapp "github.com/Rafcin/openship/internal/application/integration"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OAuthService runs the platform OAuth handshake
type OAuthService interface {
	Start(ctx context.Context, ownerID uuid.UUID, req integrationapp.OAuthStartRequest) (*integrationapp.OAuthStartResponse, error)
	Callback(ctx context.Context, req integrationapp.OAuthCallbackRequest) (*integrationapp.OAuthCallbackResponse, error)
}

// OAuthHandler handles the OAuth start and callback endpoints
type OAuthHandler struct {
	BaseHandler
	oauthService OAuthService
}

// NewOAuthHandler creates a new OAuthHandler
func NewOAuthHandler(oauthService OAuthService) *OAuthHandler {
	return &OAuthHandler{oauthService: oauthService}
}

// Start godoc
// @ID           startOAuth
//
//	@Summary		Start an OAuth connection
//	@Description	Returns the platform authorization URL and stores the state for the callback
//	@Tags			oauth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		integrationapp.OAuthStartRequest	true	"OAuth start request"
//	@Success		200		{object}	APIResponse[integrationapp.OAuthStartResponse]
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/oauth/start [post]
func (h *OAuthHandler) Start(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req integrationapp.OAuthStartRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.oauthService.Start(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Callback godoc
// @ID           oauthCallback
//
//	@Summary		OAuth callback
//	@Description	Exchanges the code and creates the shop or channel named by the stored state
//	@Tags			oauth
//	@Produce		json
//	@Param			code	query		string	true	"Authorization code"
//	@Param			state	query		string	false	"State issued by start"
//	@Param			shop	query		string	false	"Platform domain"
//	@Success		201		{object}	APIResponse[integrationapp.OAuthCallbackResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/oauth/callback [get]
func (h *OAuthHandler) Callback(c *gin.Context) {
	var req integrationapp.OAuthCallbackRequest
	if !h.bindQuery(c, &req) {
		return
	}
	if req.State == "" && req.Domain == "" {
		h.BadRequest(c, "state or shop is required")
		return
	}

	resp, err := h.oauthService.Callback(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// RegisterRoutes mounts the OAuth endpoints. The callback path must match
// integration.CallbackPath, which the JWT middleware skips.
func (h *OAuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/oauth")
	g.POST("/start", h.Start)
	g.GET("/callback", h.Callback)
}
