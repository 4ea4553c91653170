package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/matching"
	"github.com/Rafcin/openship/internal/domain/routing"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/Rafcin/openship/internal/infrastructure/logger"
	"github.com/Rafcin/openship/internal/interfaces/http/dto"
	"github.com/Rafcin/openship/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// ownerID returns the authenticated owner or writes a 401
func (h *BaseHandler) ownerID(c *gin.Context) (uuid.UUID, bool) {
	id := middleware.GetOwnerID(c)
	if id == uuid.Nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	return id, true
}

// pathID parses the named path parameter or writes a 400
func (h *BaseHandler) pathID(c *gin.Context, param, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.BadRequest(c, "Invalid "+label+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON binds the body or writes a validation error
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds query parameters or writes a validation error
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 accepted response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError maps service errors to HTTP responses.
//
//	DuplicateMatchError          409
//	WebhookSignatureError        401
//	AdapterNotFoundError         422
//	DomainError                  by code, INVALID_* 400
//	*NotFound sentinels          404
//	unroutable items             422
//	adapter call failures        502
//	anything else                500
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	log := logger.L(c.Request.Context())
	_ = c.Error(err)

	var dup *matching.DuplicateMatchError
	if errors.As(err, &dup) {
		h.Error(c, http.StatusConflict, dto.ErrCodeDuplicateMatch, "A match with the same input already exists")
		return
	}

	if integration.IsSignatureError(err) {
		log.Warn("Webhook signature rejected", zap.Error(err))
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeWebhookSignature, "Webhook signature verification failed")
		return
	}

	var notFound *integration.AdapterNotFoundError
	if errors.As(err, &notFound) {
		h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeAdapterNotFound, notFound.Error())
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		status := dto.GetHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", zap.Error(err))
		}
		h.Error(c, status, code, domainErr.Message)
		return
	}

	switch {
	case errors.Is(err, integration.ErrShopNotFound),
		errors.Is(err, integration.ErrChannelNotFound),
		errors.Is(err, integration.ErrPlatformNotFound),
		errors.Is(err, matching.ErrMatchNotFound),
		errors.Is(err, routing.ErrLinkNotFound):
		h.NotFound(c, "Resource not found")
		return
	case errors.Is(err, integration.ErrUnsupportedTopic),
		errors.Is(err, matching.ErrEmptyInput),
		errors.Is(err, matching.ErrEmptyOutput),
		errors.Is(err, matching.ErrInvalidTuple):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, err.Error())
		return
	case errors.Is(err, matching.ErrNoMatch),
		errors.Is(err, routing.ErrNoLinkMatched),
		isPartialMatch(err):
		h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeBusinessRule, err.Error())
		return
	case isAdapterFailure(err):
		log.Warn("Platform call failed", zap.Error(err))
		h.Error(c, http.StatusBadGateway, dto.ErrCodeAdapterFailed, "The platform call failed")
		return
	}

	log.Error("Unhandled error", zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}

func isAdapterFailure(err error) bool {
	var httpErr *integration.AdapterHTTPError
	var execErr *integration.AdapterExecutionError
	return errors.As(err, &httpErr) ||
		errors.As(err, &execErr) ||
		errors.Is(err, integration.ErrInvalidAdapterResponse) ||
		errors.Is(err, context.DeadlineExceeded)
}

func isPartialMatch(err error) bool {
	var partial *matching.PartialMatchError
	return errors.As(err, &partial)
}
