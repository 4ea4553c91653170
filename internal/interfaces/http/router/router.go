// Package router assembles the gin engine from the HTTP handlers.
package router

import (
	"net/http"
	"sort"

	"github.com/Rafcin/openship/internal/interfaces/http/dto"
	"github.com/Rafcin/openship/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// HealthRegistrar mounts unversioned endpoints such as /health
type HealthRegistrar interface {
	RegisterHealthRoutes(r gin.IRoutes)
}

// Router manages HTTP route registration
type Router struct {
	engine        *gin.Engine
	apiVersion    string
	apiMiddleware []gin.HandlerFunc
	health        []HealthRegistrar
	registrars    []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithAPIMiddleware adds middleware that runs only under /api/<version>.
// Health routes are mounted outside it.
func WithAPIMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.apiMiddleware = append(r.apiMiddleware, mw...)
	}
}

// WithHealthRoutes mounts health endpoints on the engine root
func WithHealthRoutes(p ...HealthRegistrar) RouterOption {
	return func(r *Router) {
		r.health = append(r.health, p...)
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	for _, p := range r.health {
		p.RegisterHealthRoutes(r.engine)
	}

	api := r.engine.Group(r.BasePath())
	if len(r.apiMiddleware) > 0 {
		api.Use(r.apiMiddleware...)
	}
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}

	r.engine.HandleMethodNotAllowed = true
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	r.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeBadRequest, "Method not allowed", middleware.GetRequestID(c)))
	})
}

// BasePath returns the versioned API prefix
func (r *Router) BasePath() string {
	return "/api/" + r.apiVersion
}

// Routes lists "METHOD path" for every registered route, sorted
func (r *Router) Routes() []string {
	infos := r.engine.Routes()
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		out = append(out, info.Method+" "+info.Path)
	}
	sort.Strings(out)
	return out
}
