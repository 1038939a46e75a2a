package router

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/gateway"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config wires the cross-cutting dependencies of the HTTP surface
type Config struct {
	Logger         *zap.Logger
	AuthService    *gateway.AuthService
	OperatorTokens *auth.OperatorTokenService
	MaxBodySize    int64
}

// Router assembles the three route surfaces: the credentialed integration
// API, the public webhook endpoint, and the operator admin API
type Router struct {
	engine      *gin.Engine
	cfg         Config
	system      []RouteRegistrar
	integration []RouteRegistrar
	public      []RouteRegistrar
	admin       []RouteRegistrar
}

// NewRouter creates a new Router
func NewRouter(engine *gin.Engine, cfg Config) *Router {
	return &Router{engine: engine, cfg: cfg}
}

// System registers routes served without authentication at the root
func (r *Router) System(registrars ...RouteRegistrar) *Router {
	r.system = append(r.system, registrars...)
	return r
}

// Integration registers routes behind integration credential auth
func (r *Router) Integration(registrars ...RouteRegistrar) *Router {
	r.integration = append(r.integration, registrars...)
	return r
}

// Public registers integration routes that carry their own verification,
// such as the webhook receiver
func (r *Router) Public(registrars ...RouteRegistrar) *Router {
	r.public = append(r.public, registrars...)
	return r
}

// Admin registers routes behind operator token auth
func (r *Router) Admin(registrars ...RouteRegistrar) *Router {
	r.admin = append(r.admin, registrars...)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	r.engine.Use(middleware.RequestID())
	if r.cfg.Logger != nil {
		r.engine.Use(middleware.RequestLogger(r.cfg.Logger))
	}
	if r.cfg.MaxBodySize > 0 {
		r.engine.Use(middleware.BodyLimit(r.cfg.MaxBodySize))
	}

	root := r.engine.Group("/")
	for _, registrar := range r.system {
		registrar.RegisterRoutes(root)
	}

	integration := r.engine.Group("/integration")
	for _, registrar := range r.public {
		registrar.RegisterRoutes(integration)
	}

	credentialed := integration.Group("/")
	credentialed.Use(middleware.IntegrationAuth(r.cfg.AuthService))
	for _, registrar := range r.integration {
		registrar.RegisterRoutes(credentialed)
	}

	admin := r.engine.Group("/admin")
	admin.Use(middleware.OperatorAuth(r.cfg.OperatorTokens))
	for _, registrar := range r.admin {
		registrar.RegisterRoutes(admin)
	}
}
