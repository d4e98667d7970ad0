package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "hookgate/internal/api/context"
	"hookgate/internal/api/handlers"
	"hookgate/internal/api/middleware"
	"hookgate/internal/pkg/errors"
	"hookgate/internal/platform/auth"
)

type Dependencies struct {
	IngestHandler   *handlers.IngestHandler
	EndpointHandler *handlers.EndpointHandler
	DeliveryHandler *handlers.DeliveryHandler
	AuthHandler     *handlers.AuthHandler
	APIKeyHandler   *handlers.APIKeyHandler
	HealthHandler   *handlers.HealthHandler
	MetricsHandler  *handlers.MetricsHandler
	AuditHandler    *handlers.AuditHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	// Public ingest endpoint: the sender authenticates via the signature
	// header, not a bearer token.
	router.POST("/ingest/:endpoint_slug",
		chain(deps.IngestHandler.Receive, middleware.RateLimit("ingest")))

	// Authentication
	router.POST("/api/v1/auth/login", wrap(deps.AuthHandler.Login))
	router.POST("/api/v1/auth/refresh", wrap(deps.AuthHandler.Refresh))

	authMid := deps.AuthMiddleware

	// Endpoint management
	router.POST("/api/v1/endpoints",
		chain(deps.EndpointHandler.Create, authMid.Handle, requireRole("admin"), middleware.RateLimit("api_write")))
	router.GET("/api/v1/endpoints",
		chain(deps.EndpointHandler.List, authMid.Handle, middleware.RateLimit("api_read")))
	router.GET("/api/v1/endpoints/:endpoint_id",
		chain(deps.EndpointHandler.Get, authMid.Handle, middleware.RateLimit("api_read")))
	router.PATCH("/api/v1/endpoints/:endpoint_id",
		chain(deps.EndpointHandler.Update, authMid.Handle, requireRole("admin"), middleware.RateLimit("api_write")))
	router.DELETE("/api/v1/endpoints/:endpoint_id",
		chain(deps.EndpointHandler.Delete, authMid.Handle, requireRole("admin"), middleware.RateLimit("api_write")))
	router.POST("/api/v1/endpoints/:endpoint_id/rotate-secret",
		chain(deps.EndpointHandler.RotateSecret, authMid.Handle, requireRole("admin"), middleware.RateLimit("api_write")))

	// Stored deliveries and rejections
	router.GET("/api/v1/endpoints/:endpoint_id/deliveries",
		chain(deps.DeliveryHandler.ListByEndpoint, authMid.Handle, middleware.RateLimit("api_read")))
	router.GET("/api/v1/endpoints/:endpoint_id/rejections",
		chain(deps.DeliveryHandler.ListRejections, authMid.Handle, middleware.RateLimit("api_read")))
	router.GET("/api/v1/deliveries/:delivery_id",
		chain(deps.DeliveryHandler.Get, authMid.Handle, middleware.RateLimit("api_read")))
	router.GET("/api/v1/deliveries/:delivery_id/payload",
		chain(deps.DeliveryHandler.GetPayload, authMid.Handle, middleware.RateLimit("api_read")))

	// API keys
	router.POST("/api/v1/api-keys",
		chain(deps.APIKeyHandler.Create, authMid.Handle, requireRole("admin"), middleware.RateLimit("api_write")))
	router.GET("/api/v1/api-keys",
		chain(deps.APIKeyHandler.List, authMid.Handle, middleware.RateLimit("api_read")))
	router.DELETE("/api/v1/api-keys/:key_id",
		chain(deps.APIKeyHandler.Revoke, authMid.Handle, requireRole("admin"), middleware.RateLimit("api_write")))

	// Audit trail
	router.GET("/api/v1/audit",
		chain(deps.AuditHandler.List, authMid.Handle, requireRole("admin"), middleware.RateLimit("api_read")))

	// Operational
	router.GET("/healthz", wrap(deps.HealthHandler.Check))
	router.GET("/metrics", wrap(deps.MetricsHandler.Export))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}

func requireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

			allowed := false
			for _, role := range roles {
				if claims.Role == role {
					allowed = true
					break
				}
			}

			if !allowed {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
				return
			}

			next(w, r)
		}
	}
}
