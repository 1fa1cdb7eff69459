/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from X-Forwarded-For / X-Real-IP
  3. Logger:     logrus access log
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests from tool-calling clients

ROUTE GROUPS:
  /health, /mcp/health      Public
  /balance                  Bearer auth + rate limit
  /vacation-requests        Bearer auth + rate limit
  /mcp, /mcp/*              Bearer auth + rate limit
  /admin/*                  Bearer auth + rate limit, only when enabled

SEE ALSO:
  - handlers.go: REST handlers
  - mcp.go: Tool-calling handlers
  - auth.go: Authentication and rate limiting
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/vacation-engine/ratelimit"
)

// RouterConfig carries the router's policy knobs.
type RouterConfig struct {
	APIKey         string
	Limiter        ratelimit.Limiter // nil disables rate limiting
	AllowedOrigins []string
	EnableAdmin    bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&LogrusFormatter{Logger: h.Logger}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", EmployeeHeader},
		ExposedHeaders:   []string{"WWW-Authenticate"},
		AllowCredentials: true,
	}))

	// Public
	r.Get("/health", h.Health)
	r.Get("/mcp/health", h.MCPHealth)

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(RequireAPIKey(cfg.APIKey))
		if cfg.Limiter != nil {
			r.Use(RateLimit(cfg.Limiter, h.Logger))
		}

		r.Get("/balance", h.GetBalance)
		r.Get("/vacation-requests", h.ListVacationRequests)
		r.Post("/vacation-requests", h.CreateVacationRequest)

		// Tool calling. /mcp and /mcp/ are distinct routes with different
		// list formats.
		r.Get("/mcp", h.ListOpenAITools)
		r.Post("/mcp", h.CallTool)
		r.Get("/mcp/", h.ListAgentBuilderTools)
		r.Post("/mcp/", h.CallTool)
		r.Get("/mcp/tools", h.ListAgentBuilderTools)
		r.Post("/mcp/tools/call", h.CallTool)
		r.Post("/mcp/rpc", h.RPC.ServeHTTP)

		if cfg.EnableAdmin {
			r.Route("/admin", func(r chi.Router) {
				r.Get("/scenarios", h.ListScenarios)
				r.Get("/scenarios/current", h.GetCurrentScenario)
				r.Post("/scenarios/load", h.LoadScenario)
				r.Post("/reset", h.ResetLedger)
			})
		}
	})

	return r
}
