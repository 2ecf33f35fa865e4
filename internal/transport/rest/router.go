package rest

import (
	"log/slog"
	"net/http"

	"feudlive/internal/metrics"
	"feudlive/internal/repository"
	"feudlive/internal/service"
	"feudlive/internal/transport/rest/handler"
	"feudlive/internal/transport/rest/middleware"
	"feudlive/internal/transport/ws"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	Sessions *service.SessionService
	Games    *service.GameService
	Auth     *service.AuthService
	Results  repository.ResultRepo
	Hub      *ws.Hub
	Metrics  *metrics.Recorder
	Logger   *slog.Logger
	Origins  []string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(c.Sessions, c.Results, c.Logger)
	wsHandler := ws.NewHandler(c.Hub, c.Games, c.Auth, c.Logger, c.Origins)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.Auth)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.Origins))
	r.Use(middleware.Logging(c.Logger))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{code}", sessionHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{code}/join", sessionHandler.Join).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{code}/scoreboard", sessionHandler.Scoreboard).Methods("GET", "OPTIONS")

	// WebSocket routes (token in query param)
	v1.HandleFunc("/ws/sessions/{code}/host", wsHandler.HostWS).Methods("GET")
	v1.HandleFunc("/ws/sessions/{code}/player", wsHandler.PlayerWS).Methods("GET")
	v1.HandleFunc("/ws/sessions/{code}/observer", wsHandler.ObserverWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", c.Metrics.Handler()).Methods("GET")

	// Host routes (require host auth)
	hostRoutes := v1.NewRoute().Subrouter()
	hostRoutes.Use(authMW.RequireHost)
	hostRoutes.HandleFunc("/sessions/{code}/result", sessionHandler.Result).Methods("GET", "OPTIONS")

	// Player routes (require player auth)
	playerRoutes := v1.NewRoute().Subrouter()
	playerRoutes.Use(authMW.RequirePlayer)
	playerRoutes.HandleFunc("/sessions/{code}/me", sessionHandler.Me).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(origins []string) mux.MiddlewareFunc {
	allowAll := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
