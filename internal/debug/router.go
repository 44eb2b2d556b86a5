package debug

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"fxcore/internal/particles"
	"fxcore/internal/world"
)

// StatsProvider publishes the latest particle stats. particles.System
// satisfies it and is safe to read from any goroutine.
type StatsProvider interface {
	Stats() particles.Stats
}

// PlaybackControl is the demo controller exposed over HTTP.
type PlaybackControl interface {
	Info() particles.PlaybackInfo
	SetPaused(paused bool)
	SetSpeed(speed float64)
}

// TuningControl is the live projectile tuning exposed over HTTP.
type TuningControl interface {
	All() map[string]world.ProjectileParams
	Set(w particles.Weapon, p world.ProjectileParams)
}

// RouterConfig contains everything the debug router serves. Only Stats is
// required; routes for nil controls are not mounted.
type RouterConfig struct {
	Stats    StatsProvider
	Playback PlaybackControl
	Tuning   TuningControl
	Hub      *StatsHub

	// RateLimiter is an optional pre-configured limiter. If nil one is
	// created from RateLimitConfig, or DefaultRateLimitConfig.
	RateLimiter     *IPRateLimiter
	RateLimitConfig *RateLimitConfig

	// CORSOrigins defaults to localhost on any port.
	CORSOrigins []string

	// DisableLogging drops the request logger (tests, benchmarks).
	DisableLogging bool
}

type routerHandlers struct {
	stats    StatsProvider
	playback PlaybackControl
	tuning   TuningControl
}

// NewRouter builds the debug router. It starts no goroutines other than
// the limiter cleanup when it creates its own limiter, and opens no
// listeners, so it is safe to use with httptest.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware(routePattern))

	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	h := &routerHandlers{
		stats:    cfg.Stats,
		playback: cfg.Playback,
		tuning:   cfg.Tuning,
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metricsHandler())
	r.Mount("/debug", middleware.Profiler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", h.handleGetStats)

		if cfg.Playback != nil {
			r.Get("/playback", h.handleGetPlayback)
			r.Post("/playback", h.handleSetPlayback)
		}
		if cfg.Tuning != nil {
			r.Get("/tuning", h.handleGetTuning)
			r.Put("/tuning/{weapon}", h.handleSetTuning)
		}
	})

	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.HandleWebSocket)
	}

	return r
}

// routePattern labels requests by route template so metrics stay bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "other"
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	s := h.stats.Stats()
	writeJSON(w, map[string]any{
		"stats":     s,
		"totalLive": s.TotalLive(),
	})
}

func (h *routerHandlers) handleGetPlayback(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.playback.Info())
}

func (h *routerHandlers) handleSetPlayback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paused *bool    `json:"paused"`
		Speed  *float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Speed != nil && *req.Speed <= 0 {
		writeError(w, "speed must be positive", http.StatusBadRequest)
		return
	}
	if !h.playback.Info().Demo && req.Paused != nil {
		writeError(w, "cannot pause a live game", http.StatusConflict)
		return
	}

	if req.Paused != nil {
		h.playback.SetPaused(*req.Paused)
	}
	if req.Speed != nil {
		h.playback.SetSpeed(*req.Speed)
	}
	info := h.playback.Info()
	log.Printf("⏯️ Playback updated: paused=%v speed=%.2f", info.Paused, info.Speed)
	writeJSON(w, info)
}

func (h *routerHandlers) handleGetTuning(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.tuning.All())
}

func (h *routerHandlers) handleSetTuning(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "weapon")
	weapon, ok := particles.ParseWeapon(name)
	if !ok {
		writeError(w, "unknown weapon: "+name, http.StatusNotFound)
		return
	}

	var p world.ProjectileParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if p.Speed < 0 {
		writeError(w, "speed must not be negative", http.StatusBadRequest)
		return
	}

	h.tuning.Set(weapon, p)
	log.Printf("🎯 Tuning updated: %s curvature=%.2f speed=%.0f", name, p.Curvature, p.Speed)
	writeJSON(w, h.tuning.All())
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
