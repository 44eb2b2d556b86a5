package debug

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fxcore/internal/config"
)

func metricsHandler() http.Handler {
	return promhttp.Handler()
}

// Server is the debug HTTP server with its stats websocket hub.
type Server struct {
	cfg     config.DebugConfig
	stats   StatsProvider
	router  *chi.Mux
	hub     *StatsHub
	limiter *IPRateLimiter
	addr    string
}

// NewServer builds the debug server. Background workers and the listener
// start only in Start, so tests can use Router directly.
func NewServer(cfg config.DebugConfig, stats StatsProvider, playback PlaybackControl, tuning TuningControl) *Server {
	s := &Server{
		cfg:   cfg,
		stats: stats,
		hub:   NewStatsHub(),
		limiter: NewIPRateLimiter(RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit,
			Burst:             cfg.RateBurst,
		}),
	}
	s.router = NewRouter(RouterConfig{
		Stats:          stats,
		Playback:       playback,
		Tuning:         tuning,
		Hub:            s.hub,
		RateLimiter:    s.limiter,
		DisableLogging: true,
	})
	return s
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the stats websocket hub.
func (s *Server) Hub() *StatsHub {
	return s.hub
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	return s.addr
}

// Start binds the listener and serves until ctx is cancelled. Binding
// errors are returned; serving errors are logged.
func (s *Server) Start(ctx context.Context) error {
	addr := localOnly(s.cfg.ListenAddr)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("debug server listen on %s: %w", addr, err)
	}
	s.addr = ln.Addr().String()

	go s.hub.Run(ctx)
	s.hub.StartBroadcastLoop(ctx, s.stats, s.cfg.StatsInterval)

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("📊 Debug server starting on %s", s.addr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", s.addr)
		log.Printf("   - metrics: http://%s/metrics", s.addr)
		log.Printf("   - stats:   ws://%s/ws", s.addr)

		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		s.limiter.Stop()
		log.Println("📊 Debug server stopped")
	}()

	return nil
}

// localOnly forces a loopback host unless ALLOW_DEBUG_EXTERNAL=true. pprof
// must never be reachable from outside the machine by accident.
func localOnly(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		log.Printf("⚠️ Invalid debug address %q, using 127.0.0.1:6060", addr)
		return "127.0.0.1:6060"
	}
	if host == "localhost" {
		return addr
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return addr
	}
	if os.Getenv("ALLOW_DEBUG_EXTERNAL") == "true" {
		return addr
	}
	log.Println("⚠️ Debug server forced to localhost for security")
	return net.JoinHostPort("127.0.0.1", port)
}
