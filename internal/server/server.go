// Package server hosts extrinsic decoding over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/danmuck/ledgerctl/internal/auth"
	"github.com/danmuck/ledgerctl/internal/config"
	"github.com/danmuck/ledgerctl/internal/observability"
	"github.com/danmuck/ledgerctl/internal/protocol"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	version         = "0.1.0"
	shutdownTimeout = 10 * time.Second
)

type Server struct {
	cfg      config.ServerConfig
	runtime  *protocol.Runtime
	router   *gin.Engine
	appeared time.Time
	ready    atomic.Bool
}

// New builds the engine and registers every route. The runtime must not be
// nil.
func New(cfg config.ServerConfig, rt *protocol.Runtime) (*Server, error) {
	if rt == nil {
		return nil, errors.New("server: runtime is required")
	}
	if err := config.ValidateServerConfig(cfg); err != nil {
		return nil, err
	}
	observability.RegisterMetrics()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.ID))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  normalizeOrigins(cfg.CorsOrigins),
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		cfg:      cfg,
		runtime:  rt,
		router:   r,
		appeared: time.Now(),
	}
	s.registerRoutes()
	s.ready.Store(true)
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on the configured address until ctx is done, then drains
// in-flight requests.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("id", s.cfg.ID).Str("addr", s.cfg.Addr).Msg("ledgerd listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.ready.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info().Str("id", s.cfg.ID).Msg("ledgerd shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) apiMiddleware() []gin.HandlerFunc {
	var chain []gin.HandlerFunc
	if s.cfg.RateLimit > 0 {
		chain = append(chain, RateLimit(rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst)))
	}
	if s.cfg.AuthToken != "" {
		chain = append(chain, auth.Require(auth.StaticToken{Token: s.cfg.AuthToken}))
	}
	return chain
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
