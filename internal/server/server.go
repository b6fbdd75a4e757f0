// Package server wires the core components together behind the HTTP and
// WebSocket surface and owns their lifecycle.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	apihttp "github.com/hovershell/core/internal/api/http"
	"github.com/hovershell/core/internal/api/middleware"
	"github.com/hovershell/core/internal/api/ws"
	"github.com/hovershell/core/internal/events"
	"github.com/hovershell/core/internal/infrastructure/config"
	"github.com/hovershell/core/internal/infrastructure/logging"
	"github.com/hovershell/core/internal/infrastructure/monitoring"
	"github.com/hovershell/core/internal/provider"
	"github.com/hovershell/core/internal/router"
	"github.com/hovershell/core/internal/session"
	"github.com/hovershell/core/internal/timer"
	"github.com/hovershell/core/internal/trigger"
)

const shutdownTimeout = 10 * time.Second

// Server owns the component graph and the HTTP listener.
type Server struct {
	cfg *config.Config
	log *logging.Logger

	engine      *gin.Engine
	httpSrv     *http.Server
	bus         *events.Bus
	timers      *timer.Service
	coordinator *trigger.Coordinator
	sessions    *session.Registry
	router      *router.Router
}

// New builds the full component graph from validated configuration.
func New(cfg *config.Config, log *logging.Logger) (*Server, error) {
	promReg := prometheus.NewRegistry()
	metrics := monitoring.NewMetricsWith(promReg)
	bus := events.NewBus()
	timers := timer.New(64)

	coordinator := trigger.New(cfg.Surface, timers, bus, metrics, log)
	for _, binding := range cfg.Triggers {
		if err := coordinator.RegisterBinding(binding); err != nil {
			return nil, err
		}
	}

	providers := provider.NewRegistry()
	if err := providers.Load(cfg.Providers); err != nil {
		return nil, err
	}
	adapters := provider.NewFactory(metrics, log)

	sessions := session.NewRegistry(cfg.Terminal, session.NewPTYFactory(log), bus, metrics, log)
	rt := router.New(providers, adapters, sessions, metrics, log)
	sessions.SetDispatcher(rt)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		engine.Use(middleware.RateLimit(cfg.RateLimit))
	}

	handlers := apihttp.NewHandlers(sessions, providers, coordinator, rt, promReg, log)
	handlers.Register(engine)

	wsHandler := ws.NewHandler(bus, sessions, coordinator, rt, metrics, log)
	engine.GET("/stream", wsHandler.HandleConnection)

	return &Server{
		cfg:         cfg,
		log:         log,
		engine:      engine,
		bus:         bus,
		timers:      timers,
		coordinator: coordinator,
		sessions:    sessions,
		router:      rt,
	}, nil
}

// Run serves until ctx is cancelled, then shuts the component graph down in
// dependency order.
func (s *Server) Run(ctx context.Context) error {
	go s.coordinator.Run(ctx)

	addr := net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("http shutdown", zap.Error(err))
	}

	s.sessions.Shutdown()
	s.router.Wait()
	s.timers.Close()
	return nil
}
