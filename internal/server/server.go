package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httprate"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/sparks-2204/course-recommendation-system/internal/bootstrap"
	"github.com/sparks-2204/course-recommendation-system/internal/config"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/alerting"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/helpers"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/telemetry"
)

// Server holds the state for the HTTP server.
type Server struct {
	config  *config.Config
	handler http.Handler
	storage *bootstrap.Storage
	alerter alerting.Alerter
	tracing func(context.Context) error
	logger  zerolog.Logger
	http    *http.Server
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer() (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	ctx := context.Background()

	tracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup telemetry: %w", err)
	}

	alerter := alerting.New(alerting.Config{
		Token:       cfg.Alerting.RollbarToken,
		Environment: cfg.Alerting.Environment,
		CodeVersion: cfg.Alerting.CodeVersion,
	}, lgr)

	storage, err := bootstrap.SetupStorage(ctx, cfg, lgr)
	if err != nil {
		alerter.Close()
		return nil, fmt.Errorf("failed to setup storage: %w", err)
	}

	bootstrap.SeedDefaults(ctx, cfg, storage.Repos, lgr)

	deps, err := bootstrap.BuildDependencies(cfg, storage, alerter, lgr)
	if err != nil {
		storage.Close()
		alerter.Close()
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	router, err := bootstrap.SetupRouter(cfg, deps, lgr)
	if err != nil {
		storage.Close()
		alerter.Close()
		return nil, fmt.Errorf("failed to setup router: %w", err)
	}

	s := &Server{
		config:  cfg,
		handler: Wrap(cfg, router),
		storage: storage,
		alerter: alerter,
		tracing: tracing,
		logger:  lgr,
	}

	return s, nil
}

// Wrap applies the transport-level middleware: per-IP rate limiting and CORS
func Wrap(cfg *config.Config, h http.Handler) http.Handler {
	if cfg.Server.RateLimit > 0 {
		h = httprate.LimitByIP(cfg.Server.RateLimit, time.Minute)(h)
	}

	return cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	}).Handler(h)
}

// Run starts the HTTP server and handles graceful shutdown.
func (s *Server) Run() error {
	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting server...")

	s.http = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info().Str("signal", sig.String()).Msg("Received OS signal, initiating shutdown...")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully stops the server and closes resources.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := helpers.ParseDuration(s.config.Server.ShutdownTimeout, 10*time.Second)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error

	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			errs = append(errs, err)
		} else {
			s.logger.Info().Msg("HTTP server gracefully stopped.")
		}
	}

	if s.storage != nil {
		s.logger.Info().Str("driver", s.storage.Driver).Msg("Closing storage...")
		s.storage.Close()
	}

	if s.tracing != nil {
		if err := s.tracing(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Telemetry shutdown error")
			errs = append(errs, err)
		}
	}

	if s.alerter != nil {
		s.alerter.Close()
	}

	s.logger.Info().Msg("Server shutdown process complete.")
	if len(errs) > 0 {
		return fmt.Errorf("server shutdown completed with errors: %w", errors.Join(errs...))
	}
	return nil
}
