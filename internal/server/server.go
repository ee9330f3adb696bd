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

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yigit/alumnisphere/internal/bootstrap"
	"github.com/yigit/alumnisphere/internal/config"
)

const tokenPurgeInterval = time.Hour

// Server holds the state for the HTTP server.
type Server struct {
	config      *config.Config
	router      *gin.Engine
	dbs         *bootstrap.Databases
	logger      zerolog.Logger
	http        *http.Server
	purgeTokens func(ctx context.Context) (int64, error)
}

// NewServer loads configuration, connects the databases and wires the router.
func NewServer() (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	dbs, err := bootstrap.SetupDatabase(cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(cfg, dbs, lgr)
	if err != nil {
		dbs.Close(context.Background()) //nolint:errcheck
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	router := bootstrap.SetupRouter(cfg, deps, lgr)

	setupStaticFileServing(router, cfg, lgr)

	s := &Server{
		config:      cfg,
		router:      router,
		dbs:         dbs,
		logger:      lgr,
		purgeTokens: deps.AuthService.PurgeStaleTokens,
	}

	return s, nil
}

// setupStaticFileServing configures the router to serve static files
func setupStaticFileServing(router *gin.Engine, cfg *config.Config, lgr zerolog.Logger) {
	// remote storage serves its own URLs
	if cfg.Storage.Driver != config.StorageDriverLocal {
		return
	}
	uploadPath := cfg.Server.StoragePath

	if _, err := os.Stat(uploadPath); os.IsNotExist(err) {
		if err := os.MkdirAll(uploadPath, os.ModePerm); err != nil {
			lgr.Error().Err(err).Str("path", uploadPath).Msg("Failed to create uploads directory")
			return
		}
	}

	router.Static("/uploads", uploadPath)
	lgr.Info().Str("path", uploadPath).Msg("Static file serving configured for uploads directory")
}

// Run serves HTTP and purges stale refresh tokens in the background until
// SIGINT/SIGTERM or a listener failure, then shuts down gracefully.
func (s *Server) Run() error {
	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting server...")

	s.http = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second, // multipart uploads
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.runTokenPurge(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			s.logger.Info().Msg("Received OS signal, initiating shutdown...")
		}
		return s.Shutdown(context.Background())
	})

	return g.Wait()
}

func (s *Server) runTokenPurge(ctx context.Context) {
	if s.purgeTokens == nil {
		return
	}
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		if _, err := s.purgeTokens(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn().Err(err).Msg("Refresh token purge failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Shutdown gracefully stops the server and closes resources.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	shutdownError := false

	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			shutdownError = true
		} else {
			s.logger.Info().Msg("HTTP server gracefully stopped.")
		}
	}

	if s.dbs != nil {
		s.logger.Info().Msg("Closing database connections...")
		if err := s.dbs.Close(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Database close error")
			shutdownError = true
		} else {
			s.logger.Info().Msg("Database connections closed.")
		}
	}

	s.logger.Info().Msg("Server shutdown process complete.")
	if shutdownError {
		return errors.New("server shutdown completed with errors")
	}
	return nil
}
