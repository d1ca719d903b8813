package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"camwatch/internal/api/handlers/http/evidence"
	"camwatch/internal/api/handlers/http/registry"
	"camwatch/internal/api/handlers/http/requests"
	"camwatch/internal/api/handlers/http/system"
	"camwatch/internal/config"
	"camwatch/internal/middleware"
	"camwatch/internal/service"
)

type Server struct {
	logger *slog.Logger
	router *chi.Mux
	cfg    config.Config
}

// NewServer builds the HTTP surface. ctx bounds background work owned by the router,
// such as rate limiter cleanup.
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, svc *service.Service, deps map[string]system.Pinger) *Server {
	registryHandler := registry.NewHandler(logger, svc.Cameras, svc.Markers)
	requestsHandler := requests.NewHandler(logger, svc.Requests)
	evidenceHandler := evidence.NewHandler(logger, cfg.Http.MaxUploadBytes, svc.Evidence)
	systemHandler := system.NewHandler(logger, deps)

	r := InitRouter(ctx, cfg, registryHandler, requestsHandler, evidenceHandler, systemHandler, logger)

	return &Server{
		logger: logger,
		router: r,
		cfg:    *cfg,
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func InitRouter(
	ctx context.Context,
	cfg *config.Config,
	registryHandler *registry.Handler,
	requestsHandler *requests.Handler,
	evidenceHandler *evidence.Handler,
	systemHandler *system.Handler,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewMux()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)

	r.Route("/api/v1", func(api chi.Router) {
		// SYSTEM
		api.Get("/health", systemHandler.SystemHealth)
		api.Get("/ready", systemHandler.SystemReady)

		api.Group(func(pr chi.Router) {
			pr.Use(middleware.APIKeyMiddleware(cfg.APIKey))
			pr.Use(middleware.Identity(logger))
			pr.Use(middleware.Limit(ctx, cfg.Http.RateLimitRPS, cfg.Http.RateLimitBurst, 10*time.Minute, logger))

			pr.Route("/cameras", func(cr chi.Router) {
				cr.Post("/", registryHandler.CameraCreate)
				cr.Get("/", registryHandler.CameraList)
				cr.Route("/{id}", func(rr chi.Router) {
					rr.Get("/", registryHandler.CameraGet)
					rr.Delete("/", registryHandler.CameraDelete)
					rr.Post("/verify", registryHandler.CameraVerify)
				})
			})

			pr.Route("/markers", func(mr chi.Router) {
				mr.Post("/", registryHandler.MarkerCreate)
				mr.Get("/", registryHandler.MarkerList)
				mr.Route("/{id}", func(rr chi.Router) {
					rr.Get("/", registryHandler.MarkerGet)
					rr.Delete("/", registryHandler.MarkerWithdraw)
					rr.Post("/confirm", registryHandler.MarkerConfirm)
				})
			})

			pr.Route("/requests", func(qr chi.Router) {
				qr.Post("/", requestsHandler.RequestCreate)
				qr.Get("/", requestsHandler.RequestList)
				qr.Route("/{id}", func(rr chi.Router) {
					rr.Get("/", requestsHandler.RequestGet)
					rr.Post("/cancel", requestsHandler.RequestCancel)
					rr.Post("/responses/{cameraId}", requestsHandler.RequestRespond)
					rr.Post("/cameras/{cameraId}/footage", evidenceHandler.FootageUpload)
				})
			})

			pr.Route("/evidence/{id}", func(er chi.Router) {
				er.Get("/", evidenceHandler.EvidenceGet)
				er.Get("/content", evidenceHandler.EvidenceContent)
				er.Get("/custody", evidenceHandler.EvidenceCustody)
				er.Get("/verify", evidenceHandler.EvidenceVerify)
			})
		})
	})

	return r
}

func (s *Server) Run(ctx context.Context) error {
	port := s.cfg.Http.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Http.ReadTimeout,
		WriteTimeout: s.cfg.Http.WriteTimeout,
		IdleTimeout:  30 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("Starting HTTP server",
			slog.String("addr", srv.Addr),
			slog.Duration("read_timeout", s.cfg.Http.ReadTimeout),
			slog.Duration("write_timeout", s.cfg.Http.WriteTimeout),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("ListenAndServe error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server", slog.String("reason", ctx.Err().Error()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Server shutdown failed", slog.Any("error", err))
			return err
		}
		return nil

	case err := <-errChan:
		return err
	}
}
