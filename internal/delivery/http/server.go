package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	"github.com/appointment-map-service/internal/config"
	"github.com/appointment-map-service/internal/delivery/http/handler"
	"github.com/appointment-map-service/internal/delivery/http/middleware"
	apperrors "github.com/appointment-map-service/internal/pkg/errors"
)

// Server - HTTP сервер на основе Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	// Handlers
	sessionHandler *handler.SessionHandler
	mapHandler     *handler.MapHandler
}

// NewServer - создание нового HTTP сервера
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	sessionHandler *handler.SessionHandler,
	mapHandler *handler.MapHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Appointment Map Service",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:            app,
		config:         cfg,
		logger:         logger,
		sessionHandler: sessionHandler,
		mapHandler:     mapHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery())
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS())
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	// Swagger documentation route
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	api := s.app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// Widget session lifecycle
	api.Post("/sessions", s.sessionHandler.CreateSession)
	api.Get("/sessions/:id", s.sessionHandler.GetSession)
	api.Delete("/sessions/:id", s.sessionHandler.CloseSession)
	api.Post("/sessions/:id/refresh", s.sessionHandler.RefreshAppointments)
	api.Patch("/sessions/:id/route", s.sessionHandler.SetRouteVisibility)
	api.Patch("/sessions/:id/address", s.sessionHandler.SetUserAddress)

	// Map state and appointments
	api.Get("/sessions/:id/map", s.mapHandler.GetMapState)
	api.Get("/sessions/:id/appointments", s.mapHandler.ListAppointments)
	api.Patch("/appointments/:id/state", s.mapHandler.UpdateAppointmentState)

	// Mapbox config endpoint for the widget frontend
	api.Get("/config/mapbox", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"token": s.config.Mapbox.AccessToken,
		})
	})
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - кастомный обработчик ошибок
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}
		if e, ok := err.(*apperrors.AppError); ok {
			code = e.StatusCode
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "INTERNAL_SERVER_ERROR",
				"message": err.Error(),
			},
		})
	}
}
