// Package web provides the eyectl HTTP and WebSocket server.
package web

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/teslashibe/go-eyectl/pkg/control"
	"github.com/teslashibe/go-eyectl/pkg/gaze"
	"github.com/teslashibe/go-eyectl/pkg/hub"
	"github.com/teslashibe/go-eyectl/pkg/protocol"
	"github.com/teslashibe/go-eyectl/pkg/session"
	"github.com/teslashibe/go-eyectl/pkg/tracker"
)

// Version is reported by the health endpoint.
var Version = "0.1.0"

// Server is the eyectl server
type Server struct {
	app    *fiber.App
	port   string
	logger *slog.Logger

	store    session.Store
	control  *control.Manager
	events   *hub.Hub
	trackers *tracker.Hub
}

// Config wires the server to its collaborators.
type Config struct {
	Port     string
	Store    session.Store
	Control  *control.Manager
	Events   *hub.Hub
	Trackers *tracker.Hub
	Logger   *slog.Logger

	// AccessLog enables per-request logging
	AccessLog bool
}

// NewServer creates a new server and registers all routes
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		port:     cfg.Port,
		logger:   cfg.Logger,
		store:    cfg.Store,
		control:  cfg.Control,
		events:   cfg.Events,
		trackers: cfg.Trackers,
	}

	app := fiber.New(fiber.Config{
		AppName:               "eyectl",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))
	if cfg.AccessLog {
		app.Use(logger.New())
	}

	// API routes
	api := app.Group("/api")
	api.Get("/health", s.handleHealth)

	sessions := api.Group("/sessions")
	sessions.Post("/", s.handleCreateSession)
	sessions.Get("/", s.handleListSessions)
	sessions.Get("/:id", s.handleGetSession)
	sessions.Delete("/:id", s.handleDeleteSession)
	sessions.Get("/:id/state", s.handleSessionState)
	sessions.Put("/:id/settings", s.handleReplaceSettings)
	sessions.Patch("/:id/settings", s.handlePatchSettings)
	sessions.Post("/:id/blink", s.handleBlink)
	sessions.Post("/:id/viewport", s.handleViewport)

	if s.trackers != nil {
		s.bindTrackers()
		s.trackers.RegisterAPIRoutes(api)
		s.trackers.RegisterRoutes(app)
	}

	// Event WebSocket routes
	if s.events != nil {
		app.Use("/ws/events", hub.UpgradeOnly)
		app.Get("/ws/events", s.events.Handler())
		app.Get("/ws/events/:id", s.events.Handler())
	}

	s.app = app
	return s
}

// bindTrackers routes tracker input into the session engines
func (s *Server) bindTrackers() {
	s.trackers.Accept(func(id string) bool {
		_, err := s.store.Get(id)
		return err == nil
	})
	s.trackers.OnConnect(s.control.SyncTracking)

	s.trackers.OnGaze(func(id string, sample gaze.Sample) {
		s.forward(id, "gaze", s.control.Gaze(id, sample))
	})
	s.trackers.OnEyes(func(id string, eyes *protocol.EyesData) {
		s.forward(id, "eyes", s.control.Eyes(id, eyes))
	})
	s.trackers.OnBlink(func(id string, ts uint64) {
		s.forward(id, "blink", s.control.Blink(id, ts))
	})
	s.trackers.OnViewport(func(id string, v gaze.Viewport) {
		s.forward(id, "viewport", s.control.Viewport(id, v))
	})
	s.trackers.OnSettings(func(id string, patch gaze.SettingsPatch) {
		_, err := s.control.PatchSettings(id, patch)
		s.forward(id, "settings", err)
	})
}

func (s *Server) forward(id, kind string, err error) {
	if err != nil {
		s.logger.Warn("tracker input dropped", "session", id, "type", kind, "error", err)
	}
}

// App returns the underlying Fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("server listening",
		"http", "http://localhost:"+s.port+"/api",
		"events", "ws://localhost:"+s.port+"/ws/events/:id",
		"tracker", "ws://localhost:"+s.port+"/ws/tracker/:id")
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
