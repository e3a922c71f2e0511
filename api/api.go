package api

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/dialpoint/memline/pkg/memory"
	"github.com/dialpoint/memline/pkg/storage"
)

// Server is the API server for managing and querying the memline system
type Server struct {
	config   Config
	storer   storage.Driver
	memories *memory.Service
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates a new API server.
// The storer is injected to allow sharing with other components
// (e.g., the ingest consumer when running as a single process).
func NewServer(config Config, storer storage.Driver, memories *memory.Service, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		storer:   storer,
		memories: memories,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)

	app.Get("/v1/profiles", s.handleListProfiles)
	app.Get("/v1/profiles/:phone", s.handleGetProfile)
	app.Put("/v1/profiles/:phone", s.handlePutProfile)

	app.Post("/v1/observations", s.handleCreateObservation)
	app.Get("/v1/recall", s.handleRecall)

	app.Get("/v1/board/overview", s.handleBoardOverview)
	app.Get("/v1/board/customer/:phone", s.handleBoardCustomer)

	return s
}

// MountMCP mounts an MCP streamable HTTP handler on the fiber app at /mcp.
func (s *Server) MountMCP(handler http.Handler) {
	s.app.All("/mcp", adaptor.HTTPHandler(handler))
	s.app.All("/mcp/*", adaptor.HTTPHandler(handler))
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
