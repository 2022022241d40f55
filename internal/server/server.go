package server

import (
	"log"
	"strings"

	"notevault/internal/bootstrap"
	"notevault/internal/config"
	"notevault/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app  *fiber.App
	port string
}

// New builds the vault server: session, note and event stream routes under
// /api.
func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := newApp()

	// fiber's cors refuses credentials with a wildcard origin
	allowCredentials := strings.TrimSpace(cfg.App.CorsAllowedOrigins) != "*"
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: allowCredentials,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
	}))
	app.Use(otelfiber.Middleware())
	app.Use(serverutils.ErrorHandlerMiddleware())

	api := app.Group("/api")
	container.VaultController.RegisterRoutes(api)
	container.EventHandler.RegisterRoutes(api)

	return &Server{app: app, port: cfg.App.Port}
}

// NewLedger builds the ledger node server. Its routes answer with the
// node's own envelope, so the vault error middleware is not installed.
func NewLedger(cfg *config.Config, container *bootstrap.NodeContainer) *Server {
	app := newApp()
	app.Use(otelfiber.Middleware())

	container.LedgerController.RegisterRoutes(app)

	return &Server{app: app, port: cfg.Node.Port}
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{
		BodyLimit:             1 * 1024 * 1024,
		DisableStartupMessage: true,
	})
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("Server is running on http://localhost:%s", s.port)
	return s.app.Listen(":" + s.port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
