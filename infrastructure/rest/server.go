package rest

import (
	"context"
	"log/slog"

	"casechat/auth"
	"casechat/infrastructure/ws"
	"casechat/observability"
	"casechat/runtime"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
)

type Server struct {
	log            *slog.Logger
	app            *fiber.App
	handler        *Handler
	coordinator    *ws.Coordinator
	registry       *runtime.Registry
	monitoring     *observability.Monitoring
	allowedOrigins string
}

func NewServer(log *slog.Logger, handler *Handler, coordinator *ws.Coordinator,
	registry *runtime.Registry, monitoring *observability.Monitoring,
	allowedOrigins string) *Server {
	server := &Server{
		log:            log,
		handler:        handler,
		coordinator:    coordinator,
		registry:       registry,
		monitoring:     monitoring,
		allowedOrigins: allowedOrigins,
	}
	server.app = server.buildApp()
	return server
}

func (s *Server) buildApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "casechat",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: s.allowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/health", s.handleHealth)

	authGroup := app.Group("/api/auth")
	authGroup.Post("/register", s.handler.handleRegister)
	authGroup.Post("/login", s.handler.handleLogin)

	chat := app.Group("/api/chat", Protected())
	chat.Get("/messages", s.handler.handleListMessages)
	chat.Post("/messages", s.handler.handleSendMessage)
	chat.Get("/conversations", s.handler.handleListConversations)
	chat.Get("/unread-count", s.handler.handleUnreadCount)
	chat.Get("/search", s.handler.handleSearch)
	chat.Get("/messages/:userId", s.handler.handleListMessagesWith)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", Protected(), websocket.New(func(conn *websocket.Conn) {
		claims, ok := conn.Locals(claimsKey).(*auth.IdentityClaims)
		if !ok {
			_ = conn.Close()
			return
		}
		s.coordinator.HandleConnection(conn, claims)
	}))

	return app
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	stats := s.monitoring.GetLatest(s.registry.Count())
	return c.JSON(fiber.Map{
		"status": "ok",
		"stats":  stats,
	})
}

func (s *Server) Listen(address string) error {
	s.log.Info("HTTP server listening", "address", address)
	return s.app.Listen(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
