package handler

import (
	"notevault/internal/pkg/logger"
	"notevault/internal/pkg/serverutils"
	"notevault/internal/repository/memory"
	internalWS "notevault/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// EventHandler streams a session's vault events over a websocket.
type EventHandler struct {
	hub      *internalWS.Hub
	sessions *memory.SessionRepository
	secret   string
	logger   logger.ILogger
}

func NewEventHandler(hub *internalWS.Hub, sessions *memory.SessionRepository, secret string, log logger.ILogger) *EventHandler {
	return &EventHandler{
		hub:      hub,
		sessions: sessions,
		secret:   secret,
		logger:   log,
	}
}

// ServeWs authenticates the handshake with the session token, taken from
// the token query parameter (browsers cannot set headers on upgrades) or a
// Bearer header.
func (h *EventHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token (Query 'token' or Header 'Authorization')"))
	}

	sessionID, _, err := serverutils.ParseSessionToken(h.secret, tokenStr)
	if err != nil {
		h.logger.Warn("EventHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}
	if _, ok := h.sessions.Get(sessionID); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Session expired"))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("EventHandler", "Event stream opened", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(h.hub, conn, sessionID)
		h.logger.Info("EventHandler", "Event stream closed", map[string]interface{}{"session_id": sessionID})
	})(c)
}

func (h *EventHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeWs)
}
