package notification

import (
	"go-paygate/internal/config"
	"go-paygate/internal/middleware"
	"go-paygate/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type NotificationApi struct {
	controller *NotificationController
	hub        *Hub
	config     *config.Config
}

func NewNotificationApi(controller *NotificationController, hub *Hub, config *config.Config) *NotificationApi {
	return &NotificationApi{
		controller: controller,
		hub:        hub,
		config:     config,
	}
}

func (h *NotificationApi) Setup(app *fiber.App) {
	group := app.Group("/api/notifications", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.List)
	group.Post("/:id/read", h.controller.MarkRead)

	group.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	group.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		claims, ok := conn.Locals(string(utils.UserClaimsKey)).(*utils.UserClaims)
		if !ok || claims == nil {
			conn.Close()
			return
		}
		h.hub.Register(claims.Username, conn)
		defer h.hub.Unregister(claims.Username, conn)

		// Hold the connection open; inbound frames are ignored.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}
