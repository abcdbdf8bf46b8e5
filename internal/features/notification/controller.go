package notification

import (
	"strconv"

	"go-paygate/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type NotificationController struct {
	Service NotificationService
	Log     *zap.Logger
}

func NewNotificationController(service NotificationService, log *zap.Logger) *NotificationController {
	return &NotificationController{Service: service, Log: log}
}

// List godoc
// @Summary List notifications for the current user
// @Tags notifications
// @Produce json
// @Param unread query bool false "Only unread notifications"
// @Param limit query int false "Maximum rows" default(50)
// @Success 200 {array} Notification
// @Router /api/notifications [get]
func (ctrl *NotificationController) List(c *fiber.Ctx) error {
	claims := middleware.ClaimsFromCtx(c)
	if claims == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthenticated"})
	}

	unreadOnly := c.Query("unread") == "true"
	limit, err := strconv.ParseInt(c.Query("limit", "50"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 50
	}

	items, err := ctrl.Service.List(c.Context(), claims.Username, unreadOnly, limit)
	if err != nil {
		ctrl.Log.Error("failed to list notifications", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list notifications"})
	}
	return c.JSON(items)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} map[string]string
// @Router /api/notifications/{id}/read [post]
func (ctrl *NotificationController) MarkRead(c *fiber.Ctx) error {
	if err := ctrl.Service.MarkRead(c.Context(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
