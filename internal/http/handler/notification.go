package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdeck.app/botlink/internal/bot"
	"taskdeck.app/botlink/internal/http/dto"
	"taskdeck.app/botlink/internal/service"
)

type NotificationHandler struct {
	notifications service.NotificationService
}

func NewNotificationHandler(notifications service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Send relays a Taskdeck-originated message to the target user's Slack
// channel through their linked install.
func (h *NotificationHandler) Send(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.notifications.SendToLinkedUser(ctx, req.TaskdeckUserID, req.Channel, req.Notification)
	if err != nil {
		var rejected *bot.ProviderRejectedError
		switch {
		case errors.Is(err, service.ErrNoIntegration):
			c.JSON(http.StatusNotFound, gin.H{"error": "no slack integration linked to this user"})
		case errors.As(err, &rejected):
			slog.WarnContext(ctx, "slack rejected notification", "reason", rejected.Reason)
			c.JSON(http.StatusBadGateway, gin.H{"error": "slack rejected the notification"})
		case errors.Is(err, bot.ErrTransport):
			slog.ErrorContext(ctx, "slack unreachable while sending notification", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "slack is unreachable"})
		default:
			slog.ErrorContext(ctx, "failed to send notification", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send notification"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}
