package webhook

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdeck.app/botlink/common/logger"
	"taskdeck.app/botlink/internal/http/middleware"
	"taskdeck.app/botlink/internal/model"
	"taskdeck.app/botlink/internal/queue"
	"taskdeck.app/botlink/internal/service"
)

// eventEnvelope is the outer Events API payload. Only the fields routing
// depends on are decoded; the inner event is kept raw for the worker.
type eventEnvelope struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge"`
	TeamID    string          `json:"team_id"`
	APIAppID  string          `json:"api_app_id"`
	EventID   string          `json:"event_id"`
	Event     json.RawMessage `json:"event"`
}

// innerEvent is the subset of the nested event used for routing.
type innerEvent struct {
	Type string `json:"type"`
	User string `json:"user"`
}

type SlackEventHandler struct {
	deduper  service.EventDeduper
	producer queue.Producer
}

func NewSlackEventHandler(deduper service.EventDeduper, producer queue.Producer) *SlackEventHandler {
	return &SlackEventHandler{deduper: deduper, producer: producer}
}

// Events receives Events API deliveries. It answers the url_verification
// handshake inline and hands everything else to the stream; Slack expects a
// 2xx within 3 seconds, so no downstream work happens on this path.
func (h *SlackEventHandler) Events(c *gin.Context) {
	ctx := c.Request.Context()

	body, ok := middleware.RawBody(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing request body"})
		return
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
		return
	}

	switch envelope.Type {
	case "url_verification":
		c.JSON(http.StatusOK, gin.H{"challenge": envelope.Challenge})
		return
	case "event_callback":
	default:
		slog.DebugContext(ctx, "ignoring unknown slack envelope type", "type", envelope.Type)
		c.Status(http.StatusOK)
		return
	}

	var inner innerEvent
	if err := json.Unmarshal(envelope.Event, &inner); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TeamID:    logger.Ptr(envelope.TeamID),
		AppID:     logger.Ptr(envelope.APIAppID),
		EventID:   logger.Ptr(envelope.EventID),
		EventType: logger.Ptr(inner.Type),
	})

	seen, dedupeErr := h.deduper.Seen(ctx, envelope.EventID)
	if dedupeErr != nil {
		// Dedupe is best effort. Losing the marker means an occasional
		// duplicate downstream, not a dropped event.
		slog.WarnContext(ctx, "event dedupe check failed", "error", dedupeErr)
	} else if seen {
		slog.InfoContext(ctx, "dropping duplicate slack event")
		c.Status(http.StatusOK)
		return
	}

	msg := queue.EventMessage{
		Event: model.SlackEvent{
			EventID:   envelope.EventID,
			EventType: inner.Type,
			TeamID:    envelope.TeamID,
			UserID:    inner.User,
			AppID:     envelope.APIAppID,
			Payload:   envelope.Event,
		},
	}

	if err := h.producer.Enqueue(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to enqueue slack event", "error", err)
		// Seen already stamped the marker. Clear it so the retry Slack
		// sends for this 500 is not dropped as a duplicate.
		if dedupeErr == nil {
			if forgetErr := h.deduper.Forget(ctx, envelope.EventID); forgetErr != nil {
				slog.WarnContext(ctx, "failed to clear event marker", "error", forgetErr)
			}
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to accept event"})
		return
	}

	c.Status(http.StatusOK)
}

// Interactions acknowledges interactive payloads. View submissions get an
// explicit clear so Slack closes the modal.
func (h *SlackEventHandler) Interactions(c *gin.Context) {
	ctx := c.Request.Context()

	payload := c.PostForm("payload")
	if payload == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing payload"})
		return
	}

	var interaction struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(payload), &interaction); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if interaction.Type == "view_submission" {
		c.JSON(http.StatusOK, gin.H{"response_action": "clear"})
		return
	}

	slog.DebugContext(ctx, "acknowledging slack interaction", "type", interaction.Type)
	c.Status(http.StatusOK)
}
