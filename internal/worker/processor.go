package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"taskdeck.app/botlink/internal/bot"
	"taskdeck.app/botlink/internal/model"
	"taskdeck.app/botlink/internal/service"
	"taskdeck.app/botlink/internal/store"
)

// EventProcessor handles one verified Slack event.
type EventProcessor interface {
	Process(ctx context.Context, event model.SlackEvent) error
}

type slackEventProcessor struct {
	stores        service.IntegrationStoreProvider
	notifications service.NotificationService
}

func NewSlackEventProcessor(stores service.IntegrationStoreProvider, notifications service.NotificationService) EventProcessor {
	return &slackEventProcessor{
		stores:        stores,
		notifications: notifications,
	}
}

func (p *slackEventProcessor) Process(ctx context.Context, event model.SlackEvent) error {
	switch event.EventType {
	case "app_home_opened":
		return p.handleAppHomeOpened(ctx, event)
	case "app_uninstalled":
		// The core never hard-deletes integration rows; removal is an
		// administrative operation. Record the signal and move on.
		slog.InfoContext(ctx, "app uninstalled from workspace",
			"team_id", event.TeamID,
			"app_id", event.AppID)
		return nil
	default:
		slog.DebugContext(ctx, "ignoring unsupported event type",
			"event_type", event.EventType,
			"event_id", event.EventID)
		return nil
	}
}

func (p *slackEventProcessor) handleAppHomeOpened(ctx context.Context, event model.SlackEvent) error {
	var payload struct {
		Channel string `json:"channel"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil || payload.Channel == "" {
		slog.WarnContext(ctx, "app_home_opened event without channel", "event_id", event.EventID)
		return nil
	}

	integration, err := p.stores.Integrations().GetByExternalIdentity(ctx, event.TeamID, event.UserID, event.AppID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.DebugContext(ctx, "home opened by user without install", "team_id", event.TeamID)
			return nil
		}
		return fmt.Errorf("resolving integration: %w", err)
	}

	if integration.Linked() {
		return nil
	}

	text := "Welcome to Taskdeck! Run `/link-with-taskdeck` to connect your account."
	if err := p.notifications.Send(ctx, payload.Channel, text, integration.AccessToken); err != nil {
		var rejected *bot.ProviderRejectedError
		if errors.As(err, &rejected) {
			// Logical rejections (bad channel, revoked token) won't succeed on
			// retry; drop after logging the provider's reason.
			slog.WarnContext(ctx, "welcome message rejected", "reason", rejected.Reason)
			return nil
		}
		return err
	}
	return nil
}
