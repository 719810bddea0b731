package service

import (
	"context"
	"errors"
	"fmt"

	"taskdeck.app/botlink/internal/bot"
	"taskdeck.app/botlink/internal/store"
)

// ErrNoIntegration is returned when a notification targets a Taskdeck user
// with no linked Slack install.
var ErrNoIntegration = errors.New("no slack integration for user")

// NotificationService forwards messages to the provider. It never retries on
// its own; retry of a non-idempotent send is the caller's decision.
type NotificationService interface {
	// Send posts text to a channel with an explicit credential.
	Send(ctx context.Context, channel, text, token string) error

	// SendToLinkedUser resolves the credential of the Taskdeck user's linked
	// install and posts on their behalf.
	SendToLinkedUser(ctx context.Context, taskdeckUserID, channel, text string) error
}

type notificationService struct {
	provider bot.Provider
	stores   IntegrationStoreProvider
}

func NewNotificationService(provider bot.Provider, stores IntegrationStoreProvider) NotificationService {
	return &notificationService{provider: provider, stores: stores}
}

func (s *notificationService) Send(ctx context.Context, channel, text, token string) error {
	if err := s.provider.SendNotification(ctx, channel, text, token); err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	return nil
}

func (s *notificationService) SendToLinkedUser(ctx context.Context, taskdeckUserID, channel, text string) error {
	integration, err := s.stores.Integrations().GetByLinkedUser(ctx, taskdeckUserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoIntegration
		}
		return fmt.Errorf("resolving integration: %w", err)
	}

	return s.Send(ctx, channel, text, integration.AccessToken)
}
