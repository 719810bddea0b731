package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"taskdeck.app/botlink/common/id"
	"taskdeck.app/botlink/common/logger"
	"taskdeck.app/botlink/core/config"
	"taskdeck.app/botlink/internal/bot"
	"taskdeck.app/botlink/internal/model"
	"taskdeck.app/botlink/internal/store"
)

const slackAuthorizeURL = "https://slack.com/oauth/v2/authorize"

// LinkService drives the install/link flow: it hands out the authorize URL
// and completes the callback by exchanging the code and persisting the
// integration.
type LinkService interface {
	// InstallURL returns the Slack authorize URL for a new install.
	// taskdeckUserID may be nil for an anonymous install.
	InstallURL(taskdeckUserID *string) (string, error)

	// CompleteLink exchanges the callback code, extracts the install identity
	// and upserts the integration record. Re-running it for the same identity
	// converges on a single updated row.
	CompleteLink(ctx context.Context, code, state string) (*model.Integration, error)

	// AssociateAccount consumes a link handoff token and associates the
	// Taskdeck account with the install the token was minted for.
	AssociateAccount(ctx context.Context, token, taskdeckUserID string) (*model.Integration, error)
}

type linkService struct {
	provider   bot.Provider
	stores     IntegrationStoreProvider
	linkTokens LinkTokenService
	tx         TxRunner
	cfg        config.SlackConfig
}

// IntegrationStoreProvider is the minimal view of stores the linking services
// need. Implemented by *store.Stores in production and by fakes in tests.
type IntegrationStoreProvider interface {
	Integrations() store.IntegrationStore
}

func NewLinkService(provider bot.Provider, stores IntegrationStoreProvider, linkTokens LinkTokenService, tx TxRunner, cfg config.SlackConfig) LinkService {
	return &linkService{
		provider:   provider,
		stores:     stores,
		linkTokens: linkTokens,
		tx:         tx,
		cfg:        cfg,
	}
}

func (s *linkService) InstallURL(taskdeckUserID *string) (string, error) {
	state, err := NewInstallState(taskdeckUserID)
	if err != nil {
		return "", err
	}

	q := url.Values{
		"client_id":    {s.cfg.ClientID},
		"scope":        {s.cfg.Scopes},
		"redirect_uri": {s.cfg.RedirectURI},
		"state":        {state},
	}
	return slackAuthorizeURL + "?" + q.Encode(), nil
}

func (s *linkService) CompleteLink(ctx context.Context, code, state string) (*model.Integration, error) {
	taskdeckUserID := DecodeInstallState(state)

	result, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	// All four identity fields are required to build the composite key.
	if result.AccessToken == "" || result.TeamID == "" || result.UserID == "" || result.AppID == "" {
		return nil, fmt.Errorf("%w: token payload missing identity fields", bot.ErrMalformedResponse)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TeamID:      logger.Ptr(result.TeamID),
		SlackUserID: logger.Ptr(result.UserID),
		AppID:       logger.Ptr(result.AppID),
	})

	integration := &model.Integration{
		ID:           id.New(),
		TeamID:       result.TeamID,
		UserID:       result.UserID,
		AppID:        result.AppID,
		AccessToken:  result.AccessToken,
		LinkedUserID: taskdeckUserID,
	}
	if result.Scope != "" {
		integration.Scope = &result.Scope
	}

	if err := s.stores.Integrations().Upsert(ctx, integration); err != nil {
		slog.ErrorContext(ctx, "failed to upsert integration", "error", err)
		return nil, fmt.Errorf("persisting integration: %w", err)
	}

	slog.InfoContext(ctx, "integration linked",
		"integration_id", integration.ID,
		"linked", integration.Linked(),
	)

	return integration, nil
}

func (s *linkService) AssociateAccount(ctx context.Context, token, taskdeckUserID string) (*model.Integration, error) {
	if token == "" || taskdeckUserID == "" {
		return nil, fmt.Errorf("%w: token and user id are required", bot.ErrInvalidRequest)
	}

	identity, err := s.linkTokens.Consume(ctx, token)
	if err != nil {
		return nil, err
	}

	// Read and relink inside one transaction so a concurrent re-install of
	// the same identity cannot slip between the lookup and the write.
	var integration *model.Integration
	err = s.tx.InTx(ctx, func(stores IntegrationStoreProvider) error {
		integration, err = stores.Integrations().GetByExternalIdentity(ctx, identity.TeamID, identity.UserID, identity.AppID)
		if err != nil {
			return fmt.Errorf("resolving install for link token: %w", err)
		}

		integration.LinkedUserID = &taskdeckUserID
		return stores.Integrations().Upsert(ctx, integration)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "taskdeck account associated",
		"integration_id", integration.ID,
		"team_id", integration.TeamID,
	)

	return integration, nil
}
