package service

import (
	"context"
	"errors"
	"fmt"

	"taskdeck.app/botlink/internal/model"
	"taskdeck.app/botlink/internal/store"
)

// Decision is the outcome of the authorization gate for a Slack identity.
type Decision string

const (
	// DecisionNotInstalled means no integration exists for the identity.
	DecisionNotInstalled Decision = "not_installed"
	// DecisionUnlinked means the app is installed but never associated with a
	// Taskdeck account.
	DecisionUnlinked Decision = "unlinked"
	// DecisionAuthorized means the identity is installed and linked.
	DecisionAuthorized Decision = "authorized"
)

// AuthorizeService gates privileged commands on whether a Slack identity is
// linked to a known Taskdeck account. It is a pure decision over store state;
// it never mutates anything.
type AuthorizeService interface {
	Authorize(ctx context.Context, teamID, userID, appID string) (Decision, *model.Integration, error)
}

type authorizeService struct {
	stores IntegrationStoreProvider
}

func NewAuthorizeService(stores IntegrationStoreProvider) AuthorizeService {
	return &authorizeService{stores: stores}
}

func (s *authorizeService) Authorize(ctx context.Context, teamID, userID, appID string) (Decision, *model.Integration, error) {
	integration, err := s.stores.Integrations().GetByExternalIdentity(ctx, teamID, userID, appID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return DecisionNotInstalled, nil, nil
		}
		return "", nil, fmt.Errorf("looking up integration: %w", err)
	}

	if !integration.Linked() {
		return DecisionUnlinked, integration, nil
	}

	return DecisionAuthorized, integration, nil
}
