package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"taskdeck.app/botlink/core/db"
	"taskdeck.app/botlink/internal/model"
)

const linkedUserUniqueIndex = "slack_integrations_linked_user_idx"

type integrationStore struct {
	q db.Querier
}

func newIntegrationStore(q db.Querier) IntegrationStore {
	return &integrationStore{q: q}
}

const upsertIntegrationSQL = `
INSERT INTO slack_integrations (id, team_id, user_id, app_id, access_token, scope, linked_user_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (team_id, user_id, app_id) DO UPDATE SET
    access_token   = COALESCE(NULLIF(EXCLUDED.access_token, ''), slack_integrations.access_token),
    scope          = COALESCE(EXCLUDED.scope, slack_integrations.scope),
    linked_user_id = COALESCE(EXCLUDED.linked_user_id, slack_integrations.linked_user_id),
    updated_at     = now()
RETURNING id, team_id, user_id, app_id, access_token, scope, linked_user_id, installed_at, updated_at`

// Upsert is the single mutation point for integrations. The conditional write
// runs as one statement so concurrent installs of the same identity cannot
// race into duplicate rows or lost updates.
func (s *integrationStore) Upsert(ctx context.Context, integration *model.Integration) error {
	row := s.q.QueryRow(ctx, upsertIntegrationSQL,
		integration.ID,
		integration.TeamID,
		integration.UserID,
		integration.AppID,
		integration.AccessToken,
		integration.Scope,
		integration.LinkedUserID,
	)

	if err := scanIntegration(row, integration); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == linkedUserUniqueIndex {
			return ErrLinkedUserTaken
		}
		return fmt.Errorf("upserting integration: %w", err)
	}
	return nil
}

const getByExternalIdentitySQL = `
SELECT id, team_id, user_id, app_id, access_token, scope, linked_user_id, installed_at, updated_at
FROM slack_integrations
WHERE team_id = $1 AND user_id = $2 AND app_id = $3`

func (s *integrationStore) GetByExternalIdentity(ctx context.Context, teamID, userID, appID string) (*model.Integration, error) {
	var integration model.Integration
	row := s.q.QueryRow(ctx, getByExternalIdentitySQL, teamID, userID, appID)
	if err := scanIntegration(row, &integration); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting integration by identity: %w", err)
	}
	return &integration, nil
}

const getByLinkedUserSQL = `
SELECT id, team_id, user_id, app_id, access_token, scope, linked_user_id, installed_at, updated_at
FROM slack_integrations
WHERE linked_user_id = $1`

func (s *integrationStore) GetByLinkedUser(ctx context.Context, linkedUserID string) (*model.Integration, error) {
	var integration model.Integration
	row := s.q.QueryRow(ctx, getByLinkedUserSQL, linkedUserID)
	if err := scanIntegration(row, &integration); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting integration by linked user: %w", err)
	}
	return &integration, nil
}

func scanIntegration(row pgx.Row, dst *model.Integration) error {
	return row.Scan(
		&dst.ID,
		&dst.TeamID,
		&dst.UserID,
		&dst.AppID,
		&dst.AccessToken,
		&dst.Scope,
		&dst.LinkedUserID,
		&dst.InstalledAt,
		&dst.UpdatedAt,
	)
}
