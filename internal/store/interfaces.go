package store

import (
	"context"
	"errors"

	"taskdeck.app/botlink/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrLinkedUserTaken is returned when an upsert would associate a Taskdeck
// account that is already linked to a different install of the same app.
var ErrLinkedUserTaken = errors.New("taskdeck account already linked to another install")

// IntegrationStore defines the contract for integration data access
type IntegrationStore interface {
	// Upsert inserts the record, or merges it into the existing row with the
	// same (team, user, app) identity. Non-empty incoming fields win; empty
	// ones leave the stored values untouched. Atomic under concurrent calls
	// for the same identity.
	Upsert(ctx context.Context, integration *model.Integration) error
	GetByExternalIdentity(ctx context.Context, teamID, userID, appID string) (*model.Integration, error)
	GetByLinkedUser(ctx context.Context, linkedUserID string) (*model.Integration, error)
}
