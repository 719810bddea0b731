package model

import "time"

// Integration represents one authorized link between a Slack install identity
// and, optionally, a Taskdeck account. The (TeamID, UserID, AppID) triple is
// the natural key: re-installation by the same identity updates the row.
type Integration struct {
	ID     int64  `json:"id,string"`
	TeamID string `json:"team_id"`
	UserID string `json:"user_id"`
	AppID  string `json:"app_id"`
	// AccessToken is the bot credential issued by Slack. Never exposed in API
	// responses or logs.
	AccessToken string  `json:"-"`
	Scope       *string `json:"scope,omitempty"`
	// LinkedUserID is the Taskdeck account this install is associated with.
	// Nil means the app was installed anonymously and never linked.
	LinkedUserID *string   `json:"linked_user_id,omitempty"`
	InstalledAt  time.Time `json:"installed_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Linked reports whether the install is associated with a Taskdeck account.
func (i *Integration) Linked() bool {
	return i.LinkedUserID != nil && *i.LinkedUserID != ""
}
