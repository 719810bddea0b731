package model

// SlackEvent is a verified Events API delivery as it travels through the
// pipeline. Payload is the inner event object exactly as Slack sent it.
type SlackEvent struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	TeamID    string `json:"team_id"`
	UserID    string `json:"user_id"`
	AppID     string `json:"app_id"`
	Payload   []byte `json:"payload"`
}
