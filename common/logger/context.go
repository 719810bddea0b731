package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment so every log statement inside a request or
// event carries the Slack identity that triggered it. Access tokens and the signing
// secret are deliberately not representable here.
type LogFields struct {
	TeamID      *string // Slack workspace ID
	SlackUserID *string // Slack user ID within that workspace
	AppID       *string // Installed Slack app ID
	EventID     *string // Slack event ID (events API deliveries)
	EventType   *string // Event type (e.g. "app_home_opened")
	Component   string  // Component name (e.g. "botlink.worker.processor")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

// mergeFields merges two LogFields, preferring non-nil/non-empty values from 'new'.
func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.TeamID != nil {
		result.TeamID = new.TeamID
	}
	if new.SlackUserID != nil {
		result.SlackUserID = new.SlackUserID
	}
	if new.AppID != nil {
		result.AppID = new.AppID
	}
	if new.EventID != nil {
		result.EventID = new.EventID
	}
	if new.EventType != nil {
		result.EventType = new.EventType
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{TeamID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}
