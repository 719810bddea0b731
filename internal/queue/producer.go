package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"taskdeck.app/botlink/internal/model"
)

type EventMessage struct {
	Event   model.SlackEvent
	Attempt int
}

type Producer interface {
	Enqueue(ctx context.Context, msg EventMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg EventMessage) error {
	attempt := msg.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"event_id":   msg.Event.EventID,
		"event_type": msg.Event.EventType,
		"team_id":    msg.Event.TeamID,
		"user_id":    msg.Event.UserID,
		"app_id":     msg.Event.AppID,
		"payload":    string(msg.Event.Payload),
		"attempt":    attempt,
	}

	// Carry the trace across the stream so the worker span links back to the
	// inbound request.
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		fields["trace_id"] = sc.TraceID().String()
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued slack event",
		"event_id", msg.Event.EventID,
		"event_type", msg.Event.EventType,
		"team_id", msg.Event.TeamID,
		"attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
