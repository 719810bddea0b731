package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"taskdeck.app/botlink/common/logger"
	"taskdeck.app/botlink/internal/bot"
	"taskdeck.app/botlink/internal/queue"
)

type Worker struct {
	consumer  *queue.RedisConsumer
	processor EventProcessor

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer *queue.RedisConsumer, processor EventProcessor) *Worker {
	return &Worker{
		consumer:  consumer,
		processor: processor,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		w.processMessage(ctx, msg)
	}

	return nil
}

func (w *Worker) processMessage(ctx context.Context, msg queue.Message) {
	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.process_event",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer sc.End()
	ctx = sc.Context()

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TeamID:    logger.Ptr(msg.Event.TeamID),
		EventID:   logger.Ptr(msg.Event.EventID),
		EventType: logger.Ptr(msg.Event.EventType),
		Component: "botlink.worker.processor",
	})

	slog.InfoContext(ctx, "processing event", "message_id", msg.ID, "attempt", msg.Attempt)

	err := w.processSafe(ctx, msg)
	sc.RecordError(err)
	if err == nil {
		if ackErr := w.consumer.Ack(ctx, msg); ackErr != nil {
			slog.ErrorContext(ctx, "failed to ack message", "error", ackErr, "message_id", msg.ID)
		}
		return
	}

	slog.ErrorContext(ctx, "event processing failed", "error", err, "message_id", msg.ID)

	// Only transport failures are worth retrying; anything else would fail
	// the same way again.
	if !errors.Is(err, bot.ErrTransport) || msg.Attempt >= w.consumer.MaxAttempts() {
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to move message to DLQ", "error", dlqErr, "message_id", msg.ID)
		}
		return
	}

	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr, "message_id", msg.ID)
	}
}

func (w *Worker) processSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in event processing",
				"panic", r,
				"message_id", msg.ID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.processor.Process(ctx, msg.Event)
}
