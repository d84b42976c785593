package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"ytframes/internal/logging"
	"ytframes/internal/notifications"
	"ytframes/internal/services"
	"ytframes/internal/session"
)

// interruptedMessage is stored when a stage stops because its context ended.
const interruptedMessage = "interrupted before completion"

// fail persists sess as failed when the lifecycle allows it and returns
// stageErr unchanged.
func (p *Pipeline) fail(ctx context.Context, logger *slog.Logger, sess *session.Session, stage string, stageErr error) error {
	persistCtx := context.WithoutCancel(ctx)

	message := strings.TrimSpace(stageErr.Error())
	if errors.Is(stageErr, context.Canceled) || errors.Is(stageErr, context.DeadlineExceeded) {
		message = interruptedMessage
	}
	if message == "" {
		message = stage + " failed"
	}
	sess.SetFailed(message)

	logging.ErrorWithContext(logger, "stage failed", "stage_failure",
		logging.String(logging.FieldStage, stage),
		logging.String("resolved_status", string(session.StatusFailed)),
		logging.String(logging.FieldErrorHint, services.Hint(stageErr)),
		logging.Error(stageErr),
	)

	if session.CanTransition(sess.Status, session.StatusFailed) {
		if err := p.store.Transition(persistCtx, sess, session.StatusFailed); err != nil {
			logger.Error("failed to persist stage failure", logging.Error(err))
		} else {
			p.metrics.Finished(string(session.StatusFailed))
		}
	}
	if !errors.Is(stageErr, context.Canceled) {
		p.publish(persistCtx, logger, notifications.EventError, notifications.Payload{
			"context": stage,
			"error":   message,
		})
	}
	return stageErr
}

func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "no push notification was delivered"),
		)
	}
}
