package services

import (
	"context"
	"errors"

	"rempah/internal/metrics"
	"rempah/pkg/logging"
	"rempah/pkg/mailer"

	gobreaker "github.com/sony/gobreaker/v2"
)

// notify sends msg and swallows any failure after logging it. Outbound mail
// is best-effort: it never fails the operation that triggered it.
func notify(ctx context.Context, sender mailer.Sender, msg mailer.Message) {
	if sender == nil {
		return
	}
	err := sender.Send(ctx, msg)
	switch {
	case err == nil:
		metrics.Notifications.WithLabelValues("sent").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.Notifications.WithLabelValues("rejected").Inc()
		logging.Warn().Err(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("mail relay unavailable, notification dropped")
	default:
		metrics.Notifications.WithLabelValues("failed").Inc()
		logging.Warn().Err(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("notification failed")
	}
}
