package mailer

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerSettings tunes BreakerSender.
type BreakerSettings struct {
	Name          string
	MinRequests   uint32        // requests in a window before the failure ratio is considered
	FailureRatio  float64       // ratio at which the breaker opens
	Interval      time.Duration // closed-state counting window
	Timeout       time.Duration // open-state duration before probing again
	OnStateChange func(from, to gobreaker.State)
}

// BreakerSender stops dialing a failing relay for a while so that a dead mail
// path fails fast instead of holding every request for the dial timeout.
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerSender wraps next with a circuit breaker.
func NewBreakerSender(next Sender, s BreakerSettings) *BreakerSender {
	if s.Name == "" {
		s.Name = "smtp"
	}
	if s.MinRequests == 0 {
		s.MinRequests = 5
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = 0.6
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.Timeout == 0 {
		s.Timeout = 2 * time.Minute
	}

	settings := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
	}
	if s.OnStateChange != nil {
		settings.OnStateChange = func(_ string, from, to gobreaker.State) {
			s.OnStateChange(from, to)
		}
	}

	return &BreakerSender{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Send delivers msg unless the breaker is open, in which case it returns
// gobreaker.ErrOpenState without touching the relay.
func (b *BreakerSender) Send(ctx context.Context, msg Message) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Send(ctx, msg)
	})
	return err
}

// State reports the current breaker state.
func (b *BreakerSender) State() gobreaker.State {
	return b.cb.State()
}
