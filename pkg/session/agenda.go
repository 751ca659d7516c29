package session

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/harun/rulesession/internal/observability"
	"github.com/harun/rulesession/internal/tracing"
	"github.com/harun/rulesession/pkg/engine"
)

// FireAllRules fires activations until the agenda is empty, Halt is called
// or the WithMaxRules limit is reached. It returns the number fired.
func (s *Session) FireAllRules(opts ...engine.FireOption) (int, error) {
	wm, err := s.live()
	if err != nil {
		return 0, err
	}

	_, span := tracing.StartSpan(context.Background(), "session.fire_all_rules",
		attribute.String("session.id", s.id),
	)
	start := time.Now()
	fired, err := wm.FireAllRules(opts...)
	observability.RecordFireAllRules(fired, time.Since(start))
	span.SetAttributes(attribute.Int("rules.fired", fired))
	tracing.EndSpan(span, err)

	if err != nil {
		s.logger.Warn().Err(err).Int("fired", fired).Msg("Firing stopped on error")
		return fired, err
	}
	s.logger.Debug().Int("fired", fired).Dur("duration", time.Since(start)).Msg("Rules fired")
	return fired, nil
}

// FireUntilHalt keeps firing as activations appear until Halt is called or
// ctx is done.
func (s *Session) FireUntilHalt(ctx context.Context, opts ...engine.FireOption) error {
	wm, err := s.live()
	if err != nil {
		return err
	}
	s.logger.Debug().Msg("Firing until halt")
	return wm.FireUntilHalt(ctx, opts...)
}

// Halt stops a running firing loop.
func (s *Session) Halt() error {
	wm, err := s.live()
	if err != nil {
		return err
	}
	wm.Halt()
	return nil
}

// Agenda returns the agenda for focus and group control.
func (s *Session) Agenda() (*engine.Agenda, error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	return wm.Agenda(), nil
}
