package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/harun/rulesession/internal/observability"
	"github.com/harun/rulesession/internal/tracing"
	"github.com/harun/rulesession/pkg/command"
	"github.com/harun/rulesession/pkg/engine"
)

// errCommandPanicked marks the span and audit record of a command that
// panicked. The panic itself propagates to the caller.
var errCommandPanicked = errors.New("command panicked")

// Execute runs cmd against the session. A nil cctx gets a fresh context.
// A single command returns its own value; a batch returns the shared
// *command.ExecutionResults.
func (s *Session) Execute(cmd command.Command, cctx command.Context) (any, error) {
	return s.ExecuteContext(context.Background(), cmd, cctx)
}

// ExecuteContext is Execute with a parent context for tracing.
func (s *Session) ExecuteContext(ctx context.Context, cmd command.Command, cctx command.Context) (out any, err error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	if cmd == nil {
		return nil, ErrNilCommand
	}

	name := commandName(cmd)
	ctx = tracing.NewExecutionContext(ctx, s.id)
	ctx, span := tracing.StartSpan(ctx, "session.execute",
		attribute.String("session.id", s.id),
		attribute.String("command", name),
	)
	logger := tracing.LoggerFromContext(ctx, s.logger)

	if cctx == nil {
		cctx = command.NewContext(nil)
	}
	results := cctx.Results()
	if results == nil {
		results = command.NewExecutionResults()
	}
	fixed := command.NewFixedContext(cctx, "", s.kbase, s, results)

	start := time.Now()
	batch, isBatch := cmd.(command.BatchCommand)
	completed := false
	defer func() {
		result := err
		if !completed {
			result = errCommandPanicked
		}
		duration := time.Since(start)
		if isBatch {
			observability.RecordBatchExecution(result == nil)
		}
		observability.RecordCommandExecution(name, duration, result == nil)
		tracing.EndSpan(span, result)

		status := "success"
		if result != nil {
			status = "failure"
			logger.Warn().Err(result).Str("command", name).Dur("duration", duration).Msg("Command failed")
		} else {
			logger.Debug().Str("command", name).Bool("batch", isBatch).Dur("duration", duration).Msg("Command executed")
		}
		observability.RecordCommandAudit(ctx, name, s.id, status, nil)
	}()

	if isBatch {
		out, err = s.executeBatch(wm, batch, fixed, results)
	} else {
		out, err = cmd.Execute(fixed)
	}
	completed = true
	return out, err
}

func (s *Session) executeBatch(wm engine.WorkingMemory, batch command.BatchCommand, fixed command.Context, results *command.ExecutionResults) (any, error) {
	wm.StartBatchExecution(results)
	defer wm.EndBatchExecution()

	if _, err := batch.Execute(fixed); err != nil {
		return nil, err
	}
	return results, nil
}

func commandName(cmd command.Command) string {
	name := fmt.Sprintf("%T", cmd)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}
