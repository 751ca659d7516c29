package session

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/harun/rulesession/internal/observability"
	"github.com/harun/rulesession/internal/tracing"
	"github.com/harun/rulesession/pkg/auditlog"
	"github.com/harun/rulesession/pkg/command"
	"github.com/harun/rulesession/pkg/engine"
	"github.com/harun/rulesession/pkg/event"
	"github.com/harun/rulesession/pkg/listener"
)

var (
	// ErrSessionDisposed is returned by every operation on a disposed session.
	ErrSessionDisposed = errors.New("rule session disposed")
	// ErrUnknownGlobal is returned when reading a global that was never set.
	ErrUnknownGlobal = errors.New("unknown global")
	// ErrNilCommand is returned by Execute for a nil command.
	ErrNilCommand = errors.New("nil command")
)

// state is the lifecycle tag. A nil working memory means Disposed.
type state struct {
	wm engine.WorkingMemory
}

var disposed = &state{}

func (st *state) active() bool { return st.wm != nil }

// Session is a stateful rule session.
type Session struct {
	id     string
	kbase  *engine.KnowledgeBase
	logger zerolog.Logger

	state     atomic.Pointer[state]
	disposing atomic.Bool
	closers   []io.Closer

	wmListeners      *listener.Registry[event.WorkingMemoryEventListener]
	agendaListeners  *listener.Registry[event.AgendaEventListener]
	processListeners *listener.Registry[event.ProcessEventListener]
	eventListeners   *listener.Registry[event.EventListener]
}

var (
	_ command.Runtime = (*Session)(nil)
	_ event.Runtime   = (*Session)(nil)
)

type options struct {
	logger  zerolog.Logger
	audit   *auditlog.Logger
	closers []io.Closer
}

// Option configures a Session.
type Option func(*options)

// WithLogger sets the session logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithAuditLog registers al for every event and closes it on Dispose.
func WithAuditLog(al *auditlog.Logger) Option {
	return func(o *options) { o.audit = al }
}

// WithCloser closes c when the session is disposed.
func WithCloser(c io.Closer) Option {
	return func(o *options) {
		if c != nil {
			o.closers = append(o.closers, c)
		}
	}
}

func collect(opts []Option) options {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// New wraps wm in a session. The session becomes the runtime reported to
// listeners.
func New(wm engine.WorkingMemory, opts ...Option) *Session {
	observability.EnsureRegistered()
	o := collect(opts)

	s := &Session{
		id:               wm.ID(),
		kbase:            wm.KnowledgeBase(),
		logger:           o.logger.With().Str("component", "session").Str("session_id", wm.ID()).Logger(),
		closers:          o.closers,
		wmListeners:      listener.NewWorkingMemoryRegistry(wm.WorkingMemoryListeners()),
		agendaListeners:  listener.NewAgendaRegistry(wm.AgendaListeners()),
		processListeners: listener.NewProcessRegistry(wm.ProcessListeners()),
		eventListeners:   listener.NewGenericRegistry(wm),
	}
	s.state.Store(&state{wm: wm})
	wm.SetRuntime(s)

	if o.audit != nil {
		_ = add(s, s.eventListeners, event.EventListener(o.audit))
		s.closers = append(s.closers, o.audit)
	}

	observability.RecordSessionCreated()
	observability.RecordSessionAudit(context.Background(), "created", s.id, "success", map[string]any{
		"kbase": s.kbase.Name(),
	})
	s.logger.Debug().Msg("Session created")
	return s
}

// NewFromKnowledgeBase creates a working memory over kb and wraps it. The
// WithLogger logger, when given, replaces cfg.Logger.
func NewFromKnowledgeBase(kb *engine.KnowledgeBase, cfg engine.Config, opts ...Option) *Session {
	o := collect(opts)
	if o.logger.GetLevel() != zerolog.Disabled {
		cfg.Logger = o.logger
	}
	return New(engine.New(kb, cfg), opts...)
}

func (s *Session) live() (engine.WorkingMemory, error) {
	st := s.state.Load()
	if !st.active() {
		return nil, ErrSessionDisposed
	}
	return st.wm, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// IsAlive reports whether the session is still Active.
func (s *Session) IsAlive() bool { return s.state.Load().active() }

// KnowledgeBase returns the knowledge base the session was built from.
func (s *Session) KnowledgeBase() *engine.KnowledgeBase { return s.kbase }

// Logger returns the session logger.
func (s *Session) Logger() zerolog.Logger { return s.logger }

// Dispose closes auxiliary resources, disposes the working memory and marks
// the session Disposed. Calling it again is a no-op.
func (s *Session) Dispose() {
	st := s.state.Load()
	if !st.active() || !s.disposing.CompareAndSwap(false, true) {
		return
	}

	ctx, span := tracing.StartSpan(context.Background(), "session.dispose",
		attribute.String("session.id", s.id),
	)
	defer span.End()

	for _, c := range s.closers {
		s.closeResource(c)
	}
	s.releaseListenerMetrics()
	st.wm.Dispose()
	s.state.Store(disposed)

	observability.RecordSessionDisposed()
	observability.RecordSessionAudit(ctx, "disposed", s.id, "success", nil)
	s.logger.Debug().Msg("Session disposed")
}

// closeResource closes c, logging and discarding both errors and panics.
func (s *Session) closeResource(c io.Closer) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug().Interface("panic", r).Msg("Session resource panicked on close")
		}
	}()
	if err := c.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to close session resource")
	}
}

// Destroy is an alias of Dispose.
func (s *Session) Destroy() { s.Dispose() }

func (s *Session) releaseListenerMetrics() {
	counts := map[string]int{
		s.wmListeners.Kind().String():      len(s.wmListeners.ListAll()),
		s.agendaListeners.Kind().String():  len(s.agendaListeners.ListAll()),
		s.processListeners.Kind().String(): len(s.processListeners.ListAll()),
		s.eventListeners.Kind().String():   len(s.eventListeners.ListAll()),
	}
	for kind, n := range counts {
		if n > 0 {
			observability.AddRegisteredListeners(kind, -n)
		}
	}
}
