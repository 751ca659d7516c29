package session

import (
	"fmt"
	"time"

	"github.com/harun/rulesession/internal/observability"
	"github.com/harun/rulesession/pkg/engine"
	"github.com/harun/rulesession/pkg/storeview"
)

// Insert adds object to the default entry point.
func (s *Session) Insert(object any) (*engine.FactHandle, error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	h, err := wm.Insert(object)
	observability.RecordFactOperation("insert", err == nil)
	return h, err
}

// Update replaces the object behind h.
func (s *Session) Update(h *engine.FactHandle, object any) error {
	wm, err := s.live()
	if err != nil {
		return err
	}
	err = wm.Update(h, object)
	observability.RecordFactOperation("update", err == nil)
	return err
}

// UpdateObject re-evaluates an object that was modified in place.
func (s *Session) UpdateObject(object any) error {
	wm, err := s.live()
	if err != nil {
		return err
	}
	h := wm.FactHandle(object)
	if h == nil {
		observability.RecordFactOperation("update", false)
		return fmt.Errorf("%w: object not in working memory", engine.ErrUnknownFactHandle)
	}
	err = wm.Update(h, object)
	observability.RecordFactOperation("update", err == nil)
	return err
}

// Delete removes the fact behind h.
func (s *Session) Delete(h *engine.FactHandle) error {
	wm, err := s.live()
	if err != nil {
		return err
	}
	err = wm.Delete(h)
	observability.RecordFactOperation("delete", err == nil)
	return err
}

// FactHandle returns the handle of object, or nil when it is not present.
func (s *Session) FactHandle(object any) (*engine.FactHandle, error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	return wm.FactHandle(object), nil
}

// Object returns the live object behind h, or nil.
func (s *Session) Object(h *engine.FactHandle) (any, error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	return wm.Object(h), nil
}

// Objects returns a live read-only view of the default entry point's
// objects accepted by filter. A nil filter accepts everything.
func (s *Session) Objects(filter engine.ObjectFilter) (*storeview.View[any], error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	return storeview.Objects(wm.ObjectStore(), filter), nil
}

// FactHandles returns a live read-only view of the default entry point's
// handles whose objects are accepted by filter.
func (s *Session) FactHandles(filter engine.ObjectFilter) (*storeview.View[*engine.FactHandle], error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	return storeview.Handles(wm.ObjectStore(), filter), nil
}

// FactCount returns the number of facts in the default entry point.
func (s *Session) FactCount() (int, error) {
	wm, err := s.live()
	if err != nil {
		return 0, err
	}
	return wm.FactCount(), nil
}

// EntryPoint returns a named entry point.
func (s *Session) EntryPoint(name string) (*engine.EntryPoint, error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	return wm.EntryPoint(name)
}

// EntryPoints returns every entry point.
func (s *Session) EntryPoints() ([]*engine.EntryPoint, error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	return wm.EntryPoints(), nil
}

// SetGlobal sets a global. A nil value removes it.
func (s *Session) SetGlobal(name string, value any) error {
	wm, err := s.live()
	if err != nil {
		return err
	}
	wm.Globals().Set(name, value)
	return nil
}

// Global returns a global value.
func (s *Session) Global(name string) (any, error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	v, ok := wm.Globals().Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGlobal, name)
	}
	return v, nil
}

// Globals returns the globals.
func (s *Session) Globals() (*engine.Globals, error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	return wm.Globals(), nil
}

// Environment returns the session environment.
func (s *Session) Environment() (*engine.Environment, error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	return wm.Environment(), nil
}

// RegisterChannel makes ch reachable from rule consequences under name.
func (s *Session) RegisterChannel(name string, ch engine.Channel) error {
	wm, err := s.live()
	if err != nil {
		return err
	}
	return wm.Channels().Register(name, ch)
}

// UnregisterChannel removes a channel.
func (s *Session) UnregisterChannel(name string) error {
	wm, err := s.live()
	if err != nil {
		return err
	}
	wm.Channels().Unregister(name)
	return nil
}

// Channels returns a snapshot of the registered channels.
func (s *Session) Channels() (map[string]engine.Channel, error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	return wm.Channels().Snapshot(), nil
}

// Query runs a named query.
func (s *Session) Query(name string, args ...any) (*engine.QueryResults, error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	return wm.Query(name, args...)
}

// OpenLiveQuery keeps the named query open and reports row changes to
// listener until the returned query is closed or the session is disposed.
func (s *Session) OpenLiveQuery(name string, listener engine.ViewChangedListener, args ...any) (*engine.LiveQuery, error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	lq, err := wm.OpenLiveQuery(name, listener, args...)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("query", name).Msg("Live query opened")
	return lq, nil
}

// SessionClock returns the session clock.
func (s *Session) SessionClock() (engine.SessionClock, error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	return wm.SessionClock(), nil
}

// Schedule runs job on the cron schedule expr, driven by the session clock.
func (s *Session) Schedule(expr string, job func(now time.Time)) (engine.JobID, error) {
	wm, err := s.live()
	if err != nil {
		return 0, err
	}
	id, err := wm.TimerService().Schedule(expr, job)
	if err != nil {
		return 0, err
	}
	s.logger.Debug().Int64("job_id", int64(id)).Str("expr", expr).Msg("Timer scheduled")
	return id, nil
}

// CancelTimer stops a scheduled job. It reports whether the job existed.
func (s *Session) CancelTimer(id engine.JobID) (bool, error) {
	wm, err := s.live()
	if err != nil {
		return false, err
	}
	return wm.TimerService().Cancel(id), nil
}

// Timers lists the scheduled jobs.
func (s *Session) Timers() ([]engine.Job, error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	return wm.TimerService().Jobs(), nil
}
