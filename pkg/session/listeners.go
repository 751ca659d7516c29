package session

import (
	"fmt"

	"github.com/harun/rulesession/internal/observability"
	"github.com/harun/rulesession/pkg/event"
	"github.com/harun/rulesession/pkg/listener"
)

func add[L any](s *Session, r *listener.Registry[L], l L) error {
	if _, err := s.live(); err != nil {
		return err
	}
	if r.Add(l) {
		observability.AddRegisteredListeners(r.Kind().String(), 1)
		s.logger.Debug().Stringer("kind", r.Kind()).Str("listener", fmt.Sprintf("%T", l)).Msg("Listener added")
	}
	return nil
}

func remove[L any](s *Session, r *listener.Registry[L], l L) error {
	if _, err := s.live(); err != nil {
		return err
	}
	if r.Remove(l) {
		observability.AddRegisteredListeners(r.Kind().String(), -1)
		s.logger.Debug().Stringer("kind", r.Kind()).Str("listener", fmt.Sprintf("%T", l)).Msg("Listener removed")
	}
	return nil
}

func list[L any](s *Session, r *listener.Registry[L]) ([]L, error) {
	if _, err := s.live(); err != nil {
		return nil, err
	}
	return r.ListAll(), nil
}

// AddWorkingMemoryEventListener registers a fact listener. Adding an
// equivalent listener twice keeps one registration.
func (s *Session) AddWorkingMemoryEventListener(l event.WorkingMemoryEventListener) error {
	return add(s, s.wmListeners, l)
}

// RemoveWorkingMemoryEventListener unregisters a fact listener. Removing an
// unknown listener is a no-op.
func (s *Session) RemoveWorkingMemoryEventListener(l event.WorkingMemoryEventListener) error {
	return remove(s, s.wmListeners, l)
}

// WorkingMemoryEventListeners lists the fact listeners in registration order.
func (s *Session) WorkingMemoryEventListeners() ([]event.WorkingMemoryEventListener, error) {
	return list(s, s.wmListeners)
}

// AddAgendaEventListener registers an agenda listener.
func (s *Session) AddAgendaEventListener(l event.AgendaEventListener) error {
	return add(s, s.agendaListeners, l)
}

// RemoveAgendaEventListener unregisters an agenda listener.
func (s *Session) RemoveAgendaEventListener(l event.AgendaEventListener) error {
	return remove(s, s.agendaListeners, l)
}

// AgendaEventListeners lists the agenda listeners.
func (s *Session) AgendaEventListeners() ([]event.AgendaEventListener, error) {
	return list(s, s.agendaListeners)
}

// AddProcessEventListener registers a process listener.
func (s *Session) AddProcessEventListener(l event.ProcessEventListener) error {
	return add(s, s.processListeners, l)
}

// RemoveProcessEventListener unregisters a process listener.
func (s *Session) RemoveProcessEventListener(l event.ProcessEventListener) error {
	return remove(s, s.processListeners, l)
}

// ProcessEventListeners lists the process listeners.
func (s *Session) ProcessEventListeners() ([]event.ProcessEventListener, error) {
	return list(s, s.processListeners)
}

// AddEventListener registers a listener for every event family.
func (s *Session) AddEventListener(l event.EventListener) error {
	return add(s, s.eventListeners, l)
}

// RemoveEventListener unregisters a generic listener.
func (s *Session) RemoveEventListener(l event.EventListener) error {
	return remove(s, s.eventListeners, l)
}

// EventListeners lists the generic listeners.
func (s *Session) EventListeners() ([]event.EventListener, error) {
	return list(s, s.eventListeners)
}
