package session

import (
	"fmt"

	"github.com/harun/rulesession/internal/observability"
	"github.com/harun/rulesession/pkg/engine"
)

func (s *Session) processRuntime() (*engine.ProcessRuntime, error) {
	wm, err := s.live()
	if err != nil {
		return nil, err
	}
	return wm.ProcessRuntime()
}

// StartProcess creates and starts an instance of processID.
func (s *Session) StartProcess(processID string, params map[string]any) (*engine.ProcessInstance, error) {
	pr, err := s.processRuntime()
	if err != nil {
		return nil, err
	}
	pi, err := pr.StartProcess(processID, params)
	observability.RecordProcessOperation("start", err == nil)
	return pi, err
}

// StartProcessWithCorrelation starts an instance addressable by key.
func (s *Session) StartProcessWithCorrelation(processID, key string, params map[string]any) (*engine.ProcessInstance, error) {
	pr, err := s.processRuntime()
	if err != nil {
		return nil, err
	}
	pi, err := pr.StartProcessWithCorrelation(processID, key, params)
	observability.RecordProcessOperation("start", err == nil)
	return pi, err
}

// CreateProcessInstance creates a pending instance without starting it.
func (s *Session) CreateProcessInstance(processID string, params map[string]any) (*engine.ProcessInstance, error) {
	pr, err := s.processRuntime()
	if err != nil {
		return nil, err
	}
	return pr.CreateProcessInstance(processID, params)
}

// StartProcessInstance starts a pending instance.
func (s *Session) StartProcessInstance(id int64) (*engine.ProcessInstance, error) {
	pr, err := s.processRuntime()
	if err != nil {
		return nil, err
	}
	pi, err := pr.StartProcessInstance(id)
	observability.RecordProcessOperation("start", err == nil)
	return pi, err
}

// SignalEvent delivers an event to every active process instance.
func (s *Session) SignalEvent(eventType string, event any) error {
	pr, err := s.processRuntime()
	if err != nil {
		return err
	}
	err = pr.SignalEvent(eventType, event)
	observability.RecordProcessOperation("signal", err == nil)
	return err
}

// SignalEventTo delivers an event to one process instance.
func (s *Session) SignalEventTo(processInstanceID int64, eventType string, event any) error {
	pr, err := s.processRuntime()
	if err != nil {
		return err
	}
	err = pr.SignalEventTo(processInstanceID, eventType, event)
	observability.RecordProcessOperation("signal", err == nil)
	return err
}

// AbortProcessInstance aborts a live instance.
func (s *Session) AbortProcessInstance(id int64) error {
	pr, err := s.processRuntime()
	if err != nil {
		return err
	}
	err = pr.AbortProcessInstance(id)
	observability.RecordProcessOperation("abort", err == nil)
	return err
}

// ProcessInstance returns a live instance by id.
func (s *Session) ProcessInstance(id int64) (*engine.ProcessInstance, error) {
	pr, err := s.processRuntime()
	if err != nil {
		return nil, err
	}
	pi, ok := pr.ProcessInstance(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", engine.ErrUnknownProcessInstance, id)
	}
	return pi, nil
}

// ProcessInstanceByCorrelation returns a live instance by correlation key.
func (s *Session) ProcessInstanceByCorrelation(key string) (*engine.ProcessInstance, error) {
	pr, err := s.processRuntime()
	if err != nil {
		return nil, err
	}
	pi, ok := pr.ProcessInstanceByCorrelation(key)
	if !ok {
		return nil, fmt.Errorf("%w: correlation key %q", engine.ErrUnknownProcessInstance, key)
	}
	return pi, nil
}

// ProcessInstances returns the live instances ordered by id.
func (s *Session) ProcessInstances() ([]*engine.ProcessInstance, error) {
	pr, err := s.processRuntime()
	if err != nil {
		return nil, err
	}
	return pr.ProcessInstances(), nil
}
