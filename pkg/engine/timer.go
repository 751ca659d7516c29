package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ClockType selects the session clock implementation.
type ClockType string

const (
	ClockRealtime ClockType = "realtime"
	ClockPseudo   ClockType = "pseudo"
)

// ParseClockType validates a clock type name. Empty means realtime.
func ParseClockType(s string) (ClockType, error) {
	switch ClockType(strings.ToLower(strings.TrimSpace(s))) {
	case "", ClockRealtime:
		return ClockRealtime, nil
	case ClockPseudo:
		return ClockPseudo, nil
	default:
		return "", fmt.Errorf("unknown clock type %q", s)
	}
}

// SessionClock reports session time.
type SessionClock interface {
	Now() time.Time
}

// RealtimeClock follows the wall clock.
type RealtimeClock struct{}

// Now returns time.Now.
func (RealtimeClock) Now() time.Time { return time.Now() }

// PseudoClock only moves when advanced. Advancing runs the timer jobs that
// became due.
type PseudoClock struct {
	mu     sync.Mutex
	now    time.Time
	timers *TimerService
}

// NewPseudoClock creates a pseudo clock starting at start.
func NewPseudoClock(start time.Time) *PseudoClock {
	return &PseudoClock{now: start}
}

// Now returns the current pseudo time.
func (c *PseudoClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AdvanceTime moves the clock forward and fires due jobs. It returns the new time.
func (c *PseudoClock) AdvanceTime(d time.Duration) time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	timers := c.timers
	c.mu.Unlock()

	if timers != nil {
		timers.runDue(now)
	}
	return now
}

// JobID identifies a scheduled job.
type JobID int64

// Job is a scheduled callback.
type Job struct {
	ID      JobID
	Expr    string
	NextRun time.Time
	Runs    int

	schedule cron.Schedule
	fn       func(now time.Time)
	timer    *time.Timer
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// TimerService schedules cron expressions against the session clock.
// Realtime clocks use one time.AfterFunc per job; pseudo clocks run jobs from
// AdvanceTime.
type TimerService struct {
	clock  SessionClock
	pseudo bool
	logger zerolog.Logger

	mu      sync.Mutex
	seq     JobID
	jobs    map[JobID]*Job
	stopped bool
}

func newTimerService(clock SessionClock, logger zerolog.Logger) *TimerService {
	ts := &TimerService{
		clock:  clock,
		logger: logger,
		jobs:   make(map[JobID]*Job),
	}
	if pc, ok := clock.(*PseudoClock); ok {
		ts.pseudo = true
		pc.mu.Lock()
		pc.timers = ts
		pc.mu.Unlock()
	}
	return ts
}

// Schedule registers fn under a cron expression ("*/5 * * * * *",
// "@every 1m", ...).
func (ts *TimerService) Schedule(expr string, fn func(now time.Time)) (JobID, error) {
	if fn == nil {
		return 0, fmt.Errorf("job function is required")
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0, fmt.Errorf("invalid cron expression: %w", err)
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.stopped {
		return 0, fmt.Errorf("timer service stopped")
	}
	ts.seq++
	job := &Job{
		ID:       ts.seq,
		Expr:     expr,
		NextRun:  sched.Next(ts.clock.Now()),
		schedule: sched,
		fn:       fn,
	}
	ts.jobs[job.ID] = job
	if !ts.pseudo {
		ts.armLocked(job)
	}

	ts.logger.Debug().
		Int64("job_id", int64(job.ID)).
		Str("expr", expr).
		Time("next_run", job.NextRun).
		Msg("Timer job scheduled")
	return job.ID, nil
}

func (ts *TimerService) armLocked(job *Job) {
	delay := time.Until(job.NextRun)
	if delay < 0 {
		delay = 0
	}
	job.timer = time.AfterFunc(delay, func() {
		ts.runJob(job.ID, ts.clock.Now())
	})
}

// Cancel removes a job. It reports whether the job existed.
func (ts *TimerService) Cancel(id JobID) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	job, ok := ts.jobs[id]
	if !ok {
		return false
	}
	if job.timer != nil {
		job.timer.Stop()
	}
	delete(ts.jobs, id)
	return true
}

// Jobs returns a snapshot of the scheduled jobs ordered by next run.
func (ts *TimerService) Jobs() []Job {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	out := make([]Job, 0, len(ts.jobs))
	for _, j := range ts.jobs {
		out = append(out, Job{ID: j.ID, Expr: j.Expr, NextRun: j.NextRun, Runs: j.Runs})
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].NextRun.Equal(out[k].NextRun) {
			return out[i].ID < out[k].ID
		}
		return out[i].NextRun.Before(out[k].NextRun)
	})
	return out
}

// Stop cancels every job. Further Schedule calls fail.
func (ts *TimerService) Stop() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for id, job := range ts.jobs {
		if job.timer != nil {
			job.timer.Stop()
		}
		delete(ts.jobs, id)
	}
	ts.stopped = true
}

func (ts *TimerService) runJob(id JobID, now time.Time) {
	ts.mu.Lock()
	job, ok := ts.jobs[id]
	if !ok || ts.stopped {
		ts.mu.Unlock()
		return
	}
	job.Runs++
	job.NextRun = job.schedule.Next(now)
	fn := job.fn
	if !ts.pseudo {
		ts.armLocked(job)
	}
	ts.mu.Unlock()

	fn(now)
}

// runDue fires every pseudo job due at or before now, in due order. A job
// that became due several times fires once per missed slot.
func (ts *TimerService) runDue(now time.Time) {
	for {
		ts.mu.Lock()
		var due *Job
		for _, j := range ts.jobs {
			if j.NextRun.After(now) {
				continue
			}
			if due == nil || j.NextRun.Before(due.NextRun) || (j.NextRun.Equal(due.NextRun) && j.ID < due.ID) {
				due = j
			}
		}
		if due == nil || ts.stopped {
			ts.mu.Unlock()
			return
		}
		at := due.NextRun
		due.Runs++
		due.NextRun = due.schedule.Next(at)
		fn := due.fn
		ts.mu.Unlock()

		fn(at)
	}
}
