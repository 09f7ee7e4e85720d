package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule runs a job at a fixed interval, measured from the start
// of the previous run.
type IntervalSchedule struct {
	Interval time.Duration
}

// Every creates an IntervalSchedule.
func Every(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns the string representation of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval)
}

// DelayedSchedule wraps another schedule with an initial delay, so heavy
// sweeps do not all fire at process start.
type DelayedSchedule struct {
	Inner Schedule
	Delay time.Duration

	started time.Time
}

// After creates a DelayedSchedule.
func After(delay time.Duration, inner Schedule) *DelayedSchedule {
	return &DelayedSchedule{Inner: inner, Delay: delay}
}

// Next returns the inner schedule's next time, pushed past the initial delay.
func (s *DelayedSchedule) Next(t time.Time) time.Time {
	if s.started.IsZero() {
		s.started = t
		return t.Add(s.Delay)
	}
	return s.Inner.Next(t)
}

// String returns the string representation of the schedule.
func (s *DelayedSchedule) String() string {
	return fmt.Sprintf("after %s, %s", s.Delay, s.Inner)
}
