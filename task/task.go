package task

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robmorgan/tempo/logger"
)

// Func is the body of a task. It receives the instant the set was run at.
type Func func(now time.Time)

type entry struct {
	at  time.Time
	seq uint64
	fn  Func
}

// Set holds named, cancellable tasks that are evaluated by polling. Scheduling a name that is already
// pending replaces it. A Set is not safe for concurrent use; its owner serializes access.
type Set struct {
	tasks map[string]entry
	seq   uint64
	log   *logrus.Entry
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{
		tasks: make(map[string]entry),
		log:   logger.WithComponent("task"),
	}
}

// Schedule arranges for fn to run on the first Run at or after at.
func (s *Set) Schedule(name string, at time.Time, fn Func) {
	s.seq++
	s.tasks[name] = entry{at: at, seq: s.seq, fn: fn}
	s.log.WithFields(logrus.Fields{
		"task": name,
		"at":   at.Format("15:04:05.000"),
	}).Trace("scheduled")
}

// Cancel removes a pending task. It reports whether one was pending.
func (s *Set) Cancel(name string) bool {
	if _, ok := s.tasks[name]; !ok {
		return false
	}
	delete(s.tasks, name)
	s.log.WithField("task", name).Trace("cancelled")
	return true
}

// CancelAll removes every pending task and returns how many there were.
func (s *Set) CancelAll() int {
	n := len(s.tasks)
	for name := range s.tasks {
		delete(s.tasks, name)
	}
	return n
}

// Pending returns the deadline of a pending task.
func (s *Set) Pending(name string) (time.Time, bool) {
	e, ok := s.tasks[name]
	return e.at, ok
}

// Len returns the number of pending tasks.
func (s *Set) Len() int {
	return len(s.tasks)
}

// Run executes every task due at now, earliest first, and returns their names. A task is removed
// before it runs so it may reschedule itself. Tasks cancelled by an earlier task in the same run
// do not run, and tasks scheduled during the run wait for the next one.
func (s *Set) Run(now time.Time) []string {
	var ran []string
	limit := s.seq
	for {
		name, e, ok := s.earliestDue(now, limit)
		if !ok {
			return ran
		}
		delete(s.tasks, name)
		ran = append(ran, name)
		e.fn(now)
	}
}

// Next returns the earliest pending deadline.
func (s *Set) Next() (time.Time, bool) {
	var (
		next  time.Time
		found bool
	)
	for _, e := range s.tasks {
		if !found || e.at.Before(next) {
			next, found = e.at, true
		}
	}
	return next, found
}

func (s *Set) earliestDue(now time.Time, limit uint64) (string, entry, bool) {
	var (
		bestName string
		best     entry
		found    bool
	)
	for name, e := range s.tasks {
		if e.seq > limit || e.at.After(now) {
			continue
		}
		if !found || e.at.Before(best.at) || (e.at.Equal(best.at) && e.seq < best.seq) {
			bestName, best, found = name, e, true
		}
	}
	return bestName, best, found
}
