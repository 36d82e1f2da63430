package sim

import (
	"cmp"
	"slices"
	"time"
)

// BatchToken identifies the tasks of one delayed batch.
type BatchToken uint64

type task struct {
	token BatchToken
	due   time.Time
	seq   uint64
	fn    func()
}

// Scheduler runs delayed tasks on the caller's goroutine. Nothing fires on
// its own: RunDue executes whatever is due at the clock's current time.
//
// Only the most recent batch is live. NewBatch drops every task of earlier
// batches, so a stale update can never land after a newer one.
type Scheduler struct {
	clock   Clock
	tasks   []*task
	current BatchToken
	seq     uint64
}

func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock()
	}
	return &Scheduler{clock: clock}
}

// NewBatch cancels all pending tasks and returns the token of a new batch.
func (s *Scheduler) NewBatch() BatchToken {
	s.current++
	s.tasks = s.tasks[:0]
	return s.current
}

// Schedule queues fn to run delay from now. Tasks for a token other than
// the current batch are refused.
func (s *Scheduler) Schedule(token BatchToken, delay time.Duration, fn func()) bool {
	if token != s.current || token == 0 {
		return false
	}
	s.seq++
	s.tasks = append(s.tasks, &task{
		token: token,
		due:   s.clock.Now().Add(delay),
		seq:   s.seq,
		fn:    fn,
	})
	return true
}

// Cancel drops the pending tasks of token and returns how many there were.
func (s *Scheduler) Cancel(token BatchToken) int {
	n := len(s.tasks)
	s.tasks = slices.DeleteFunc(s.tasks, func(t *task) bool { return t.token == token })
	return n - len(s.tasks)
}

// RunDue fires every task due by now, earliest first and in scheduling
// order on ties. A task cancelled by an earlier one in the same call does
// not fire.
func (s *Scheduler) RunDue() int {
	now := s.clock.Now()
	var due []*task
	rest := s.tasks[:0]
	for _, t := range s.tasks {
		if t.due.After(now) {
			rest = append(rest, t)
		} else {
			due = append(due, t)
		}
	}
	s.tasks = rest
	if len(due) == 0 {
		return 0
	}

	slices.SortFunc(due, func(a, b *task) int {
		if c := a.due.Compare(b.due); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})

	fired := 0
	for _, t := range due {
		if t.token != s.current {
			continue
		}
		t.fn()
		fired++
	}
	return fired
}

func (s *Scheduler) Pending() int { return len(s.tasks) }

// Current returns the live batch token, 0 before the first batch.
func (s *Scheduler) Current() BatchToken { return s.current }
