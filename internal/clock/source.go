package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a scheduled callback that can be stopped before it runs
type Timer interface {
	Stop() bool
}

// Source supplies the current time and one-shot callbacks
type Source interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// System is the wall-clock Source
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

func (System) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Manual is a Source whose time only moves when Advance or Set is called.
// Due callbacks run synchronously on the goroutine that moves the time.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	m       *Manual
	at      time.Time
	seq     int
	f       func()
	stopped bool
}

// NewManual returns a Manual clock starting at start
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, at: m.now.Add(d), seq: m.seq, f: f}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward by d and runs every callback that became due
func (m *Manual) Advance(d time.Duration) {
	m.Set(m.Now().Add(d))
}

// Set moves the clock to t (never backwards) and runs every callback that became due
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	if t.After(m.now) {
		m.now = t
	}
	var due, rest []*manualTimer
	for _, tm := range m.timers {
		switch {
		case tm.stopped:
		case !tm.at.After(m.now):
			due = append(due, tm)
		default:
			rest = append(rest, tm)
		}
	}
	m.timers = rest
	for _, tm := range due {
		tm.stopped = true
	}
	m.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	for _, tm := range due {
		tm.f()
	}
}

// Pending returns how many callbacks are still scheduled
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, tm := range m.timers {
		if !tm.stopped {
			n++
		}
	}
	return n
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}
