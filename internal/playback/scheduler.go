package playback

import (
	"sync"
	"time"
)

// FrameHandle identifies a pending frame callback.
type FrameHandle uint64

// FrameScheduler runs a callback once on the next display frame.
type FrameScheduler interface {
	RequestFrame(cb func()) FrameHandle
	CancelFrame(h FrameHandle)
}

// DefaultFrameRate is the polling rate of TimerScheduler when none is given.
const DefaultFrameRate = 60

// TimerScheduler fires frame callbacks from timers at a fixed rate.
type TimerScheduler struct {
	interval time.Duration

	mu     sync.Mutex
	next   FrameHandle
	timers map[FrameHandle]*time.Timer
}

// NewTimerScheduler returns a scheduler firing fps times per second.
func NewTimerScheduler(fps int) *TimerScheduler {
	if fps <= 0 {
		fps = DefaultFrameRate
	}

	return &TimerScheduler{
		interval: time.Second / time.Duration(fps),
		timers:   make(map[FrameHandle]*time.Timer),
	}
}

func (s *TimerScheduler) RequestFrame(cb func()) FrameHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	h := s.next
	s.timers[h] = time.AfterFunc(s.interval, func() {
		s.mu.Lock()
		_, pending := s.timers[h]
		delete(s.timers, h)
		s.mu.Unlock()

		if pending {
			cb()
		}
	})

	return h
}

func (s *TimerScheduler) CancelFrame(h FrameHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[h]; ok {
		t.Stop()
		delete(s.timers, h)
	}
}

// Pending returns the number of armed callbacks.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.timers)
}
