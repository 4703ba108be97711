package studio

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// DefaultLogCapacity is the number of entries a generation log keeps.
const DefaultLogCapacity = 100

// LogEntry is one line of the generation log.
type LogEntry struct {
	Time    time.Time
	Message string
}

func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] %s", e.Time.Format("15:04:05"), e.Message)
}

// Log is a bounded, newest-first list of user-facing status messages.
type Log struct {
	mu       sync.Mutex
	capacity int
	now      func() time.Time
	entries  []LogEntry
}

func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}

	return &Log{capacity: capacity, now: time.Now}
}

func (l *Log) Add(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append([]LogEntry{{Time: l.now(), Message: msg}}, l.entries...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
}

func (l *Log) Addf(format string, args ...any) {
	l.Add(fmt.Sprintf(format, args...))
}

// Entries returns a copy, newest first.
func (l *Log) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]LogEntry(nil), l.entries...)
}

// FormatTime renders seconds as mm:ss.d, flooring every field.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}

	mins := int(math.Floor(seconds / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	tenths := int(math.Floor(math.Mod(seconds, 1) * 10))

	return fmt.Sprintf("%02d:%02d.%d", mins, secs, tenths)
}
