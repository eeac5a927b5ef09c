package domain

import (
	"sync"
	"time"
)

// LogLevel classifies an activity entry for presentation.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogSuccess LogLevel = "success"
	LogError   LogLevel = "error"
	LogWarning LogLevel = "warning"
)

// LogEntry is one line of the rolling activity feed.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Type      LogLevel  `json:"type"`
}

const activityLogCapacity = 50

// ActivityLog is an append-only ring of the most recent entries. When the
// capacity is exceeded the oldest entries are silently dropped; insertion
// order is append order, so eviction is strictly FIFO.
type ActivityLog struct {
	mu      sync.Mutex
	entries []LogEntry
	now     func() time.Time
}

func NewActivityLog() *ActivityLog {
	return &ActivityLog{now: time.Now}
}

// Append records a new entry, evicting the oldest once the log is full.
func (l *ActivityLog) Append(level LogLevel, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Timestamp: l.now(), Message: message, Type: level})
	if n := len(l.entries); n > activityLogCapacity {
		l.entries = l.entries[n-activityLogCapacity:]
	}
}

// Entries returns a copy of the retained entries, oldest first.
func (l *ActivityLog) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of retained entries.
func (l *ActivityLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
