// Package toast is the fire-and-forget user notification sink. The flow
// engine pushes terminal-state notices here; nothing ever reads a return
// value back out of it.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Display retention per level; errors and warnings stay longer.
const (
	defaultTTL = 5 * time.Second
	errorTTL   = 8 * time.Second
	warningTTL = 7 * time.Second
)

// DefaultCapacity bounds the in-memory notification log.
const DefaultCapacity = 100

type Notification struct {
	ID        string
	Level     Level
	Title     string
	Message   string
	TTL       time.Duration
	CreatedAt time.Time
}

// Notifier is the interface consumed by the flow engine.
type Notifier interface {
	ShowSuccess(title, message string)
	ShowError(title, message string)
	ShowInfo(title, message string)
	ShowWarning(title, message string)
}

var _ Notifier = &Sink{}

// Sink keeps a bounded log of notifications and fans them out to
// subscribers. All methods are safe for concurrent use.
type Sink struct {
	mu            sync.Mutex
	capacity      int
	notifications []Notification
	subscribers   map[int]func(Notification)
	nextSubID     int
}

func NewSink(capacity int) *Sink {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Sink{
		capacity:    capacity,
		subscribers: map[int]func(Notification){},
	}
}

func (s *Sink) ShowSuccess(title, message string) {
	s.push(LevelSuccess, title, message, defaultTTL)
}

func (s *Sink) ShowError(title, message string) {
	s.push(LevelError, title, message, errorTTL)
}

func (s *Sink) ShowInfo(title, message string) {
	s.push(LevelInfo, title, message, defaultTTL)
}

func (s *Sink) ShowWarning(title, message string) {
	s.push(LevelWarning, title, message, warningTTL)
}

func (s *Sink) push(level Level, title, message string, ttl time.Duration) {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Title:     title,
		Message:   message,
		TTL:       ttl,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.notifications = append(s.notifications, n)
	if len(s.notifications) > s.capacity {
		s.notifications = s.notifications[len(s.notifications)-s.capacity:]
	}
	subs := maps.Values(s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
}

// Subscribe registers a callback for new notifications. The returned
// unsubscribe func is idempotent.
func (s *Sink) Subscribe(fn func(Notification)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// Notifications returns a copy of the retained log, oldest first.
func (s *Sink) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// Clear drops a single notification by id.
func (s *Sink) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearAll drops every retained notification.
func (s *Sink) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = nil
}

// Nop is a Notifier that discards everything, for callers that do not wire
// a sink.
type Nop struct{}

func (Nop) ShowSuccess(string, string) {}
func (Nop) ShowError(string, string)   {}
func (Nop) ShowInfo(string, string)    {}
func (Nop) ShowWarning(string, string) {}
