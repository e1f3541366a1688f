// Package notify consumes task lifecycle events and keeps an in-memory
// per-advisor notification feed served over HTTP.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxPerAdvisor caps each advisor's feed; older entries fall off.
const maxPerAdvisor = 100

// Notification is one feed entry.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message"`
	TaskID    uuid.UUID `json:"taskId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Feed holds notifications per advisor, most recent first.
type Feed struct {
	mu        sync.RWMutex
	byAdvisor map[uuid.UUID][]Notification
	now       func() time.Time
}

func NewFeed(now func() time.Time) *Feed {
	return &Feed{
		byAdvisor: make(map[uuid.UUID][]Notification),
		now:       now,
	}
}

// Push prepends a notification to the advisor's feed.
func (f *Feed) Push(advisorID, taskID uuid.UUID, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry := Notification{
		ID:        uuid.New(),
		Message:   message,
		TaskID:    taskID,
		CreatedAt: f.now(),
	}
	items := append([]Notification{entry}, f.byAdvisor[advisorID]...)
	if len(items) > maxPerAdvisor {
		items = items[:maxPerAdvisor]
	}
	f.byAdvisor[advisorID] = items
}

// ForAdvisor returns a copy of the advisor's feed, most recent first.
func (f *Feed) ForAdvisor(advisorID uuid.UUID) []Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Notification(nil), f.byAdvisor[advisorID]...)
}
