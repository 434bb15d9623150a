// Package notify carries transient user-facing toasts from page components
// to whatever surface renders them.
package notify

import (
	"sync"

	"github.com/iconidentify/exambot/internal/domain"
)

// Notifier receives toasts.
type Notifier interface {
	Notify(n domain.Notification)
}

// Success sends a success toast.
func Success(n Notifier, msg string) {
	n.Notify(domain.Notification{Level: domain.NoticeSuccess, Message: msg})
}

// Error sends an error toast.
func Error(n Notifier, msg string) {
	n.Notify(domain.Notification{Level: domain.NoticeError, Message: msg})
}

// Func adapts a function to Notifier.
type Func func(domain.Notification)

// Notify calls f(n).
func (f Func) Notify(n domain.Notification) {
	f(n)
}

// Discard drops every toast.
var Discard Notifier = Func(func(domain.Notification) {})

// Queue buffers toasts until they are drained by a renderer.
// It is safe for concurrent use.
type Queue struct {
	mu    sync.Mutex
	items []domain.Notification
}

// Notify appends n to the queue.
func (q *Queue) Notify(n domain.Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, n)
}

// Drain returns all queued toasts and empties the queue.
func (q *Queue) Drain() []domain.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of queued toasts.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
