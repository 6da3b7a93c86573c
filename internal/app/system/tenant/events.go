// internal/app/system/tenant/events.go
package tenant

import (
	"sync"

	"github.com/dalemusser/dueshub/internal/domain/models"
)

// Event kinds published by a Manager.
const (
	EventReady   = "tenant:ready"
	EventCleared = "tenant:cleared"
	EventError   = "tenant:error"
)

// Event describes a tenant lifecycle notification. Org is set for ready
// events, Err for error events.
type Event struct {
	Kind string
	Org  models.Organization
	Err  error
}

// Listener receives tenant lifecycle events. Listeners run synchronously on
// the publishing goroutine and must not call back into the Manager.
type Listener func(Event)

// bus is a minimal observer list. Subscribing after an event was published
// misses it; late subscribers re-activate to force a fresh ready event.
type bus struct {
	mu        sync.Mutex
	listeners []Listener
}

func (b *bus) subscribe(fn Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

func (b *bus) publish(ev Event) {
	b.mu.Lock()
	ls := make([]Listener, len(b.listeners))
	copy(ls, b.listeners)
	b.mu.Unlock()
	for _, fn := range ls {
		fn(ev)
	}
}
