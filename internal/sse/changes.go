package sse

import (
	"context"
	"sync"

	"ms-calendar/internal/models"
)

// AllPriorities subscribes to changes of every priority.
const AllPriorities = 0

type subscriber struct {
	ch       chan models.EventChange
	priority int
}

// ChangeEmitter fans event changes out to connected stream clients.
type ChangeEmitter struct {
	mu      sync.RWMutex
	clients map[*subscriber]struct{}
	buffer  int
}

func NewChangeEmitter() *ChangeEmitter {
	return &ChangeEmitter{
		clients: make(map[*subscriber]struct{}),
		buffer:  16,
	}
}

// Subscribe returns a channel of changes for events with the given priority
// (or all). The channel is closed once ctx is done.
func (e *ChangeEmitter) Subscribe(ctx context.Context, priority int) <-chan models.EventChange {
	sub := &subscriber{ch: make(chan models.EventChange, e.buffer), priority: priority}

	e.mu.Lock()
	e.clients[sub] = struct{}{}
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(sub)
	}()

	return sub.ch
}

// PublishEventChange delivers change to every matching subscriber. Slow
// clients whose buffer is full miss the change rather than block the caller.
func (e *ChangeEmitter) PublishEventChange(_ context.Context, change models.EventChange) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for sub := range e.clients {
		if sub.priority != AllPriorities && sub.priority != change.Event.Priority {
			continue
		}
		select {
		case sub.ch <- change:
		default:
		}
	}
	return nil
}

func (e *ChangeEmitter) remove(sub *subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.clients[sub]; ok {
		delete(e.clients, sub)
		close(sub.ch)
	}
}

// ClientCount returns the number of connected subscribers.
func (e *ChangeEmitter) ClientCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients)
}
