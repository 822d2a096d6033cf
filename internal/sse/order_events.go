package sse

import (
	"context"
	"sync"

	"tourbook/internal/models"
)

// OrderEventEmitter fans order status events out to the SSE connections of
// the owning user.
type OrderEventEmitter struct {
	// key: userID, value: client channels
	clients map[string][]chan models.OrderEvent
	mu      sync.RWMutex
}

func NewOrderEventEmitter() *OrderEventEmitter {
	return &OrderEventEmitter{
		clients: make(map[string][]chan models.OrderEvent),
	}
}

// Subscribe registers a client for userID. The channel is closed once ctx is
// done.
func (e *OrderEventEmitter) Subscribe(ctx context.Context, userID string) <-chan models.OrderEvent {
	clientChan := make(chan models.OrderEvent, 10)

	e.mu.Lock()
	e.clients[userID] = append(e.clients[userID], clientChan)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(userID, clientChan)
	}()

	return clientChan
}

// Emit delivers event to every subscriber of event.UserID. Slow clients with
// a full buffer miss the event.
func (e *OrderEventEmitter) Emit(event models.OrderEvent) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	delivered := 0
	for _, clientChan := range e.clients[event.UserID] {
		select {
		case clientChan <- event:
			delivered++
		default:
		}
	}
	return delivered
}

func (e *OrderEventEmitter) remove(userID string, clientChan chan models.OrderEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients := e.clients[userID]
	for i, ch := range clients {
		if ch == clientChan {
			e.clients[userID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.clients[userID]) == 0 {
		delete(e.clients, userID)
	}
}

// ClientCount returns the number of open connections for userID.
func (e *OrderEventEmitter) ClientCount(userID string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients[userID])
}
