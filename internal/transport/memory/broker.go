package memory

import (
	"context"
	"sync"
)

const subscriberBuffer = 64

type subscriber struct {
	ch   chan []byte
	done <-chan struct{}

	// mu is held for reading while a publisher sends on ch, and for writing to close it.
	mu     sync.RWMutex
	closed bool
}

// send - a no-op once the subscriber is gone.
func (that *subscriber) send(ctx context.Context, payload []byte) error {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if that.closed {
		return nil
	}

	select {
	case that.ch <- payload:
	case <-that.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

func (that *subscriber) close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true
	close(that.ch)
}

// topic is one room. publishMu serializes publishes so every subscriber sees the same order.
type topic struct {
	publishMu sync.Mutex
	subs      map[*subscriber]struct{}
}

// Broker fans room messages out to subscribers of the same process.
// Publishes to one room are delivered to every subscriber in one global order.
type Broker struct {
	mu    sync.RWMutex
	rooms map[string]*topic
}

func NewBroker() *Broker {
	return &Broker{
		rooms: make(map[string]*topic),
	}
}

// Publish - blocks until every live subscriber of the room has the payload buffered.
// The registry lock is released before sending, so a slow room never stalls the others.
func (that *Broker) Publish(ctx context.Context, room string, payload []byte) error {
	that.mu.RLock()
	t, ok := that.rooms[room]
	that.mu.RUnlock()

	if !ok {
		return nil
	}

	t.publishMu.Lock()
	defer t.publishMu.Unlock()

	that.mu.RLock()
	subs := make([]*subscriber, 0, len(t.subs))
	for sub := range t.subs {
		subs = append(subs, sub)
	}
	that.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.send(ctx, payload); err != nil {
			return err
		}
	}

	return nil
}

// Subscribe - the returned channel is closed once ctx is done.
func (that *Broker) Subscribe(ctx context.Context, room string) (<-chan []byte, error) {
	sub := &subscriber{
		ch:   make(chan []byte, subscriberBuffer),
		done: ctx.Done(),
	}

	that.mu.Lock()
	t, ok := that.rooms[room]
	if !ok {
		t = &topic{subs: make(map[*subscriber]struct{})}
		that.rooms[room] = t
	}
	t.subs[sub] = struct{}{}
	that.mu.Unlock()

	go func() {
		<-ctx.Done()

		that.mu.Lock()
		delete(t.subs, sub)
		if len(t.subs) == 0 && that.rooms[room] == t {
			delete(that.rooms, room)
		}
		that.mu.Unlock()

		// in-flight sends see done and return before the channel is closed
		sub.close()
	}()

	return sub.ch, nil
}
