// Package eventbus fans dispatch lifecycle signals out to in-process
// observers without coupling the pipeline to them.
package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event is one delivery lifecycle signal. Publish stamps Time when zero.
//
// Publish never blocks: subscribers read from buffered channels and a full
// buffer means the event is dropped for that subscriber.
type Event struct {
	Type          string // dispatch.queued, dispatch.dropped, dispatch.sent, dispatch.failed
	Time          time.Time
	JobID         string
	RequestType   string
	CorrelationID string
	Outcome       string // set on sent/failed, empty before delivery
}

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns an in-memory fanout bus with no background goroutines.
func New() Bus {
	return &memBus{subs: map[uint64]chan Event{}}
}

type memBus struct {
	mu   sync.RWMutex
	subs map[uint64]chan Event
	seq  atomic.Uint64
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	// Send outside the lock; Unsubscribe must not wait on a slow Publish.
	b.mu.RLock()
	chs := make([]chan Event, 0, len(b.subs))
	for _, ch := range b.subs {
		chs = append(chs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range chs {
		// An Unsubscribe racing this send may have closed the channel.
		func() {
			defer func() { _ = recover() }()
			select {
			case ch <- e:
			default:
			}
		}()
	}
}

func (b *memBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}
