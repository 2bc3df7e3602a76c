package telemetry

import (
	"context"
	"sync"

	channerics "github.com/niceyeti/channerics/channels"
)

// Bus fans a stream of snapshots out to an arbitrary, dynamically changing
// number of subscribers (the safety monitor, the mission runner, every
// in-flight command driver's WaitUntil call). channerics' own Broadcast
// helper takes a fixed fan-out width decided up front, which doesn't fit
// subscribers that come and go for the lifetime of a single command; Bus
// instead keeps a small registry of per-subscriber channels and pushes to
// each, while each subscriber drains its channel through channerics.OrDone
// so that cancelling ctx tears the subscription down without the publisher
// ever blocking on a dead reader.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Snapshot
	next int
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Snapshot)}
}

// Publish delivers snap to every current subscriber. Slow subscribers are
// never allowed to stall ingestion: a full subscriber channel has its
// unread snapshot replaced by snap rather than blocking Publish, since
// subscribers only ever need the latest snapshot.
func (b *Bus) Publish(snap Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Subscribe registers a new subscriber and returns a read-only channel of
// snapshots, routed through channerics.OrDone so it closes cleanly when
// ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context) <-chan Snapshot {
	b.mu.Lock()
	id := b.next
	b.next++
	raw := make(chan Snapshot, 1)
	b.subs[id] = raw
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}()

	return channerics.OrDone(ctx.Done(), raw)
}
