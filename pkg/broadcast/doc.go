// Package broadcast provides a bounded, multi-subscriber broadcast queue.
//
// Every message published while a subscriber is registered is delivered to
// that subscriber exactly once, in publish order. Subscribers read at their
// own pace through private cursors, and a message is freed as soon as every
// subscriber that could see it has read it or unsubscribed.
//
// # Architecture
//
// The queue is made of three parts guarded by a single mutex:
//   - Ledger: a singly linked list of envelopes with per-envelope reference
//     counts, stored as an arena of slots with a free list
//   - Registry: a chained hash table of subscriber records, each holding a
//     cursor into the ledger
//   - Control block: capacity, reader counts, the two wait conditions and
//     the lifecycle state
//
// # Usage
//
//	q, err := broadcast.New[int, *Event](100)
//	if err != nil {
//		return err
//	}
//	defer q.Destroy()
//
//	// Subscriber goroutine, identified by any comparable token
//	if err := q.Subscribe(workerID); err != nil {
//		return err
//	}
//	for {
//		ev, err := q.Get(ctx, workerID)
//		if err != nil {
//			break // ErrDestroyed, ErrNotSubscribed or ctx.Err()
//		}
//		handle(ev)
//	}
//
//	// Publisher goroutine; blocks while 100 messages are unread by someone
//	err = q.Put(ctx, &Event{Name: "created"})
//
// # Backpressure
//
// Put blocks while the queue holds capacity unread messages. Get blocks while
// the caller has read everything. Both return ErrDestroyed when Destroy runs
// concurrently, and ctx.Err() when their context is cancelled.
//
// Publishing with no subscribers is not an error: the message is discarded
// and counted in Stats().Dropped.
//
// # Forced Removal
//
// Remove discards the oldest retained message equal to a payload and SetSize
// evicts the oldest messages when capacity shrinks. Subscribers that had not
// read an evicted message skip it and continue with the next one.
//
// # Tokens
//
// Tokens are hashed with FNV-1a over their raw value (integers, pointers,
// strings, uuid.UUID). Other comparable types use hash/maphash. WithHasher
// replaces the function; the registry bucket count can be changed live with
// SetBuckets.
//
// # Teardown
//
// Destroy marks the queue as draining, wakes every parked caller and waits
// until all of them have left before freeing the ledger and registry.
//
//	Live -> Draining -> Destroyed -> Released
//
// A second Destroy returns ErrAlreadyDestroyed.
//
// # Thread Safety
//
// All methods are safe for concurrent use. A goroutine cannot unsubscribe
// itself while it is parked in Get; another goroutine may, in which case the
// parked Get returns ErrNotSubscribed after the next publish.
package broadcast
