package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/fanout/core/logger"
)

// Queue is a bounded broadcast queue. Every message published while a
// subscriber is registered is delivered to that subscriber exactly once,
// in publish order; subscribers read at their own pace through private
// cursors. A message is freed once every subscriber that could see it has
// read it or left.
//
// K is the subscriber token, V the payload reference. The queue never
// copies or inspects payloads beyond comparing them in Remove.
//
// A single mutex guards the ledger, the registry and the counters below.
type Queue[K, V comparable] struct {
	mu        sync.Mutex
	dataReady *sync.Cond // publish, destroy, putter leaving a destroyed queue
	spaceFree *sync.Cond // capacity freed, destroy, getter leaving a destroyed queue

	ledger   *ledger[V]
	registry *registry[K]

	maxSize int
	// readers is added to every published envelope. Departed subscribers
	// stay counted until compaction; their carry cancels them out.
	readers   int
	compactAt int

	blockedGetters int
	blockedPutters int
	state          atomic.Int32

	logger *slog.Logger

	// Observability metrics
	published   atomic.Int64
	dropped     atomic.Int64
	delivered   atomic.Int64
	evicted     atomic.Int64
	removed     atomic.Int64
	compactions atomic.Int64
}

// New creates a queue holding at most capacity unread messages.
func New[K, V comparable](capacity int, opts ...Option) (*Queue[K, V], error) {
	if capacity < 0 {
		return nil, ErrInvalidCapacity
	}

	o := &options{
		buckets:          DefaultBuckets,
		compactThreshold: DefaultCompactThreshold,
		logger:           logger.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.buckets < 1 {
		return nil, ErrInvalidBuckets
	}

	hash := defaultHasher[K]()
	if o.hasher != nil {
		h, ok := o.hasher.(Hasher[K])
		if !ok {
			return nil, ErrInvalidHasher
		}
		hash = h
	}

	q := &Queue[K, V]{
		ledger:    newLedger[V](),
		registry:  newRegistry(o.buckets, hash),
		maxSize:   capacity,
		compactAt: o.compactThreshold,
		logger:    o.logger,
	}
	q.dataReady = sync.NewCond(&q.mu)
	q.spaceFree = sync.NewCond(&q.mu)

	return q, nil
}

// State reports the lifecycle stage.
func (q *Queue[K, V]) State() State {
	return State(q.state.Load())
}

func (q *Queue[K, V]) destroyed() bool {
	return q.State() != StateLive
}

// Destroy shuts the queue down. Every caller parked in Put or Get returns
// ErrDestroyed before Destroy frees the shared state, and every later call
// fails fast. A second Destroy returns ErrAlreadyDestroyed.
func (q *Queue[K, V]) Destroy() error {
	if err := q.drain(); err != nil {
		return err
	}
	q.state.Store(int32(StateReleased))
	q.logger.Info("broadcast queue destroyed")
	return nil
}

// drain is the first phase of Destroy. It runs entirely under the lock.
func (q *Queue[K, V]) drain() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.destroyed() {
		return ErrAlreadyDestroyed
	}
	q.state.Store(int32(StateDraining))

	q.logger.Debug("draining broadcast queue", logger.Waiters(q.blockedGetters, q.blockedPutters))

	// Getters confirm on spaceFree, putters on dataReady. Waiting on the
	// opposite condition keeps a confirmation from being lost while both
	// kinds of waiters are parked.
	for q.blockedGetters > 0 {
		q.dataReady.Broadcast()
		q.spaceFree.Wait()
	}
	for q.blockedPutters > 0 {
		q.spaceFree.Broadcast()
		q.dataReady.Wait()
	}

	q.registry.clear()
	q.ledger.reset()
	q.readers = 0
	q.state.Store(int32(StateDestroyed))
	return nil
}

// Subscribe registers token. The subscriber only sees messages published after this call.
func (q *Queue[K, V]) Subscribe(token K) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.destroyed() {
		return ErrDestroyed
	}
	if !q.registry.insert(token, q.ledger.tail) {
		return ErrAlreadySubscribed
	}

	q.readers++
	if q.readers > q.compactAt {
		q.compact()
	}

	q.logger.Debug("subscribed", logger.Token(token), logger.Count("subscribers", q.registry.count))
	return nil
}

// Unsubscribe removes token. Messages only it was still waiting for are freed.
func (q *Queue[K, V]) Unsubscribe(token K) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.destroyed() {
		return ErrDestroyed
	}
	s := q.registry.remove(token)
	if s == nil {
		return ErrNotSubscribed
	}

	e := q.ledger.at(s.cursor)
	e.pending--
	e.carry++
	if s.cursor == q.ledger.head {
		if freed := q.ledger.collect(); freed > 0 {
			q.spaceFree.Broadcast()
		}
	}

	q.logger.Debug("unsubscribed", logger.Token(token), logger.Size(q.ledger.size))
	return nil
}

// Put publishes msg to every current subscriber, blocking while the queue
// is full. When nobody is subscribed the message is discarded and Put
// still returns nil. Cancelling ctx releases a parked Put with ctx.Err().
func (q *Queue[K, V]) Put(ctx context.Context, msg V) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	var stop func() bool
	for {
		if q.destroyed() {
			return ErrDestroyed
		}
		if q.readers == q.ledger.at(q.ledger.tail).carry {
			q.dropped.Add(1)
			q.logger.DebugContext(ctx, "no subscribers, message dropped", logger.Payload(msg))
			return nil
		}
		if q.ledger.size < q.maxSize {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if stop == nil {
			stop = q.wakeOnDone(ctx, q.spaceFree)
			defer stop()
		}

		q.blockedPutters++
		q.spaceFree.Wait()
		q.blockedPutters--

		if q.destroyed() {
			q.dataReady.Broadcast()
			return ErrDestroyed
		}
	}

	q.ledger.publish(msg, q.readers)
	q.published.Add(1)
	q.dataReady.Broadcast()
	return nil
}

// Get returns the next unread message for token, blocking until one is
// published. Cancelling ctx releases a parked Get with ctx.Err().
func (q *Queue[K, V]) Get(ctx context.Context, token K) (V, error) {
	var zero V

	q.mu.Lock()
	defer q.mu.Unlock()

	var stop func() bool
	var s *subscriber[K]
	for {
		if q.destroyed() {
			return zero, ErrDestroyed
		}
		// Looked up on every pass: another goroutine may have unsubscribed
		// the token while this one was parked.
		if s = q.registry.lookup(token); s == nil {
			return zero, ErrNotSubscribed
		}
		if s.cursor != q.ledger.tail {
			break
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if stop == nil {
			stop = q.wakeOnDone(ctx, q.dataReady)
			defer stop()
		}

		q.blockedGetters++
		q.dataReady.Wait()
		q.blockedGetters--

		if q.destroyed() {
			q.spaceFree.Broadcast()
			return zero, ErrDestroyed
		}
	}

	at := s.cursor
	e := q.ledger.at(at)
	msg := e.payload
	s.cursor = e.next
	e.pending--
	q.delivered.Add(1)

	if at == q.ledger.head && e.pending <= 0 {
		if freed := q.ledger.collect(); freed > 0 {
			q.spaceFree.Broadcast()
		}
	}
	return msg, nil
}

// Available returns the number of messages token has not read yet.
func (q *Queue[K, V]) Available(token K) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.destroyed() {
		return 0, ErrDestroyed
	}
	s := q.registry.lookup(token)
	if s == nil {
		return 0, ErrNotSubscribed
	}
	return q.ledger.unread(s.cursor), nil
}

// Remove discards the oldest retained message equal to msg. Subscribers
// that had not read it yet move on to the message after it.
func (q *Queue[K, V]) Remove(msg V) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.destroyed() {
		return ErrDestroyed
	}
	at, prev := q.ledger.find(msg)
	if at == nilSlot {
		return ErrNotFound
	}

	q.evict(at, prev)
	q.removed.Add(1)
	q.ledger.collect()
	q.spaceFree.Broadcast()
	return nil
}

// SetSize changes the capacity. Shrinking below the number of retained
// messages evicts the oldest ones, including messages some subscribers
// have not read yet.
func (q *Queue[K, V]) SetSize(capacity int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.destroyed() {
		return ErrDestroyed
	}
	if capacity < 0 {
		return ErrInvalidCapacity
	}

	q.maxSize = capacity
	n := 0
	for q.ledger.size > q.maxSize {
		q.evict(q.ledger.head, nilSlot)
		n++
	}
	q.ledger.collect()
	q.evicted.Add(int64(n))
	q.spaceFree.Broadcast()

	q.logger.Debug("capacity changed", logger.Capacity(capacity), logger.Count("evicted", n))
	return nil
}

// SetBuckets rehashes the subscriber registry into n buckets.
func (q *Queue[K, V]) SetBuckets(n int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.destroyed() {
		return ErrDestroyed
	}
	if n < 1 {
		return ErrInvalidBuckets
	}

	q.registry.rehash(n)
	q.logger.Debug("registry rehashed", logger.Buckets(n), logger.Count("subscribers", q.registry.count))
	return nil
}

// Len returns the number of retained messages.
func (q *Queue[K, V]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ledger.size
}

// Cap returns the current capacity.
func (q *Queue[K, V]) Cap() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.maxSize
}

// evict force-removes envelope at, redirecting cursors to its successor.
func (q *Queue[K, V]) evict(at, prev int) {
	next := q.ledger.at(at).next
	q.registry.retarget(at, next)
	q.ledger.unlink(at, prev)
}

// compact rebases the reader count once it grows past the threshold.
func (q *Queue[K, V]) compact() {
	folded := q.ledger.compact()
	q.readers -= folded
	q.compactions.Add(1)
	q.logger.Debug("ledger compacted", logger.Count("folded", folded), logger.Count("readers", q.readers))
}

// wakeOnDone broadcasts c when ctx is done so a parked caller can observe
// the cancellation. The returned func unregisters the callback.
func (q *Queue[K, V]) wakeOnDone(ctx context.Context, c *sync.Cond) func() bool {
	if ctx.Done() == nil {
		return func() bool { return false }
	}
	return context.AfterFunc(ctx, func() {
		q.mu.Lock()
		c.Broadcast()
		q.mu.Unlock()
	})
}
