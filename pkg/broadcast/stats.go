package broadcast

// Stats provides observability metrics for monitoring and debugging.
type Stats struct {
	State          State
	Size           int   // Messages currently retained
	Capacity       int   // Current capacity
	Subscribers    int   // Live subscribers
	Buckets        int   // Registry bucket count
	BlockedGetters int   // Callers parked in Get
	BlockedPutters int   // Callers parked in Put
	Published      int64 // Messages enqueued
	Dropped        int64 // Messages discarded because nobody was subscribed
	Delivered      int64 // Successful Get calls
	Evicted        int64 // Messages evicted by SetSize
	Removed        int64 // Messages discarded by Remove
	Compactions    int64 // Reader count rebases
}

// Stats returns a consistent view of the queue.
func (q *Queue[K, V]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats()
}

func (q *Queue[K, V]) stats() Stats {
	return Stats{
		State:          q.State(),
		Size:           q.ledger.size,
		Capacity:       q.maxSize,
		Subscribers:    q.registry.count,
		Buckets:        len(q.registry.buckets),
		BlockedGetters: q.blockedGetters,
		BlockedPutters: q.blockedPutters,
		Published:      q.published.Load(),
		Dropped:        q.dropped.Load(),
		Delivered:      q.delivered.Load(),
		Evicted:        q.evicted.Load(),
		Removed:        q.removed.Load(),
		Compactions:    q.compactions.Load(),
	}
}

// EnvelopeInfo describes one ledger envelope in a Snapshot.
type EnvelopeInfo[V comparable] struct {
	Seq      uint64
	Payload  V
	Pending  int
	Carry    int
	Sentinel bool
}

// SubscriberInfo describes one registry record in a Snapshot.
type SubscriberInfo[K comparable] struct {
	Token  K
	Bucket int
	Cursor uint64 // Seq of the next envelope to read
}

// Snapshot is a structural dump of the queue, oldest envelope first.
type Snapshot[K, V comparable] struct {
	Stats       Stats
	Readers     int
	Envelopes   []EnvelopeInfo[V]
	Subscribers []SubscriberInfo[K]
}

// Dump copies the ledger and registry under the lock.
func (q *Queue[K, V]) Dump() Snapshot[K, V] {
	q.mu.Lock()
	defer q.mu.Unlock()

	snap := Snapshot[K, V]{Stats: q.stats(), Readers: q.readers}
	if q.destroyed() {
		return snap
	}

	l := q.ledger
	for i := l.head; i != nilSlot; i = l.slots[i].next {
		e := l.slots[i]
		snap.Envelopes = append(snap.Envelopes, EnvelopeInfo[V]{
			Seq:      e.seq,
			Payload:  e.payload,
			Pending:  e.pending,
			Carry:    e.carry,
			Sentinel: i == l.tail,
		})
	}
	for b, s := range q.registry.buckets {
		for ; s != nil; s = s.next {
			snap.Subscribers = append(snap.Subscribers, SubscriberInfo[K]{
				Token:  s.token,
				Bucket: b,
				Cursor: l.slots[s.cursor].seq,
			})
		}
	}
	return snap
}
