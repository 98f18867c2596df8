package broadcast

// nilSlot marks the absence of an envelope (end of list, no predecessor).
const nilSlot = -1

// envelope is one ledger node. The tail envelope is an empty sentinel that
// becomes the real envelope of the next published message.
type envelope[V comparable] struct {
	payload V
	// pending is the number of readers counted in at publish time that have
	// not advanced past this envelope yet. Readers that left are subtracted
	// lazily, through carry, so the tail sentinel may go negative before it
	// is published.
	pending int
	// carry is the number of readers that gave up while positioned here and
	// have not been folded into a later envelope yet.
	carry int
	next  int
	seq   uint64
}

// ledger is the singly linked message list, stored as an arena of slots
// addressed by index. Links point tail-ward; subscriber cursors are plain
// indices into the same arena and are redirected before a slot is freed.
type ledger[V comparable] struct {
	slots []envelope[V]
	free  []int
	head  int
	tail  int
	size  int
	seq   uint64
}

func newLedger[V comparable]() *ledger[V] {
	l := &ledger[V]{}
	l.head = l.alloc()
	l.tail = l.head
	return l
}

func (l *ledger[V]) alloc() int {
	l.seq++
	e := envelope[V]{next: nilSlot, seq: l.seq}
	if n := len(l.free); n > 0 {
		i := l.free[n-1]
		l.free = l.free[:n-1]
		l.slots[i] = e
		return i
	}
	l.slots = append(l.slots, e)
	return len(l.slots) - 1
}

// release zeroes the slot so the payload reference can be collected.
func (l *ledger[V]) release(i int) {
	l.slots[i] = envelope[V]{next: nilSlot}
	l.free = append(l.free, i)
}

func (l *ledger[V]) at(i int) *envelope[V] {
	return &l.slots[i]
}

// publish fills the tail sentinel with payload, counts readers in and
// appends a fresh sentinel.
func (l *ledger[V]) publish(payload V, readers int) {
	next := l.alloc()
	t := &l.slots[l.tail]
	t.payload = payload
	t.pending += readers
	t.next = next
	l.tail = next
	l.size++
}

// fold moves the carry of slot i into its successor.
func (l *ledger[V]) fold(i int) {
	e := &l.slots[i]
	if e.carry == 0 {
		return
	}
	n := &l.slots[e.next]
	n.pending -= e.carry
	n.carry += e.carry
}

// collect drops envelopes from the head for as long as nobody is left to
// read them. It never touches the tail sentinel and returns the number of
// envelopes freed.
func (l *ledger[V]) collect() int {
	freed := 0
	for l.head != l.tail && l.slots[l.head].pending <= 0 {
		h := l.head
		l.fold(h)
		l.head = l.slots[h].next
		l.release(h)
		l.size--
		freed++
	}
	return freed
}

// find returns the oldest envelope holding payload together with its
// predecessor, or nilSlot when there is none.
func (l *ledger[V]) find(payload V) (at, prev int) {
	prev = nilSlot
	for i := l.head; i != l.tail; i = l.slots[i].next {
		if l.slots[i].payload == payload {
			return i, prev
		}
		prev = i
	}
	return nilSlot, nilSlot
}

// unlink removes envelope i (never the tail) regardless of its pending
// count. The caller must redirect cursors from i to the returned successor
// first.
func (l *ledger[V]) unlink(i, prev int) int {
	next := l.slots[i].next
	if prev == nilSlot {
		l.head = next
	} else {
		l.slots[prev].next = next
	}
	l.fold(i)
	l.release(i)
	l.size--
	return next
}

// unread counts published envelopes from i up to the tail sentinel.
func (l *ledger[V]) unread(i int) int {
	n := 0
	for ; i != l.tail; i = l.slots[i].next {
		n++
	}
	return n
}

// compact folds every pending carry eagerly and returns how many departed
// readers it accounted for. The publish-time reader count must be reduced
// by the same amount. The tail sentinel is reset: after compaction it only
// has to count the readers that are still live when it is published.
func (l *ledger[V]) compact() int {
	total := 0
	for i := l.head; i != l.tail; i = l.slots[i].next {
		e := &l.slots[i]
		e.pending -= total
		total += e.carry
		e.carry = 0
	}
	t := &l.slots[l.tail]
	total += t.carry
	t.pending = 0
	t.carry = 0
	return total
}

// reset drops every envelope and leaves a single sentinel behind.
func (l *ledger[V]) reset() {
	*l = ledger[V]{seq: l.seq}
	l.head = l.alloc()
	l.tail = l.head
}
