package broadcast

// subscriber is a registry record. cursor is the next envelope the
// subscriber has not consumed yet; it does not own the envelope.
type subscriber[K comparable] struct {
	token  K
	cursor int
	next   *subscriber[K]
}

// registry is a chained hash table keyed by subscriber token.
type registry[K comparable] struct {
	buckets []*subscriber[K]
	hash    Hasher[K]
	count   int
}

func newRegistry[K comparable](buckets int, hash Hasher[K]) *registry[K] {
	return &registry[K]{
		buckets: make([]*subscriber[K], buckets),
		hash:    hash,
	}
}

func (r *registry[K]) bucket(token K) int {
	return int(r.hash(token) % uint64(len(r.buckets)))
}

func (r *registry[K]) lookup(token K) *subscriber[K] {
	for s := r.buckets[r.bucket(token)]; s != nil; s = s.next {
		if s.token == token {
			return s
		}
	}
	return nil
}

// insert links a new record at the end of its chain. It reports false when
// the token is already present.
func (r *registry[K]) insert(token K, cursor int) bool {
	rec := &subscriber[K]{token: token, cursor: cursor}
	link := &r.buckets[r.bucket(token)]
	for *link != nil {
		if (*link).token == token {
			return false
		}
		link = &(*link).next
	}
	*link = rec
	r.count++
	return true
}

// remove unlinks the record for token and returns it, or nil when absent.
func (r *registry[K]) remove(token K) *subscriber[K] {
	link := &r.buckets[r.bucket(token)]
	for *link != nil {
		if s := *link; s.token == token {
			*link = s.next
			s.next = nil
			r.count--
			return s
		}
		link = &(*link).next
	}
	return nil
}

// retarget moves every cursor that points at from to to.
func (r *registry[K]) retarget(from, to int) int {
	moved := 0
	r.each(func(s *subscriber[K]) {
		if s.cursor == from {
			s.cursor = to
			moved++
		}
	})
	return moved
}

func (r *registry[K]) each(fn func(*subscriber[K])) {
	for _, s := range r.buckets {
		for ; s != nil; s = s.next {
			fn(s)
		}
	}
}

// rehash moves every record into a new bucket array of size n, keeping the
// relative order of records that land in the same chain.
func (r *registry[K]) rehash(n int) {
	old := r.buckets
	r.buckets = make([]*subscriber[K], n)
	tails := make([]*subscriber[K], n)
	for _, s := range old {
		for s != nil {
			next := s.next
			s.next = nil
			b := r.bucket(s.token)
			if tails[b] == nil {
				r.buckets[b] = s
			} else {
				tails[b].next = s
			}
			tails[b] = s
			s = next
		}
	}
}

func (r *registry[K]) clear() {
	r.buckets = nil
	r.count = 0
}
