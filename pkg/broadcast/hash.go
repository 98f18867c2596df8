package broadcast

import (
	"hash/maphash"
	"reflect"

	"github.com/google/uuid"
)

const (
	fnvOffset64 uint64 = 0xcbf29ce484222325
	fnvPrime64  uint64 = 0x100000001b3
)

// Hasher maps a subscriber token to a 64-bit hash. It must be deterministic
// for the lifetime of the queue: the registry recomputes it on every lookup.
type Hasher[K comparable] func(K) uint64

// HashUint64 mixes the raw bit pattern of x with FNV-1a, one byte at a time
// starting from the least significant byte. Leading zero bytes are skipped,
// so small identifiers hash in a single round.
func HashUint64(x uint64) uint64 {
	h := fnvOffset64
	for {
		h = (h ^ (x & 0xff)) * fnvPrime64
		x >>= 8
		if x == 0 {
			return h
		}
	}
}

// HashBytes is FNV-1a over b.
func HashBytes(b []byte) uint64 {
	h := fnvOffset64
	for _, c := range b {
		h = (h ^ uint64(c)) * fnvPrime64
	}
	return h
}

// HashString is FNV-1a over the bytes of s without copying them.
func HashString(s string) uint64 {
	h := fnvOffset64
	for i := 0; i < len(s); i++ {
		h = (h ^ uint64(s[i])) * fnvPrime64
	}
	return h
}

// defaultHasher picks a hash function for K once, at construction time.
// Integer, pointer and string kinds (named or not) use FNV-1a over their
// raw value; uuid.UUID hashes its 16 bytes; anything else falls back to
// maphash with a per-queue seed.
func defaultHasher[K comparable]() Hasher[K] {
	var zero K
	switch any(zero).(type) {
	case uuid.UUID:
		return func(k K) uint64 {
			id := any(k).(uuid.UUID)
			return HashBytes(id[:])
		}
	case int:
		return func(k K) uint64 { return HashUint64(uint64(any(k).(int))) }
	case int64:
		return func(k K) uint64 { return HashUint64(uint64(any(k).(int64))) }
	case uint64:
		return func(k K) uint64 { return HashUint64(any(k).(uint64)) }
	case string:
		return func(k K) uint64 { return HashString(any(k).(string)) }
	}

	switch reflect.TypeFor[K]().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(k K) uint64 { return HashUint64(uint64(reflect.ValueOf(k).Int())) }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(k K) uint64 { return HashUint64(reflect.ValueOf(k).Uint()) }
	case reflect.Pointer, reflect.UnsafePointer, reflect.Chan:
		return func(k K) uint64 { return HashUint64(uint64(reflect.ValueOf(k).Pointer())) }
	case reflect.String:
		return func(k K) uint64 { return HashString(reflect.ValueOf(k).String()) }
	}

	seed := maphash.MakeSeed()
	return func(k K) uint64 { return maphash.Comparable(seed, k) }
}
