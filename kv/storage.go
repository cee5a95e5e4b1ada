package kv

import (
	"iter"

	"github.com/indigo-web/utils/strcomp"
)

type Pair struct {
	Key, Value string
}

// Storage is an ordered multi-map of (string, string) pairs with case-insensitive keys. It
// uses linear search instead of hashing, which is faster on the small amount of entries
// a typical header section carries. Duplicate keys are kept in insertion order.
type Storage struct {
	pairs []Pair
}

func New() *Storage {
	return new(Storage)
}

// NewPrealloc returns an instance of Storage with pre-allocated underlying storage.
func NewPrealloc(n int) *Storage {
	return &Storage{
		pairs: make([]Pair, 0, n),
	}
}

// NewFromMap returns a new instance with already inserted values from given map. As maps
// are unordered, so will be the resulting pairs.
func NewFromMap(m map[string][]string) *Storage {
	kv := NewPrealloc(len(m))

	for key, values := range m {
		for _, value := range values {
			kv.Add(key, value)
		}
	}

	return kv
}

// Add appends a new pair, regardless of whether the key is already present.
func (s *Storage) Add(key, value string) *Storage {
	s.pairs = append(s.pairs, Pair{
		Key:   key,
		Value: value,
	})
	return s
}

// Set replaces all the values of the key by a single one.
func (s *Storage) Set(key, value string) *Storage {
	return s.Delete(key).Add(key, value)
}

// Delete removes every pair with the key, preserving the order of the rest.
func (s *Storage) Delete(key string) *Storage {
	n := 0

	for _, pair := range s.pairs {
		if !strcomp.EqualFold(pair.Key, key) {
			s.pairs[n] = pair
			n++
		}
	}

	clear(s.pairs[n:])
	s.pairs = s.pairs[:n]

	return s
}

// Value returns the first value, corresponding to the key. Otherwise, empty string is returned
func (s *Storage) Value(key string) string {
	return s.ValueOr(key, "")
}

// ValueOr returns either the first value corresponding to the key or custom value, defined
// via the second parameter.
func (s *Storage) ValueOr(key, or string) string {
	value, found := s.Get(key)
	if !found {
		return or
	}

	return value
}

// Get returns a value and a bool, indicating whether the value was found.
func (s *Storage) Get(key string) (value string, found bool) {
	for _, pair := range s.pairs {
		if strcomp.EqualFold(key, pair.Key) {
			return pair.Value, true
		}
	}

	return "", false
}

// Values iterates over all values of the key in their original order.
func (s *Storage) Values(key string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, pair := range s.pairs {
			if strcomp.EqualFold(pair.Key, key) && !yield(pair.Value) {
				return
			}
		}
	}
}

// Count returns how many values the key has.
func (s *Storage) Count(key string) (n int) {
	for _, pair := range s.pairs {
		if strcomp.EqualFold(pair.Key, key) {
			n++
		}
	}

	return n
}

// Keys iterates over unique keys. The spelling of the first occurrence wins.
func (s *Storage) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for i, pair := range s.pairs {
			if s.seenBefore(i, pair.Key) {
				continue
			}

			if !yield(pair.Key) {
				return
			}
		}
	}
}

// Pairs iterates over all the pairs in insertion order.
func (s *Storage) Pairs() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, pair := range s.pairs {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Has indicates, whether there's an entry of the key.
func (s *Storage) Has(key string) bool {
	_, found := s.Get(key)
	return found
}

// Len returns a number of stored pairs.
func (s *Storage) Len() int {
	return len(s.pairs)
}

func (s *Storage) Empty() bool {
	return s.Len() == 0
}

// Clone creates a deep copy, which may be used later or stored somewhere safely. Keys and
// values parsed from a request point into the connection buffer, so they must be cloned
// before the handler returns if kept longer.
func (s *Storage) Clone() *Storage {
	pairs := make([]Pair, len(s.pairs))
	for i, pair := range s.pairs {
		pairs[i] = Pair{Key: clone(pair.Key), Value: clone(pair.Value)}
	}

	return &Storage{pairs: pairs}
}

// Expose exposes the underlying pairs slice.
func (s *Storage) Expose() []Pair {
	return s.pairs
}

// Clear all the entries. However, all the allocated space won't be freed.
func (s *Storage) Clear() *Storage {
	clear(s.pairs)
	s.pairs = s.pairs[:0]
	return s
}

func (s *Storage) seenBefore(i int, key string) bool {
	for _, pair := range s.pairs[:i] {
		if strcomp.EqualFold(pair.Key, key) {
			return true
		}
	}

	return false
}

func clone(str string) string {
	return string([]byte(str))
}
