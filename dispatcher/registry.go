package dispatcher

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/glimte/mmate-aspect/interceptors"
)

// sequence is the ordered interceptor list of one method. The stored slice is
// never modified in place; append publishes a new slice, so a snapshot taken
// by a chain builder is unaffected by later registrations.
type sequence[T interceptors.Interceptor] struct {
	items atomic.Pointer[[]T]
}

// snapshot returns the current list and whether anything was ever registered
func (s *sequence[T]) snapshot() ([]T, bool) {
	items := s.items.Load()
	if items == nil {
		return nil, false
	}
	return *items, true
}

// registry maps method names to sequences. Sequences are created on first
// registration or when a MethodHandle resolves the method, and are never
// removed.
type registry[T interceptors.Interceptor] struct {
	mu        sync.RWMutex
	sequences map[string]*sequence[T]
}

func newRegistry[T interceptors.Interceptor]() *registry[T] {
	return &registry[T]{sequences: make(map[string]*sequence[T])}
}

// resolve returns the sequence for method, creating an empty one if absent
func (r *registry[T]) resolve(method string) *sequence[T] {
	r.mu.RLock()
	seq, ok := r.sequences[method]
	r.mu.RUnlock()
	if ok {
		return seq
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq, ok = r.sequences[method]; !ok {
		seq = &sequence[T]{}
		r.sequences[method] = seq
	}
	return seq
}

func (r *registry[T]) lookup(method string) ([]T, bool) {
	r.mu.RLock()
	seq, ok := r.sequences[method]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return seq.snapshot()
}

// append adds items to the end of method's sequence
func (r *registry[T]) append(method string, items ...T) {
	seq := r.resolve(method)

	// appends are serialized by the registry lock
	r.mu.Lock()
	defer r.mu.Unlock()

	current, _ := seq.snapshot()
	next := make([]T, 0, len(current)+len(items))
	next = append(next, current...)
	next = append(next, items...)
	seq.items.Store(&next)
}

// methods returns the sorted names of methods with a registered sequence
func (r *registry[T]) methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sequences))
	for name, seq := range r.sequences {
		if _, ok := seq.snapshot(); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// each calls fn for every registered sequence in method order
func (r *registry[T]) each(fn func(method string, items []T) error) error {
	for _, method := range r.methods() {
		items, _ := r.lookup(method)
		if err := fn(method, items); err != nil {
			return err
		}
	}
	return nil
}
