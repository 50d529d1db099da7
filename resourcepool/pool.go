package resourcepool

import (
	"context"
	"errors"
	"io"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Factory builds one flavor of T. A Factory is installed once per pool with
// Configure and is invoked only when no released instance is available.
type Factory[T any] interface {
	Make() (T, error)
}

// FactoryFunc adapts a plain function to the Factory interface.
type FactoryFunc[T any] func() (T, error)

func (f FactoryFunc[T]) Make() (T, error) { return f() }

// Stats is a point in time snapshot of a pool's bookkeeping.
type Stats struct {
	Constructed int    // Instances built by the factory and still owned.
	OnLoan      int    // Instances currently leased out.
	Available   int    // Instances waiting on the free list.
	Peak        int    // Highest simultaneous OnLoan observed.
	Acquires    uint64 // Successful Acquire calls.
}

// Pool is a generic, goroutine-safe pool of expensive resources that are not
// safe to share between goroutines.
//
// Instances are constructed lazily: Acquire hands out a previously released
// instance when one exists and only calls the factory when every constructed
// instance is on loan. The number of instances built therefore never exceeds
// the peak number of simultaneous leases.
//
// Storage is an index based arena. items holds every constructed instance,
// free is a stack of slot indices that are available, and each slot carries a
// generation counter so a stale or duplicated Lease can be told apart from
// the current one.
//
// Important characteristics:
//   - Without a capacity Acquire never waits for another goroutine; the pool
//     grows on demand.
//   - WithCapacity(n) bounds the number of simultaneous leases. Acquire then
//     blocks until a lease is released.
//   - The pool only guards its own bookkeeping. Serializing use of a leased
//     instance is up to the caller.
//
// The zero value is not valid; use New.
type Pool[T any] struct {
	mu sync.Mutex

	factory  Factory[T]
	acquired bool
	closed   bool

	items      []T
	onLoan     []bool
	generation []uint64
	free       []int

	loaned    int
	peak      int
	destroyed int
	acquires  uint64

	capacity int
	sem      *semaphore.Weighted

	// ctx is canceled by Close to wake goroutines waiting on sem.
	ctx    context.Context
	cancel context.CancelFunc
}

// Option customizes a Pool at construction time.
type Option func(*options)

type options struct {
	capacity int
}

// WithCapacity bounds the number of simultaneous leases. A capacity of zero
// or less means unbounded, which is the default.
func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// New creates an empty, unconfigured pool. Configure must be called before
// the first Acquire.
func New[T any](opts ...Option) *Pool[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool[T]{}
	p.ctx, p.cancel = context.WithCancel(context.Background())
	if o.capacity > 0 {
		p.capacity = o.capacity
		p.sem = semaphore.NewWeighted(int64(o.capacity))
	}
	return p
}

// Configure installs the construction recipe. It may be called exactly once
// and only before the first Acquire.
func (p *Pool[T]) Configure(factory Factory[T]) error {
	if factory == nil {
		return &ConfigurationError{Reason: "factory must be non nil"}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.closed:
		return &ConfigurationError{Reason: "pool is closed"}
	case p.acquired:
		return &ConfigurationError{Reason: "configure called after first " +
			"acquisition"}
	case p.factory != nil:
		return &ConfigurationError{Reason: "configure called twice"}
	}

	p.factory = factory
	return nil
}

// Acquire returns an exclusive lease on an instance, constructing one if none
// is available.
//
// A factory failure is returned as a *FatalError. The resource the pool
// guards is unusable at that point and callers are expected to abort rather
// than retry.
func (p *Pool[T]) Acquire() (Lease[T], error) {
	if p.sem != nil {
		if p.isClosed() {
			return Lease[T]{}, ErrClosed
		}
		// Close cancels waiters still blocked on the semaphore.
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			return Lease[T]{}, ErrClosed
		}
	}

	lease, err := p.acquire()
	if err != nil && p.sem != nil {
		p.sem.Release(1)
	}
	return lease, err
}

func (p *Pool[T]) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Pool[T]) acquire() (Lease[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return Lease[T]{}, ErrClosed
	}
	if p.factory == nil {
		return Lease[T]{}, &ConfigurationError{Reason: "acquire called " +
			"before configure"}
	}
	p.acquired = true

	var slot int
	if n := len(p.free); n > 0 {
		slot = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		item, err := p.factory.Make()
		if err != nil {
			return Lease[T]{}, &FatalError{Err: err}
		}
		slot = len(p.items)
		p.items = append(p.items, item)
		p.onLoan = append(p.onLoan, false)
		p.generation = append(p.generation, 0)
	}

	p.onLoan[slot] = true
	p.generation[slot]++
	p.loaned++
	p.acquires++
	p.peak = max(p.peak, p.loaned)

	return Lease[T]{pool: p, slot: slot, generation: p.generation[slot],
		value: p.items[slot]}, nil
}

// Release returns a leased instance to the pool.
//
// Leases from another pool, the zero Lease, and leases that were already
// released are rejected with an *InvalidLeaseError and leave the pool
// untouched. Once the pool is closed a released instance is destroyed instead
// of being made available again.
func (p *Pool[T]) Release(lease Lease[T]) error {
	if lease.pool == nil {
		return &InvalidLeaseError{Reason: "zero lease", Slot: lease.slot}
	}
	if lease.pool != p {
		return &InvalidLeaseError{Reason: "lease belongs to another pool",
			Slot: lease.slot}
	}

	p.mu.Lock()
	if lease.slot < 0 || lease.slot >= len(p.items) {
		p.mu.Unlock()
		return &InvalidLeaseError{Reason: "slot out of range", Slot: lease.slot}
	}
	if !p.onLoan[lease.slot] || p.generation[lease.slot] != lease.generation {
		p.mu.Unlock()
		return &InvalidLeaseError{Reason: "lease already released",
			Slot: lease.slot}
	}

	p.onLoan[lease.slot] = false
	p.loaned--

	var err error
	if p.closed {
		err = p.destroyLocked(lease.slot)
	} else {
		p.free = append(p.free, lease.slot)
	}
	p.mu.Unlock()

	if p.sem != nil {
		p.sem.Release(1)
	}
	return err
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		Constructed: len(p.items) - p.destroyed,
		OnLoan:      p.loaned,
		Available:   len(p.free),
		Peak:        p.peak,
		Acquires:    p.acquires,
	}
}

// Capacity returns the configured lease bound, or zero when unbounded.
func (p *Pool[T]) Capacity() int { return p.capacity }

// Close destroys every available instance and marks the pool closed.
// Instances still on loan are destroyed when they are released. Instances
// implementing io.Closer are closed; the errors are joined.
//
// Close is idempotent.
func (p *Pool[T]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.cancel()

	var errs []error
	for _, slot := range p.free {
		errs = append(errs, p.destroyLocked(slot))
	}
	p.free = nil

	return errors.Join(errs...)
}

// destroyLocked closes the instance in slot and clears it. The slot index is
// never reused so outstanding generations stay unique.
func (p *Pool[T]) destroyLocked(slot int) error {
	item := p.items[slot]
	var zero T
	p.items[slot] = zero
	p.destroyed++

	if closer, ok := any(item).(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
