package resourcepool

// Lease is an exclusive, time bounded right to use one pooled instance.
//
// A Lease is a small value and may be copied, but every copy refers to the
// same loan: releasing any of them ends the loan and further releases are
// rejected. A Lease must not be used after it has been released and must not
// be handed to another goroutine while held.
type Lease[T any] struct {
	pool       *Pool[T]
	slot       int
	generation uint64
	value      T
}

// Value returns the leased instance.
func (l Lease[T]) Value() T { return l.value }

// Slot returns the arena index of the leased instance. Two leases held at the
// same time never share a slot.
func (l Lease[T]) Slot() int { return l.slot }

// Release returns the instance to the pool it was acquired from.
func (l Lease[T]) Release() error {
	if l.pool == nil {
		return &InvalidLeaseError{Reason: "zero lease", Slot: l.slot}
	}
	return l.pool.Release(l)
}
