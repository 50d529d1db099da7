package resourcepool

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("resource pool misconfigured")
	// ErrFatal is matched by every *FatalError. A pool whose factory cannot
	// build a resource has no degraded mode.
	ErrFatal = errors.New("fatal resource construction failure")
	// ErrInvalidLease is matched by every *InvalidLeaseError.
	ErrInvalidLease = errors.New("invalid lease")
	// ErrClosed is returned by Acquire once the pool has been closed.
	ErrClosed = errors.New("resource pool closed")
)

// ConfigurationError reports misuse of Configure or an Acquire on a pool that
// has no factory yet.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfiguration, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// FatalError wraps the factory error that prevented a resource from being
// constructed.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", ErrFatal, e.Err)
}

// Unwrap exposes both ErrFatal and the factory error to errors.Is/As.
func (e *FatalError) Unwrap() []error { return []error{ErrFatal, e.Err} }

// InvalidLeaseError is returned by Release for a lease that did not come from
// the pool, was already released, or is the zero Lease.
type InvalidLeaseError struct {
	Reason string
	Slot   int
}

func (e *InvalidLeaseError) Error() string {
	return fmt.Sprintf("%s (slot %d): %s", ErrInvalidLease, e.Slot, e.Reason)
}

func (e *InvalidLeaseError) Unwrap() error { return ErrInvalidLease }
