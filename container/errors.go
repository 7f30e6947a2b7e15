package container

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRegistered indicates a service name has no registration.
	ErrNotRegistered = errors.New("container: service not registered")

	// ErrNilFactory indicates a registration has a nil factory.
	ErrNilFactory = errors.New("container: factory is nil")
)

// NotRegisteredError reports a resolution of an unregistered service name.
// It matches ErrNotRegistered under errors.Is.
type NotRegisteredError struct {
	Service string
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("container: service %q not registered", e.Service)
}

func (e *NotRegisteredError) Is(target error) bool {
	return target == ErrNotRegistered
}

// FactoryError wraps a factory failure with the failing service's name.
type FactoryError struct {
	Service string
	Err     error
}

func (e *FactoryError) Error() string {
	return fmt.Sprintf("container: factory for service %q failed: %v", e.Service, e.Err)
}

func (e *FactoryError) Unwrap() error {
	return e.Err
}

// InitError wraps an initialization-hook failure with the failing
// service's name. It aborts InitializeAll.
type InitError struct {
	Service string
	Err     error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("container: initialize of service %q failed: %v", e.Service, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// ShutdownError wraps a shutdown-hook failure with the failing service's
// name. Shutdown collects these rather than aborting.
type ShutdownError struct {
	Service string
	Err     error
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("container: shutdown of service %q failed: %v", e.Service, e.Err)
}

func (e *ShutdownError) Unwrap() error {
	return e.Err
}
