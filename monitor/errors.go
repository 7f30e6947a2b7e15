package monitor

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownComponent indicates a component name is not registered.
	ErrUnknownComponent = errors.New("monitor: unknown component")

	// ErrProbeTimeout indicates a probe exceeded the configured timeout.
	ErrProbeTimeout = errors.New("monitor: probe timed out")

	// ErrAlreadyStarted indicates Start was called on a running monitor.
	ErrAlreadyStarted = errors.New("monitor: already started")

	// ErrNilContainer indicates New was called without a container.
	ErrNilContainer = errors.New("monitor: container is nil")
)

// UnknownComponentError reports a check of an unregistered component name.
// It matches ErrUnknownComponent under errors.Is.
type UnknownComponentError struct {
	Component string
}

func (e *UnknownComponentError) Error() string {
	return fmt.Sprintf("monitor: unknown component %q", e.Component)
}

func (e *UnknownComponentError) Is(target error) bool {
	return target == ErrUnknownComponent
}
