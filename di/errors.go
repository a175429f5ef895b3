package di

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
)

var (
	// ErrClosed is returned when resolving from a Provider or Scope that has been closed.
	ErrClosed = errors.New("di: resolver closed")

	// ErrAlreadyClosed is returned by a second Close call.
	ErrAlreadyClosed = errors.New("di: resolver already closed")
)

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// InvalidLifetimeNameError is returned when a lifetime name does not match
// Singleton, Scoped or Transient.
type InvalidLifetimeNameError struct{ Name string }

// Error implements the error interface.
func (e InvalidLifetimeNameError) Error() string {
	// Example: di: invalid lifetime name "forever" (want Singleton, Scoped or Transient)
	return "di: invalid lifetime name " + strconv.Quote(e.Name) + " (want Singleton, Scoped or Transient)"
}

// InvalidLifetimeError is returned when a Lifetime value is outside the known range.
type InvalidLifetimeError struct{ Lifetime Lifetime }

// Error implements the error interface.
func (e InvalidLifetimeError) Error() string {
	return "di: invalid lifetime value " + strconv.Itoa(int(e.Lifetime))
}

// InvalidDescriptorError is returned when a registration cannot be accepted.
type InvalidDescriptorError struct {
	// Service is the service type of the rejected registration (may be nil).
	Service reflect.Type

	// Reason is a short human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (e InvalidDescriptorError) Error() string {
	// Example: di: invalid registration for di_test.IWidget: implementation does not implement service
	return "di: invalid registration for " + typeName(e.Service) + ": " + e.Reason
}

// ServiceNotFoundError is returned when no registration exists for a service type.
type ServiceNotFoundError struct{ Type reflect.Type }

// Error implements the error interface.
func (e ServiceNotFoundError) Error() string {
	return "di: no service registered for " + typeName(e.Type)
}

// ScopeRequiredError is returned when a scoped service is resolved from the root Provider.
type ScopeRequiredError struct{ Type reflect.Type }

// Error implements the error interface.
func (e ScopeRequiredError) Error() string {
	return "di: scoped service " + typeName(e.Type) + " must be resolved from a scope"
}

// CircularDependencyError is returned when resolution re-enters a service
// that is still being constructed.
type CircularDependencyError struct{ Path []reflect.Type }

// Error implements the error interface.
func (e CircularDependencyError) Error() string {
	chain := make([]string, len(e.Path))
	for i, t := range e.Path {
		chain[i] = typeName(t)
	}
	return "di: circular dependency: " + strings.Join(chain, " -> ")
}

// ResolutionError wraps a failure raised while constructing Type.
type ResolutionError struct {
	Type  reflect.Type
	Cause error
}

// Error implements the error interface.
func (e ResolutionError) Error() string {
	return "di: resolving " + typeName(e.Type) + ": " + e.Cause.Error()
}

// Unwrap returns the underlying cause.
func (e ResolutionError) Unwrap() error { return e.Cause }
