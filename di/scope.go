package di

import (
	"errors"
	"io"
	"reflect"
	"sync"
)

// Scope is a resolution context with its own Scoped instances, typically one
// per request or unit of work.
//
//	scope := provider.CreateScope()
//	defer scope.Close()
//	w, err := di.Resolve[IWidget](scope)
type Scope struct {
	provider *Provider

	mu        sync.Mutex
	instances map[reflect.Type]*slot
	closers   []io.Closer
	closed    bool
}

// Resolve returns an instance of service within this scope.
func (s *Scope) Resolve(service reflect.Type) (any, error) {
	return s.provider.resolve(service, s, nil)
}

// Close closes the Scoped and Transient io.Closer instances created in this
// scope, in reverse creation order. Singletons are left to the Provider.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrAlreadyClosed
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.instances = nil
	s.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Scope) track(v any) {
	c, ok := v.(io.Closer)
	if !ok {
		return
	}
	s.mu.Lock()
	s.closers = append(s.closers, c)
	s.mu.Unlock()
}

func (s *Scope) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Scope) slot(service reflect.Type) *slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.instances[service]
	if !ok {
		sl = &slot{}
		if s.instances != nil {
			s.instances[service] = sl
		}
	}
	return sl
}
