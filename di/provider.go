package di

import (
	"context"
	"errors"
	"io"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Option configures a Provider built from a Collection.
type Option func(*Provider)

// WithValidateOnBuild makes Build check that every inject-tagged field of
// every implementation type refers to a registered service, that no
// Singleton depends on a Scoped service, and that field injection has no cycles.
func WithValidateOnBuild() Option {
	return func(p *Provider) { p.validate = true }
}

// WithLogger sets the logger used for container lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// slot holds one lazily constructed shared instance.
type slot struct {
	mu   sync.Mutex
	done bool
	val  any
}

func (s *slot) get(build func() (any, error)) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return s.val, nil
	}
	v, err := build()
	if err != nil {
		return nil, err
	}
	s.val, s.done = v, true
	return v, nil
}

// owner records io.Closer instances it is responsible for.
type owner interface {
	track(v any)
}

// Provider is the root resolver produced by Collection.Build.
//
// Singletons live for the lifetime of the Provider. Scoped services are only
// available through scopes created with CreateScope. Provider is safe for
// concurrent use.
//
// Cycles are detected along one resolution chain. Two goroutines resolving
// shared instances that depend on each other (A needs B, B needs A) at the
// same time block each other instead; WithValidateOnBuild rejects such cycles
// between inject fields at Build, factory cycles cannot be seen ahead of time.
type Provider struct {
	descriptors map[reflect.Type]Descriptor
	logger      *zap.Logger
	validate    bool

	mu         sync.Mutex
	singletons map[reflect.Type]*slot
	closers    []io.Closer
	closed     bool
}

// Build turns the registrations into a Provider.
//
// The collection can still be modified afterwards; the Provider keeps its own copy.
func (c *Collection) Build(opts ...Option) (*Provider, error) {
	p := &Provider{
		descriptors: make(map[reflect.Type]Descriptor, len(c.descriptors)),
		logger:      zap.NewNop(),
		singletons:  make(map[reflect.Type]*slot),
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, d := range c.descriptors {
		p.descriptors[d.ServiceType] = d
	}

	if p.validate {
		if err := p.validateGraph(); err != nil {
			return nil, err
		}
	}

	p.logger.Debug("di: provider built",
		zap.Int("registrations", len(c.descriptors)),
		zap.Int("services", len(p.descriptors)),
	)
	return p, nil
}

func (p *Provider) validateGraph() error {
	for service, d := range p.descriptors {
		if d.ImplementationType == nil {
			continue
		}
		fields, err := injectableFields(d.ImplementationType)
		if err != nil {
			return err
		}
		for _, f := range fields {
			dep, ok := p.descriptors[f.typ]
			if !ok {
				if f.optional {
					continue
				}
				return ResolutionError{Type: service, Cause: ServiceNotFoundError{Type: f.typ}}
			}
			if d.Lifetime == Singleton && dep.Lifetime == Scoped {
				return InvalidDescriptorError{Service: service, Reason: "singleton depends on scoped service " + typeName(f.typ)}
			}
		}
	}
	return p.findCycle()
}

// findCycle walks inject fields depth first and reports the first cycle.
func (p *Provider) findCycle() error {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[reflect.Type]int, len(p.descriptors))
	var path []reflect.Type

	var visit func(t reflect.Type) error
	visit = func(t reflect.Type) error {
		switch state[t] {
		case done:
			return nil
		case visiting:
			for i, seen := range path {
				if seen == t {
					chain := append(append([]reflect.Type{}, path[i:]...), t)
					return CircularDependencyError{Path: chain}
				}
			}
		}

		d, ok := p.descriptors[t]
		if !ok || d.ImplementationType == nil {
			state[t] = done
			return nil
		}
		fields, err := injectableFields(d.ImplementationType)
		if err != nil {
			return err
		}

		state[t] = visiting
		path = append(path, t)
		for _, f := range fields {
			if err := visit(f.typ); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[t] = done
		return nil
	}

	for t := range p.descriptors {
		if err := visit(t); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns an instance of service from the root scope.
func (p *Provider) Resolve(service reflect.Type) (any, error) {
	return p.resolve(service, nil, nil)
}

// CreateScope starts a new scope. Callers must Close it when done.
func (p *Provider) CreateScope() *Scope {
	return &Scope{
		provider:  p,
		instances: make(map[reflect.Type]*slot),
	}
}

// Close closes every root-owned io.Closer in reverse creation order.
//
// When ctx is done, remaining closers are skipped and ctx.Err() is included
// in the joined result.
func (p *Provider) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrAlreadyClosed
	}
	p.closed = true
	closers := p.closers
	p.closers = nil
	p.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.logger.Debug("di: provider closed", zap.Int("closers", len(closers)), zap.Int("errors", len(errs)))
	return errors.Join(errs...)
}

func (p *Provider) track(v any) {
	c, ok := v.(io.Closer)
	if !ok {
		return
	}
	p.mu.Lock()
	p.closers = append(p.closers, c)
	p.mu.Unlock()
}

func (p *Provider) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Provider) singletonSlot(service reflect.Type) *slot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.singletons[service]
	if !ok {
		s = &slot{}
		p.singletons[service] = s
	}
	return s
}

// resolution is the Resolver handed to factories and field injection. It
// carries the active scope and the chain of services under construction.
type resolution struct {
	provider *Provider
	scope    *Scope
	path     []reflect.Type
}

func (r *resolution) Resolve(service reflect.Type) (any, error) {
	return r.provider.resolve(service, r.scope, r.path)
}

func (p *Provider) resolve(service reflect.Type, scope *Scope, path []reflect.Type) (any, error) {
	if p.isClosed() || (scope != nil && scope.isClosed()) {
		return nil, ErrClosed
	}
	for _, t := range path {
		if t == service {
			cycle := append(append([]reflect.Type{}, path...), service)
			return nil, CircularDependencyError{Path: cycle}
		}
	}

	d, ok := p.descriptors[service]
	if !ok {
		return nil, ServiceNotFoundError{Type: service}
	}

	next := append(path[:len(path):len(path)], service)

	switch d.Lifetime {
	case Singleton:
		if d.Instance != nil {
			return d.Instance, nil
		}
		// Singletons never see the caller's scope so they cannot capture scoped services.
		return p.singletonSlot(service).get(func() (any, error) {
			v, err := p.create(d, &resolution{provider: p, path: next})
			if err == nil {
				p.track(v)
				p.logger.Debug("di: singleton created", zap.Stringer("service", service))
			}
			return v, err
		})
	case Scoped:
		if scope == nil {
			return nil, ScopeRequiredError{Type: service}
		}
		return scope.slot(service).get(func() (any, error) {
			v, err := p.create(d, &resolution{provider: p, scope: scope, path: next})
			if err == nil {
				scope.track(v)
			}
			return v, err
		})
	case Transient:
		v, err := p.create(d, &resolution{provider: p, scope: scope, path: next})
		if err != nil {
			return nil, err
		}
		var o owner = p
		if scope != nil {
			o = scope
		}
		o.track(v)
		return v, nil
	default:
		return nil, InvalidLifetimeError{Lifetime: d.Lifetime}
	}
}

func (p *Provider) create(d Descriptor, r *resolution) (any, error) {
	if d.Factory != nil {
		v, err := d.Factory(r)
		if err != nil {
			return nil, ResolutionError{Type: d.ServiceType, Cause: err}
		}
		if v == nil || !reflect.TypeOf(v).AssignableTo(d.ServiceType) {
			return nil, ResolutionError{Type: d.ServiceType, Cause: errors.New("factory returned a value not assignable to the service type")}
		}
		return v, nil
	}

	ptr := reflect.New(d.ImplementationType)
	if err := injectFields(ptr, r); err != nil {
		return nil, ResolutionError{Type: d.ServiceType, Cause: err}
	}
	return ptr.Interface(), nil
}
