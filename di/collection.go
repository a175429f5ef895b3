package di

import "reflect"

// Resolver resolves service instances by type.
//
// Provider and Scope both implement it; factories receive the resolver of the
// scope they are being constructed in.
type Resolver interface {
	Resolve(service reflect.Type) (any, error)
}

// Factory builds a service instance on demand.
type Factory func(r Resolver) (any, error)

// Descriptor describes one registration.
//
// Exactly one of ImplementationType, Factory or Instance is set.
type Descriptor struct {
	// ServiceType is the type callers resolve, usually an interface.
	ServiceType reflect.Type

	// ImplementationType is the struct type instantiated (as a pointer) on resolution.
	ImplementationType reflect.Type

	// Factory builds the instance when ImplementationType is nil.
	Factory Factory

	// Instance is a pre-built singleton value.
	Instance any

	Lifetime Lifetime
}

// Collection is an ordered list of registrations.
//
// It is meant to be populated once, from a single goroutine, in the
// composition root, and then turned into a Provider with Build.
// Registering the same service type twice keeps both descriptors; the
// last one wins at resolution time.
type Collection struct {
	descriptors []Descriptor
}

// NewCollection returns an empty Collection.
func NewCollection() *Collection {
	return &Collection{}
}

// AddSingleton registers impl as a Singleton implementation of service.
func (c *Collection) AddSingleton(service, impl reflect.Type) error {
	return c.Add(Descriptor{ServiceType: service, ImplementationType: impl, Lifetime: Singleton})
}

// AddScoped registers impl as a Scoped implementation of service.
func (c *Collection) AddScoped(service, impl reflect.Type) error {
	return c.Add(Descriptor{ServiceType: service, ImplementationType: impl, Lifetime: Scoped})
}

// AddTransient registers impl as a Transient implementation of service.
func (c *Collection) AddTransient(service, impl reflect.Type) error {
	return c.Add(Descriptor{ServiceType: service, ImplementationType: impl, Lifetime: Transient})
}

// AddFactory registers a factory for service with the given lifetime.
func (c *Collection) AddFactory(service reflect.Type, lifetime Lifetime, f Factory) error {
	return c.Add(Descriptor{ServiceType: service, Factory: f, Lifetime: lifetime})
}

// AddInstance registers an already constructed value as a Singleton.
func (c *Collection) AddInstance(service reflect.Type, v any) error {
	return c.Add(Descriptor{ServiceType: service, Instance: v, Lifetime: Singleton})
}

// Add validates d and appends it to the collection.
//
// A pointer-to-struct ImplementationType is normalised to the struct type.
func (c *Collection) Add(d Descriptor) error {
	norm, err := normalizeDescriptor(d)
	if err != nil {
		return err
	}
	c.descriptors = append(c.descriptors, norm)
	return nil
}

// Descriptors returns a copy of the registrations in insertion order.
func (c *Collection) Descriptors() []Descriptor {
	out := make([]Descriptor, len(c.descriptors))
	copy(out, c.descriptors)
	return out
}

// Len returns the number of registrations.
func (c *Collection) Len() int { return len(c.descriptors) }

// Contains reports whether service has at least one registration.
func (c *Collection) Contains(service reflect.Type) bool {
	_, ok := c.Lookup(service)
	return ok
}

// Lookup returns the effective (last) registration for service.
func (c *Collection) Lookup(service reflect.Type) (Descriptor, bool) {
	for i := len(c.descriptors) - 1; i >= 0; i-- {
		if c.descriptors[i].ServiceType == service {
			return c.descriptors[i], true
		}
	}
	return Descriptor{}, false
}

func normalizeDescriptor(d Descriptor) (Descriptor, error) {
	if d.ServiceType == nil {
		return d, InvalidDescriptorError{Reason: "service type is nil"}
	}
	if !d.Lifetime.Valid() {
		return d, InvalidDescriptorError{Service: d.ServiceType, Reason: InvalidLifetimeError{Lifetime: d.Lifetime}.Error()}
	}

	sources := 0
	if d.ImplementationType != nil {
		sources++
	}
	if d.Factory != nil {
		sources++
	}
	if d.Instance != nil {
		sources++
	}
	if sources != 1 {
		return d, InvalidDescriptorError{Service: d.ServiceType, Reason: "exactly one of implementation type, factory or instance is required"}
	}

	switch {
	case d.Instance != nil:
		if d.Lifetime != Singleton {
			return d, InvalidDescriptorError{Service: d.ServiceType, Reason: "instances can only be registered as Singleton"}
		}
		if !reflect.TypeOf(d.Instance).AssignableTo(d.ServiceType) {
			return d, InvalidDescriptorError{Service: d.ServiceType, Reason: "instance of type " + reflect.TypeOf(d.Instance).String() + " is not assignable to service"}
		}
	case d.ImplementationType != nil:
		impl := d.ImplementationType
		if impl.Kind() == reflect.Pointer {
			impl = impl.Elem()
		}
		if impl.Kind() != reflect.Struct {
			return d, InvalidDescriptorError{Service: d.ServiceType, Reason: "implementation " + impl.String() + " is not a struct type"}
		}
		if !reflect.PointerTo(impl).AssignableTo(d.ServiceType) {
			return d, InvalidDescriptorError{Service: d.ServiceType, Reason: "implementation *" + impl.String() + " does not implement service"}
		}
		d.ImplementationType = impl
	}
	return d, nil
}
