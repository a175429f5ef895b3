package di

import (
	"errors"
	"reflect"
)

// TypeOf returns the reflect.Type of T, including interface types.
//
//	di.TypeOf[IWidget]() // interface type, not the dynamic type of a value
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Add registers implementation T for service I with the given lifetime.
func Add[I any, T any](c *Collection, lifetime Lifetime) error {
	return c.Add(Descriptor{ServiceType: TypeOf[I](), ImplementationType: TypeOf[T](), Lifetime: lifetime})
}

// Resolve resolves T from r and asserts the result.
func Resolve[T any](r Resolver) (T, error) {
	var zero T
	service := TypeOf[T]()
	v, err := r.Resolve(service)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, ResolutionError{Type: service, Cause: errors.New("resolved value has type " + reflect.TypeOf(v).String())}
	}
	return out, nil
}

// MustResolve is like Resolve but panics on error.
// Useful in composition roots and tests where a missing service should fail fast.
func MustResolve[T any](r Resolver) T {
	v, err := Resolve[T](r)
	if err != nil {
		panic(err)
	}
	return v
}
