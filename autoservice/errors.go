package autoservice

import (
	"reflect"
	"strconv"
)

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// AmbiguousMatchError is returned when a marked type has no explicit interface
// and does not implement the interface its name implies ("I" + type name).
type AmbiguousMatchError struct {
	// Type is the marked implementation type.
	Type reflect.Type

	// Interface is the conventional interface name that was looked up.
	Interface string
}

// Error implements the error interface.
func (e AmbiguousMatchError) Error() string {
	// Example: autoservice: there is no matching interface named "ILogger", please check "Logger"
	name := "<nil>"
	if e.Type != nil {
		name = e.Type.Name()
	}
	return "autoservice: there is no matching interface named " + strconv.Quote(e.Interface) +
		", please check " + strconv.Quote(name) + " (" + typeName(e.Type) + ")"
}

// AmbiguousMarkerError is returned when a type carries more than one marker.
type AmbiguousMarkerError struct {
	Type  reflect.Type
	Count int
}

// Error implements the error interface.
func (e AmbiguousMarkerError) Error() string {
	return "autoservice: " + typeName(e.Type) + " carries " + strconv.Itoa(e.Count) + " service markers, want at most one"
}

// MarkerNotFoundError is returned by the accessors when a type carries no marker.
type MarkerNotFoundError struct{ Type reflect.Type }

// Error implements the error interface.
func (e MarkerNotFoundError) Error() string {
	return "autoservice: " + typeName(e.Type) + " carries no service marker"
}

// InvalidMarkerTagError is returned when an `autoservice:"..."` tag cannot be parsed.
type InvalidMarkerTagError struct {
	Tag    string
	Reason string
}

// Error implements the error interface.
func (e InvalidMarkerTagError) Error() string {
	return "autoservice: invalid marker tag " + strconv.Quote(e.Tag) + ": " + e.Reason
}

// UnknownInterfaceError is returned when a marker names an interface that the
// type's module does not declare.
type UnknownInterfaceError struct {
	Type      reflect.Type
	Interface string
	Module    string
}

// Error implements the error interface.
func (e UnknownInterfaceError) Error() string {
	return "autoservice: interface " + strconv.Quote(e.Interface) + " bound by " + typeName(e.Type) +
		" is not declared in module " + strconv.Quote(e.Module)
}

// NotInterfaceError is returned when a marker binds a type that is not an interface.
type NotInterfaceError struct {
	Type  reflect.Type
	Bound reflect.Type
}

// Error implements the error interface.
func (e NotInterfaceError) Error() string {
	return "autoservice: " + typeName(e.Type) + " is bound to " + typeName(e.Bound) + ", which is not an interface"
}

// NotImplementedError is returned when a marked type does not implement the
// interface its marker binds explicitly.
type NotImplementedError struct {
	Type      reflect.Type
	Interface reflect.Type
}

// Error implements the error interface.
func (e NotImplementedError) Error() string {
	return "autoservice: *" + typeName(e.Type) + " does not implement " + typeName(e.Interface)
}

// DuplicateBindingError is returned when two marked types bind the same
// interface within one scan.
type DuplicateBindingError struct {
	Interface reflect.Type
	First     reflect.Type
	Second    reflect.Type
}

// Error implements the error interface.
func (e DuplicateBindingError) Error() string {
	return "autoservice: interface " + typeName(e.Interface) + " is bound by both " +
		typeName(e.First) + " and " + typeName(e.Second)
}

// ModuleNotFoundError is returned when a scan source cannot be resolved to a module.
type ModuleNotFoundError struct {
	// Name is the requested module name, or the package path of a sample type.
	Name string
}

// Error implements the error interface.
func (e ModuleNotFoundError) Error() string {
	return "autoservice: module " + strconv.Quote(e.Name) + " is not registered"
}
