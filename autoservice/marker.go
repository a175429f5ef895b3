package autoservice

import (
	"reflect"
	"strings"

	"github.com/sghaida/autoservice/di"
)

// TagKey is the struct tag read from Service marker fields.
const TagKey = "autoservice"

// Service marks a struct for automatic registration.
//
// Embed it, or declare a blank field of this type, and optionally describe the
// registration in an `autoservice` tag:
//
//	type Widget struct {
//		autoservice.Service // Scoped, bound to IWidget
//	}
//
//	type Cache struct {
//		_ autoservice.Service `autoservice:"lifetime=singleton,interface=ICacheStore"`
//	}
//
// A struct may carry at most one marker.
type Service struct{}

var serviceType = reflect.TypeOf(Service{})

// Marker holds the registration metadata of one marked type: its lifetime
// (Scoped unless stated otherwise) and the interface it is bound to. The
// interface is either an explicit type or, for tag markers, a name resolved
// against the module at scan time. When neither is set the scanner falls back
// to the "I" + type name convention.
type Marker struct {
	lifetime  di.Lifetime
	iface     reflect.Type
	ifaceName string
}

// Mark returns a Scoped marker with no explicit interface.
func Mark() Marker { return Marker{lifetime: di.Scoped} }

// MarkLifetime returns a marker with the given lifetime.
func MarkLifetime(l di.Lifetime) Marker { return Marker{lifetime: l} }

// MarkInterface returns a Scoped marker bound to iface.
func MarkInterface(iface reflect.Type) Marker { return Marker{lifetime: di.Scoped, iface: iface} }

// MarkWith returns a marker with both lifetime and interface.
func MarkWith(l di.Lifetime, iface reflect.Type) Marker { return Marker{lifetime: l, iface: iface} }

// MarkFor returns a marker with lifetime l bound to interface I.
func MarkFor[I any](l di.Lifetime) Marker { return MarkWith(l, di.TypeOf[I]()) }

// MarkNamed returns a marker whose lifetime is parsed from name
// (case-insensitive "Singleton", "Scoped" or "Transient").
func MarkNamed(lifetime string) (Marker, error) {
	l, err := di.ParseLifetime(lifetime)
	if err != nil {
		return Marker{}, err
	}
	return MarkLifetime(l), nil
}

// MarkNamedInterface is MarkNamed with an explicit interface.
func MarkNamedInterface(lifetime string, iface reflect.Type) (Marker, error) {
	l, err := di.ParseLifetime(lifetime)
	if err != nil {
		return Marker{}, err
	}
	return MarkWith(l, iface), nil
}

// Lifetime returns the registration lifetime.
func (m Marker) Lifetime() di.Lifetime { return m.lifetime }

// Interface returns the explicit interface type, or nil.
func (m Marker) Interface() reflect.Type { return m.iface }

// InterfaceName returns the name of the explicitly bound interface, or "".
func (m Marker) InterfaceName() string {
	if m.iface != nil {
		return m.iface.Name()
	}
	return m.ifaceName
}

// HasInterface reports whether the marker binds an interface explicitly.
func (m Marker) HasInterface() bool { return m.iface != nil || m.ifaceName != "" }

// ParseTag parses the value of an `autoservice` struct tag.
//
// The grammar is a comma separated list of key=value pairs, each key at most once:
//
//	""                                      Scoped, conventional interface
//	"lifetime=singleton"                    lifetime only
//	"interface=ICacheStore"                 interface only
//	"lifetime=transient,interface=IClock"   both
func ParseTag(tag string) (Marker, error) {
	m := Mark()
	if strings.TrimSpace(tag) == "" {
		return m, nil
	}

	seen := map[string]bool{}
	for _, part := range strings.Split(tag, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return Marker{}, InvalidMarkerTagError{Tag: tag, Reason: "want key=value, got " + part}
		}
		if seen[key] {
			return Marker{}, InvalidMarkerTagError{Tag: tag, Reason: "duplicate key " + key}
		}
		seen[key] = true

		switch key {
		case "lifetime":
			l, err := di.ParseLifetime(value)
			if err != nil {
				return Marker{}, err
			}
			m.lifetime = l
		case "interface":
			m.ifaceName = value
		default:
			return Marker{}, InvalidMarkerTagError{Tag: tag, Reason: "unknown key " + key}
		}
	}
	return m, nil
}

// markerFields returns the direct fields of t whose type is Service.
func markerFields(t reflect.Type) []reflect.StructField {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	var out []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.Type == serviceType {
			out = append(out, f)
		}
	}
	return out
}

// IsMarked reports whether t declares at least one Service marker field.
func IsMarked(t reflect.Type) bool {
	return len(markerFields(t)) > 0
}

// GetProperties reads the declared marker of t in one pass.
//
// It fails with MarkerNotFoundError when t has no marker field,
// AmbiguousMarkerError when it has more than one, and with the tag parse error
// when the tag is malformed.
func GetProperties(t reflect.Type) (Marker, error) {
	fields := markerFields(t)
	switch len(fields) {
	case 0:
		return Marker{}, MarkerNotFoundError{Type: t}
	case 1:
		return ParseTag(fields[0].Tag.Get(TagKey))
	default:
		return Marker{}, AmbiguousMarkerError{Type: t, Count: len(fields)}
	}
}

// GetLifetime returns the declared lifetime of t.
func GetLifetime(t reflect.Type) (di.Lifetime, error) {
	m, err := GetProperties(t)
	if err != nil {
		return 0, err
	}
	return m.Lifetime(), nil
}

// GetInterface returns the interface name declared by t's marker, or "" when
// the marker relies on the naming convention.
func GetInterface(t reflect.Type) (string, error) {
	m, err := GetProperties(t)
	if err != nil {
		return "", err
	}
	return m.InterfaceName(), nil
}
