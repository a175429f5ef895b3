package autoservice

import (
	"reflect"
	"sort"
	"sync"
)

// Module is an explicit table of candidate types and the interfaces they may
// be bound to. It plays the role an assembly plays for reflection-based
// scanners: the scanner only ever looks at what a Module lists.
//
// Modules are usually emitted by cmd/autoservicegen and registered from an
// init function, with the package import path as name:
//
//	autoservice.Register(autoservice.NewModule("example.com/app/widgets").
//		Add((*Widget)(nil), (*Cache)(nil)).
//		Interfaces((*IWidget)(nil), (*ICacheStore)(nil)))
//
// A Module is not safe for concurrent mutation; build it once, then register
// or share it. Changes made after Register are not seen by the catalog.
type Module struct {
	name       string
	types      []reflect.Type
	seen       map[reflect.Type]struct{}
	interfaces []reflect.Type
	marks      map[reflect.Type][]Marker
	convention Convention
}

// NewModule returns an empty module.
func NewModule(name string) *Module {
	return &Module{
		name:  name,
		seen:  map[reflect.Type]struct{}{},
		marks: map[reflect.Type][]Marker{},
	}
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// Add lists candidate types given as samples: (*Widget)(nil), Widget{} or &Widget{}.
// Pointer samples are recorded as their element type. Duplicates are ignored.
func (m *Module) Add(samples ...any) *Module {
	for _, s := range samples {
		m.AddTypes(reflect.TypeOf(s))
	}
	return m
}

// AddTypes lists candidate types directly.
func (m *Module) AddTypes(types ...reflect.Type) *Module {
	for _, t := range types {
		if t == nil {
			continue
		}
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if _, dup := m.seen[t]; dup {
			continue
		}
		m.seen[t] = struct{}{}
		m.types = append(m.types, t)
	}
	return m
}

// Interfaces declares interfaces that marked types may bind to, given as
// nil pointers: (*IWidget)(nil).
func (m *Module) Interfaces(samples ...any) *Module {
	for _, s := range samples {
		t := reflect.TypeOf(s)
		if t == nil {
			continue
		}
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Kind() != reflect.Interface {
			continue
		}
		m.addInterface(t)
	}
	return m
}

func (m *Module) addInterface(t reflect.Type) {
	for _, existing := range m.interfaces {
		if existing == t {
			return
		}
	}
	m.interfaces = append(m.interfaces, t)
}

// Prefix sets the naming convention used for this module's conventional
// bindings to prefix + TypeName, overriding the scanner's convention.
// The generator emits it when run with a prefix other than "I".
func (m *Module) Prefix(prefix string) *Module {
	m.convention = PrefixConvention(prefix)
	return m
}

// Mark records an explicit marker for the type of sample and lists the type.
// This is the table form of the Service marker field; marking a type twice,
// or marking a type that also declares a marker field, makes it ambiguous.
func (m *Module) Mark(sample any, marker Marker) *Module {
	t := reflect.TypeOf(sample)
	if t == nil {
		return m
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	m.AddTypes(t)
	m.marks[t] = append(m.marks[t], marker)
	return m
}

// Types returns the candidate types in the order they were added.
func (m *Module) Types() []reflect.Type {
	out := make([]reflect.Type, len(m.types))
	copy(out, m.types)
	return out
}

// Contains reports whether t (or its element type) is listed.
func (m *Module) Contains(t reflect.Type) bool {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	_, ok := m.seen[t]
	return ok
}

// properties returns the single marker of t, combining marker fields and
// table entries. ok is false when t carries no marker at all.
func (m *Module) properties(t reflect.Type) (marker Marker, ok bool, err error) {
	fields := markerFields(t)
	table := m.marks[t]

	switch count := len(fields) + len(table); {
	case count == 0:
		return Marker{}, false, nil
	case count > 1:
		return Marker{}, true, AmbiguousMarkerError{Type: t, Count: count}
	case len(table) == 1:
		return table[0], true, nil
	default:
		marker, err = ParseTag(fields[0].Tag.Get(TagKey))
		return marker, true, err
	}
}

// lookupInterface finds a declared interface by simple or package-qualified name.
func (m *Module) lookupInterface(name string) (reflect.Type, bool) {
	for _, it := range m.interfaces {
		if it.Name() == name || it.String() == name || it.PkgPath()+"."+it.Name() == name {
			return it, true
		}
	}
	return nil, false
}

func (m *Module) clone() *Module {
	c := NewModule(m.name)
	c.merge(m)
	return c
}

// merge appends the content of other into m.
func (m *Module) merge(other *Module) {
	if m.convention == nil {
		m.convention = other.convention
	}
	m.AddTypes(other.types...)
	for _, it := range other.interfaces {
		m.addInterface(it)
	}
	for t, marks := range other.marks {
		m.marks[t] = append(m.marks[t], marks...)
	}
}

// Catalog is a concurrency-safe set of modules keyed by name.
type Catalog struct {
	mu         sync.RWMutex
	modules    map[string]*Module
	registered map[*Module]struct{}
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{modules: map[string]*Module{}, registered: map[*Module]struct{}{}}
}

var defaultCatalog = NewCatalog()

// DefaultCatalog returns the process-wide catalog filled by generated init functions.
func DefaultCatalog() *Catalog { return defaultCatalog }

// Register adds m to the default catalog.
func Register(m *Module) { defaultCatalog.Register(m) }

// Register adds m to the catalog. Registering the same module again is a
// no-op. Registering a second module with the same name replaces the entry
// with a merged copy; neither argument is modified, so modules returned
// earlier by Module or Modules stay valid snapshots.
func (c *Catalog) Register(m *Module) {
	if m == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, dup := c.registered[m]; dup {
		return
	}
	c.registered[m] = struct{}{}

	if existing, ok := c.modules[m.name]; ok {
		merged := existing.clone()
		merged.merge(m)
		c.modules[m.name] = merged
		return
	}
	c.modules[m.name] = m
}

// Module returns the module registered under name.
func (c *Catalog) Module(name string) (*Module, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.modules[name]
	return m, ok
}

// ModuleOf returns the module that lists t, falling back to the module named
// after t's package path.
func (c *Catalog) ModuleOf(t reflect.Type) (*Module, bool) {
	if t == nil {
		return nil, false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for _, m := range c.Modules() {
		if m.Contains(t) {
			return m, true
		}
	}
	return c.Module(t.PkgPath())
}

// Modules returns every module sorted by name.
func (c *Catalog) Modules() []*Module {
	c.mu.RLock()
	out := make([]*Module, 0, len(c.modules))
	for _, m := range c.modules {
		out = append(out, m)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}
