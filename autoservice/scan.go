package autoservice

import (
	"reflect"

	"github.com/sghaida/autoservice/di"
	"go.uber.org/zap"
)

// Registrar is the registration surface the scanner writes to.
// *di.Collection implements it; adapters for other containers only need these three methods.
type Registrar interface {
	AddSingleton(service, impl reflect.Type) error
	AddScoped(service, impl reflect.Type) error
	AddTransient(service, impl reflect.Type) error
}

var _ Registrar = (*di.Collection)(nil)

// Registration is one planned interface -> implementation binding.
type Registration struct {
	Module         string
	Interface      reflect.Type
	Implementation reflect.Type
	Lifetime       di.Lifetime
}

// Scanner turns marked types into registrations.
type Scanner struct {
	catalog    *Catalog
	logger     *zap.Logger
	convention Convention
	override   bool
}

// NewScanner returns a Scanner over the default catalog.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		catalog:    defaultCatalog,
		logger:     zap.NewNop(),
		convention: DefaultConvention,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanAll registers the marked types of every module in the catalog.
func (s *Scanner) ScanAll(r Registrar) error {
	return s.Scan(r, s.catalog.Modules()...)
}

// ScanNamed registers the marked types of the named modules.
func (s *Scanner) ScanNamed(r Registrar, names ...string) error {
	modules, err := s.modulesByName(names)
	if err != nil {
		return err
	}
	return s.Scan(r, modules...)
}

// ScanFor registers the marked types of the modules that contain each sample's type.
func (s *Scanner) ScanFor(r Registrar, samples ...any) error {
	modules, err := s.modulesOf(samples)
	if err != nil {
		return err
	}
	return s.Scan(r, modules...)
}

// Scan registers the marked types of modules.
//
// The whole plan is computed before the first registration, so a misconfigured
// type leaves r untouched. Errors returned by r stop the scan immediately.
func (s *Scanner) Scan(r Registrar, modules ...*Module) error {
	plan, err := s.Plan(modules...)
	if err != nil {
		return err
	}
	for _, reg := range plan {
		if err := register(r, reg); err != nil {
			return err
		}
		s.logger.Debug("autoservice: registered",
			zap.String("module", reg.Module),
			zap.Stringer("interface", reg.Interface),
			zap.Stringer("implementation", reg.Implementation),
			zap.Stringer("lifetime", reg.Lifetime),
		)
	}
	return nil
}

// Plan resolves modules into registrations without touching any registrar.
//
// Types are visited in module order, then in the order each module lists
// them; a type listed by several modules is planned once.
func (s *Scanner) Plan(modules ...*Module) ([]Registration, error) {
	var (
		plan  []Registration
		seen  = map[reflect.Type]struct{}{}
		bound = map[reflect.Type]reflect.Type{}
	)

	for _, m := range modules {
		if m == nil {
			continue
		}
		for _, t := range m.types {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}

			if t.Kind() != reflect.Struct {
				if len(m.marks[t]) > 0 {
					return nil, di.InvalidDescriptorError{Service: t, Reason: "marked type is not a struct"}
				}
				continue
			}
			marker, ok, err := m.properties(t)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			iface, err := s.bindInterface(m, t, marker)
			if err != nil {
				return nil, err
			}
			if !marker.Lifetime().Valid() {
				return nil, di.InvalidLifetimeError{Lifetime: marker.Lifetime()}
			}

			if first, dup := bound[iface]; dup && !s.override {
				return nil, DuplicateBindingError{Interface: iface, First: first, Second: t}
			}
			bound[iface] = t

			plan = append(plan, Registration{
				Module:         m.name,
				Interface:      iface,
				Implementation: t,
				Lifetime:       marker.Lifetime(),
			})
		}
	}
	return plan, nil
}

// bindInterface picks the interface t is registered under: the marker's
// explicit type, its declared name, or the naming convention (the module's
// own when it sets one, else the scanner's).
func (s *Scanner) bindInterface(m *Module, t reflect.Type, marker Marker) (reflect.Type, error) {
	impl := reflect.PointerTo(t)

	explicit := marker.Interface()
	if explicit == nil && marker.InterfaceName() != "" {
		it, ok := m.lookupInterface(marker.InterfaceName())
		if !ok {
			return nil, UnknownInterfaceError{Type: t, Interface: marker.InterfaceName(), Module: m.name}
		}
		explicit = it
	}
	if explicit != nil {
		if explicit.Kind() != reflect.Interface {
			return nil, NotInterfaceError{Type: t, Bound: explicit}
		}
		if !impl.Implements(explicit) {
			return nil, NotImplementedError{Type: t, Interface: explicit}
		}
		return explicit, nil
	}

	convention := s.convention
	if m.convention != nil {
		convention = m.convention
	}
	want := convention(t.Name())
	for _, it := range m.interfaces {
		if it.Name() == want && impl.Implements(it) {
			return it, nil
		}
	}
	return nil, AmbiguousMatchError{Type: t, Interface: want}
}

func register(r Registrar, reg Registration) error {
	switch reg.Lifetime {
	case di.Singleton:
		return r.AddSingleton(reg.Interface, reg.Implementation)
	case di.Scoped:
		return r.AddScoped(reg.Interface, reg.Implementation)
	case di.Transient:
		return r.AddTransient(reg.Interface, reg.Implementation)
	default:
		return di.InvalidLifetimeError{Lifetime: reg.Lifetime}
	}
}

func (s *Scanner) modulesByName(names []string) ([]*Module, error) {
	out := make([]*Module, 0, len(names))
	for _, name := range names {
		m, ok := s.catalog.Module(name)
		if !ok {
			return nil, ModuleNotFoundError{Name: name}
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Scanner) modulesOf(samples []any) ([]*Module, error) {
	out := make([]*Module, 0, len(samples))
	for _, sample := range samples {
		t := reflect.TypeOf(sample)
		if t == nil {
			return nil, ModuleNotFoundError{Name: "<nil>"}
		}
		m, ok := s.catalog.ModuleOf(t)
		if !ok {
			if t.Kind() == reflect.Pointer {
				t = t.Elem()
			}
			return nil, ModuleNotFoundError{Name: t.PkgPath()}
		}
		out = append(out, m)
	}
	return out, nil
}

// AddAutoService registers the marked types of every module in the default
// catalog into r and returns r for chaining.
func AddAutoService[R Registrar](r R) (R, error) {
	return r, NewScanner().ScanAll(r)
}

// AddAutoServiceNamed registers the marked types of the named modules.
func AddAutoServiceNamed[R Registrar](r R, names ...string) (R, error) {
	return r, NewScanner().ScanNamed(r, names...)
}

// AddAutoServiceFor registers the marked types of the modules containing the
// samples' types, e.g. AddAutoServiceFor(c, (*widgets.Widget)(nil)).
func AddAutoServiceFor[R Registrar](r R, samples ...any) (R, error) {
	return r, NewScanner().ScanFor(r, samples...)
}

// AddAutoServiceModules registers the marked types of modules.
func AddAutoServiceModules[R Registrar](r R, modules ...*Module) (R, error) {
	return r, NewScanner().Scan(r, modules...)
}
