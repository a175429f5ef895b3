package autoservice

import "go.uber.org/zap"

// Convention maps an implementation type name to the interface name it is
// bound to when its marker names none.
type Convention func(typeName string) string

// PrefixConvention returns a Convention that prepends prefix to the type name.
func PrefixConvention(prefix string) Convention {
	return func(typeName string) string { return prefix + typeName }
}

// DefaultConvention binds Widget to IWidget.
var DefaultConvention = PrefixConvention("I")

// Option configures a Scanner.
type Option func(*Scanner)

// WithCatalog scans c instead of the default catalog.
func WithCatalog(c *Catalog) Option {
	return func(s *Scanner) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithLogger logs every registration at Debug level.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConvention replaces the "I" + type name convention.
func WithConvention(c Convention) Option {
	return func(s *Scanner) {
		if c != nil {
			s.convention = c
		}
	}
}

// WithOverride lets a later marked type re-bind an interface already bound in
// the same scan; the registrar's own override rule then decides the winner.
// Without it such scans fail with DuplicateBindingError.
func WithOverride() Option {
	return func(s *Scanner) { s.override = true }
}
