package di

import "strings"

// Lifetime controls how instances of a registered service are shared.
type Lifetime int

const (
	// Scoped services are created once per Scope. Resolving a scoped service
	// from the root Provider fails with ScopeRequiredError. It is the zero value.
	Scoped Lifetime = iota

	// Singleton services are created once per Provider and shared by every scope.
	Singleton

	// Transient services are created on every resolution.
	Transient
)

var lifetimeNames = [...]string{
	Scoped:    "Scoped",
	Singleton: "Singleton",
	Transient: "Transient",
}

// Valid reports whether l is one of the three known lifetimes.
func (l Lifetime) Valid() bool {
	return l >= Scoped && l <= Transient
}

// String returns the canonical name of the lifetime.
func (l Lifetime) String() string {
	if !l.Valid() {
		return "Unknown"
	}
	return lifetimeNames[l]
}

// ParseLifetime maps a lifetime name to its Lifetime.
//
// Matching is case-insensitive ("singleton", "Scoped", "TRANSIENT").
// Any other value returns InvalidLifetimeNameError.
func ParseLifetime(name string) (Lifetime, error) {
	trimmed := strings.TrimSpace(name)
	for i, n := range lifetimeNames {
		if strings.EqualFold(trimmed, n) {
			return Lifetime(i), nil
		}
	}
	return 0, InvalidLifetimeNameError{Name: name}
}

// MarshalText implements encoding.TextMarshaler.
func (l Lifetime) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, InvalidLifetimeError{Lifetime: l}
	}
	return []byte(strings.ToLower(l.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using ParseLifetime.
func (l *Lifetime) UnmarshalText(text []byte) error {
	parsed, err := ParseLifetime(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
