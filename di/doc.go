// Package di is a small reflection-based service container with three lifetimes.
//
// Registrations are collected in a Collection, then frozen into a Provider:
//
//	c := di.NewCollection()
//	_ = c.AddScoped(di.TypeOf[IWidget](), di.TypeOf[Widget]())
//	_ = c.AddSingleton(di.TypeOf[IClock](), di.TypeOf[SystemClock]())
//
//	p, err := c.Build(di.WithValidateOnBuild())
//	if err != nil {
//		return err
//	}
//	defer p.Close(ctx)
//
//	scope := p.CreateScope()
//	defer scope.Close()
//	w := di.MustResolve[IWidget](scope)
//
// Lifetimes:
//   - Singleton: one instance per Provider, shared by all scopes.
//   - Scoped: one instance per Scope; resolving from the root fails.
//   - Transient: a new instance per resolution.
//
// Implementation types are structs instantiated with reflect.New; exported
// fields tagged `inject:""` (or `inject:"optional"`) are resolved from the
// same scope. Constructors with arbitrary logic go through AddFactory.
//
// Registering the same service type twice keeps both descriptors and the last
// one wins, so callers that need stricter rules (like the autoservice scanner)
// enforce them before registering.
package di
