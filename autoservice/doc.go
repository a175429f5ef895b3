// Package autoservice registers marked structs into a service container.
//
// A struct opts in with a Service marker field; the marker carries the
// lifetime and, optionally, the interface to bind:
//
//	type Widget struct {
//		autoservice.Service // Scoped, bound to IWidget by convention
//	}
//
//	type Cache struct {
//		autoservice.Service `autoservice:"lifetime=singleton,interface=ICacheStore"`
//	}
//
// Go cannot enumerate the types of a package at runtime, so candidates are
// listed in a Module. cmd/autoservicegen writes that table for each package
// and checks the bindings at generate time; hand-written modules work too and
// may carry markers of their own through Module.Mark.
//
// The composition root then picks what to scan:
//
//	c := di.NewCollection()
//	if _, err := autoservice.AddAutoService(c); err != nil { // every registered module
//		log.Fatal(err)
//	}
//
// AddAutoServiceNamed, AddAutoServiceFor and AddAutoServiceModules narrow the
// scan to named modules, to the modules of sample types, or to explicit
// modules. A scan either registers every marked type or nothing: the first
// misconfigured type (no interface named "I"+TypeName, two markers, an
// unknown interface name, an interface bound twice) aborts it with a typed
// error.
package autoservice
