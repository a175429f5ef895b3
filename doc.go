// Package autoservice is the root of a convention-based service registration
// toolkit for Go.
//
// Services opt in by carrying a marker; a scanner then registers every marked
// type into a container with its lifetime, bound to the interface named after
// it ("I" + TypeName) or to the one the marker names:
//
//   - di: the container (Collection, Provider, Scope) with Singleton, Scoped
//     and Transient lifetimes
//   - autoservice: the Service marker, Module and Catalog tables, and the
//     scanner behind AddAutoService
//   - cmd/autoservicegen: writes each package's Module table and checks its
//     bindings at generate time
//   - examples/widgets, examples/app: marked services and the composition
//     root that scans them
//
// The packages to generate for are listed in autoservice.yaml at the repo root.
package autoservice
