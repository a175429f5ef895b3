package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/sghaida/autoservice/autoservice"
	"github.com/sghaida/autoservice/di"
)

// markerImportPath is the package that declares the Service marker.
const markerImportPath = "github.com/sghaida/autoservice/autoservice"

// markedType is one struct carrying a Service marker field.
type markedType struct {
	Type      string
	Interface string
	Lifetime  di.Lifetime
	Explicit  bool
	Pos       token.Position
}

// pkgInfo is what the generator learns from one package directory.
type pkgInfo struct {
	Dir        string
	Name       string
	ImportPath string
	Hash       string
	Prefix     string

	Services   []markedType
	Interfaces []string

	declared map[string]bool
}

// parsePackage reads the non-test, non-generated Go files of dir and collects
// marked structs and declared interfaces. skip is the generator's own output
// file name, which is never fed back into parsing.
func parsePackage(dir, skip string) (*pkgInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	info := &pkgInfo{Dir: dir, declared: map[string]bool{}}
	fset := token.NewFileSet()
	hash := sha256.New()

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") || name == skip {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		full := filepath.Join(dir, name)
		src, err := os.ReadFile(full)
		if err != nil {
			return nil, err
		}

		f, err := parser.ParseFile(fset, full, src, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return nil, err
		}
		if ast.IsGenerated(f) {
			continue
		}

		if info.Name == "" {
			info.Name = f.Name.Name
		} else if info.Name != f.Name.Name {
			return nil, &cmdError{msg: "multiple packages in " + filepath.ToSlash(dir) + ": " + info.Name + " and " + f.Name.Name}
		}

		hash.Write([]byte(name + "\n"))
		hash.Write(src)

		if err := collectFile(fset, f, info); err != nil {
			return nil, err
		}
	}

	if info.Name == "" {
		return nil, &cmdError{msg: "no Go files in " + filepath.ToSlash(dir)}
	}
	info.Hash = hex.EncodeToString(hash.Sum(nil))
	return info, nil
}

// markerSelector reports how the marker type is spelled in f: the import
// alias ("autoservice" by default), "." for a dot import, or "" when f does
// not import the marker package.
func markerSelector(f *ast.File) string {
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != markerImportPath {
			continue
		}
		if imp.Name == nil {
			return "autoservice"
		}
		if imp.Name.Name == "_" {
			return ""
		}
		return imp.Name.Name
	}
	return ""
}

func isMarkerField(expr ast.Expr, selector string) bool {
	switch x := expr.(type) {
	case *ast.SelectorExpr:
		id, ok := x.X.(*ast.Ident)
		return ok && selector != "." && id.Name == selector && x.Sel.Name == "Service"
	case *ast.Ident:
		return selector == "." && x.Name == "Service"
	}
	return false
}

func collectFile(fset *token.FileSet, f *ast.File, info *pkgInfo) error {
	selector := markerSelector(f)

	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			if ts.Assign.IsValid() {
				continue
			}

			switch t := ts.Type.(type) {
			case *ast.InterfaceType:
				info.declared[ts.Name.Name] = true
			case *ast.StructType:
				if selector == "" {
					continue
				}
				svc, ok, err := structMarker(fset, ts, t, selector)
				if err != nil {
					return err
				}
				if ok {
					info.Services = append(info.Services, svc)
				}
			}
		}
	}
	return nil
}

// structMarker reads the marker of one struct declaration.
func structMarker(fset *token.FileSet, ts *ast.TypeSpec, st *ast.StructType, selector string) (markedType, bool, error) {
	var fields []*ast.Field
	for _, field := range st.Fields.List {
		if isMarkerField(field.Type, selector) {
			fields = append(fields, field)
		}
	}
	if len(fields) == 0 {
		return markedType{}, false, nil
	}

	pos := fset.Position(ts.Pos())
	if len(fields) > 1 {
		return markedType{}, false, &cmdError{msg: pos.String() + ": " + ts.Name.Name + " carries " + strconv.Itoa(len(fields)) + " service markers, want at most one"}
	}
	if ts.TypeParams != nil {
		return markedType{}, false, &cmdError{msg: pos.String() + ": generic type " + ts.Name.Name + " cannot be marked"}
	}

	tag := ""
	if lit := fields[0].Tag; lit != nil {
		raw, err := strconv.Unquote(lit.Value)
		if err != nil {
			return markedType{}, false, fmt.Errorf("%s: %w", pos, err)
		}
		tag = reflect.StructTag(raw).Get(autoservice.TagKey)
	}

	marker, err := autoservice.ParseTag(tag)
	if err != nil {
		return markedType{}, false, fmt.Errorf("%s: %w", pos, err)
	}

	return markedType{
		Type:      ts.Name.Name,
		Interface: marker.InterfaceName(),
		Lifetime:  marker.Lifetime(),
		Explicit:  marker.HasInterface(),
		Pos:       pos,
	}, true, nil
}

// bind resolves the interface of every marked type, failing when it is not
// declared in the package.
func (p *pkgInfo) bind(convention autoservice.Convention) error {
	used := map[string]bool{}
	for i := range p.Services {
		svc := &p.Services[i]
		if !svc.Explicit {
			svc.Interface = convention(svc.Type)
		}

		switch {
		case strings.Contains(svc.Interface, "."):
			return &cmdError{msg: svc.Pos.String() + ": interface " + strconv.Quote(svc.Interface) + " bound by " + svc.Type + " must be declared in the same package"}
		case !p.declared[svc.Interface] && svc.Explicit:
			return &cmdError{msg: svc.Pos.String() + ": interface " + strconv.Quote(svc.Interface) + " bound by " + svc.Type + " is not declared in package " + p.Name}
		case !p.declared[svc.Interface]:
			return &cmdError{msg: svc.Pos.String() + ": there is no matching interface named " + strconv.Quote(svc.Interface) + ", please check " + strconv.Quote(svc.Type)}
		}
		used[svc.Interface] = true
	}

	sort.Slice(p.Services, func(i, j int) bool { return p.Services[i].Type < p.Services[j].Type })

	p.Interfaces = p.Interfaces[:0]
	for name := range used {
		p.Interfaces = append(p.Interfaces, name)
	}
	sort.Strings(p.Interfaces)
	return nil
}
