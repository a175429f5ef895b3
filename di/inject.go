package di

import (
	"errors"
	"reflect"
	"strings"
	"sync"
)

// injectTag is the struct tag read when instantiating an implementation type.
//
//	type Greeter struct {
//	    Clock  IClock  `inject:""`
//	    Audit  IAudit  `inject:"optional"`
//	    Cached ICache  `inject:"-"`
//	}
const injectTag = "inject"

type injectField struct {
	index    int
	name     string
	typ      reflect.Type
	optional bool
}

// fieldCache maps a struct type to its []injectField.
var fieldCache sync.Map

// injectableFields returns the inject-tagged fields of struct type t.
// The result is cached per type.
func injectableFields(t reflect.Type) ([]injectField, error) {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]injectField), nil
	}

	var out []injectField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup(injectTag)
		if !ok || tag == "-" {
			continue
		}
		if !f.IsExported() {
			return nil, InvalidDescriptorError{Service: t, Reason: "field " + f.Name + " has an inject tag but is not exported"}
		}
		opt := false
		for _, part := range strings.Split(tag, ",") {
			switch strings.TrimSpace(part) {
			case "":
			case "optional":
				opt = true
			default:
				return nil, InvalidDescriptorError{Service: t, Reason: "field " + f.Name + " has unknown inject option " + strings.TrimSpace(part)}
			}
		}
		out = append(out, injectField{index: i, name: f.Name, typ: f.Type, optional: opt})
	}

	fieldCache.Store(t, out)
	return out, nil
}

// injectFields resolves every inject-tagged field of the struct behind ptr.
func injectFields(ptr reflect.Value, r Resolver) error {
	elem := ptr.Elem()
	fields, err := injectableFields(elem.Type())
	if err != nil {
		return err
	}
	for _, f := range fields {
		v, err := r.Resolve(f.typ)
		if err != nil {
			var nf ServiceNotFoundError
			if f.optional && errors.As(err, &nf) && nf.Type == f.typ {
				continue
			}
			return err
		}
		elem.Field(f.index).Set(reflect.ValueOf(v))
	}
	return nil
}
