package venom

import (
	"reflect"
	"sort"
	"strings"
	"sync"
)

const fieldTag = "step"

// Fields maps configuration names, as declared in `step` struct tags, to override values.
type Fields map[string]interface{}

type fieldSchema map[string][]int

var schemaCache sync.Map // reflect.Type -> fieldSchema

func schemaOf(t reflect.Type) fieldSchema {
	if s, ok := schemaCache.Load(t); ok {
		return s.(fieldSchema)
	}

	s := fieldSchema{}
	collectFields(t, nil, s)
	actual, _ := schemaCache.LoadOrStore(t, s)
	return actual.(fieldSchema)
}

func collectFields(t reflect.Type, prefix []int, s fieldSchema) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collectFields(f.Type, index, s)
			continue
		}
		if !f.IsExported() {
			continue
		}

		name := strings.Split(f.Tag.Get(fieldTag), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		// outer declarations shadow embedded ones, like Go field promotion
		if prev, ok := s[name]; ok && len(prev) <= len(index) {
			continue
		}
		s[name] = index
	}
}

func (s fieldSchema) names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyFields writes overrides into the struct behind target.
func applyFields(target interface{}, fields Fields) error {
	if len(fields) == 0 {
		return nil
	}

	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return newArgumentError("", "step %T must be a pointer to a struct", target)
	}
	v = v.Elem()
	schema := schemaOf(v.Type())

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		index, ok := schema[name]
		if !ok {
			return newArgumentError(name, "attribute not allowed on %s", v.Type().Name())
		}

		field := v.FieldByIndex(index)
		if err := assign(field, name, fields[name]); err != nil {
			return err
		}
	}

	return nil
}

func assign(field reflect.Value, name string, value interface{}) error {
	if value == nil {
		switch field.Kind() {
		case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface, reflect.Func:
			field.Set(reflect.Zero(field.Type()))
			return nil
		default:
			return newArgumentError(name, "nil is not a valid %s", field.Type())
		}
	}

	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(field.Type()):
		field.Set(rv)
	case rv.Kind() == field.Kind() && rv.Type().ConvertibleTo(field.Type()):
		field.Set(rv.Convert(field.Type()))
	default:
		return newArgumentError(name, "cannot use %T as %s", value, field.Type())
	}

	return nil
}
