package tenant

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
)

// Bag is the canonical mapping representation: string keys, canonical values.
// Every structured input is converted to a Bag once, at the boundary, so the
// resolvers never need to try alternate key representations.
type Bag map[string]any

// Lookup returns the value stored under key and whether it is present and non-nil.
func (b Bag) Lookup(key string) (any, bool) {
	v, ok := b[key]
	return v, ok && v != nil
}

// GetID implements HasID.
func (b Bag) GetID() any {
	return b["id"]
}

// TenantColumn implements HasTenantColumn.
func (b Bag) TenantColumn(column string) (any, bool) {
	return b.Lookup(column)
}

// TenantObject implements HasTenantObject.
func (b Bag) TenantObject(key string) (any, bool) {
	return b.Lookup(key)
}

// Association implements HasAssociation.
func (b Bag) Association(name string) ([]any, bool) {
	v, ok := b.Lookup(name)
	if !ok {
		return nil, false
	}
	items, ok := v.([]any)
	return items, ok
}

// Nested returns the mapping stored under key, if any.
func (b Bag) Nested(key string) (Bag, bool) {
	v, ok := b.Lookup(key)
	if !ok {
		return nil, false
	}
	nested, ok := v.(Bag)
	return nested, ok
}

// Canonical converts v into the canonical input shape.
// Mappings with string-like keys (string kinds, fmt.Stringer or
// encoding.TextMarshaler) become Bag, slices become []any, recursively.
// Text (string, []byte, json.RawMessage) and objects are returned unchanged.
// Keys that cannot be represented as strings are dropped.
func Canonical(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case Bag:
		return canonicalStringMap(x)
	case map[string]any:
		return canonicalStringMap(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Canonical(item)
		}
		return out
	case string, []byte, json.RawMessage, json.Number:
		return v
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		out := make(Bag, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, ok := mapKey(iter.Key())
			if !ok {
				continue
			}
			out[key] = Canonical(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			out[i] = Canonical(rv.Index(i).Interface())
		}
		return out
	default:
		return v
	}
}

func canonicalStringMap(m map[string]any) Bag {
	out := make(Bag, len(m))
	for k, item := range m {
		out[k] = Canonical(item)
	}
	return out
}

func mapKey(k reflect.Value) (string, bool) {
	if k.Kind() == reflect.Interface {
		if k.IsNil() {
			return "", false
		}
		k = k.Elem()
	}
	if k.Kind() == reflect.String {
		return k.String(), true
	}
	switch key := k.Interface().(type) {
	case encoding.TextMarshaler:
		text, err := key.MarshalText()
		if err != nil {
			return "", false
		}
		return string(text), true
	case fmt.Stringer:
		return key.String(), true
	default:
		return "", false
	}
}

// decodeJSON parses JSON text into canonical form. Numbers are kept as
// json.Number so integer identifiers survive without float conversion.
func decodeJSON(text []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return Canonical(out), nil
}
