package tenant

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
)

// ID identifies a tenant. Only strictly positive values are valid.
type ID int64

// String returns the decimal form used for the database session variable.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Valid reports whether id is strictly positive.
func (id ID) Valid() bool {
	return id > 0
}

// ParseID applies the tenant identifier validation rule to an arbitrary value.
// It accepts any integer kind (named integer types included) and integral
// json.Number values that are strictly greater than zero.
// Strings are rejected, not coerced: "123" is a caller bug, not a tenant.
func ParseID(v any) (ID, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case ID:
		return n, n.Valid()
	case int:
		return positive(int64(n))
	case int64:
		return positive(n)
	case int32:
		return positive(int64(n))
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return positive(i)
	case string, bool, float32, float64:
		return 0, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return positive(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return positive(int64(u))
	default:
		return 0, false
	}
}

func positive(i int64) (ID, bool) {
	if i <= 0 {
		return 0, false
	}
	return ID(i), true
}
