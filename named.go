package ygggo_mysqlx

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/reflectx"
)

// ParamType is the single-character type tag recorded for a bound value.
type ParamType string

const (
	TypeInt    ParamType = "i"
	TypeDouble ParamType = "d"
	TypeString ParamType = "s"
)

// namedToken matches :name placeholders. Quotes and comments are not
// recognised, so a :token inside a string literal is translated as well.
var namedToken = regexp.MustCompile(`:([a-zA-Z0-9_]+)`)

var fieldMapper = reflectx.NewMapperFunc("db", strings.ToLower)

// translateNamed converts SQL with :name placeholders to positional ? and
// returns the names in occurrence order. Queries without named tokens are
// returned unchanged with a nil name list.
func translateNamed(query string) (positional string, names []string) {
	matches := namedToken.FindAllStringSubmatch(query, -1)
	if len(matches) == 0 {
		return query, nil
	}
	names = make([]string, len(matches))
	for i, m := range matches {
		names[i] = m[1]
	}
	return namedToken.ReplaceAllLiteralString(query, "?"), names
}

// Placeholders returns one positional marker per item, comma separated, for
// building IN (...) clauses: Placeholders([]int{4, 8, 15}) == "?,?,?".
func Placeholders[T any](items []T) string {
	if len(items) == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(items)), ",")
}

// InferType returns the bind type tag for v: floats are "d", integers are
// "i" and everything else, nil and booleans included, is "s".
// Defined types are inferred from their underlying kind.
func InferType(v any) ParamType {
	v = resolveValue(v)
	if v == nil {
		return TypeString
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Float32, reflect.Float64:
		return TypeDouble
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return TypeInt
	default:
		return TypeString
	}
}

// resolveValue unwraps driver.Valuer implementations and pointers so that
// type inference and preview rendering see the value the driver will send.
func resolveValue(v any) any {
	for i := 0; i < 8; i++ {
		switch x := v.(type) {
		case nil:
			return nil
		case driver.Valuer:
			rv := reflect.ValueOf(x)
			if rv.Kind() == reflect.Pointer && rv.IsNil() {
				return nil
			}
			dv, err := x.Value()
			if err != nil {
				return v
			}
			v = dv
			continue
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer {
			return v
		}
		if rv.IsNil() {
			return nil
		}
		v = rv.Elem().Interface()
	}
	return v
}

// valueSet is the normalized form of the arguments handed to Bind.
type valueSet struct {
	positional []any
	named      map[string]any
	isNamed    bool
}

// collectValues decides between positional and named mode. Several arguments
// are always positional; a single slice is spread; a single string-keyed map
// or struct is named unless its keys are the sequential indexes 0..n-1.
func collectValues(args []any) (valueSet, error) {
	if len(args) != 1 {
		return valueSet{positional: args}, nil
	}
	switch v := args[0].(type) {
	case nil:
		return valueSet{positional: args}, nil
	case []any:
		return valueSet{positional: v}, nil
	case []byte, time.Time, driver.Valuer:
		return valueSet{positional: args}, nil
	case map[string]any:
		return fromNamed(v), nil
	}

	rv := reflect.ValueOf(args[0])
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return valueSet{positional: out}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return valueSet{}, fmt.Errorf("named values need string keys, got %T", args[0])
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return fromNamed(m), nil
	case reflect.Pointer:
		if rv.IsNil() || reflect.Indirect(rv).Kind() != reflect.Struct {
			return valueSet{positional: args}, nil
		}
		return fromStruct(rv), nil
	case reflect.Struct:
		return fromStruct(rv), nil
	}
	return valueSet{positional: args}, nil
}

func fromStruct(rv reflect.Value) valueSet {
	fields := fieldMapper.FieldMap(rv)
	m := make(map[string]any, len(fields))
	for name, f := range fields {
		if f.CanInterface() {
			m[name] = f.Interface()
		}
	}
	return valueSet{named: m, isNamed: true}
}

func fromNamed(m map[string]any) valueSet {
	if ordered, ok := sequentialValues(m); ok {
		return valueSet{positional: ordered}
	}
	return valueSet{named: m, isNamed: true}
}

// sequentialValues reports whether every key of m is a decimal index and the
// indexes are exactly 0..len(m)-1, returning the values in index order.
func sequentialValues(m map[string]any) ([]any, bool) {
	if len(m) == 0 {
		return nil, false
	}
	idx := make([]int, 0, len(m))
	for k := range m {
		n, err := strconv.Atoi(k)
		if err != nil || n < 0 || strconv.Itoa(n) != k {
			return nil, false
		}
		idx = append(idx, n)
	}
	sort.Ints(idx)
	out := make([]any, len(idx))
	for i, n := range idx {
		if n != i {
			return nil, false
		}
		out[i] = m[strconv.Itoa(n)]
	}
	return out, true
}

// bindValues aligns vs with the positional markers of a statement whose
// named placeholders are names. In named mode a name without a value is an
// error unless lenient is set, in which case it is skipped.
func bindValues(vs valueSet, names []string, lenient bool) (values []any, types []ParamType, missing string) {
	if !vs.isNamed {
		values = make([]any, len(vs.positional))
		types = make([]ParamType, len(vs.positional))
		for i, v := range vs.positional {
			values[i] = v
			types[i] = InferType(v)
		}
		return values, types, ""
	}
	values = make([]any, 0, len(names))
	types = make([]ParamType, 0, len(names))
	for _, n := range names {
		v, ok := vs.named[n]
		if !ok {
			if lenient {
				continue
			}
			return nil, nil, n
		}
		values = append(values, v)
		types = append(types, InferType(v))
	}
	return values, types, ""
}
