package ygggo_mysqlx

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var tabRun = regexp.MustCompile("\t+")

// Preview renders the statement with every bound value inlined: numbers
// verbatim, everything else single-quoted and backslash-escaped. The output
// is meant for logs and for the out-of-sync fallback, never for building
// queries from untrusted input.
func (s *Stmt) Preview() (string, error) {
	if s.hasPreview {
		return s.preview, nil
	}
	text := tabRun.ReplaceAllLiteralString(s.positional, "\t")
	markers := strings.Count(text, "?")
	if markers != len(s.values) {
		return "", newBindMismatch(s,
			"Number of variables doesn't match number of parameters in prepared statement (%d values, %d placeholders)",
			len(s.values), markers)
	}

	var b strings.Builder
	b.Grow(len(text) + 8*len(s.values))
	n := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '?' {
			b.WriteByte(text[i])
			continue
		}
		b.WriteString(renderValue(s.values[n], s.types[n]))
		n++
	}
	s.preview, s.hasPreview = b.String(), true
	return s.preview, nil
}

// String returns the preview, or the positional query if it cannot be rendered.
func (s *Stmt) String() string {
	p, err := s.Preview()
	if err != nil {
		return s.positional
	}
	return p
}

func renderValue(v any, t ParamType) string {
	v = resolveValue(v)
	if v == nil {
		return "NULL"
	}
	rv := reflect.ValueOf(v)
	switch t {
	case TypeInt:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return strconv.FormatInt(rv.Int(), 10)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return strconv.FormatUint(rv.Uint(), 10)
		}
	case TypeDouble:
		switch rv.Kind() {
		case reflect.Float32:
			return strconv.FormatFloat(rv.Float(), 'f', -1, 32)
		case reflect.Float64:
			return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
		}
	}
	switch x := v.(type) {
	case string:
		return quote(x)
	case []byte:
		return quote(string(x))
	case bool:
		if x {
			return "'1'"
		}
		return "'0'"
	case time.Time:
		return quote(x.Format("2006-01-02 15:04:05.999999"))
	default:
		return quote(fmt.Sprint(x))
	}
}

// quote wraps s in single quotes, escaping backslash, quotes and NUL.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '\'', '"':
			b.WriteByte('\\')
			b.WriteByte(c)
		case 0:
			b.WriteString(`\0`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
