package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// defaultKeySerializer renders arguments with reflection. Maps are emitted in
// sorted key order and structs by exported field, so two equal argument lists
// always produce the same key.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey builds a cache key from method name and args.
func (s *defaultKeySerializer) SerializeKey(method string, args ...any) string {
	if len(args) == 0 {
		return method
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, method)
	for _, arg := range args {
		parts = append(parts, serializeValue(arg))
	}

	return strings.Join(parts, KeySeparator)
}

// hashedKeySerializer keeps the method segment readable, so prefix
// invalidation still works, and replaces the argument segments with an
// xxhash digest of their canonical form.
type hashedKeySerializer struct {
	inner defaultKeySerializer
}

// NewHashedKeySerializer returns a serializer producing bounded-length keys.
func NewHashedKeySerializer() KeySerializer {
	return &hashedKeySerializer{}
}

func (s *hashedKeySerializer) SerializeKey(method string, args ...any) string {
	if len(args) == 0 {
		return method
	}

	canonical := s.inner.SerializeKey("", args...)
	return method + KeySeparator + strconv.FormatUint(xxhash.Sum64String(canonical), 16)
}

func serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	switch tv := v.(type) {
	case string:
		// quoted so separators inside user input cannot collide with segments
		return strconv.Quote(tv)
	case time.Time:
		return "time:" + tv.UTC().Format(time.RFC3339Nano)
	case time.Duration:
		return "dur:" + tv.String()
	case fmt.Stringer:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return "nil"
		}
		if rv.Kind() != reflect.Struct && rv.Kind() != reflect.Ptr {
			return tv.String()
		}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func:
		return fmt.Sprintf("func:%p", v)
	case reflect.Chan:
		return fmt.Sprintf("chan:%p", v)
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return serializeValue(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return serializeSequence("slice", rv)
	case reflect.Array:
		return serializeSequence("array", rv)
	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return serializeMap(rv)
	case reflect.Struct:
		return serializeStruct(rv)
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return fmt.Sprintf("%v", v)
	}

	return jsonFallback(v)
}

func serializeSequence(kind string, rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = serializeValue(rv.Index(i).Interface())
	}
	return fmt.Sprintf("%s[%d]:{%s}", kind, len(parts), strings.Join(parts, ","))
}

func serializeMap(rv reflect.Value) string {
	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, serializeValue(iter.Key().Interface())+"="+serializeValue(iter.Value().Interface()))
	}
	sort.Strings(pairs)
	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

func serializeStruct(rv reflect.Value) string {
	rt := rv.Type()
	parts := make([]string, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		parts = append(parts, field.Name+":"+serializeValue(rv.Field(i).Interface()))
	}
	return fmt.Sprintf("struct:{%s}", strings.Join(parts, ","))
}

func jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "fallback:" + reflect.TypeOf(v).String()
	}
	return "json:" + string(data)
}
