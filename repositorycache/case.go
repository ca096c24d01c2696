package repositorycache

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// namespaceFor derives the default key namespace from T: the plural
// snake_case type name, which is also the table name the entities use.
// *entity.Product and entity.Product both yield "products".
func namespaceFor[T any]() string {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}

	name := rt.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		name = "records"
	}
	return tableName(name)
}

// tableName turns a Go identifier into a plural snake_case name. Acronym
// runs stay together: "HTTPRoute" becomes "http_routes".
func tableName(ident string) string {
	words := splitWords(ident)
	if len(words) == 0 {
		return ""
	}
	last := len(words) - 1
	words[last] = inflection.Plural(words[last])
	return strings.Join(words, "_")
}

// splitWords breaks ident at case changes and drops every rune that is not
// a letter or digit, so the result is safe inside a cache key prefix.
func splitWords(ident string) []string {
	runes := []rune(ident)
	var words []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prevLower := unicode.IsLower(cur[len(cur)-1]) || unicode.IsDigit(cur[len(cur)-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}
