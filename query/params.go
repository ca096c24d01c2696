package query

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Op is a comparison applied by a Condition.
type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpLte Op = "lte"
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"

	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 200

	// DefaultSortField is the sort applied when the request names none.
	DefaultSortField = "updatedAt"
)

// FilterKind declares which comparisons a filterable field accepts.
type FilterKind int

const (
	// FilterEquality accepts `<param>=value`.
	FilterEquality FilterKind = iota
	// FilterRange accepts `<param>_gte=value` and `<param>_lte=value`.
	FilterRange
)

// FilterSpec maps a request parameter to a store column.
type FilterSpec struct {
	Column string
	Kind   FilterKind
	// Numeric parses values as float64 before comparison.
	Numeric bool
}

// Spec is the per-entity description of what a list request may ask for.
type Spec struct {
	// Searchable lists the columns matched by the free-text query.
	Searchable []string
	// Filters is keyed by request parameter name.
	Filters map[string]FilterSpec
	// Sortable is keyed by request parameter value, pointing at a column.
	Sortable map[string]string

	DefaultLimit int
	MaxLimit     int
}

// Condition is one field constraint combined by AND with the text match.
type Condition struct {
	Field  string
	Column string
	Op     Op
	Value  any
}

// Params are the effective parameters of a list request. Every field takes
// part in the cache key.
type Params struct {
	Page      int
	Limit     int
	Query     string
	Filters   []Condition
	SortBy    string
	SortOrder string
}

// Skip is the number of matching records before the requested page. It
// saturates at math.MaxInt instead of wrapping.
func (p Params) Skip() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// ParamError reports an invalid list parameter.
type ParamError struct {
	Param   string
	Message string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid query parameter %q: %s", e.Param, e.Message)
}

// Defaults returns the parameters of a request that specifies nothing.
func (s Spec) Defaults() Params {
	return Params{
		Page:      DefaultPage,
		Limit:     s.defaultLimit(),
		SortBy:    DefaultSortField,
		SortOrder: SortDesc,
	}
}

// ParseValues reads list parameters from a query string.
func ParseValues(values url.Values, spec Spec) (Params, error) {
	params := spec.Defaults()

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := positiveInt(raw)
		if err != nil {
			return Params{}, &ParamError{Param: "page", Message: err.Error()}
		}
		params.Page = page
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := positiveInt(raw)
		if err != nil {
			return Params{}, &ParamError{Param: "limit", Message: err.Error()}
		}
		if limit > spec.maxLimit() {
			return Params{}, &ParamError{Param: "limit", Message: fmt.Sprintf("must not exceed %d", spec.maxLimit())}
		}
		params.Limit = limit
	}

	if params.Page-1 > math.MaxInt/params.Limit {
		return Params{}, &ParamError{Param: "page", Message: "is out of range"}
	}

	params.Query = strings.TrimSpace(values.Get("q"))

	if raw := strings.TrimSpace(values.Get("sortBy")); raw != "" {
		if _, ok := spec.sortColumn(raw); !ok {
			return Params{}, &ParamError{Param: "sortBy", Message: "field is not sortable"}
		}
		params.SortBy = raw
	}

	if raw := strings.ToLower(strings.TrimSpace(values.Get("sortOrder"))); raw != "" {
		if raw != SortAsc && raw != SortDesc {
			return Params{}, &ParamError{Param: "sortOrder", Message: "must be asc or desc"}
		}
		params.SortOrder = raw
	}

	filters, err := parseFilters(values, spec)
	if err != nil {
		return Params{}, err
	}
	params.Filters = filters

	return params, nil
}

func parseFilters(values url.Values, spec Spec) ([]Condition, error) {
	var conds []Condition

	for name, fs := range spec.Filters {
		switch fs.Kind {
		case FilterEquality:
			raw := strings.TrimSpace(values.Get(name))
			if raw == "" {
				continue
			}
			cond, err := newCondition(name, name, fs, OpEq, raw)
			if err != nil {
				return nil, err
			}
			conds = append(conds, cond)

		case FilterRange:
			for _, op := range []Op{OpGte, OpLte} {
				param := name + "_" + string(op)
				raw := strings.TrimSpace(values.Get(param))
				if raw == "" {
					continue
				}
				cond, err := newCondition(name, param, fs, op, raw)
				if err != nil {
					return nil, err
				}
				conds = append(conds, cond)
			}
		}
	}

	SortConditions(conds)
	return conds, nil
}

func newCondition(field, param string, fs FilterSpec, op Op, raw string) (Condition, error) {
	cond := Condition{Field: field, Column: fs.Column, Op: op, Value: raw}
	if fs.Numeric {
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Condition{}, &ParamError{Param: param, Message: "must be a number"}
		}
		cond.Value = n
	}
	return cond, nil
}

// SortConditions orders conditions by field then op so equal filter sets
// serialize identically.
func SortConditions(conds []Condition) {
	sort.Slice(conds, func(i, j int) bool {
		if conds[i].Field != conds[j].Field {
			return conds[i].Field < conds[j].Field
		}
		return conds[i].Op < conds[j].Op
	})
}

func positiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if n < 1 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return n, nil
}

func (s Spec) defaultLimit() int {
	if s.DefaultLimit > 0 {
		return s.DefaultLimit
	}
	return DefaultLimit
}

func (s Spec) maxLimit() int {
	if s.MaxLimit > 0 {
		return s.MaxLimit
	}
	return MaxLimit
}

func (s Spec) sortColumn(field string) (string, bool) {
	switch field {
	case "updatedAt":
		return "updated_at", true
	case "createdAt":
		return "created_at", true
	}
	col, ok := s.Sortable[field]
	return col, ok
}
