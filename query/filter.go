package query

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// likeEscape is the escape character declared on every LIKE clause. It is not
// a backslash so the clause reads the same under every dialect's string rules.
const likeEscape = '!'

var likeReplacer = strings.NewReplacer(
	string(likeEscape), string(likeEscape)+string(likeEscape),
	"%", string(likeEscape)+"%",
	"_", string(likeEscape)+"_",
)

// EscapeLike neutralizes LIKE wildcards in s so it matches literally.
func EscapeLike(s string) string {
	return likeReplacer.Replace(s)
}

// TextMatch is a case-insensitive substring match OR-ed across columns.
type TextMatch struct {
	Columns []string
	// Pattern is lower-cased, escaped and wrapped in wildcards.
	Pattern string
}

// Predicate is the store-level filter of a list request: an optional text
// match AND every condition.
type Predicate struct {
	Text       *TextMatch
	Conditions []Condition
}

// Build turns free text plus field conditions into a Predicate. Blank text
// adds no text clause.
func Build(text string, searchable []string, conds []Condition) Predicate {
	var pred Predicate

	text = strings.TrimSpace(text)
	if text != "" && len(searchable) > 0 {
		pred.Text = &TextMatch{
			Columns: append([]string(nil), searchable...),
			Pattern: "%" + EscapeLike(strings.ToLower(text)) + "%",
		}
	}

	if len(conds) > 0 {
		pred.Conditions = append([]Condition(nil), conds...)
	}
	return pred
}

// MatchesAll reports whether the predicate places no constraint.
func (p Predicate) MatchesAll() bool {
	return p.Text == nil && len(p.Conditions) == 0
}

// Apply adds the predicate to q.
func (p Predicate) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	if p.Text != nil {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, col := range p.Text.Columns {
				q = q.WhereOr("LOWER(?) LIKE ? ESCAPE '!'", bun.Ident(col), p.Text.Pattern)
			}
			return q
		})
	}

	for _, c := range p.Conditions {
		switch c.Op {
		case OpGte:
			q = q.Where("? >= ?", bun.Ident(c.Column), c.Value)
		case OpLte:
			q = q.Where("? <= ?", bun.Ident(c.Column), c.Value)
		default:
			q = q.Where("? = ?", bun.Ident(c.Column), c.Value)
		}
	}
	return q
}

// Criteria adapts the predicate to the repository select API.
func (p Predicate) Criteria() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return p.Apply(q)
	}
}

// Order returns the sort criteria for params. Ties fall back to the creation
// time and then the id so pages never overlap.
func (s Spec) Order(p Params) repository.SelectCriteria {
	col, ok := s.sortColumn(p.SortBy)
	if !ok {
		col = "updated_at"
	}
	dir := "DESC"
	if p.SortOrder == SortAsc {
		dir = "ASC"
	}

	return func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.OrderExpr("? "+dir, bun.Ident(col))
		if col != "created_at" {
			q = q.OrderExpr("? DESC", bun.Ident("created_at"))
		}
		return q.OrderExpr("? "+dir, bun.Ident("id"))
	}
}

// Window returns the limit/offset criteria for params.
func Window(p Params) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Limit(p.Limit).Offset(p.Skip())
	}
}

// Criteria returns every select criteria a list request needs.
func (s Spec) Criteria(p Params) (Predicate, []repository.SelectCriteria) {
	pred := Build(p.Query, s.Searchable, p.Filters)
	return pred, []repository.SelectCriteria{pred.Criteria(), s.Order(p), Window(p)}
}
