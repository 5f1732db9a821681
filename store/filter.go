package store

import "strings"

// Op is a filter comparison operator.
type Op int

const (
	OpEq Op = iota
	OpGte
	OpLte
)

// Cond is a single field condition. Field may be a dot path into nested
// documents ("occurredAt.seconds").
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Filter is a conjunction of conditions. A nil or empty Filter matches
// every document.
type Filter []Cond

func Eq(field string, value any) Cond  { return Cond{Field: field, Op: OpEq, Value: value} }
func Gte(field string, value any) Cond { return Cond{Field: field, Op: OpGte, Value: value} }
func Lte(field string, value any) Cond { return Cond{Field: field, Op: OpLte, Value: value} }

// Where builds a Filter from conditions.
func Where(conds ...Cond) Filter { return Filter(conds) }

// ByID filters on the document identifier.
func ByID(id string) Filter { return Filter{Eq(IDField, id)} }

// Lookup resolves a dot path inside a document. Returns the value and
// whether every path segment was present.
func Lookup(doc Document, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = doc
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
