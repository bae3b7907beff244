package query

import (
	"github.com/katworks/vitrina/pkg/store"
	"github.com/katworks/vitrina/pkg/taxonomy"
)

// AppendConstraints renders every predicate and blacklist entry into b
// as " AND (...)" clauses against the archives row under evaluation.
// Predicates with unknown facets and malformed blacklist entries are
// skipped, never rejected. Blacklist exclusions apply independently of
// the text query.
func AppendConstraints(b *store.Builder, predicates []Predicate, blacklist []string) {
	for _, p := range predicates {
		expr, ok := BuildPredicate(p)
		if !ok {
			continue
		}

		b.Push(" AND (")
		renderExpr(b, expr)
		b.Push(")")
	}

	for _, raw := range blacklist {
		entry, ok := taxonomy.ParseBlacklistEntry(raw)
		if !ok {
			continue
		}

		b.Push(" AND NOT EXISTS (").
			Pushf("SELECT 1 FROM %s WHERE archive_id = archives.id AND %s = ",
				entry.Facet.Relation(), entry.Facet.IDColumn()).
			Bind(entry.ID).
			Push(")")
	}
}

func renderExpr(b *store.Builder, expr Expr) {
	switch e := expr.(type) {
	case Match:
		renderMatch(b, e)
	case And:
		renderChildren(b, e.Children, " AND ")
	case Or:
		renderChildren(b, e.Children, " OR ")
	}
}

func renderChildren(b *store.Builder, children []Expr, sep string) {
	for i, child := range children {
		if i > 0 {
			b.Push(sep)
		}
		b.Push("(")
		renderExpr(b, child)
		b.Push(")")
	}
}

// renderMatch emits the two existence arms of a leaf: the term matches
// when its name or its slug matches the pattern. Negation inverts both
// arms and the connective between them.
func renderMatch(b *store.Builder, m Match) {
	op, joiner := "EXISTS", " OR "
	if m.Negated {
		op, joiner = "NOT EXISTS", " AND "
	}

	b.Push(op + " (")
	renderArm(b, m, "name")
	b.Push(")" + joiner + op + " (")
	renderArm(b, m, "slug")
	b.Push(")")
}

func renderArm(b *store.Builder, m Match, column string) {
	table := m.Facet.Table()
	relation := m.Facet.Relation()

	b.Pushf("SELECT 1 FROM %s LEFT JOIN %s ON %s.id = %s.%s WHERE %s.archive_id = archives.id AND %s.%s ILIKE ",
		relation, table, table, relation, m.Facet.IDColumn(), relation, table, column).
		Bind(m.Pattern)

	if m.Namespace != "" {
		b.Push(" AND namespace ILIKE ").Bind(m.Namespace)
	}
}
