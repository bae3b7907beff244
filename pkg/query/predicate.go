package query

import (
	"strings"

	"github.com/katworks/vitrina/pkg/taxonomy"
)

// Expr is a node of the boolean predicate tree built from facet filters.
// The tree is store-agnostic; render.go turns it into Postgres SQL.
type Expr interface {
	isExpr()
}

// Match is a leaf: one existence check of a facet term whose name OR
// slug matches Pattern case-insensitively. Negated flips both arms to
// non-existence (the OR between the arms becomes AND).
type Match struct {
	Facet     taxonomy.Facet
	Namespace string // ILIKE pattern for tag facets, empty otherwise
	Pattern   string
	Negated   bool
}

// And evaluates every child.
type And struct {
	Children []Expr
}

// Or evaluates at least one child.
type Or struct {
	Children []Expr
}

func (Match) isExpr() {}
func (And) isExpr()   {}
func (Or) isExpr()    {}

// BuildPredicate turns one predicate into its existence-check tree.
// Within the value, | splits OR-groups and & splits AND-atoms inside a
// group. Negation distributes over the shape by De Morgan: every atom
// becomes a non-existence check, AND within a group becomes OR, and OR
// across groups becomes AND. Unknown facet names (including title and
// pages, which only shape the free-text side) return ok = false and are
// silently skipped by the renderer.
func BuildPredicate(p Predicate) (Expr, bool) {
	facet, namespace, ok := taxonomy.FromFilter(p.Facet)
	if !ok {
		return nil, false
	}

	var groups []Expr
	for _, group := range strings.Split(p.Value, "|") {
		var atoms []Expr
		for _, atom := range strings.Split(group, "&") {
			atoms = append(atoms, Match{
				Facet:     facet,
				Namespace: namespace,
				Pattern:   atom,
				Negated:   p.Negated,
			})
		}

		if p.Negated {
			groups = append(groups, combine(atoms, true))
		} else {
			groups = append(groups, combine(atoms, false))
		}
	}

	if p.Negated {
		return combine(groups, false), true
	}
	return combine(groups, true), true
}

// combine joins children with OR when or is true, AND otherwise,
// collapsing single-child nodes.
func combine(children []Expr, or bool) Expr {
	if len(children) == 1 {
		return children[0]
	}
	if or {
		return Or{Children: children}
	}
	return And{Children: children}
}
