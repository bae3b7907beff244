// Package query compiles the search mini-language into a free-text
// ranking expression and a facet predicate tree, and renders the tree
// into Postgres existence checks.
package query

import (
	"regexp"
	"strings"
)

// filterRe matches one facet filter: an optional leading minus, a facet
// name, and a bare or quoted value.
var filterRe = regexp.MustCompile(
	`(?i)-?(artist|circle|magazine|event|publisher|parody|tag|male|female|misc|other|title|pages):(".*?"|'.*?'|[^\s]+)`,
)

// Predicate is one extracted facet filter. Value is cleaned: quotes
// stripped, * translated to the store wildcard %, parentheses removed.
// It may still contain | (OR across groups) and & (AND within a group).
type Predicate struct {
	Facet   string
	Negated bool
	Value   string
}

// Compiled is the output of Compile: the ranking expression for the
// store's text engine plus the facet predicates. An empty TextExpression
// means the caller must omit the ranking clause entirely.
type Compiled struct {
	TextExpression string
	Predicates     []Predicate
}

// Compile translates a raw search string. Free text is taken from the
// sanitized string with every facet filter removed; predicates are
// extracted from the raw string so quoted values keep their internal
// & and | operators. Compile never fails: unknown facet names pass
// through as predicates the renderer ignores, and anything unparseable
// degrades to literal text.
func Compile(raw string) Compiled {
	value := Sanitize(raw)

	return Compiled{
		TextExpression: parseTextQuery(stripFilters(value)),
		Predicates:     ExtractPredicates(raw),
	}
}

// Sanitize strips the literal characters [ ] ( ) ~ & from the input and
// collapses whitespace runs to single spaces. This guards the text
// engine against hand-crafted operator injection.
func Sanitize(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '(', ')', '~', '&':
			return -1
		}
		return r
	}, raw)

	return strings.Join(strings.Fields(cleaned), " ")
}

// ExtractPredicates returns one predicate per facet-filter match.
func ExtractPredicates(raw string) []Predicate {
	matches := filterRe.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil
	}

	predicates := make([]Predicate, 0, len(matches))
	for _, m := range matches {
		value := strings.Trim(strings.Trim(m[2], `"`), `'`)
		value = strings.ReplaceAll(value, "*", "%")
		value = strings.NewReplacer("(", "", ")", "").Replace(value)

		predicates = append(predicates, Predicate{
			Facet:   strings.ToLower(m[1]),
			Negated: strings.HasPrefix(m[0], "-"),
			Value:   value,
		})
	}

	return predicates
}

// stripFilters removes every facet filter from the sanitized string,
// leaving the free-text remainder. Stray colons are dropped so the text
// engine never sees a dangling prefix operator.
func stripFilters(value string) string {
	remainder := filterRe.ReplaceAllString(value, "")
	remainder = strings.ReplaceAll(remainder, ":", "")

	return strings.Join(strings.Fields(remainder), " ")
}

// parseTextQuery turns the free-text remainder into a tsquery
// expression. Tokens are ANDed; a token becomes a prefix match unless
// it ends in $ (exact match); a leading minus negates. |-separated
// alternatives are grouped per segment, giving left-to-right precedence:
// A&B|C&D reads as (A&B)|(C&D). A single segment stays ungrouped.
func parseTextQuery(text string) string {
	if text == "" {
		return ""
	}

	var tokens []string
	for _, tok := range strings.Fields(strings.ReplaceAll(text, "&", " ")) {
		if i := strings.LastIndex(tok, ":"); i >= 0 {
			tok = tok[i+1:]
		}
		if tok == "" {
			continue
		}

		if strings.HasSuffix(tok, "$") {
			tok = strings.TrimSuffix(tok, "$")
		} else {
			tok += ":*"
		}
		if strings.HasPrefix(tok, "-") {
			tok = "!" + tok[1:]
		}

		tokens = append(tokens, tok)
	}

	joined := strings.Join(tokens, "&")
	segments := strings.Split(joined, "|")
	if len(segments) < 2 {
		return joined
	}

	// Splitting on | cuts a token in half: the left half lost its match
	// suffix to the right half, so every segment but the last completes
	// it here before grouping.
	for i, seg := range segments {
		if i < len(segments)-1 {
			if strings.HasSuffix(seg, "$") {
				seg = strings.TrimSuffix(seg, "$")
			} else {
				seg += ":*"
			}
		}
		segments[i] = "(" + seg + ")"
	}

	return strings.Join(segments, "|")
}
