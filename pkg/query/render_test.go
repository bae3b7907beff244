package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katworks/vitrina/pkg/store"
	"github.com/katworks/vitrina/pkg/taxonomy"
)

func TestAppendConstraintsMatch(t *testing.T) {
	b := store.NewBuilder("")
	AppendConstraints(b, []Predicate{{Facet: "artist", Value: "jane"}}, nil)

	expected := " AND (" +
		"EXISTS (SELECT 1 FROM archive_artists LEFT JOIN artists ON artists.id = archive_artists.artist_id" +
		" WHERE archive_artists.archive_id = archives.id AND artists.name ILIKE $1)" +
		" OR " +
		"EXISTS (SELECT 1 FROM archive_artists LEFT JOIN artists ON artists.id = archive_artists.artist_id" +
		" WHERE archive_artists.archive_id = archives.id AND artists.slug ILIKE $2)" +
		")"
	assert.Equal(t, expected, b.SQL())
	assert.Equal(t, []any{"jane", "jane"}, b.Args())
}

func TestAppendConstraintsTagNamespace(t *testing.T) {
	t.Run("plain tag matches any namespace", func(t *testing.T) {
		b := store.NewBuilder("")
		AppendConstraints(b, []Predicate{{Facet: "tag", Value: "vanilla"}}, nil)

		assert.Contains(t, b.SQL(), "namespace ILIKE $2")
		assert.Equal(t, []any{"vanilla", "%", "vanilla", "%"}, b.Args())
	})

	t.Run("male filter pins the namespace", func(t *testing.T) {
		b := store.NewBuilder("")
		AppendConstraints(b, []Predicate{{Facet: "male", Value: "glasses"}}, nil)

		assert.Equal(t, []any{"glasses", "male", "glasses", "male"}, b.Args())
	})

	t.Run("other aliases misc", func(t *testing.T) {
		b := store.NewBuilder("")
		AppendConstraints(b, []Predicate{{Facet: "other", Value: "uncensored"}}, nil)

		assert.Equal(t, []any{"uncensored", "misc", "uncensored", "misc"}, b.Args())
	})
}

func TestAppendConstraintsNegation(t *testing.T) {
	b := store.NewBuilder("")
	AppendConstraints(b, []Predicate{{Facet: "artist", Value: "jane", Negated: true}}, nil)

	sql := b.SQL()
	assert.Contains(t, sql, "NOT EXISTS (SELECT 1 FROM archive_artists")
	// Both arms must fail for the exclusion to hold.
	assert.Contains(t, sql, ") AND NOT EXISTS (")
	assert.NotContains(t, sql, ") OR ")
}

func TestAppendConstraintsBooleanValues(t *testing.T) {
	t.Run("alternatives render as OR of groups", func(t *testing.T) {
		b := store.NewBuilder("")
		AppendConstraints(b, []Predicate{{Facet: "artist", Value: "jane|john"}}, nil)

		assert.Contains(t, b.SQL(), ") OR (")
		assert.Equal(t, []any{"jane", "jane", "john", "john"}, b.Args())
	})

	t.Run("conjunction renders as AND of atoms", func(t *testing.T) {
		b := store.NewBuilder("")
		AppendConstraints(b, []Predicate{{Facet: "tag", Value: "a&b"}}, nil)

		assert.Contains(t, b.SQL(), ") AND (")
	})

	t.Run("negated conjunction flips to OR of non-existence", func(t *testing.T) {
		b := store.NewBuilder("")
		AppendConstraints(b, []Predicate{{Facet: "tag", Value: "a&b", Negated: true}}, nil)

		sql := b.SQL()
		assert.Contains(t, sql, "NOT EXISTS")
		assert.Contains(t, sql, ") OR (")
	})

	t.Run("negated alternatives flip to AND across groups", func(t *testing.T) {
		b := store.NewBuilder("")
		AppendConstraints(b, []Predicate{{Facet: "tag", Value: "a|b", Negated: true}}, nil)

		assert.Contains(t, b.SQL(), ") AND (")
	})
}

func TestAppendConstraintsSkipsUnknownFacets(t *testing.T) {
	b := store.NewBuilder("SELECT 1")
	AppendConstraints(b, []Predicate{
		{Facet: "title", Value: "foo"},
		{Facet: "pages", Value: ">10"},
		{Facet: "bogus", Value: "x"},
	}, nil)

	assert.Equal(t, "SELECT 1", b.SQL())
	assert.Empty(t, b.Args())
}

func TestAppendConstraintsBlacklist(t *testing.T) {
	b := store.NewBuilder("")
	AppendConstraints(b, nil, []string{"a:12", "t:3"})

	expected := " AND NOT EXISTS (SELECT 1 FROM archive_artists WHERE archive_id = archives.id AND artist_id = $1)" +
		" AND NOT EXISTS (SELECT 1 FROM archive_tags WHERE archive_id = archives.id AND tag_id = $2)"
	assert.Equal(t, expected, b.SQL())
	assert.Equal(t, []any{int64(12), int64(3)}, b.Args())
}

func TestAppendConstraintsBlacklistMalformed(t *testing.T) {
	b := store.NewBuilder("")
	AppendConstraints(b, nil, []string{"noid", "a:notanumber", "x:5"})

	// Unknown namespace codes fall back to the tag facet; the rest are
	// dropped.
	assert.Equal(t,
		" AND NOT EXISTS (SELECT 1 FROM archive_tags WHERE archive_id = archives.id AND tag_id = $1)",
		b.SQL())
	assert.Equal(t, []any{int64(5)}, b.Args())
}

func TestBuildPredicateUnknownFacet(t *testing.T) {
	_, ok := BuildPredicate(Predicate{Facet: "pages", Value: ">10"})
	require.False(t, ok)
}

func TestBuildPredicateShape(t *testing.T) {
	expr, ok := BuildPredicate(Predicate{Facet: "artist", Value: "a&b|c"})
	require.True(t, ok)

	// Left-to-right grouping: (a AND b) OR c.
	or, isOr := expr.(Or)
	require.True(t, isOr)
	require.Len(t, or.Children, 2)

	and, isAnd := or.Children[0].(And)
	require.True(t, isAnd)
	require.Len(t, and.Children, 2)

	leaf, isMatch := or.Children[1].(Match)
	require.True(t, isMatch)
	assert.Equal(t, taxonomy.Artist, leaf.Facet)
	assert.Equal(t, "c", leaf.Pattern)
}
