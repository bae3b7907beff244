// Package taxonomy maps facets to their term and junction tables and
// resolves the filter-name and blacklist-namespace vocabularies used by
// the query layer.
package taxonomy

import (
	"strconv"
	"strings"
)

// Facet is a taxonomy category with its own term table and junction table.
type Facet int

const (
	Artist Facet = iota
	Circle
	Magazine
	Event
	Publisher
	Parody
	Tag
)

// AllFacets lists every facet in hydration order.
var AllFacets = []Facet{Artist, Circle, Magazine, Event, Publisher, Parody, Tag}

// Table returns the term table of the facet.
func (f Facet) Table() string {
	switch f {
	case Artist:
		return "artists"
	case Circle:
		return "circles"
	case Magazine:
		return "magazines"
	case Event:
		return "events"
	case Publisher:
		return "publishers"
	case Parody:
		return "parodies"
	default:
		return "tags"
	}
}

// IDColumn returns the term id column used by the junction table.
func (f Facet) IDColumn() string {
	switch f {
	case Artist:
		return "artist_id"
	case Circle:
		return "circle_id"
	case Magazine:
		return "magazine_id"
	case Event:
		return "event_id"
	case Publisher:
		return "publisher_id"
	case Parody:
		return "parody_id"
	default:
		return "tag_id"
	}
}

// Relation returns the archive junction table of the facet.
func (f Facet) Relation() string {
	switch f {
	case Artist:
		return "archive_artists"
	case Circle:
		return "archive_circles"
	case Magazine:
		return "archive_magazines"
	case Event:
		return "archive_events"
	case Publisher:
		return "archive_publishers"
	case Parody:
		return "archive_parodies"
	default:
		return "archive_tags"
	}
}

// NamespaceAny matches any tag namespace via ILIKE.
const NamespaceAny = "%"

// FromFilter resolves a search-filter facet name to a facet and, for tag
// facets, a namespace pattern. The names title and pages are part of the
// filter grammar but carry no facet constraint; they return ok = false,
// as does any unknown name.
func FromFilter(name string) (facet Facet, namespace string, ok bool) {
	switch strings.ToLower(name) {
	case "artist":
		return Artist, "", true
	case "circle":
		return Circle, "", true
	case "magazine":
		return Magazine, "", true
	case "event":
		return Event, "", true
	case "publisher":
		return Publisher, "", true
	case "parody":
		return Parody, "", true
	case "tag":
		return Tag, NamespaceAny, true
	case "male":
		return Tag, "male", true
	case "female":
		return Tag, "female", true
	case "misc", "other":
		return Tag, "misc", true
	default:
		return 0, "", false
	}
}

// BlacklistEntry is an unconditional term exclusion parsed from a
// "namespace:id" pair.
type BlacklistEntry struct {
	Facet Facet
	ID    int64
}

// ParseBlacklistEntry parses a "namespace:id" pair. Namespaces are the
// short codes a/c/m/e/ps/p/t; an unknown code falls back to the tag
// facet. Anything after a second colon is ignored. Entries without a
// numeric id are rejected.
func ParseBlacklistEntry(entry string) (BlacklistEntry, bool) {
	ns, rest, found := strings.Cut(entry, ":")
	if !found {
		return BlacklistEntry{}, false
	}
	rest, _, _ = strings.Cut(rest, ":")

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return BlacklistEntry{}, false
	}

	facet := Tag
	switch ns {
	case "a":
		facet = Artist
	case "c":
		facet = Circle
	case "m":
		facet = Magazine
	case "e":
		facet = Event
	case "ps":
		facet = Publisher
	case "p":
		facet = Parody
	case "t":
		facet = Tag
	}

	return BlacklistEntry{Facet: facet, ID: id}, true
}
