// Package types defines the catalog data model shared by the query,
// synchronization, and writer layers.
package types

import "time"

// ImageDimensions holds the known pixel dimensions of a page image.
// Either field may be absent when the thumbnailer has not seen the page yet.
type ImageDimensions struct {
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`
}

// Known reports whether at least one dimension has been measured.
func (d ImageDimensions) Known() bool {
	return d.Width != nil || d.Height != nil
}

// Image is one page of an archive. PageNumber is unique per archive.
type Image struct {
	Filename   string `json:"filename"`
	PageNumber int    `json:"page_number"`
	Width      *int   `json:"width,omitempty"`
	Height     *int   `json:"height,omitempty"`
}

// Taxonomy is a term of a facet (artist, circle, magazine, event,
// publisher, parody) as attached to an archive.
type Taxonomy struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Tag is a free-form label. The namespace lives on the archive relation,
// not on the tag itself: the same tag can carry different namespaces on
// different archives.
type Tag struct {
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
}

// Source is an external origin link for an archive. Name is unique per
// archive.
type Source struct {
	Name string  `json:"name"`
	URL  *string `json:"url,omitempty"`
}

// Archive is the core catalog row. DeletedAt == nil means the archive is
// live; soft-deleted rows are kept for history but excluded from search
// and identity matching.
type Archive struct {
	ID          int64            `json:"id"`
	Slug        string           `json:"slug"`
	Title       string           `json:"title"`
	Description *string          `json:"description,omitempty"`
	Hash        string           `json:"hash"`
	Pages       int              `json:"pages"`
	Size        int64            `json:"size"`
	Cover       *ImageDimensions `json:"cover,omitempty"`
	Thumbnail   int              `json:"thumbnail"`
	Images      []Image          `json:"images"`
	CreatedAt   time.Time        `json:"created_at"`
	ReleasedAt  time.Time        `json:"released_at"`
}

// ArchiveDetail is an archive hydrated with all of its relations.
type ArchiveDetail struct {
	Archive

	Artists    []Taxonomy `json:"artists"`
	Circles    []Taxonomy `json:"circles"`
	Magazines  []Taxonomy `json:"magazines"`
	Events     []Taxonomy `json:"events"`
	Publishers []Taxonomy `json:"publishers"`
	Parodies   []Taxonomy `json:"parodies"`
	Tags       []Tag      `json:"tags"`
	Sources    []Source   `json:"sources"`
}

// ArchiveListItem is the search-result projection of an archive.
type ArchiveListItem struct {
	ID         int64            `json:"id"`
	Slug       string           `json:"slug"`
	Hash       string           `json:"hash"`
	Title      string           `json:"title"`
	Pages      int              `json:"pages"`
	Thumbnail  int              `json:"thumbnail"`
	Cover      *ImageDimensions `json:"cover,omitempty"`
	Artists    []Taxonomy       `json:"artists"`
	Circles    []Taxonomy       `json:"circles"`
	Magazines  []Taxonomy       `json:"magazines"`
	Events     []Taxonomy       `json:"events"`
	Publishers []Taxonomy       `json:"publishers"`
	Parodies   []Taxonomy       `json:"parodies"`
	Tags       []Tag            `json:"tags"`
}

// TagPair is a (name, namespace) input pair for tag synchronization.
type TagPair struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
}

// Relations is the desired relation state for one archive. A nil slice
// means "leave this facet untouched"; an empty non-nil slice means
// "remove every relation of this kind".
type Relations struct {
	Artists    []string  `json:"artists,omitempty"`
	Circles    []string  `json:"circles,omitempty"`
	Magazines  []string  `json:"magazines,omitempty"`
	Events     []string  `json:"events,omitempty"`
	Publishers []string  `json:"publishers,omitempty"`
	Parodies   []string  `json:"parodies,omitempty"`
	Tags       []TagPair `json:"tags,omitempty"`
	Sources    []Source  `json:"sources,omitempty"`
	Images     []Image   `json:"images,omitempty"`
}

// UpsertArchiveData carries one write request. Every field is optional;
// the writer decides between insert, in-place update, and versioning
// from what is present and what already exists.
type UpsertArchiveData struct {
	ID          *int64     `json:"id,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Slug        *string    `json:"slug,omitempty"`
	Description *string    `json:"description,omitempty"`
	Path        *string    `json:"path,omitempty"`
	Hash        *string    `json:"hash,omitempty"`
	Pages       *int       `json:"pages,omitempty"`
	Size        *int64     `json:"size,omitempty"`
	Thumbnail   *int       `json:"thumbnail,omitempty"`
	Language    *string    `json:"language,omitempty"`
	ReleasedAt  *time.Time `json:"released_at,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	HasMetadata *bool      `json:"has_metadata,omitempty"`

	Relations
}
