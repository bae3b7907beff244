package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AliasTable rewrites tag display names to a canonical form. Lookups key
// on the derived slug so that spelling variants of the same tag collapse
// to one display name while keeping the slug they share.
type AliasTable struct {
	bySlug map[string]string
}

// NewAliasTable builds a table from slug → canonical name pairs.
func NewAliasTable(aliases map[string]string) *AliasTable {
	return &AliasTable{bySlug: aliases}
}

// LoadAliasTable reads a YAML file mapping slugs to canonical display
// names:
//
//	f-f: F/F
//	x-ray: X-ray
func LoadAliasTable(path string) (*AliasTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias file: %w", err)
	}

	aliases := map[string]string{}
	if err := yaml.Unmarshal(raw, &aliases); err != nil {
		return nil, fmt.Errorf("failed to parse alias file %s: %w", path, err)
	}

	return &AliasTable{bySlug: aliases}, nil
}

// Canonical returns the display name for a tag. When the slug has no
// alias the input name passes through unchanged.
func (a *AliasTable) Canonical(name, slug string) string {
	if a == nil || a.bySlug == nil {
		return name
	}
	if canonical, ok := a.bySlug[slug]; ok {
		return canonical
	}
	return name
}
