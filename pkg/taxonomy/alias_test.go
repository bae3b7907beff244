package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliasTableCanonical(t *testing.T) {
	table := NewAliasTable(map[string]string{"f-f": "F/F", "x-ray": "X-ray"})

	assert.Equal(t, "F/F", table.Canonical("f/f", "f-f"))
	assert.Equal(t, "X-ray", table.Canonical("xray", "x-ray"))
	assert.Equal(t, "Vanilla", table.Canonical("Vanilla", "vanilla"))
}

func TestAliasTableNilSafe(t *testing.T) {
	var table *AliasTable
	assert.Equal(t, "Vanilla", table.Canonical("Vanilla", "vanilla"))
}

func TestLoadAliasTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("f-f: F/F\nx-ray: X-ray\n"), 0o644))

	table, err := LoadAliasTable(path)
	require.NoError(t, err)
	assert.Equal(t, "F/F", table.Canonical("f/f", "f-f"))
}

func TestLoadAliasTableMissingFile(t *testing.T) {
	_, err := LoadAliasTable(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
