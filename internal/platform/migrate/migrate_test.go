package migrate

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hashkey.local/migrations"
)

func TestListSQLFiles_SortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql": {Data: []byte("SELECT 1;")},
		"001_init.SQL":  {Data: []byte("SELECT 1;")},
		"README.md":     {Data: []byte("notes")},
		"002_next.sql":  {Data: []byte("SELECT 1;")},
		"migrations.go": {Data: []byte("package migrations")},
	}

	got, err := listSQLFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.SQL", "002_next.sql", "010_later.sql"}, got)
}

func TestResolveSource(t *testing.T) {
	fsys, source := resolveSource("")
	assert.Equal(t, "embedded", source)
	assert.Equal(t, migrations.FS, fsys)

	dir := t.TempDir()
	_, source = resolveSource(dir + "/")
	assert.Equal(t, dir, source)
}

func TestEmbeddedMigrations(t *testing.T) {
	got, err := listSQLFiles(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "001_init.sql", got[0])
}
