package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_b.up.sql", "000001_a.up.sql", "000001_a.down.sql", "000002_b.down.sql", "README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}

	up, err := MigrationFiles(dir, Up)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_a.up.sql", "000002_b.up.sql"}, up)

	down, err := MigrationFiles(dir, Down)
	require.NoError(t, err)
	assert.Equal(t, []string{"000002_b.down.sql", "000001_a.down.sql"}, down)

	_, err = MigrationFiles(dir, "sideways")
	assert.Error(t, err)
}

func TestRepositoryMigrationsArePaired(t *testing.T) {
	up, err := MigrationFiles("../../migrations", Up)
	require.NoError(t, err)
	down, err := MigrationFiles("../../migrations", Down)
	require.NoError(t, err)

	assert.NotEmpty(t, up)
	assert.Len(t, down, len(up))
}
