package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.sql", "README.md", "0001_a.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0000_dir.sql"), 0o700))

	files, err := migrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.sql", "0002_b.sql"}, files)
}

func TestRepositoryMigrationDeclaresTokenConstraint(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "migrations", "0001_create_credentials.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "CONSTRAINT credentials_token_key UNIQUE (token)")
}

func TestRepositoryMigrationStoresAmountUnrounded(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "migrations", "0001_create_credentials.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "total_amount DOUBLE PRECISION NOT NULL")
	assert.NotContains(t, string(raw), "NUMERIC")
}
