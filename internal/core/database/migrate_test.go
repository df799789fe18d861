package database

import (
	"io/fs"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// email 列长度必须放得下 UserCreate 允许的 255 个字符
func TestMigrations_EmailColumnFits255(t *testing.T) {
	emailCol := regexp.MustCompile(`(?m)^\s*email\s+(\S+)`)
	for _, dialect := range []string{"postgres", "mysql"} {
		t.Run(dialect, func(t *testing.T) {
			b, err := fs.ReadFile(migrations, "migrations/"+dialect+"/00001_create_users.sql")
			require.NoError(t, err)
			m := emailCol.FindSubmatch(b)
			require.NotNil(t, m)
			assert.Equal(t, "VARCHAR(255)", string(m[1]))
		})
	}
}

func TestMigrations_EveryDialectHasFiles(t *testing.T) {
	for name := range dialects {
		entries, err := fs.ReadDir(migrations, "migrations/"+name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, entries, name)
	}
}
