package configloader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gorulesync/internal/configloader"
)

func TestFindProjectRoot(t *testing.T) {
	t.Parallel()

	t.Run("project file wins", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeProjectFile(t, root, "rulesets: []\n")
		deep := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(deep, 0o755))

		got, err := configloader.FindProjectRoot(context.Background(), deep)
		require.NoError(t, err)
		assert.Equal(t, root, got)
	})

	t.Run("vcs root", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
		deep := filepath.Join(root, "pkg")
		require.NoError(t, os.Mkdir(deep, 0o755))

		got, err := configloader.FindProjectRoot(context.Background(), deep)
		require.NoError(t, err)
		assert.Equal(t, root, got)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := configloader.FindProjectRoot(ctx, t.TempDir())
		require.Error(t, err)
	})
}

func TestUserSettingsPath(t *testing.T) {
	home := isolateSettings(t)
	assert.Empty(t, configloader.UserSettingsPath())

	dir := filepath.Join(home, "gorulesync")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o644))

	assert.Equal(t, path, configloader.UserSettingsPath())
}
