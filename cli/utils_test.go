package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPathWithinDirectory(t *testing.T) {
	t.Run("Should accept nested paths and the directory itself", func(t *testing.T) {
		assert.True(t, isPathWithinDirectory("/srv/app/.env", "/srv/app"))
		assert.True(t, isPathWithinDirectory("/srv/app", "/srv/app"))
	})

	t.Run("Should reject siblings and traversal", func(t *testing.T) {
		assert.False(t, isPathWithinDirectory("/srv/application/.env", "/srv/app"))
		assert.False(t, isPathWithinDirectory("/srv/app/../secrets/.env", "/srv/app"))
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("Should load variables from the file", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PHARENS_CLI_TEST=loaded\n"), 0o600))
		t.Cleanup(func() { _ = os.Unsetenv("PHARENS_CLI_TEST") })
		cmd := RootCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--env-file", ".env"}))
		path, err := loadEnvFile(cmd)
		require.NoError(t, err)
		assert.Equal(t, "loaded", os.Getenv("PHARENS_CLI_TEST"))
		assert.Equal(t, ".env", filepath.Base(path))
	})

	t.Run("Should tolerate a missing file", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cmd := RootCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--env-file", "missing.env"}))
		_, err := loadEnvFile(cmd)
		require.NoError(t, err)
	})

	t.Run("Should refuse files outside the working directory", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cmd := RootCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--env-file", "../outside.env"}))
		_, err := loadEnvFile(cmd)
		require.Error(t, err)
	})
}
