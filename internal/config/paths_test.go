package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	paths, err := GetPaths()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(paths.ExecutableDir))
	assert.Equal(t, filepath.Join(paths.ExecutableDir, ConfigFileName), paths.ConfigFile)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "columns.yaml"), paths.CatalogFile)
}

func TestPathsResolve(t *testing.T) {
	base := t.TempDir()
	p := NewPaths(base)

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"inbox", filepath.Join(base, "inbox")},
		{filepath.Join("data", "reports"), filepath.Join(base, "data", "reports")},
		{base, base},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Resolve(tt.in), "Resolve(%q)", tt.in)
	}
}

func TestConfigCandidates(t *testing.T) {
	p := NewPaths("/opt/copilot")
	assert.Equal(t, []string{
		"config.yaml",
		filepath.Join("configs", "config.yaml"),
		filepath.Join("/opt/copilot", "config.yaml"),
		filepath.Join("/opt/copilot", "configs", "config.yaml"),
	}, p.ConfigCandidates())

	var none *Paths
	assert.Len(t, none.ConfigCandidates(), 2)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server: {}\n"), 0o644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "absent.yaml")))
}
