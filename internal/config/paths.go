package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName is the file Load looks for when COPILOT_CONFIG is unset.
const ConfigFileName = "config.yaml"

// Paths lists the well-known locations next to the executable. A release
// ships its config.yaml and column catalog beside the binaries.
type Paths struct {
	ExecutableDir string
	ConfigFile    string
	CatalogFile   string
	ConfigDir     string
}

// GetPaths returns the paths relative to the executable location, with
// symlinks resolved.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return NewPaths(filepath.Dir(exe)), nil
}

// NewPaths lays the well-known files out under base.
func NewPaths(base string) *Paths {
	return &Paths{
		ExecutableDir: base,
		ConfigFile:    filepath.Join(base, ConfigFileName),
		CatalogFile:   filepath.Join(base, "columns.yaml"),
		ConfigDir:     filepath.Join(base, "configs"),
	}
}

// Resolve anchors a relative path at the executable directory. Absolute
// paths and the empty string pass through.
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.ExecutableDir, path)
}

// ConfigCandidates returns the config files Load tries, in order: the
// working directory first, then the executable directory.
func (p *Paths) ConfigCandidates() []string {
	out := []string{ConfigFileName, filepath.Join("configs", ConfigFileName)}
	if p != nil {
		out = append(out, p.ConfigFile, filepath.Join(p.ConfigDir, ConfigFileName))
	}
	return out
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
