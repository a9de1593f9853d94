package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tafa1618/Copilot-Process/internal/config"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Inbox maps each recognised export kind to the file chosen for it.
type Inbox map[domain.SourceKind]FileInfo

// Paths returns the inbox as kind to path, the shape the analysis service takes.
func (in Inbox) Paths() map[domain.SourceKind]string {
	out := make(map[domain.SourceKind]string, len(in))
	for kind, f := range in {
		out[kind] = f.Path
	}
	return out
}

// Discovery finds exports in an inbox directory and recognises their kind
// from the catalog's file name patterns.
type Discovery struct {
	catalog *config.Catalog
	logger  *slog.Logger
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(catalog *config.Catalog, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{catalog: catalog, logger: logger.With(slog.String("component", "discovery"))}
}

// FindExcelFiles lists the .xlsx workbooks of dir, oldest first. Office
// lock files (~$name.xlsx) are skipped.
func (d *Discovery) FindExcelFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsWorkbook(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// Scan classifies the workbooks of dir. When several files match the same
// kind the most recently modified wins; unrecognised files are returned
// separately.
func (d *Discovery) Scan(dir string) (Inbox, []FileInfo, error) {
	files, err := d.FindExcelFiles(dir)
	if err != nil {
		return nil, nil, err
	}

	byKind := make(map[domain.SourceKind][]FileInfo)
	var unknown []FileInfo
	for _, f := range files {
		kind, ok := d.catalog.ClassifyFile(f.Name)
		if !ok {
			unknown = append(unknown, f)
			continue
		}
		byKind[kind] = append(byKind[kind], f)
	}

	inbox := make(Inbox, len(byKind))
	for kind, candidates := range byKind {
		latest, _ := GetLatestFile(candidates)
		inbox[kind] = latest
		if len(candidates) > 1 {
			d.logger.Warn("several exports of the same kind, using the newest",
				slog.String("source", string(kind)),
				slog.String("file", latest.Name),
				slog.Int("candidates", len(candidates)))
		}
	}

	d.logger.Info("inbox scanned",
		slog.String("dir", dir),
		slog.Int("recognised", len(inbox)),
		slog.Int("unrecognised", len(unknown)))
	return inbox, unknown, nil
}

// IsWorkbook reports whether name looks like an .xlsx export.
func IsWorkbook(name string) bool {
	base := filepath.Base(name)
	return strings.EqualFold(filepath.Ext(base), ".xlsx") && !strings.HasPrefix(base, "~$")
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}
	return latest, true
}
