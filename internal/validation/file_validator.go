package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// zipMagic opens every XLSX file; an export saved in another format fails
// here before the parser sees it.
var zipMagic = []byte("PK\x03\x04")

// ErrNotExport is returned for paths that cannot be an XLSX export.
var ErrNotExport = errors.New("not an xlsx export")

// FileValidator checks the paths handed to the batch processor before a run
// starts, so a typo fails fast with a clear message.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateInbox checks that dir exists and is a directory.
func (v *FileValidator) ValidateInbox(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Inbox directory does not exist", slog.String("directory", dir))
		return fmt.Errorf("inbox directory %s does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Inbox path is not a directory", slog.String("path", dir))
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// ValidateOutputDirectory creates dir if needed and checks it is writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return nil
}

// ValidateExport checks that path is a regular, non-empty .xlsx file that
// starts with the zip signature. Office lock files (~$name.xlsx) are
// rejected.
func (v *FileValidator) ValidateExport(path string) error {
	base := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(base), ".xlsx") {
		return fmt.Errorf("%w: %s has extension %q", ErrNotExport, base, filepath.Ext(base))
	}
	if strings.HasPrefix(base, "~$") {
		return fmt.Errorf("%w: %s is an office lock file", ErrNotExport, base)
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("export %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat export %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrNotExport, path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrNotExport, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open export %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, zipMagic) {
		v.logger.Warn("Export has no zip signature", slog.String("file", path))
		return fmt.Errorf("%w: %s is not a zip container", ErrNotExport, path)
	}

	v.logger.Debug("Export validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateExports validates every path and joins the failures.
func (v *FileValidator) ValidateExports(paths map[string]string) error {
	var errs []error
	for label, path := range paths {
		if err := v.ValidateExport(path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
		}
	}
	return errors.Join(errs...)
}
