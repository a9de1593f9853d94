package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tafa1618/Copilot-Process/internal/dataprocessing"
	"github.com/tafa1618/Copilot-Process/internal/operations"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// Upload is one export handed to the service. Open is called once, from the
// decoding goroutine, and the returned reader is closed afterwards.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileUpload returns an Upload reading path from disk.
func FileUpload(path string) Upload {
	return Upload{Name: filepath.Base(path), Open: func() (io.ReadCloser, error) { return os.Open(path) }}
}

// AnalysisService decodes uploaded exports and runs the KPI pipeline over
// them. It is the only collaborator hosts talk to.
type AnalysisService struct {
	manager   *operations.Manager
	parser    *dataprocessing.Parser
	validator *ParamsValidator
	logger    *slog.Logger

	// runMu serialises pipeline runs; the cache has a single writer per run.
	runMu sync.Mutex
}

// NewAnalysisService wires the service to a pipeline manager.
func NewAnalysisService(manager *operations.Manager, parser *dataprocessing.Parser, validator *ParamsValidator, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	if parser == nil {
		parser = dataprocessing.NewParser(logger)
	}
	if validator == nil {
		validator = NewParamsValidator()
	}
	return &AnalysisService{
		manager:   manager,
		parser:    parser,
		validator: validator,
		logger:    logger.With(slog.String("service", "analysis")),
	}
}

// Analyze validates params, decodes every upload concurrently and runs the
// pipeline. Decoding errors abort the request before the pipeline starts.
func (s *AnalysisService) Analyze(ctx context.Context, uploads map[domain.SourceKind]Upload, params domain.AnalysisParams) (*domain.AnalysisResult, error) {
	if len(uploads) == 0 {
		return nil, ErrNoDataset
	}
	for kind := range uploads {
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSource, kind)
		}
	}
	if err := s.validator.ValidateStruct(params); err != nil {
		return nil, err
	}

	start := time.Now()
	tables, err := s.decode(ctx, uploads)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "exports decoded",
		slog.Int("datasets", len(tables)),
		slog.Duration("duration", time.Since(start)))

	return s.Run(ctx, tables, params)
}

// Run executes the pipeline over already decoded tables.
func (s *AnalysisService) Run(ctx context.Context, tables map[domain.SourceKind]*domain.RawTable, params domain.AnalysisParams) (*domain.AnalysisResult, error) {
	if len(tables) == 0 {
		return nil, ErrNoDataset
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	result, err := s.manager.Run(ctx, operations.RunRequest{Tables: tables, Params: params})
	if err != nil {
		s.logger.ErrorContext(ctx, "analysis failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	return result, nil
}

// AnalyzeFiles decodes exports from disk and runs the pipeline. Used by the
// batch processor.
func (s *AnalysisService) AnalyzeFiles(ctx context.Context, files map[domain.SourceKind]string, params domain.AnalysisParams) (*domain.AnalysisResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFilesFound
	}
	uploads := make(map[domain.SourceKind]Upload, len(files))
	for kind, path := range files {
		uploads[kind] = FileUpload(path)
	}
	return s.Analyze(ctx, uploads, params)
}

// Latest returns the result of the last successful run.
func (s *AnalysisService) Latest() (*domain.AnalysisResult, error) {
	result, ok := s.manager.Cache().Latest()
	if !ok {
		return nil, ErrNoResult
	}
	return result, nil
}

// LatestProductivity returns the overall productivity of the last run.
func (s *AnalysisService) LatestProductivity() (domain.KeyedRatio, error) {
	if !s.manager.Cache().Computed() {
		return domain.KeyedRatio{}, ErrNoResult
	}
	ratio, ok := s.manager.Cache().Productivity()
	if !ok {
		return domain.KeyedRatio{}, ErrNoProductivity
	}
	return ratio, nil
}

// Computed reports whether any run has completed.
func (s *AnalysisService) Computed() bool {
	return s.manager.Cache().Computed()
}

func (s *AnalysisService) decode(ctx context.Context, uploads map[domain.SourceKind]Upload) (map[domain.SourceKind]*domain.RawTable, error) {
	var mu sync.Mutex
	tables := make(map[domain.SourceKind]*domain.RawTable, len(uploads))

	g, ctx := errgroup.WithContext(ctx)
	for kind, upload := range uploads {
		kind, upload := kind, upload
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			table, err := s.decodeOne(upload, kind)
			if err != nil {
				return fmt.Errorf("failed to decode %s export: %w", kind, err)
			}
			mu.Lock()
			tables[kind] = table
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

func (s *AnalysisService) decodeOne(upload Upload, kind domain.SourceKind) (*domain.RawTable, error) {
	if upload.Open == nil {
		return nil, fmt.Errorf("upload %q has no content", upload.Name)
	}
	rc, err := upload.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return s.parser.Parse(rc, upload.Name, kind)
}
