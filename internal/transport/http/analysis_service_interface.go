package http

import (
	"context"

	"github.com/tafa1618/Copilot-Process/internal/services"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// AnalysisServiceInterface defines the pipeline operations the HTTP host needs
type AnalysisServiceInterface interface {
	Analyze(ctx context.Context, uploads map[domain.SourceKind]services.Upload, params domain.AnalysisParams) (*domain.AnalysisResult, error)
	Latest() (*domain.AnalysisResult, error)
	LatestProductivity() (domain.KeyedRatio, error)
}
