package operations

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tafa1618/Copilot-Process/internal/infrastructure"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// RunRequest is the input of one pipeline run.
type RunRequest struct {
	// ID is generated when empty.
	ID     string
	Tables map[domain.SourceKind]*domain.RawTable
	Params domain.AnalysisParams
}

// Manager executes the registered stages over a run and publishes the result
// to the session cache.
type Manager struct {
	registry *Registry
	tracer   *RunTracer
	cache    *SessionCache
	logger   *slog.Logger
}

// NewManager creates a pipeline manager. A nil tracer or cache gets a
// default one.
func NewManager(registry *Registry, tracer *RunTracer, cache *SessionCache, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if tracer == nil {
		tracer, _ = NewRunTracer(nil)
	}
	if cache == nil {
		cache = NewSessionCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		tracer:   tracer,
		cache:    cache,
		logger:   logger.With(slog.String("component", "pipeline_manager")),
	}
}

// Cache returns the session cache the manager writes to.
func (m *Manager) Cache() *SessionCache {
	return m.cache
}

// Registry returns the stage registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Run executes every stage in order. Datasets rejected by the resolver are
// listed in the result; the run fails only when no dataset survives or a
// stage errors. On success the result is stored in the session cache.
func (m *Manager) Run(ctx context.Context, req RunRequest) (*domain.AnalysisResult, error) {
	ctx = infrastructure.EnsureTraceID(ctx)

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if len(req.Tables) == 0 {
		return nil, NewValidationError("", "no dataset supplied")
	}

	ctx = infrastructure.WithRunID(ctx, req.ID)
	state := NewRunState(req.ID, req.Tables, req.Params)
	logger := m.logger.With(slog.String("run_id", req.ID))

	ctx, span := m.tracer.StartRun(ctx, state)
	defer m.tracer.EndRun(ctx, span, state)

	stages := m.registry.List()
	for _, s := range stages {
		state.Stages[s.ID()] = NewStageState(s.ID(), s.Name())
	}

	state.Start()
	logger.InfoContext(ctx, "pipeline run started",
		slog.Int("datasets", len(req.Tables)),
		slog.Int("stages", len(stages)))

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			cancelErr := NewCancellationError(s.ID(), err)
			state.Fail(cancelErr)
			logger.WarnContext(ctx, "pipeline run cancelled", slog.String("stage", s.ID()))
			return nil, cancelErr
		}

		if err := m.executeStage(ctx, state, s); err != nil {
			state.Fail(err)
			logger.ErrorContext(ctx, "pipeline run failed",
				slog.String("stage", s.ID()),
				slog.String("error", err.Error()))
			return nil, err
		}
	}

	state.Complete()
	m.cache.Store(state.Result)

	logger.InfoContext(ctx, "pipeline run completed",
		slog.Duration("duration", state.Duration()),
		slog.Int("failures", len(state.Result.Failures)))

	return state.Result, nil
}

func (m *Manager) executeStage(ctx context.Context, state *RunState, s Stage) error {
	stageState := state.Stages[s.ID()]
	stageCtx, span := m.tracer.StartStage(ctx, state.ID, s.ID())

	stageState.Start()
	start := time.Now()
	err := s.Execute(stageCtx, state)
	duration := time.Since(start)

	if err != nil {
		stageState.Fail(err)
	} else {
		stageState.Complete()
	}
	m.tracer.EndStage(stageCtx, span, s.ID(), duration, err)

	m.logger.DebugContext(ctx, "stage finished",
		slog.String("run_id", state.ID),
		slog.String("stage", s.ID()),
		slog.Duration("duration", duration),
		slog.String("status", string(stageState.Status)))

	return err
}
