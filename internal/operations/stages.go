package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tafa1618/Copilot-Process/internal/analytics"
	"github.com/tafa1618/Copilot-Process/internal/config"
	"github.com/tafa1618/Copilot-Process/internal/dataprocessing"
	apperrors "github.com/tafa1618/Copilot-Process/internal/errors"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// DefaultRegistry registers the KPI pipeline stages over catalog.
func DefaultRegistry(catalog *config.Catalog, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := NewRegistry()
	for _, s := range []Stage{
		NewResolveStage(catalog, logger),
		NewNormalizeStage(logger),
		NewFilterStage(catalog, logger),
		NewJoinStage(logger),
		NewCollapseStage(logger),
		NewClassifyStage(logger),
		NewAggregateStage(logger),
		NewCorrelateStage(logger),
	} {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ResolveStage binds the raw headers of every supplied export. A dataset that
// misses required fields is recorded as a failure and left out of the run.
type ResolveStage struct {
	BaseStage
	resolver *dataprocessing.Resolver
	logger   *slog.Logger
}

// NewResolveStage creates the column resolution stage.
func NewResolveStage(catalog *config.Catalog, logger *slog.Logger) *ResolveStage {
	return &ResolveStage{
		BaseStage: NewBaseStage(StageResolve, "Column resolution"),
		resolver:  dataprocessing.NewResolver(catalog, logger),
		logger:    logger.With(slog.String("stage", StageResolve)),
	}
}

// Execute resolves each raw table.
func (s *ResolveStage) Execute(ctx context.Context, state *RunState) error {
	state.Resolved = make(map[domain.SourceKind]*dataprocessing.Resolution)
	var rejected []error

	for _, kind := range domain.SourceKinds() {
		raw, ok := state.Raw[kind]
		if !ok {
			continue
		}
		state.Audit(kind).Rows = len(raw.Records)

		res, err := s.resolver.Resolve(raw)
		var schemaErr *apperrors.SchemaError
		switch {
		case errors.As(err, &schemaErr):
			state.Result.Failures = append(state.Result.Failures, domain.DatasetFailure{
				Source:  kind,
				Missing: schemaErr.Missing,
				Seen:    schemaErr.Seen,
				Message: schemaErr.Error(),
			})
			rejected = append(rejected, schemaErr)
			s.logger.WarnContext(ctx, "dataset rejected",
				slog.String("source", string(kind)),
				slog.Any("missing", schemaErr.Missing))
			continue
		case err != nil:
			return NewExecutionError(s.ID(), err)
		}
		state.Resolved[kind] = res
	}

	if len(state.Resolved) == 0 {
		return NewFatalError(s.ID(), "every dataset was rejected", errors.Join(rejected...))
	}

	s.logger.InfoContext(ctx, "columns resolved",
		slog.Int("datasets", len(state.Resolved)),
		slog.Int("rejected", len(rejected)))
	return nil
}

// NormalizeStage types the resolved cells.
type NormalizeStage struct {
	BaseStage
	normalizer *dataprocessing.Normalizer
	logger     *slog.Logger
}

// NewNormalizeStage creates the type normalization stage.
func NewNormalizeStage(logger *slog.Logger) *NormalizeStage {
	return &NormalizeStage{
		BaseStage:  NewBaseStage(StageNormalize, "Type normalization", StageResolve),
		normalizer: dataprocessing.NewNormalizer(logger),
		logger:     logger.With(slog.String("stage", StageNormalize)),
	}
}

// Execute normalizes every resolved table.
func (s *NormalizeStage) Execute(ctx context.Context, state *RunState) error {
	state.Normalized = make(map[domain.SourceKind]domain.CanonicalTable, len(state.Resolved))
	for _, kind := range domain.SourceKinds() {
		res, ok := state.Resolved[kind]
		if !ok {
			continue
		}
		table, stats := s.normalizer.Normalize(state.Raw[kind], res)
		state.Normalized[kind] = table

		audit := state.Audit(kind)
		audit.InvalidNumbers = stats.InvalidNumbers
		audit.InvalidDates = stats.InvalidDates
		if stats.InvalidNumbers+stats.InvalidDates > 0 {
			s.logger.InfoContext(ctx, "unparseable cells coerced",
				slog.String("source", string(kind)),
				slog.Int("invalid_numbers", stats.InvalidNumbers),
				slog.Int("invalid_dates", stats.InvalidDates))
		}
	}
	return nil
}

// FilterStage drops rows with a null identity field.
type FilterStage struct {
	BaseStage
	catalog *config.Catalog
	logger  *slog.Logger
}

// NewFilterStage creates the record filter stage.
func NewFilterStage(catalog *config.Catalog, logger *slog.Logger) *FilterStage {
	return &FilterStage{
		BaseStage: NewBaseStage(StageFilter, "Record filter", StageNormalize),
		catalog:   catalog,
		logger:    logger.With(slog.String("stage", StageFilter)),
	}
}

// Execute filters every normalized table.
func (s *FilterStage) Execute(ctx context.Context, state *RunState) error {
	state.Filtered = make(map[domain.SourceKind]domain.CanonicalTable, len(state.Normalized))
	for _, kind := range domain.SourceKinds() {
		table, ok := state.Normalized[kind]
		if !ok {
			continue
		}
		spec, ok := s.catalog.Source(kind)
		if !ok {
			return NewExecutionError(s.ID(), fmt.Errorf("no catalog entry for %s", kind))
		}
		filtered, dropped := dataprocessing.FilterRequired(table, spec.IdentityFields())
		state.Filtered[kind] = filtered
		state.Audit(kind).Dropped = dropped

		s.logger.DebugContext(ctx, "rows filtered",
			slog.String("source", string(kind)),
			slog.Int("kept", len(filtered.Records)),
			slog.Int("dropped", dropped))
	}
	return nil
}

// JoinStage attaches the status extract to work orders and work-order
// attributes to invoices. Both joins resolve duplicate keys the same way:
// first value after sorting the secondary export by its date.
type JoinStage struct {
	BaseStage
	logger *slog.Logger
}

// NewJoinStage creates the join stage.
func NewJoinStage(logger *slog.Logger) *JoinStage {
	return &JoinStage{
		BaseStage: NewBaseStage(StageJoin, "Join", StageFilter),
		logger:    logger.With(slog.String("stage", StageJoin)),
	}
}

// Execute performs the left joins available for the supplied datasets.
func (s *JoinStage) Execute(ctx context.Context, state *RunState) error {
	state.Joined = make(map[domain.SourceKind]domain.CanonicalTable, len(state.Filtered))
	for kind, table := range state.Filtered {
		state.Joined[kind] = table
	}

	orders, hasOrders := state.Filtered[domain.SourceWorkOrders]
	status, hasStatus := state.Filtered[domain.SourceOrderStatus]
	if hasOrders && hasStatus {
		ix := dataprocessing.BuildIndex(status.Records, domain.FieldOrderID, domain.FieldStatusDate)
		records, stats := dataprocessing.LeftJoin(orders.Records, domain.FieldOrderID, ix, map[string]string{
			domain.FieldStatus:     domain.FieldStatus,
			domain.FieldStatusDate: domain.FieldStatusDate,
		})
		state.Joined[domain.SourceWorkOrders] = domain.CanonicalTable{
			Source:  orders.Source,
			Fields:  withFields(orders.Fields, domain.FieldStatus, domain.FieldStatusDate),
			Records: records,
		}
		state.StatusJoined = true
		state.Audit(domain.SourceWorkOrders).Unmatched = stats.Unmatched
		state.Audit(domain.SourceOrderStatus).Duplicates = stats.Duplicates

		s.logger.InfoContext(ctx, "order status joined",
			slog.Int("orders", stats.Primary),
			slog.Int("matched", stats.Matched),
			slog.Int("unmatched", stats.Unmatched),
			slog.Int("status_duplicates", stats.Duplicates))
	}

	invoices, hasInvoices := state.Filtered[domain.SourceInvoices]
	if hasInvoices && hasOrders && invoices.HasField(domain.FieldOrderID) {
		ix := dataprocessing.BuildIndex(orders.Records, domain.FieldOrderID, domain.FieldOrderDate)
		records, stats := dataprocessing.LeftJoin(invoices.Records, domain.FieldOrderID, ix, map[string]string{
			domain.FieldTeam:     domain.FieldTeam,
			domain.FieldCustomer: domain.FieldCustomer,
		})
		state.Joined[domain.SourceInvoices] = domain.CanonicalTable{
			Source:  invoices.Source,
			Fields:  withFields(invoices.Fields, domain.FieldTeam, domain.FieldCustomer),
			Records: records,
		}
		state.Audit(domain.SourceInvoices).Unmatched = stats.Unmatched

		s.logger.InfoContext(ctx, "work orders joined to invoices",
			slog.Int("invoice_lines", stats.Primary),
			slog.Int("matched", stats.Matched))
	}

	return nil
}

func withFields(fields []string, extra ...string) []string {
	out := append([]string(nil), fields...)
	for _, f := range extra {
		found := false
		for _, have := range out {
			if have == f {
				found = true
				break
			}
		}
		if !found {
			out = append(out, f)
		}
	}
	return out
}

// CollapseStage merges duplicate keys into attendance days, work orders and
// invoices.
type CollapseStage struct {
	BaseStage
	logger *slog.Logger
}

// NewCollapseStage creates the dedup stage.
func NewCollapseStage(logger *slog.Logger) *CollapseStage {
	return &CollapseStage{
		BaseStage: NewBaseStage(StageCollapse, "Deduplication", StageJoin),
		logger:    logger.With(slog.String("stage", StageCollapse)),
	}
}

// Execute builds the domain entities.
func (s *CollapseStage) Execute(ctx context.Context, state *RunState) error {
	if table, ok := state.Joined[domain.SourceAttendance]; ok {
		days, folded := dataprocessing.BuildAttendanceDays(table)
		state.Days = days
		state.Audit(domain.SourceAttendance).Duplicates = folded
	}

	if table, ok := state.Joined[domain.SourceWorkOrders]; ok {
		orders, stats := dataprocessing.BuildWorkOrders(table, state.StatusJoined)
		state.Orders = orders
		audit := state.Audit(domain.SourceWorkOrders)
		audit.Duplicates = stats.Duplicates
		audit.Excluded = stats.Excluded
	}

	if table, ok := state.Joined[domain.SourceInvoices]; ok {
		invoices, stats := dataprocessing.BuildInvoices(table, dataprocessing.InvoiceFilter{
			Quarter:      state.Params.Quarter,
			Manufacturer: state.Params.Manufacturer,
		})
		state.Invoices = invoices
		audit := state.Audit(domain.SourceInvoices)
		audit.Duplicates = stats.Duplicates
		audit.Excluded = stats.Excluded
		audit.OutOfScope = stats.OutOfScope
	}

	s.logger.InfoContext(ctx, "entities built",
		slog.Int("attendance_days", len(state.Days)),
		slog.Int("work_orders", len(state.Orders)),
		slog.Int("invoices", len(state.Invoices)))
	return nil
}

// ClassifyStage assigns a conformity status to every technician-day.
type ClassifyStage struct {
	BaseStage
	logger *slog.Logger
}

// NewClassifyStage creates the conformity stage.
func NewClassifyStage(logger *slog.Logger) *ClassifyStage {
	return &ClassifyStage{
		BaseStage: NewBaseStage(StageClassify, "Conformity classification", StageCollapse),
		logger:    logger.With(slog.String("stage", StageClassify)),
	}
}

// Execute classifies the attendance days.
func (s *ClassifyStage) Execute(ctx context.Context, state *RunState) error {
	state.Classified = analytics.ClassifyDays(state.Days)
	s.logger.DebugContext(ctx, "days classified", slog.Int("days", len(state.Classified)))
	return nil
}

// AggregateStage computes the KPI families.
type AggregateStage struct {
	BaseStage
	logger *slog.Logger
}

// NewAggregateStage creates the metric aggregation stage.
func NewAggregateStage(logger *slog.Logger) *AggregateStage {
	return &AggregateStage{
		BaseStage: NewBaseStage(StageAggregate, "Metric aggregation", StageClassify),
		logger:    logger.With(slog.String("stage", StageAggregate)),
	}
}

// Execute fills the productivity, conformity, efficiency and lead-time
// sections for the datasets present in the run.
func (s *AggregateStage) Execute(ctx context.Context, state *RunState) error {
	params := state.Params

	if state.Has(domain.SourceAttendance) {
		productivity := analytics.ComputeProductivity(state.Classified, params)
		grid := analytics.BuildConformityGrid(state.Classified, params)
		state.Result.Productivity = &productivity
		state.Result.Conformity = &grid
		s.logger.InfoContext(ctx, "productivity computed",
			slog.Float64("overall", productivity.Overall.Ratio),
			slog.Int("technicians", len(productivity.ByTechnician)))
	}

	if state.Has(domain.SourceWorkOrders) {
		efficiency := analytics.ComputeEfficiency(state.Orders, params)
		state.Result.Efficiency = &efficiency
		s.logger.InfoContext(ctx, "efficiency computed",
			slog.Int("orders", efficiency.Total),
			slog.Int("exploitable", efficiency.Exploitable))
	}

	if state.Has(domain.SourceInvoices) {
		leadTime := analytics.ComputeLeadTime(state.Invoices, params)
		state.Result.LeadTime = &leadTime
		s.logger.InfoContext(ctx, "lead time computed",
			slog.Int("invoices", leadTime.InvoiceCount),
			slog.String("quarter", leadTime.Quarter))
	}

	return nil
}

// CorrelateStage ranks teams by how closely they follow the population.
type CorrelateStage struct {
	BaseStage
	logger *slog.Logger
}

// NewCorrelateStage creates the correlation stage.
func NewCorrelateStage(logger *slog.Logger) *CorrelateStage {
	return &CorrelateStage{
		BaseStage: NewBaseStage(StageCorrelate, "Correlation", StageClassify),
		logger:    logger.With(slog.String("stage", StageCorrelate)),
	}
}

// Execute correlates every team over the full population, ignoring the team
// and month selections.
func (s *CorrelateStage) Execute(ctx context.Context, state *RunState) error {
	if !state.Has(domain.SourceAttendance) {
		return nil
	}
	report := analytics.ComputeCorrelation(state.Classified)
	state.Result.Correlation = &report
	s.logger.InfoContext(ctx, "correlation computed",
		slog.Int("teams", len(report.Teams)),
		slog.String("leader", report.Leader))
	return nil
}
