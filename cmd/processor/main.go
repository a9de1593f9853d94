package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tafa1618/Copilot-Process/internal/app"
	"github.com/tafa1618/Copilot-Process/internal/config"
	"github.com/tafa1618/Copilot-Process/internal/exporter"
	"github.com/tafa1618/Copilot-Process/internal/files"
	"github.com/tafa1618/Copilot-Process/internal/infrastructure"
	"github.com/tafa1618/Copilot-Process/internal/services"
	"github.com/tafa1618/Copilot-Process/internal/validation"
	"github.com/tafa1618/Copilot-Process/pkg/contracts"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// options holds the parsed command line.
type options struct {
	files        map[domain.SourceKind]string
	inbox        string
	out          string
	format       string
	month        string
	quarter      string
	teams        string
	manufacturer string
	statuses     string
	orderTypes   string
	watch        bool
	version      bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.SetOutput(stderr)

	attendance := fs.String("attendance", "", "attendance (timesheet) export .xlsx")
	workOrders := fs.String("workorders", "", "work-order export .xlsx")
	status := fs.String("status", "", "order-status export .xlsx")
	invoices := fs.String("invoices", "", "invoice export .xlsx")

	opts := &options{}
	fs.StringVar(&opts.inbox, "inbox", "", "directory scanned for exports when no file flag is given (default from config)")
	fs.StringVar(&opts.out, "out", "", "report output directory (default from config)")
	fs.StringVar(&opts.format, "format", "xlsx", "report format: csv or xlsx")
	fs.StringVar(&opts.month, "month", "", "reporting month YYYY-MM")
	fs.StringVar(&opts.quarter, "quarter", "", "reporting quarter YYYY-Qn for the invoice filter")
	fs.StringVar(&opts.teams, "team", "", "comma separated team filter")
	fs.StringVar(&opts.manufacturer, "manufacturer", "", "invoice manufacturer filter (default from config)")
	fs.StringVar(&opts.statuses, "statuses", "", "comma separated work-order statuses for efficiency")
	fs.StringVar(&opts.orderTypes, "order-types", "", "comma separated work-order types for efficiency")
	fs.BoolVar(&opts.watch, "watch", false, "re-run whenever an export in the inbox changes")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts.files = make(map[domain.SourceKind]string)
	for kind, path := range map[domain.SourceKind]string{
		domain.SourceAttendance:  *attendance,
		domain.SourceWorkOrders:  *workOrders,
		domain.SourceOrderStatus: *status,
		domain.SourceInvoices:    *invoices,
	} {
		if path != "" {
			opts.files[kind] = path
		}
	}

	if opts.watch && len(opts.files) > 0 {
		return nil, errors.New("-watch works on the inbox and cannot be combined with file flags")
	}
	return opts, nil
}

// params builds the run parameters. Config supplies the manufacturer when
// the flag is absent.
func (o *options) params(cfg *config.Config) (domain.AnalysisParams, error) {
	quarter, err := domain.ParseQuarter(o.quarter)
	if err != nil {
		return domain.AnalysisParams{}, err
	}
	manufacturer := o.manufacturer
	if manufacturer == "" {
		manufacturer = cfg.Analysis.Manufacturer
	}
	return domain.AnalysisParams{
		Teams:        splitList(o.teams),
		Month:        o.month,
		Quarter:      quarter,
		Manufacturer: manufacturer,
		Statuses:     splitList(o.statuses),
		OrderTypes:   splitList(o.orderTypes),
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// processor runs the pipeline over one set of exports and writes reports.
type processor struct {
	service   *services.AnalysisService
	discovery *files.Discovery
	reports   *exporter.ReportExporter
	validator *validation.FileValidator
	format    exporter.Format
	params    domain.AnalysisParams
	explicit  map[domain.SourceKind]string
	inbox     string
	stdout    io.Writer
	logger    *slog.Logger
}

func newProcessor(cfg *config.Config, opts *options, stdout io.Writer, logger *slog.Logger) (*processor, error) {
	format, err := exporter.ParseFormat(opts.format)
	if err != nil {
		return nil, err
	}
	params, err := opts.params(cfg)
	if err != nil {
		return nil, err
	}

	catalog, err := config.LoadCatalog(cfg.Analysis.ColumnCatalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load column catalog: %w", err)
	}

	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry)
	otelCfg.MetricExporter = "none"
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	service, err := app.BuildAnalysisService(cfg.Analysis, providers, logger)
	if err != nil {
		return nil, err
	}

	inbox := opts.inbox
	if inbox == "" {
		inbox = cfg.Analysis.InboxDir
	}
	out := opts.out
	if out == "" {
		out = cfg.Analysis.OutputDir
	}

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateOutputDirectory(out); err != nil {
		return nil, err
	}
	explicit := make(map[string]string, len(opts.files))
	for kind, path := range opts.files {
		explicit[string(kind)] = path
	}
	if err := validator.ValidateExports(explicit); err != nil {
		return nil, err
	}

	return &processor{
		service:   service,
		discovery: files.NewDiscovery(catalog, logger),
		reports:   exporter.NewReportExporter(out, logger),
		validator: validator,
		format:    format,
		params:    params,
		explicit:  opts.files,
		inbox:     inbox,
		stdout:    stdout,
		logger:    logger,
	}, nil
}

// inputs returns the explicit files, or the newest export of each kind in
// the inbox.
func (p *processor) inputs() (map[domain.SourceKind]string, error) {
	if len(p.explicit) > 0 {
		return p.explicit, nil
	}
	if err := p.validator.ValidateInbox(p.inbox); err != nil {
		return nil, err
	}
	inbox, unknown, err := p.discovery.Scan(p.inbox)
	if err != nil {
		return nil, err
	}
	for _, f := range unknown {
		p.logger.Warn("export not recognised, skipped", slog.String("file", f.Name))
	}
	return inbox.Paths(), nil
}

// runOnce is also the watcher callback.
func (p *processor) runOnce(ctx context.Context) error {
	inputs, err := p.inputs()
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("%w in %s", services.ErrNoFilesFound, p.inbox)
	}

	result, err := p.service.AnalyzeFiles(ctx, inputs, p.params)
	if err != nil {
		return err
	}

	paths, err := p.reports.Export(result, p.format)
	if err != nil {
		return err
	}

	p.summarize(result, paths)
	return nil
}

func (p *processor) summarize(result *domain.AnalysisResult, paths []string) {
	fmt.Fprintf(p.stdout, "Run %s\n", result.RunID)
	if pr := result.Productivity; pr != nil {
		fmt.Fprintf(p.stdout, "  Productivity: %.2f%% (%.1f / %.1f h)\n", pr.Overall.Ratio*100, pr.Overall.Billable, pr.Overall.Worked)
	}
	if e := result.Efficiency; e != nil && e.Mean != nil {
		fmt.Fprintf(p.stdout, "  Efficiency:   %.2f%% over %d orders\n", *e.Mean*100, e.Exploitable)
	}
	if l := result.LeadTime; l != nil && l.Mean != nil {
		fmt.Fprintf(p.stdout, "  LLTI:         %.1f days mean over %d invoices\n", *l.Mean, l.InvoiceCount)
	}
	if c := result.Correlation; c != nil && c.Leader != "" {
		fmt.Fprintf(p.stdout, "  Leader team:  %s\n", c.Leader)
	}
	for _, f := range result.Failures {
		fmt.Fprintf(p.stdout, "  Rejected %s: %s\n", f.Source, f.Message)
	}
	for _, path := range paths {
		fmt.Fprintf(p.stdout, "  Wrote %s\n", path)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	p, err := newProcessor(cfg, opts, stdout, logger)
	if err != nil {
		return err
	}

	logger.Info("Starting KPI processing",
		slog.String("inbox", p.inbox),
		slog.Int("explicit_files", len(opts.files)),
		slog.String("format", string(p.format)),
		slog.Bool("watch", opts.watch))

	if err := p.runOnce(ctx); err != nil {
		if !opts.watch {
			return err
		}
		logger.Error("Initial run failed, waiting for inbox changes", slog.String("error", err.Error()))
	}

	if !opts.watch {
		return nil
	}
	return files.NewWatcher(p.inbox, cfg.Analysis.WatchDebounce, p.runOnce, logger).Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("Processing failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}
