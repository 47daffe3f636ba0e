package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inventory-balance/internal/balance"
	"github.com/andresuchdata/inventory-balance/internal/cache"
	"github.com/andresuchdata/inventory-balance/internal/config"
	"github.com/andresuchdata/inventory-balance/internal/domain"
	"github.com/andresuchdata/inventory-balance/internal/export"
	"github.com/andresuchdata/inventory-balance/internal/ingest"
	"github.com/andresuchdata/inventory-balance/internal/metrics"
	"github.com/andresuchdata/inventory-balance/internal/pipeline"
	"github.com/andresuchdata/inventory-balance/internal/snapshot"
	"github.com/andresuchdata/inventory-balance/internal/storage"
)

// Notices shown instead of a table when a result is empty by choice or by data.
const (
	NoticeOriginRequired  = "select a specific origin warehouse to compute suggestions"
	NoticeNoDestinations  = "select at least one destination warehouse"
	NoticeNoSuggestions   = "no transfer suggestions match the current criteria"
	NoticeNoReverse       = "no A/B destinations found for the origin's C / no-movement stock"
	NoticeNoSlowStock     = "the origin has no C or no-movement SKUs with stock"
	NoticeNoSearchResults = "no items match the search"
)

// BalanceService is the per-process session: configuration, the snapshot
// source and the caches are fixed at construction, and every request is a
// pure computation over the memoized dataset.
type BalanceService struct {
	cfg        config.BalanceConfig
	exportCfg  config.ExportConfig
	policy     balance.Policy
	classifier balance.Classifier
	schema     balance.SchemaConfig

	source    snapshot.Source
	datasets  *cache.DatasetCache
	reports   cache.ReportCache
	metrics   *metrics.Recorder
	publisher storage.ObjectStorage

	warmWorkers int
}

// Option customizes a BalanceService.
type Option func(*BalanceService)

// WithReportCache sets the computed report cache.
func WithReportCache(rc cache.ReportCache) Option {
	return func(s *BalanceService) {
		if rc != nil {
			s.reports = rc
		}
	}
}

// WithMetrics sets the prometheus recorder.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *BalanceService) { s.metrics = rec }
}

// WithPublisher enables uploading exports to object storage.
func WithPublisher(store storage.ObjectStorage) Option {
	return func(s *BalanceService) { s.publisher = store }
}

func NewBalanceService(cfg *config.Config, source snapshot.Source, opts ...Option) (*BalanceService, error) {
	policy, err := balance.ParsePolicy(cfg.Balance.Policy)
	if err != nil {
		return nil, err
	}

	s := &BalanceService{
		cfg:        cfg.Balance,
		exportCfg:  cfg.Export,
		policy:     policy,
		classifier: balance.NewClassifier(cfg.Balance.NoMovementMarker),
		schema: balance.SchemaConfig{
			CodeColumn:        cfg.Balance.CodeColumn,
			KeyColumn:         cfg.Balance.KeyColumn,
			DescriptionColumn: cfg.Balance.DescriptionColumn,
			ClassSuffix:       cfg.Balance.ClassSuffix,
		},
		source:      source,
		reports:     cache.NewNoopReportCache(),
		warmWorkers: cfg.Cache.WarmWorkers,
	}
	if s.cfg.ThresholdMin <= 0 {
		s.cfg.ThresholdMin = balance.MinThreshold
	}
	if s.cfg.ThresholdMax < s.cfg.ThresholdMin {
		s.cfg.ThresholdMax = balance.MaxThreshold
	}
	if s.cfg.Threshold == 0 {
		s.cfg.Threshold = balance.DefaultThreshold
	}
	if s.cfg.ViewLimit == 0 {
		s.cfg.ViewLimit = balance.DefaultViewLimit
	}
	if s.exportCfg.Encoding == "" {
		s.exportCfg.Encoding = export.DefaultEncoding
	}
	for _, opt := range opts {
		opt(s)
	}

	s.datasets = cache.NewDatasetCache(s.load)
	return s, nil
}

// Policy returns the configured suggestion policy.
func (s *BalanceService) Policy() balance.Policy {
	return s.policy
}

// ExportEncoding returns the configured export charset.
func (s *BalanceService) ExportEncoding() string {
	return s.exportCfg.Encoding
}

func (s *BalanceService) load(ctx context.Context, path string) (*balance.Dataset, error) {
	start := time.Now()
	ds, err := ingest.Load(ctx, path, ingest.Options{Encoding: s.cfg.Encoding, Schema: s.schema})
	s.metrics.ObserveLoad(time.Since(start), recordCount(ds), err)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("path", path).
		Int("records", len(ds.Records)).
		Int("warehouses", len(ds.Warehouses)).
		Dur("duration", time.Since(start)).
		Msg("balance: snapshot loaded")
	return ds, nil
}

func recordCount(ds *balance.Dataset) int {
	if ds == nil {
		return 0
	}
	return len(ds.Records)
}

// Dataset returns the current snapshot, reading it only when the source changed.
func (s *BalanceService) Dataset(ctx context.Context) (*balance.Dataset, error) {
	path, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", domain.ErrLoad, s.source.Describe(), err)
	}

	ds, hit, err := s.datasets.Get(ctx, path)
	s.metrics.ObserveCache("dataset", hit)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// Reload forgets the pinned snapshot, the memoized dataset and every cached
// report, then reads the snapshot again.
func (s *BalanceService) Reload(ctx context.Context) (*domain.WarehouseList, error) {
	if r, ok := s.source.(snapshot.Refresher); ok {
		r.Refresh()
	}
	s.datasets.Invalidate("")
	if err := s.reports.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("balance: report cache invalidate failed")
	}

	list, err := s.Warehouses(ctx)
	if err != nil {
		return nil, err
	}
	if s.WarmEnabled() {
		if _, err := s.Warm(ctx); err != nil {
			log.Warn().Err(err).Msg("balance: cache warm-up incomplete")
		}
	}
	return list, nil
}

// WarmEnabled reports whether warm-up workers are configured and the report
// cache keeps what they compute.
func (s *BalanceService) WarmEnabled() bool {
	return s.warmWorkers > 0 && cache.Retains(s.reports)
}

// Warm precomputes the default-destination reports of every classified
// origin so the first requests hit the report cache. Without a retaining
// report cache there is nothing to fill and Warm does nothing.
func (s *BalanceService) Warm(ctx context.Context) (pipeline.Result, error) {
	if !cache.Retains(s.reports) {
		log.Debug().Msg("balance: no report cache, warm-up skipped")
		return pipeline.Result{}, nil
	}

	ds, err := s.Dataset(ctx)
	if err != nil {
		return pipeline.Result{}, err
	}

	var jobs []pipeline.Job
	for _, w := range ds.Warehouses {
		if !w.HasClass() {
			continue
		}
		r, err := s.resolve(ds, domain.BalanceQuery{Origin: w.Name})
		if err != nil {
			return pipeline.Result{}, err
		}
		if len(r.destinations) == 0 {
			continue
		}
		for _, kind := range []domain.ReportKind{domain.ReportTransfers, domain.ReportCappedTransfers, domain.ReportReverse} {
			jobs = append(jobs, pipeline.Job{
				Name: string(kind) + ":" + w.Name,
				Run: func(ctx context.Context) error {
					s.computeSuggestions(ctx, kind, ds, r)
					return ctx.Err()
				},
			})
		}
		jobs = append(jobs, pipeline.Job{
			Name: string(domain.ReportSlowStock) + ":" + w.Name,
			Run: func(ctx context.Context) error {
				s.computeSlowStock(ctx, ds, r)
				return ctx.Err()
			},
		})
	}

	res := pipeline.NewPool(s.warmWorkers).Run(ctx, jobs)
	log.Info().
		Int("completed", res.Completed).
		Int("failed", res.Failed).
		Dur("duration", res.Duration).
		Msg("balance: report cache warmed")
	return res, res.Err
}

// Warehouses lists the warehouses of the current snapshot.
func (s *BalanceService) Warehouses(ctx context.Context) (*domain.WarehouseList, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.WarehouseList{
		Warehouses:    ds.Warehouses,
		DefaultOrigin: s.defaultOrigin(ds),
		Source:        ds.Source,
		Records:       len(ds.Records),
	}, nil
}

func (s *BalanceService) defaultOrigin(ds *balance.Dataset) string {
	if s.cfg.DefaultOrigin != "" {
		if _, ok := ds.Warehouse(s.cfg.DefaultOrigin); ok {
			return s.cfg.DefaultOrigin
		}
	}
	return ds.DefaultOriginName()
}

// resolvedQuery is a BalanceQuery validated against a dataset.
type resolvedQuery struct {
	origin       string
	all          bool
	destinations []string
	threshold    int
	search       string
}

func isAllOrigin(origin string) bool {
	return strings.EqualFold(origin, balance.AllWarehouses) || strings.EqualFold(origin, "all")
}

func (s *BalanceService) resolve(ds *balance.Dataset, q domain.BalanceQuery) (resolvedQuery, error) {
	r := resolvedQuery{search: strings.TrimSpace(q.Search)}

	origin := strings.TrimSpace(q.Origin)
	switch {
	case origin == "":
		r.origin = s.defaultOrigin(ds)
	case isAllOrigin(origin):
		r.origin = balance.AllWarehouses
		r.all = true
	default:
		if _, ok := ds.Warehouse(origin); !ok {
			return r, fmt.Errorf("%w: %s", domain.ErrUnknownWarehouse, origin)
		}
		r.origin = origin
	}

	if q.Destinations == nil {
		if r.all {
			r.destinations = ds.WarehouseNames()
		} else {
			r.destinations = ds.DestinationOptions(r.origin)
		}
	} else {
		r.destinations = make([]string, 0, len(q.Destinations))
		seen := make(map[string]bool, len(q.Destinations))
		for _, name := range q.Destinations {
			name = strings.TrimSpace(name)
			if name == "" || name == r.origin || seen[name] {
				continue
			}
			if _, ok := ds.Warehouse(name); !ok {
				continue
			}
			seen[name] = true
			r.destinations = append(r.destinations, name)
		}
	}

	r.threshold = s.cfg.Threshold
	if q.Threshold != 0 {
		r.threshold = q.Threshold
	}
	if r.threshold < s.cfg.ThresholdMin || r.threshold > s.cfg.ThresholdMax {
		return r, fmt.Errorf("%w: %d not in [%d, %d]", domain.ErrInvalidThreshold, r.threshold, s.cfg.ThresholdMin, s.cfg.ThresholdMax)
	}
	return r, nil
}

func (r resolvedQuery) params(cls balance.Classifier) balance.SuggestParams {
	return balance.SuggestParams{
		Origin:       r.origin,
		Destinations: r.destinations,
		Threshold:    r.threshold,
		Classifier:   cls,
	}
}

func datasetVersion(ds *balance.Dataset) string {
	return fmt.Sprintf("%s@%d:%d", ds.Source.Path, ds.Source.ModTime.UnixNano(), ds.Source.Size)
}

// cached returns the report stored under key or computes and stores it.
// Cache failures are logged and never fail the request.
func cached[T any](ctx context.Context, s *BalanceService, key cache.ReportKey, compute func() T) T {
	var out T
	hit, err := s.reports.Get(ctx, key, &out)
	if err != nil {
		log.Warn().Err(err).Str("report", key.Report).Msg("balance: report cache get failed")
	}
	s.metrics.ObserveCache("report", hit)
	if hit {
		return out
	}

	out = compute()
	if err := s.reports.Set(ctx, key, out); err != nil {
		log.Warn().Err(err).Str("report", key.Report).Msg("balance: report cache set failed")
	}
	return out
}

func (s *BalanceService) reportKey(ds *balance.Dataset, report string, r resolvedQuery) cache.ReportKey {
	return cache.ReportKey{
		Dataset:      datasetVersion(ds),
		Report:       report,
		Origin:       r.origin,
		Destinations: r.destinations,
		Threshold:    r.threshold,
		Policy:       s.policy.String(),
		Query:        r.search,
	}
}

// Overview computes the KPIs for the origin, or for every warehouse summed
// when the origin is "Todos".
func (s *BalanceService) Overview(ctx context.Context, q domain.BalanceQuery) (*domain.Overview, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.resolve(ds, q)
	if err != nil {
		return nil, err
	}

	opts := balance.KPIOptions{Policy: s.policy, Threshold: r.threshold, Classifier: s.classifier}
	kpi := cached(ctx, s, s.reportKey(ds, "kpi", resolvedQuery{origin: r.origin, threshold: r.threshold}), func() balance.KPI {
		s.metrics.ObserveReport("kpi", 1)
		return balance.ComputeKPI(ds, r.origin, opts)
	})

	return &domain.Overview{Policy: s.policy.String(), KPI: kpi}, nil
}

// Browse searches the snapshot. Only the first ViewLimit rows are laid out.
func (s *BalanceService) Browse(ctx context.Context, q domain.BalanceQuery) (*domain.BrowseResult, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	matches := balance.Search(ds, q.Search)
	window := balance.Limit(matches, s.cfg.ViewLimit)
	s.metrics.ObserveReport(string(domain.ReportBrowse), len(matches))

	res := &domain.BrowseResult{
		Query:      strings.TrimSpace(q.Search),
		Warehouses: ds.Warehouses,
		View: balance.Window[balance.BrowseRow]{
			Rows:      balance.BrowseRows(ds, window.Rows, s.classifier),
			Total:     window.Total,
			Truncated: window.Truncated,
		},
	}
	if len(matches) == 0 {
		res.Notice = NoticeNoSearchResults
	}
	return res, nil
}

// Transfers runs the forward report selected by q.Variant, or by the
// configured policy when no variant is given.
func (s *BalanceService) Transfers(ctx context.Context, q domain.BalanceQuery) (*domain.SuggestionResult, error) {
	kind, err := s.forwardKind(q.Variant)
	if err != nil {
		return nil, err
	}
	return s.suggestions(ctx, kind, q)
}

// UncappedTransfers runs the uncapped forward report.
func (s *BalanceService) UncappedTransfers(ctx context.Context, q domain.BalanceQuery) (*domain.SuggestionResult, error) {
	return s.suggestions(ctx, domain.ReportTransfers, q)
}

// CappedTransfers runs the capped forward report.
func (s *BalanceService) CappedTransfers(ctx context.Context, q domain.BalanceQuery) (*domain.SuggestionResult, error) {
	return s.suggestions(ctx, domain.ReportCappedTransfers, q)
}

// Reverse runs the reverse report.
func (s *BalanceService) Reverse(ctx context.Context, q domain.BalanceQuery) (*domain.SuggestionResult, error) {
	return s.suggestions(ctx, domain.ReportReverse, q)
}

func (s *BalanceService) forwardKind(variant string) (domain.ReportKind, error) {
	switch strings.ToLower(strings.TrimSpace(variant)) {
	case "":
		if s.policy == balance.PolicyCapped {
			return domain.ReportCappedTransfers, nil
		}
		return domain.ReportTransfers, nil
	case "uncapped":
		return domain.ReportTransfers, nil
	case "capped":
		return domain.ReportCappedTransfers, nil
	}
	return "", fmt.Errorf("%w: variant %q", domain.ErrUnknownReport, variant)
}

func (s *BalanceService) computeSuggestions(ctx context.Context, kind domain.ReportKind, ds *balance.Dataset, r resolvedQuery) []balance.Suggestion {
	key := s.reportKey(ds, string(kind), r)
	if kind != domain.ReportCappedTransfers {
		key.Threshold = 0
	}
	return cached(ctx, s, key, func() []balance.Suggestion {
		p := r.params(s.classifier)
		var rows []balance.Suggestion
		switch kind {
		case domain.ReportCappedTransfers:
			rows = balance.CappedTransferSuggestions(ds, p)
		case domain.ReportReverse:
			rows = balance.ReverseSuggestions(ds, p)
		default:
			rows = balance.TransferSuggestions(ds, p)
		}
		s.metrics.ObserveReport(string(kind), len(rows))
		return rows
	})
}

func (s *BalanceService) suggestions(ctx context.Context, kind domain.ReportKind, q domain.BalanceQuery) (*domain.SuggestionResult, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.resolve(ds, q)
	if err != nil {
		return nil, err
	}

	res := &domain.SuggestionResult{
		Report:       kind,
		Origin:       r.origin,
		Destinations: r.destinations,
	}
	if kind == domain.ReportCappedTransfers {
		res.Threshold = r.threshold
	}

	switch {
	case r.all:
		res.View = balance.Limit([]balance.Suggestion{}, 0)
		res.Notice = NoticeOriginRequired
		return res, nil
	case len(r.destinations) == 0:
		res.View = balance.Limit([]balance.Suggestion{}, 0)
		res.Notice = NoticeNoDestinations
		return res, nil
	}

	rows := s.computeSuggestions(ctx, kind, ds, r)
	res.View = balance.Limit(rows, s.cfg.ViewLimit)
	if len(rows) == 0 {
		if kind == domain.ReportReverse {
			res.Notice = NoticeNoReverse
		} else {
			res.Notice = NoticeNoSuggestions
		}
	}
	return res, nil
}

func (s *BalanceService) computeSlowStock(ctx context.Context, ds *balance.Dataset, r resolvedQuery) []balance.StockLine {
	key := s.reportKey(ds, string(domain.ReportSlowStock), resolvedQuery{origin: r.origin})
	return cached(ctx, s, key, func() []balance.StockLine {
		lines := balance.SlowStock(ds, r.params(s.classifier))
		s.metrics.ObserveReport(string(domain.ReportSlowStock), len(lines))
		return lines
	})
}

// SlowStock lists the origin's C and no-movement SKUs with stock.
func (s *BalanceService) SlowStock(ctx context.Context, q domain.BalanceQuery) (*domain.SlowStockResult, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.resolve(ds, q)
	if err != nil {
		return nil, err
	}

	res := &domain.SlowStockResult{Origin: r.origin}
	if r.all {
		res.View = balance.Limit([]balance.StockLine{}, 0)
		res.Notice = NoticeOriginRequired
		return res, nil
	}

	lines := s.computeSlowStock(ctx, ds, r)
	res.View = balance.Limit(lines, s.cfg.ViewLimit)
	if len(lines) == 0 {
		res.Notice = NoticeNoSlowStock
	}
	return res, nil
}

// Export builds the full, untruncated table of a report and its file name.
func (s *BalanceService) Export(ctx context.Context, kind domain.ReportKind, q domain.BalanceQuery) (string, export.Table, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return "", export.Table{}, err
	}

	if kind == domain.ReportBrowse {
		return kind.FileName(""), export.BrowseTable(ds, balance.Search(ds, q.Search), s.schema), nil
	}

	r, err := s.resolve(ds, q)
	if err != nil {
		return "", export.Table{}, err
	}
	if r.all {
		return "", export.Table{}, domain.ErrOriginRequired
	}

	switch kind {
	case domain.ReportSlowStock:
		return kind.FileName(r.origin), export.SlowStockTable(s.computeSlowStock(ctx, ds, r)), nil
	case domain.ReportTransfers, domain.ReportReverse, domain.ReportCappedTransfers:
		rows := []balance.Suggestion{}
		if len(r.destinations) > 0 {
			rows = s.computeSuggestions(ctx, kind, ds, r)
		}
		return kind.FileName(r.origin), export.SuggestionTable(rows, kind == domain.ReportCappedTransfers), nil
	}
	return "", export.Table{}, fmt.Errorf("%w: %s", domain.ErrUnknownReport, kind)
}

// Publish exports a report and uploads it under the configured prefix.
// It returns the object key.
func (s *BalanceService) Publish(ctx context.Context, kind domain.ReportKind, q domain.BalanceQuery) (string, error) {
	if s.publisher == nil {
		return "", fmt.Errorf("export publishing is not configured")
	}

	name, table, err := s.Export(ctx, kind, q)
	if err != nil {
		return "", err
	}
	data, err := export.Bytes(table, s.exportCfg.Encoding)
	if err != nil {
		return "", err
	}

	key := s.exportCfg.Prefix + name
	if err := s.publisher.UploadObject(ctx, key, data, "text/csv"); err != nil {
		return "", err
	}
	log.Info().Str("key", key).Int("rows", len(table.Rows)).Msg("balance: export published")
	return key, nil
}
