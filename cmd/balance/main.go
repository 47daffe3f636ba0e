package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/inventory-balance/internal/config"
	"github.com/andresuchdata/inventory-balance/internal/domain"
	"github.com/andresuchdata/inventory-balance/internal/export"
	"github.com/andresuchdata/inventory-balance/internal/metrics"
	"github.com/andresuchdata/inventory-balance/internal/service"
	"github.com/andresuchdata/inventory-balance/internal/snapshot"
	"github.com/andresuchdata/inventory-balance/pkg/logger"
)

type runner struct {
	cfg *config.Config
	svc *service.BalanceService
	out io.Writer
}

func newOriginFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "origin",
		Aliases: []string{"o"},
		Usage:   "Origin warehouse (\"Todos\" for every warehouse)",
	}
}

func newDestinationsFlag() *cli.StringSliceFlag {
	return &cli.StringSliceFlag{
		Name:    "dest",
		Aliases: []string{"d"},
		Usage:   "Destination warehouse, repeatable (default: every warehouse except the origin)",
	}
}

func newThresholdFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:    "threshold",
		Aliases: []string{"t"},
		Usage:   "Target stock for the capped report (default from BALANCE_THRESHOLD)",
	}
}

// query maps the shared flags onto a BalanceQuery. An unset --dest keeps
// the default destinations.
func query(c *cli.Context) domain.BalanceQuery {
	q := domain.BalanceQuery{
		Origin:    c.String("origin"),
		Threshold: c.Int("threshold"),
		Variant:   c.String("variant"),
		Search:    c.String("query"),
	}
	if c.IsSet("dest") {
		q.Destinations = c.StringSlice("dest")
	}
	return q
}

// setup loads configuration, applies global overrides and builds the service.
func (r *runner) setup(c *cli.Context) error {
	r.cfg = config.Load()
	if lvl := c.String("log-level"); lvl != "" {
		r.cfg.Log.Level = lvl
	}
	logger.SetLevel(r.cfg.Log.Level)

	if file := c.String("file"); file != "" {
		r.cfg.Balance.File = file
		r.cfg.Snapshot.Source = "local"
	}
	if enc := c.String("encoding"); enc != "" {
		r.cfg.Balance.Encoding = enc
	}
	if policy := c.String("policy"); policy != "" {
		r.cfg.Balance.Policy = policy
	}

	svc, err := service.NewFromConfig(c.Context, r.cfg, metrics.NewRecorder())
	if err != nil {
		return err
	}
	r.svc = svc
	return nil
}

func (r *runner) warehouses(c *cli.Context) error {
	list, err := r.svc.Warehouses(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprint(r.out, renderWarehouses(list))
	return nil
}

func (r *runner) kpis(c *cli.Context) error {
	ov, err := r.svc.Overview(c.Context, query(c))
	if err != nil {
		return err
	}
	fmt.Fprint(r.out, renderOverview(ov))
	return nil
}

func (r *runner) browse(c *cli.Context) error {
	res, err := r.svc.Browse(c.Context, query(c))
	if err != nil {
		return err
	}
	fmt.Fprint(r.out, renderBrowse(res))
	return nil
}

func (r *runner) suggest(c *cli.Context) error {
	res, err := r.svc.Transfers(c.Context, query(c))
	if err != nil {
		return err
	}
	fmt.Fprint(r.out, renderSuggestions(res))
	return nil
}

func (r *runner) reverse(c *cli.Context) error {
	res, err := r.svc.Reverse(c.Context, query(c))
	if err != nil {
		return err
	}
	fmt.Fprint(r.out, renderSuggestions(res))
	return nil
}

func (r *runner) slowStock(c *cli.Context) error {
	res, err := r.svc.SlowStock(c.Context, query(c))
	if err != nil {
		return err
	}
	fmt.Fprint(r.out, renderSlowStock(res))
	return nil
}

func (r *runner) export(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: balance export <browse|transfers|capped_transfers|reverse|slow_stock>", 2)
	}
	kind, err := domain.ParseReportKind(c.Args().First())
	if err != nil {
		return err
	}
	q := query(c)

	if c.Bool("publish") {
		key, err := r.svc.Publish(c.Context, kind, q)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "published %s\n", key)
		return nil
	}

	name, table, err := r.svc.Export(c.Context, kind, q)
	if err != nil {
		return err
	}

	dir := c.String("out")
	if dir == "" {
		dir = r.cfg.Export.Dir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	enc := c.String("export-encoding")
	if enc == "" {
		enc = r.svc.ExportEncoding()
	}
	if err := export.WriteCSV(f, table, enc); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "wrote %s (%d rows)\n", path, len(table.Rows))
	return nil
}

func (r *runner) fetch(c *cli.Context) error {
	source, err := snapshot.New(c.Context, r.cfg)
	if err != nil {
		return err
	}
	path, err := source.Fetch(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s -> %s\n", source.Describe(), path)
	return nil
}

func newApp(r *runner) *cli.App {
	queryFlags := []cli.Flag{newOriginFlag(), newDestinationsFlag(), newThresholdFlag()}

	return &cli.App{
		Name:  "balance",
		Usage: "Inventory balance KPIs and transfer suggestions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Local balance snapshot (csv or xlsx); overrides the configured source",
				EnvVars: []string{"BALANCE_FILE"},
			},
			&cli.StringFlag{
				Name:  "encoding",
				Usage: "Snapshot text encoding (latin-1, windows-1252, utf-8)",
			},
			&cli.StringFlag{
				Name:  "policy",
				Usage: "Suggestion policy: uncapped or capped",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Before: r.setup,
		Commands: []*cli.Command{
			{
				Name:   "warehouses",
				Usage:  "List the warehouses found in the snapshot",
				Action: r.warehouses,
			},
			{
				Name:   "kpis",
				Usage:  "Show the KPIs of an origin or of every warehouse",
				Flags:  queryFlags,
				Action: r.kpis,
			},
			{
				Name:  "browse",
				Usage: "Search products by key, description or code",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Case-insensitive search text"},
				},
				Action: r.browse,
			},
			{
				Name:  "suggest",
				Usage: "Suggest transfers of slow stock toward an A/B origin",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "variant", Usage: "uncapped or capped (default from policy)"},
				}, queryFlags...),
				Action: r.suggest,
			},
			{
				Name:   "reverse",
				Usage:  "Suggest moving the origin's slow stock to A/B destinations",
				Flags:  queryFlags,
				Action: r.reverse,
			},
			{
				Name:   "slow-stock",
				Usage:  "List the origin's C and no-movement SKUs with stock",
				Flags:  []cli.Flag{newOriginFlag()},
				Action: r.slowStock,
			},
			{
				Name:      "export",
				Usage:     "Write a full report to CSV",
				ArgsUsage: "<report>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search text for the browse report"},
					&cli.StringFlag{Name: "out", Usage: "Output directory (default EXPORT_DIR)"},
					&cli.StringFlag{Name: "export-encoding", Usage: "utf-8-sig, utf-8 or latin-1"},
					&cli.BoolFlag{Name: "publish", Usage: "Upload to the configured bucket instead of writing locally"},
				}, queryFlags...),
				Action: r.export,
			},
			{
				Name:   "fetch",
				Usage:  "Download the snapshot from the configured source",
				Action: r.fetch,
			},
		},
	}
}

func main() {
	app := newApp(&runner{out: os.Stdout})
	if err := app.Run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("balance failed")
		os.Exit(1)
	}
}
