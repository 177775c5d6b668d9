package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hackathon-sync/internal/app"
	"hackathon-sync/internal/merge"
	"hackathon-sync/internal/model"
	"hackathon-sync/internal/normalize"
	"hackathon-sync/internal/observability"
	"hackathon-sync/internal/storage"
)

type runOptions struct {
	root    *rootOptions
	refresh bool
	sources []string
	dryRun  bool
	format  string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{root: root}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Extract all enabled sources and merge them into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "Replace each source's records instead of inserting new ones")
	cmd.Flags().StringSliceVar(&opts.sources, "source", nil, "Sources to run (mlh, devpost, devfolio); default: enabled in config")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Merge into an in-memory store instead of the configured one")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Report format: text or json")

	return cmd
}

func (o *runOptions) run(cmd *cobra.Command) error {
	format := strings.ToLower(o.format)
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", o.format)
	}

	cfg, logger, err := o.root.load()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Close()
	}()

	policy, err := merge.ParsePolicy(cfg.Merge.Mode, cfg.Merge.OnConflict)
	if err != nil {
		return err
	}
	if o.refresh {
		policy.Mode = merge.ModeRefresh
	}

	enabled, err := selectSources(o.sources, cfg.Sources.Enabled())
	if err != nil {
		return err
	}
	profiles, err := app.Profiles(enabled, cfg.Profile)
	if err != nil {
		return err
	}

	ctx, cancel := app.GracefulShutdown(cmd.Context(), logger, 0)
	defer cancel()

	storageCfg := cfg.Storage
	if o.dryRun {
		storageCfg.Driver = "memory"
	}
	repo, err := app.OpenRepository(ctx, storageCfg, logger)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer closeRepo(repo, logger)

	renderer, err := app.NewRenderer(cfg, logger)
	if err != nil {
		return fmt.Errorf("starting renderer: %w", err)
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			logger.Warn("Failed to close renderer", "error", err.Error())
		}
	}()

	orch := app.NewOrchestrator(
		renderer,
		merge.NewEngine(repo, logger),
		normalize.NewDateParser(),
		observability.NewMetrics(),
		logger,
		app.Options{
			Policy:      policy,
			MaxParallel: cfg.Merge.MaxParallelSources,
			MetricsPath: cfg.Observability.MetricsPath,
		},
	)
	report := orch.Run(ctx, profiles)

	out := cmd.OutOrStdout()
	if format == "json" {
		err = report.WriteJSON(out)
	} else {
		err = report.WriteText(out)
	}
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if report.AllFailed() {
		return ErrAllSourcesFailed
	}
	return nil
}

// selectSources: источники из флага --source, иначе включённые в конфиге.
func selectSources(requested []string, enabled []model.Source) ([]model.Source, error) {
	if len(requested) == 0 {
		if len(enabled) == 0 {
			return nil, fmt.Errorf("no sources enabled")
		}
		return enabled, nil
	}

	seen := make(map[model.Source]bool)
	var out []model.Source
	for _, raw := range requested {
		src, err := model.ParseSource(raw)
		if err != nil {
			return nil, err
		}
		if !seen[src] {
			seen[src] = true
			out = append(out, src)
		}
	}
	return out, nil
}

func closeRepo(repo storage.Repository, logger *observability.Logger) {
	if err := repo.Close(); err != nil {
		logger.Warn("Failed to close storage", "error", err.Error())
	}
}
