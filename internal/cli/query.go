package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"hackathon-sync/internal/app"
	"hackathon-sync/internal/model"
	"hackathon-sync/internal/storage"
)

type queryOptions struct {
	root      *rootOptions
	name      string
	mode      string
	location  string
	prize     string
	startFrom string
	endUntil  string
	source    string
}

func newQueryCmd(root *rootOptions) *cobra.Command {
	opts := &queryOptions{root: root}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print stored records matching a filter as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Case-insensitive substring of the name")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Online, Offline, Hybrid or Unknown")
	cmd.Flags().StringVar(&opts.location, "location", "", "Exact location, e.g. Everywhere")
	cmd.Flags().StringVar(&opts.prize, "prize", "", `Prize comparison, e.g. ">=5000"`)
	cmd.Flags().StringVar(&opts.startFrom, "start-from", "", "Earliest start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.endUntil, "end-until", "", "Latest end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.source, "source", "", "Only records from this source")

	return cmd
}

func (o *queryOptions) filter() (storage.Filter, error) {
	f := storage.Filter{NameContains: o.name, Location: o.location}

	if o.mode != "" {
		mode, err := model.ParseMode(o.mode)
		if err != nil {
			return f, fmt.Errorf("%w: %v", storage.ErrInvalidFilter, err)
		}
		f.Mode = mode
	}
	if o.source != "" {
		src, err := model.ParseSource(o.source)
		if err != nil {
			return f, fmt.Errorf("%w: %v", storage.ErrInvalidFilter, err)
		}
		f.Source = src
	}
	if o.prize != "" {
		cmp, err := storage.ParseComparison(o.prize)
		if err != nil {
			return f, err
		}
		f.Prize = cmp
	}
	var err error
	if f.StartFrom, err = parseBound(o.startFrom); err != nil {
		return f, err
	}
	if f.EndUntil, err = parseBound(o.endUntil); err != nil {
		return f, err
	}
	return f, nil
}

func parseBound(s string) (model.Date, error) {
	if s == "" {
		return model.UnknownDate(), nil
	}
	d, err := model.ParseDate(s)
	if err != nil || !d.Known() {
		return model.Date{}, fmt.Errorf("%w: date bound %q", storage.ErrInvalidFilter, s)
	}
	return d, nil
}

func (o *queryOptions) run(cmd *cobra.Command) error {
	filter, err := o.filter()
	if err != nil {
		return err
	}

	cfg, logger, err := o.root.load()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Close()
	}()

	ctx := cmd.Context()
	repo, err := app.OpenRepository(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer closeRepo(repo, logger)

	events, err := repo.Find(ctx, filter)
	if err != nil {
		return fmt.Errorf("querying storage: %w", err)
	}
	if events == nil {
		events = []model.Event{}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}
