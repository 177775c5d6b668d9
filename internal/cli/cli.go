// Package cli: команды hackathon-sync: run собирает источники в хранилище,
// query читает сохранённые записи по фильтру.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"hackathon-sync/internal/config"
	"hackathon-sync/internal/observability"
)

// ExitError: код выхода при любой ошибке команды.
const ExitError = 1

// ErrAllSourcesFailed: ни один источник не дал результата.
var ErrAllSourcesFailed = errors.New("all sources failed")

type rootOptions struct {
	configPath string
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "hackathon-sync",
		Short: "Collect hackathon listings from MLH, Devpost and Devfolio into one store",
		Long: `Collects hackathon listings from MLH, Devpost and Devfolio, normalizes dates,
prizes and mode/location into one record shape, and merges them into a deduplicated store.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "configs/config.yaml", "Path to the YAML config")

	cmd.AddCommand(newRunCmd(opts), newQueryCmd(opts))
	return cmd
}

func (o *rootOptions) load() (*config.Config, *observability.Logger, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger := observability.NewLogger(cfg.Observability.LogPath, cfg.Observability.LogLevel)
	return cfg, logger, nil
}

// Execute runs the CLI
func Execute() {
	// .env необязателен: переменные могут прийти из окружения
	_ = godotenv.Load()

	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
