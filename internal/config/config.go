package config

import (
	"fmt"
	"strings"
	"time"

	"hackathon-sync/internal/checksum"
	"hackathon-sync/internal/model"
)

type Config struct {
	Rod                 RodConfig           `yaml:"rod"`
	RobotsCacheTTLHours int                 `yaml:"robots_cache_ttl_hours"`
	HTTP                HttpConfig          `yaml:"http"`
	Sources             SourcesConfig       `yaml:"sources"`
	Merge               MergeConfig         `yaml:"merge"`
	Storage             StorageConfig       `yaml:"storage"`
	Observability       ObservabilityConfig `yaml:"observability"`
}

type RodConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ChromePath       string `yaml:"chrome_path"`
	PageTimeoutS     int    `yaml:"page_timeout_s"`
	WaitLoadTimeoutS int    `yaml:"wait_load_timeout_s"`
	LazyLoadDelayS   int    `yaml:"lazy_load_delay_s"`
	MaxIdleScrolls   int    `yaml:"max_idle_scrolls"`
}

type HttpConfig struct {
	UserAgent        string `yaml:"user_agent"`
	AcceptLanguage   string `yaml:"accept_language"`
	ConnectTimeoutMS int    `yaml:"connect_timeout_ms"`
	TotalTimeoutMS   int    `yaml:"total_timeout_ms"`
}

// SourceConfig: настройки одного источника. Пустые поля берутся из встроенного профиля.
type SourceConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SelectorsFile string `yaml:"selectors_file"`
	DedupKey      string `yaml:"dedup_key"`
}

type SourcesConfig struct {
	MLH      SourceConfig `yaml:"mlh"`
	Devpost  SourceConfig `yaml:"devpost"`
	Devfolio SourceConfig `yaml:"devfolio"`
}

type MergeConfig struct {
	Mode               string `yaml:"mode"`
	OnConflict         string `yaml:"on_conflict"`
	MaxParallelSources int    `yaml:"max_parallel_sources"`
}

type StorageConfig struct {
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	Database         string `yaml:"database"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
	BatchSize        int    `yaml:"batch_size"`
}

type ObservabilityConfig struct {
	LogPath     string `yaml:"log_path"`
	LogLevel    string `yaml:"log_level"`
	MetricsPath string `yaml:"metrics_path"`
}

// Source возвращает настройки источника по имени.
func (s SourcesConfig) Source(src model.Source) (SourceConfig, error) {
	switch src {
	case model.SourceMLH:
		return s.MLH, nil
	case model.SourceDevpost:
		return s.Devpost, nil
	case model.SourceDevfolio:
		return s.Devfolio, nil
	}
	return SourceConfig{}, fmt.Errorf("unsupported source: %q", src)
}

// Enabled: включённые источники в порядке AllSources.
func (s SourcesConfig) Enabled() []model.Source {
	var out []model.Source
	for _, src := range model.AllSources() {
		sc, _ := s.Source(src)
		if sc.Enabled {
			out = append(out, src)
		}
	}
	return out
}

// Validation
func (c *Config) Validate() error {
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.ConnectTimeoutMS <= 0 {
		return fmt.Errorf("http.connect_timeout_ms must be > 0")
	}
	if c.HTTP.TotalTimeoutMS <= 0 {
		return fmt.Errorf("http.total_timeout_ms must be > 0")
	}
	if c.RobotsCacheTTLHours <= 0 {
		return fmt.Errorf("robots_cache_ttl_hours must be > 0")
	}

	if len(c.Sources.Enabled()) == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}
	for _, src := range model.AllSources() {
		sc, _ := c.Sources.Source(src)
		if _, err := checksum.ParseKeyStrategy(sc.DedupKey); err != nil {
			return fmt.Errorf("sources.%s.dedup_key: %w", strings.ToLower(string(src)), err)
		}
	}

	switch c.Merge.Mode {
	case "incremental", "refresh":
	default:
		return fmt.Errorf("merge.mode must be 'incremental' or 'refresh'")
	}
	switch c.Merge.OnConflict {
	case "", "skip", "replace":
	default:
		return fmt.Errorf("merge.on_conflict must be 'skip' or 'replace'")
	}
	if c.Merge.MaxParallelSources <= 0 {
		return fmt.Errorf("merge.max_parallel_sources must be > 0")
	}

	switch c.Storage.Driver {
	case "memory":
	case "mssql", "postgres", "mongo":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for driver %q", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("storage.driver must be 'memory', 'mssql', 'postgres' or 'mongo'")
	}
	if c.Storage.Driver == "mongo" && c.Storage.Database == "" {
		return fmt.Errorf("storage.database is required for driver \"mongo\"")
	}
	if c.Storage.CommandTimeoutMS <= 0 {
		return fmt.Errorf("storage.command_timeout_ms must be > 0")
	}
	if c.Storage.BatchSize <= 0 {
		return fmt.Errorf("storage.batch_size must be > 0")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}

	if c.Rod.Enabled {
		if c.Rod.PageTimeoutS <= 0 {
			return fmt.Errorf("rod.page_timeout_s must be > 0")
		}
		if c.Rod.WaitLoadTimeoutS <= 0 {
			return fmt.Errorf("rod.wait_load_timeout_s must be > 0")
		}
		if c.Rod.LazyLoadDelayS < 0 {
			return fmt.Errorf("rod.lazy_load_delay_s must be >= 0")
		}
		if c.Rod.MaxIdleScrolls < 0 {
			return fmt.Errorf("rod.max_idle_scrolls must be >= 0")
		}
	}
	return nil
}

// Getters
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.HTTP.ConnectTimeoutMS) * time.Millisecond
}

func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetRobotsCacheTTL() time.Duration {
	return time.Duration(c.RobotsCacheTTLHours) * time.Hour
}

func (c *Config) GetRodPageTimeout() time.Duration {
	return time.Duration(c.Rod.PageTimeoutS) * time.Second
}

func (c *Config) GetRodWaitLoadTimeout() time.Duration {
	return time.Duration(c.Rod.WaitLoadTimeoutS) * time.Second
}

func (c *Config) GetRodLazyLoadDelay() time.Duration {
	return time.Duration(c.Rod.LazyLoadDelayS) * time.Second
}
