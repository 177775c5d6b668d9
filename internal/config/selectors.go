package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"hackathon-sync/internal/checksum"
	"hackathon-sync/internal/model"
	"hackathon-sync/internal/scraper"
)

// LoadSelectors загружает карту полей источника из YAML файла
func LoadSelectors(filePath string) (*scraper.Selectors, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close selectors file: %v\n", closeErr)
		}
	}()

	var selectors scraper.Selectors
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := validateSelectors(&selectors); err != nil {
		return nil, err
	}

	return &selectors, nil
}

// Profile собирает профиль источника: встроенный плюс переопределения из конфига.
func (c *Config) Profile(src model.Source) (scraper.Profile, error) {
	profile, err := scraper.DefaultProfile(src)
	if err != nil {
		return scraper.Profile{}, err
	}
	sc, err := c.Sources.Source(src)
	if err != nil {
		return scraper.Profile{}, err
	}

	if sc.URL != "" {
		profile.URL = sc.URL
	}
	if sc.DedupKey != "" {
		strategy, err := checksum.ParseKeyStrategy(sc.DedupKey)
		if err != nil {
			return scraper.Profile{}, err
		}
		profile.DedupKey = strategy
	}
	if sc.SelectorsFile != "" {
		filePath := sc.SelectorsFile
		// Если путь относительный, делаем его относительно каталога конфигов
		if !filepath.IsAbs(filePath) {
			filePath = filepath.Join("configs", filePath)
		}
		selectors, err := LoadSelectors(filePath)
		if err != nil {
			return scraper.Profile{}, fmt.Errorf("source %s: %w", src, err)
		}
		profile.Selectors = *selectors
	}

	return profile, nil
}

// validateSelectors проверяет минимальный набор селекторов
func validateSelectors(s *scraper.Selectors) error {
	if s.ListingSelector == "" {
		return fmt.Errorf("listing_selector is required")
	}
	if len(s.Name.Selectors) == 0 {
		return fmt.Errorf("name.selectors is required")
	}
	return nil
}
