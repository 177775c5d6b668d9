package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"hackathon-sync/internal/checksum"
	"hackathon-sync/internal/merge"
	"hackathon-sync/internal/model"
	"hackathon-sync/internal/normalize"
	"hackathon-sync/internal/observability"
	"hackathon-sync/internal/render"
	"hackathon-sync/internal/scraper"
)

// ErrRefreshSkipped: refresh не выполнен: пачка неполная из-за отмены.
var ErrRefreshSkipped = errors.New("refresh skipped: extraction was interrupted")

// mergeTimeout ограничивает запись пачки, начатую до отмены прогона.
const mergeTimeout = 2 * time.Minute

type Options struct {
	Policy      merge.Policy
	MaxParallel int
	MetricsPath string
}

// Orchestrator прогоняет источники независимо: сбой одного не мешает остальным.
type Orchestrator struct {
	renderer render.Renderer
	engine   *merge.Engine
	dates    *normalize.DateParser
	metrics  *observability.Metrics
	logger   *observability.Logger
	opts     Options
}

func NewOrchestrator(
	renderer render.Renderer,
	engine *merge.Engine,
	dates *normalize.DateParser,
	metrics *observability.Metrics,
	logger *observability.Logger,
	opts Options,
) *Orchestrator {
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 1
	}
	return &Orchestrator{
		renderer: renderer,
		engine:   engine,
		dates:    dates,
		metrics:  metrics,
		logger:   logger,
		opts:     opts,
	}
}

// Run обрабатывает все профили и всегда возвращает отчёт по каждому из них.
// После отмены ctx новые источники не начинаются и помечаются как cancelled.
func (o *Orchestrator) Run(ctx context.Context, profiles []scraper.Profile) *Report {
	report := &Report{
		RunID:     uuid.NewString(),
		Mode:      o.opts.Policy.Mode,
		StartedAt: time.Now().UTC(),
		Sources:   make([]SourceReport, len(profiles)),
	}
	logger := o.logger.With("run_id", report.RunID)

	logger.Info("Run started",
		"sources", len(profiles),
		"mode", string(o.opts.Policy.Mode),
		"on_conflict", string(o.opts.Policy.OnConflict),
		"max_parallel", o.opts.MaxParallel,
	)

	sem := make(chan struct{}, o.opts.MaxParallel)
	var wg sync.WaitGroup

	for i, profile := range profiles {
		report.Sources[i] = SourceReport{Source: profile.Source}

		acquired := false
		select {
		case sem <- struct{}{}:
			acquired = true
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			if acquired {
				<-sem
			}
			report.Sources[i].Status = StatusCancelled
			report.Sources[i].setErr(fmt.Errorf("not started: %w", ctx.Err()))
			logger.Warn("Source not started", "source", string(profile.Source))
			continue
		}

		wg.Add(1)
		go func(i int, profile scraper.Profile) {
			defer wg.Done()
			defer func() { <-sem }()
			report.Sources[i] = o.runSource(ctx, profile, logger)
		}(i, profile)
	}
	wg.Wait()

	report.FinishedAt = time.Now().UTC()

	if o.metrics != nil {
		if err := o.metrics.WriteTextfile(o.opts.MetricsPath); err != nil {
			logger.Error("Failed to write metrics", "path", o.opts.MetricsPath, "error", err.Error())
		}
	}

	logger.Info("Run completed",
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
		"failed_sources", report.FailedCount(),
	)
	return report
}

func (o *Orchestrator) runSource(ctx context.Context, profile scraper.Profile, runLogger *observability.Logger) (sr SourceReport) {
	sr = SourceReport{Source: profile.Source}
	logger := runLogger.With("source", string(profile.Source))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			sr.Status = StatusFailed
			sr.setErr(fmt.Errorf("source handler panicked: %v", r))
			logger.Error("Source panicked", "panic", fmt.Sprint(r))
		}
		sr.Duration = time.Since(start)
		sr.DurationMS = sr.Duration.Milliseconds()
		if o.metrics != nil {
			o.metrics.ObserveRun(string(profile.Source), sr.Status == StatusOK, sr.Duration)
		}
	}()

	logger.Info("Rendering source", "url", profile.URL)
	page, err := o.renderer.Render(ctx, profile.Target())
	if err != nil {
		sr.setErr(fmt.Errorf("render %s: %w", profile.URL, err))
		if ctx.Err() != nil {
			sr.Status = StatusCancelled
			logger.Warn("Source cancelled", "stage", "render", "error", err.Error())
			return sr
		}
		sr.Status = StatusFailed
		logger.Error("Source failed", "stage", "render", "error", err.Error())
		return sr
	}

	extractor := scraper.NewExtractor(profile, o.dates, runLogger)
	batch := extractor.ExtractPage(ctx, page)
	sr.Seen = batch.Seen
	sr.Extracted = len(batch.Events)
	sr.Failures = len(batch.Failures)
	if o.metrics != nil {
		o.metrics.ObserveExtraction(string(profile.Source), sr.Seen, sr.Extracted, sr.Failures)
	}

	logger.Info("Extraction finished",
		"listings_seen", sr.Seen,
		"extracted", sr.Extracted,
		"failures", sr.Failures,
		"interrupted", batch.Interrupted,
	)

	if batch.Interrupted && o.opts.Policy.Mode == merge.ModeRefresh {
		sr.Status = StatusCancelled
		sr.setErr(ErrRefreshSkipped)
		logger.Warn("Refresh skipped for partial batch")
		return sr
	}

	// начатая запись доводится до конца даже после отмены прогона
	mergeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mergeTimeout)
	defer cancel()

	res, err := o.engine.Merge(mergeCtx, profile.Source, checksum.NewGenerator(profile.DedupKey), batch.Events, o.opts.Policy)
	sr.Inserted = res.Inserted
	sr.Updated = res.Updated
	sr.Skipped = res.Skipped
	if o.metrics != nil {
		o.metrics.ObserveMerge(string(profile.Source), res.Inserted, res.Updated, res.Skipped)
	}
	if err != nil {
		sr.Status = StatusFailed
		sr.setErr(fmt.Errorf("merge: %w", err))
		logger.Error("Source failed", "stage", "merge", "error", err.Error())
		return sr
	}

	sr.Status = StatusOK
	if batch.Interrupted {
		sr.Status = StatusPartial
	}
	return sr
}

// Profiles собирает профили источников в заданном порядке.
func Profiles(enabled []model.Source, profile func(model.Source) (scraper.Profile, error)) ([]scraper.Profile, error) {
	profiles := make([]scraper.Profile, 0, len(enabled))
	for _, src := range enabled {
		p, err := profile(src)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", src, err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
