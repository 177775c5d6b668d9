package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"hackathon-sync/internal/merge"
	"hackathon-sync/internal/model"
	"hackathon-sync/internal/normalize"
	"hackathon-sync/internal/observability"
	"hackathon-sync/internal/render"
	"hackathon-sync/internal/scraper"
	"hackathon-sync/internal/storage"
	"hackathon-sync/internal/storage/memory"
)

type fakeRenderer struct {
	mu       sync.Mutex
	pages    map[string]string
	onRender func()
	calls    int
}

func (f *fakeRenderer) Render(ctx context.Context, target render.Target) (render.Page, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.onRender != nil {
		f.onRender()
	}
	html, ok := f.pages[target.URL]
	if !ok {
		return nil, fmt.Errorf("%w: %s", render.ErrNotReady, target.URL)
	}
	return render.NewDocument(html, target.URL)
}

func (f *fakeRenderer) Close() error { return nil }

const mlhPage = `<div>
<div class="event-wrapper"><a href="https://hackmit.org"><h3 class="event-name">HackMIT</h3><p class="event-date">SEP 13TH - 14TH</p><div class="event-location">Cambridge, MA</div><div class="event-hybrid-notes">In-Person Only</div></a></div>
<div class="event-wrapper"><a href="https://ghw.mlh.io"><h3 class="event-name">Global Hack Week</h3><p class="event-date">OCT 31ST - NOV 2ND</p><div class="event-hybrid-notes">Digital Only</div></a></div>
<div class="event-wrapper"><a href="https://broken.example"><p class="event-date">MAR 1 - 2</p></a></div>
</div>`

const devpostPage = `<div>
<div class="hackathon-tile"><a class="tile-anchor" href="https://ai-jam.devpost.com/"><h3 class="mb-4">AI Jam</h3><div class="submission-period">Oct 01 - Nov 15, 2025</div><div class="info">Online</div><div class="prize-amount">$10,000</div></a></div>
</div>`

const devfolioPage = `<div id="__next"><div>nav</div><div><div>filters</div><div><div><div>
      <div>
        <div><div>
          <div><div><div><a href="https://ethindia.devfolio.co/"><h3>Eth India</h3></a></div></div></div>
          <div><p>Theme: Open</p></div>
          <div><div>
            <div><p>Offline</p></div>
            <div><p>Open</p></div>
            <div><p>STARTS 12/03/25</p></div>
          </div></div>
        </div></div>
      </div>
</div></div></div></div></div>`

var errStoreRejected = errors.New("store rejected the write")

// rejectingRepo отклоняет запись пачек одного источника.
type rejectingRepo struct {
	*memory.Repository
	reject model.Source
}

func (r *rejectingRepo) InsertIfAbsent(ctx context.Context, records []storage.Record) (int, error) {
	for _, rec := range records {
		if rec.Event.Source == r.reject {
			return 0, errStoreRejected
		}
	}
	return r.Repository.InsertIfAbsent(ctx, records)
}

func newTestOrchestrator(t *testing.T, renderer render.Renderer, repo storage.Repository, opts Options) *Orchestrator {
	t.Helper()
	logger := observability.NewNopLogger()
	dates := normalize.NewDateParserAt(func() time.Time {
		return time.Date(2025, time.October, 19, 0, 0, 0, 0, time.UTC)
	})
	return NewOrchestrator(renderer, merge.NewEngine(repo, logger), dates, observability.NewMetrics(), logger, opts)
}

func allProfiles() []scraper.Profile {
	return []scraper.Profile{scraper.MLHProfile(), scraper.DevpostProfile(), scraper.DevfolioProfile()}
}

func TestRunIsolatesFailingSource(t *testing.T) {
	repo := memory.NewRepository()
	renderer := &fakeRenderer{pages: map[string]string{
		scraper.MLHProfile().URL:     mlhPage,
		scraper.DevpostProfile().URL: devpostPage,
	}}
	metricsPath := filepath.Join(t.TempDir(), "hackathon_sync.prom")
	orch := newTestOrchestrator(t, renderer, repo, Options{Policy: merge.DefaultPolicy(), MaxParallel: 3, MetricsPath: metricsPath})

	report := orch.Run(context.Background(), allProfiles())

	if len(report.Sources) != 3 {
		t.Fatalf("report covers %d sources, want 3", len(report.Sources))
	}
	if report.RunID == "" {
		t.Errorf("run id is empty")
	}

	mlh, devpost, devfolio := report.Sources[0], report.Sources[1], report.Sources[2]
	if mlh.Status != StatusOK || mlh.Seen != 3 || mlh.Extracted != 2 || mlh.Failures != 1 || mlh.Inserted != 2 {
		t.Errorf("mlh report = %+v", mlh)
	}
	if devpost.Status != StatusOK || devpost.Inserted != 1 {
		t.Errorf("devpost report = %+v", devpost)
	}
	if devfolio.Status != StatusFailed || !errors.Is(devfolio.Err, render.ErrNotReady) || devfolio.Inserted != 0 {
		t.Errorf("devfolio report = %+v", devfolio)
	}
	if report.AllFailed() || report.FailedCount() != 1 {
		t.Errorf("FailedCount = %d", report.FailedCount())
	}

	if n, _ := repo.Count(context.Background(), ""); n != 3 {
		t.Errorf("stored %d records, want 3", n)
	}

	metrics, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics textfile: %v", err)
	}
	if !strings.Contains(string(metrics), `hackathon_sync_records_inserted_total{source="MLH"} 2`) {
		t.Errorf("metrics missing MLH inserts:\n%s", metrics)
	}

	second := orch.Run(context.Background(), allProfiles())
	if second.Sources[0].Inserted != 0 || second.Sources[0].Skipped != 2 {
		t.Errorf("second run mlh = %+v, want all skipped", second.Sources[0])
	}
}

func TestRunReportsRejectedWrite(t *testing.T) {
	repo := &rejectingRepo{Repository: memory.NewRepository(), reject: model.SourceDevpost}
	renderer := &fakeRenderer{pages: map[string]string{
		scraper.MLHProfile().URL:      mlhPage,
		scraper.DevpostProfile().URL:  devpostPage,
		scraper.DevfolioProfile().URL: devfolioPage,
	}}
	orch := newTestOrchestrator(t, renderer, repo, Options{Policy: merge.DefaultPolicy(), MaxParallel: 2})

	report := orch.Run(context.Background(), allProfiles())

	if len(report.Sources) != 3 {
		t.Fatalf("report covers %d sources, want 3", len(report.Sources))
	}
	mlh, devpost, devfolio := report.Sources[0], report.Sources[1], report.Sources[2]
	if devpost.Status != StatusFailed || !errors.Is(devpost.Err, errStoreRejected) {
		t.Errorf("devpost report = %+v, want failed with store error", devpost)
	}
	if !strings.HasPrefix(devpost.Error, "merge: ") || devpost.Inserted != 0 {
		t.Errorf("devpost error = %q, inserted = %d", devpost.Error, devpost.Inserted)
	}
	if mlh.Status != StatusOK || mlh.Inserted != 2 {
		t.Errorf("mlh report = %+v", mlh)
	}
	if devfolio.Status != StatusOK || devfolio.Inserted != 1 {
		t.Errorf("devfolio report = %+v", devfolio)
	}
	if renderer.calls != 3 {
		t.Errorf("renderer called %d times, want 3 (no retries)", renderer.calls)
	}

	if n, _ := repo.Count(context.Background(), model.SourceDevpost); n != 0 {
		t.Errorf("devpost stored %d records after rejected write", n)
	}
	if n, _ := repo.Count(context.Background(), ""); n != 3 {
		t.Errorf("stored %d records, want 3", n)
	}
}

func TestRunReportsCancelDuringRender(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	renderer := &fakeRenderer{pages: map[string]string{}, onRender: cancel}
	orch := newTestOrchestrator(t, renderer, memory.NewRepository(), Options{Policy: merge.DefaultPolicy(), MaxParallel: 1})

	report := orch.Run(ctx, []scraper.Profile{scraper.MLHProfile()})

	sr := report.Sources[0]
	if sr.Status != StatusCancelled || sr.Err == nil {
		t.Errorf("report = %+v, want cancelled", sr)
	}
}

func TestRunDoesNotStartSourcesAfterCancel(t *testing.T) {
	renderer := &fakeRenderer{pages: map[string]string{scraper.MLHProfile().URL: mlhPage}}
	orch := newTestOrchestrator(t, renderer, memory.NewRepository(), Options{Policy: merge.DefaultPolicy(), MaxParallel: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := orch.Run(ctx, allProfiles())

	for _, sr := range report.Sources {
		if sr.Status != StatusCancelled {
			t.Errorf("%s status = %s, want cancelled", sr.Source, sr.Status)
		}
	}
	if renderer.calls != 0 {
		t.Errorf("renderer called %d times after cancel", renderer.calls)
	}
	if !report.AllFailed() {
		t.Errorf("AllFailed = false for a fully cancelled run")
	}
}

func TestRefreshSkipsInterruptedBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := memory.NewRepository()
	seed := model.Event{
		Name: "Seeded", StartDate: model.UnknownDate(), EndDate: model.UnknownDate(),
		Mode: model.ModeUnknown, Location: model.LocationUnknown, PrizeMoney: model.UnspecifiedPrize(),
		ApplyLink: "https://mlh.io", Source: model.SourceMLH,
	}
	_, _ = repo.InsertIfAbsent(ctx, []storage.Record{{Key: "seed", Event: seed}})

	renderer := &fakeRenderer{
		pages:    map[string]string{scraper.MLHProfile().URL: mlhPage},
		onRender: cancel,
	}
	orch := newTestOrchestrator(t, renderer, repo, Options{Policy: merge.Policy{Mode: merge.ModeRefresh}, MaxParallel: 1})

	report := orch.Run(ctx, []scraper.Profile{scraper.MLHProfile()})

	sr := report.Sources[0]
	if sr.Status != StatusCancelled || !errors.Is(sr.Err, ErrRefreshSkipped) {
		t.Errorf("report = %+v, want refresh skipped", sr)
	}
	stored, _ := repo.Find(context.Background(), storage.Filter{Source: model.SourceMLH})
	if len(stored) != 1 || stored[0].Name != "Seeded" {
		t.Errorf("partition changed by interrupted refresh: %+v", stored)
	}
}

func TestReportOutput(t *testing.T) {
	report := &Report{
		RunID:      "run-1",
		Mode:       merge.ModeIncremental,
		StartedAt:  time.Date(2025, 10, 19, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 10, 19, 10, 0, 3, 0, time.UTC),
		Sources: []SourceReport{
			{Source: model.SourceMLH, Status: StatusOK, Seen: 3, Extracted: 2, Failures: 1, Inserted: 2},
			{Source: model.SourceDevfolio, Status: StatusFailed, Error: "page did not reach ready state"},
		},
	}

	var text bytes.Buffer
	if err := report.WriteText(&text); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if !strings.Contains(text.String(), "MLH") || !strings.Contains(text.String(), "page did not reach ready state") {
		t.Errorf("text report:\n%s", text.String())
	}

	var buf bytes.Buffer
	if err := report.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var decoded struct {
		RunID   string `json:"run_id"`
		Sources []struct {
			Source       string `json:"source"`
			ListingsSeen int    `json:"listings_seen"`
			Error        string `json:"error"`
		} `json:"sources"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.RunID != "run-1" || len(decoded.Sources) != 2 || decoded.Sources[0].ListingsSeen != 3 {
		t.Errorf("decoded = %+v", decoded)
	}
}
