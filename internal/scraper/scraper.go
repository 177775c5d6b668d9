package scraper

import (
	"context"
	"fmt"

	"hackathon-sync/internal/model"
	"hackathon-sync/internal/normalize"
	"hackathon-sync/internal/observability"
	"hackathon-sync/internal/render"
)

// Extractor превращает карточки отрисованной страницы в канонические записи.
// Один тип на все источники; различия задаются Profile.
type Extractor struct {
	profile Profile
	dates   *normalize.DateParser
	logger  *observability.Logger
}

func NewExtractor(profile Profile, dates *normalize.DateParser, logger *observability.Logger) *Extractor {
	return &Extractor{
		profile: profile,
		dates:   dates,
		logger:  logger.With("source", string(profile.Source)),
	}
}

// ExtractPage берёт карточки со страницы по селектору профиля.
func (e *Extractor) ExtractPage(ctx context.Context, page render.Page) Batch {
	return e.Extract(ctx, page.Listings(e.profile.Selectors.ListingSelector))
}

// Extract обрабатывает карточки по одной. Сбой карточки учитывается в Failures
// и не мешает остальным. При отмене ctx текущая карточка дорабатывается,
// новые не начинаются.
func (e *Extractor) Extract(ctx context.Context, listings []render.Listing) Batch {
	batch := Batch{Source: e.profile.Source}

	for i, listing := range listings {
		if ctx.Err() != nil {
			batch.Interrupted = true
			e.logger.Warn("Extraction interrupted", "processed", i, "total", len(listings))
			break
		}
		batch.Seen++

		ev, failure := e.extractListing(i, listing)
		if failure != nil {
			batch.Failures = append(batch.Failures, *failure)
			e.logger.Warn("Listing skipped",
				"index", i,
				"field", failure.Field,
				"error", failure.Err.Error(),
			)
			continue
		}

		e.logger.Debug("Listing extracted",
			"index", i,
			"name", ev.Name,
			"start_date", ev.StartDate.String(),
			"end_date", ev.EndDate.String(),
			"mode", string(ev.Mode),
		)
		batch.Events = append(batch.Events, ev)
	}

	return batch
}

func (e *Extractor) extractListing(index int, listing render.Listing) (ev model.Event, failure *Failure) {
	defer func() {
		if r := recover(); r != nil {
			failure = &Failure{Index: index, Field: "listing", Err: fmt.Errorf("listing handler panicked: %v", r)}
		}
	}()

	sel := e.profile.Selectors

	name := normalize.CleanText(e.field(listing, sel.Name))
	if name == "" {
		return model.Event{}, &Failure{Index: index, Field: "name", Err: ErrMissingField}
	}

	dateText := e.field(listing, sel.Date)
	start, end := e.dates.ParseRange(dateText)
	if e.profile.StartOnly {
		end = model.UnknownDate()
	}

	locationText := normalize.CleanText(e.field(listing, sel.Location))
	modeText := e.field(listing, sel.Mode)
	if e.profile.ModeFromLocation && len(sel.Mode.Selectors) == 0 {
		modeText = locationText
	}
	mode, location := normalize.NormalizeMode(modeText, locationText)

	prize := model.UnspecifiedPrize()
	if text, ok := e.lookup(listing, sel.Prize); ok {
		prize = normalize.ParsePrize(text)
	}

	link := normalize.NormalizeURL(e.field(listing, sel.ApplyLink), e.profile.URL)
	if link == "" {
		link = e.profile.URL
	}

	ev = model.Event{
		Name:       name,
		StartDate:  start,
		EndDate:    end,
		Mode:       mode,
		Location:   location,
		PrizeMoney: prize,
		ApplyLink:  link,
		Source:     e.profile.Source,
	}
	if err := ev.Validate(); err != nil {
		return model.Event{}, &Failure{Index: index, Field: "record", Err: err}
	}
	return ev, nil
}

// lookup: поле без селекторов источник не публикует.
func (e *Extractor) lookup(listing render.Listing, rule render.FieldRule) (string, bool) {
	if len(rule.Selectors) == 0 {
		return "", false
	}
	return listing.Field(rule)
}

func (e *Extractor) field(listing render.Listing, rule render.FieldRule) string {
	value, _ := e.lookup(listing, rule)
	return value
}
