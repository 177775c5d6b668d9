package scraper

import (
	"errors"

	"hackathon-sync/internal/checksum"
	"hackathon-sync/internal/model"
	"hackathon-sync/internal/render"
)

// ErrMissingField: у карточки нет обязательного поля.
var ErrMissingField = errors.New("required field is absent")

// Selectors: карта полей источника. Может переопределяться YAML-файлом.
// Поле без селекторов источник не публикует: его значение: маркер unknown/unspecified.
type Selectors struct {
	ReadySelector   string           `yaml:"ready_selector"`
	ListingSelector string           `yaml:"listing_selector"`
	Name            render.FieldRule `yaml:"name"`
	Date            render.FieldRule `yaml:"date"`
	Location        render.FieldRule `yaml:"location"`
	Mode            render.FieldRule `yaml:"mode"`
	Prize           render.FieldRule `yaml:"prize"`
	ApplyLink       render.FieldRule `yaml:"apply_link"`
}

// Profile: всё, чем один источник отличается от другого.
type Profile struct {
	Source    model.Source
	URL       string
	Selectors Selectors
	// Scroll: лента подгружается при прокрутке.
	Scroll   bool
	DedupKey checksum.KeyStrategy
	// StartOnly: поле даты содержит только начало, конец всегда unknown.
	StartOnly bool
	// ModeFromLocation: режим не публикуется отдельно и читается из текста локации.
	ModeFromLocation bool
}

func (p Profile) Target() render.Target {
	return render.Target{
		URL:             p.URL,
		ReadySelector:   p.Selectors.ReadySelector,
		ListingSelector: p.Selectors.ListingSelector,
		Scroll:          p.Scroll,
	}
}

// Failure: карточка, из которой не удалось собрать запись.
type Failure struct {
	Index int
	Field string
	Err   error
}

// Batch: результат одного прогона экстрактора.
type Batch struct {
	Source   model.Source
	Seen     int
	Events   []model.Event
	Failures []Failure
	// Interrupted: прогон остановлен отменой контекста до конца списка.
	Interrupted bool
}
