// Package model описывает каноническую запись о хакатоне, общую для всех источников.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// Source: происхождение записи. Задаётся экстрактором и больше не меняется.
type Source string

const (
	SourceMLH      Source = "MLH"
	SourceDevpost  Source = "Devpost"
	SourceDevfolio Source = "Devfolio"
)

// AllSources возвращает источники в порядке запуска по умолчанию.
func AllSources() []Source {
	return []Source{SourceMLH, SourceDevpost, SourceDevfolio}
}

// ParseSource принимает имя источника без учёта регистра ("mlh", "DevPost").
func ParseSource(s string) (Source, error) {
	for _, src := range AllSources() {
		if strings.EqualFold(strings.TrimSpace(s), string(src)) {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown source: %q", s)
}

func (s Source) Valid() bool {
	switch s {
	case SourceMLH, SourceDevpost, SourceDevfolio:
		return true
	}
	return false
}

type Mode string

const (
	ModeOnline  Mode = "Online"
	ModeOffline Mode = "Offline"
	ModeHybrid  Mode = "Hybrid"
	ModeUnknown Mode = "Unknown"
)

// ParseMode принимает каноническое имя режима без учёта регистра.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeOnline, ModeOffline, ModeHybrid, ModeUnknown} {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode: %q", s)
}

const (
	// LocationEverywhere: локация любого онлайн-события.
	LocationEverywhere = "Everywhere"
	// LocationUnknown: источник не дал текста локации.
	LocationUnknown = "Unknown"
)

var (
	ErrEmptyName     = errors.New("event name is empty")
	ErrInvalidSource = errors.New("event source is invalid")
	ErrInvalidMode   = errors.New("event mode is invalid")
	ErrDateOrder     = errors.New("event start date is after end date")
)

// Event: каноническая запись. Создаётся заново при каждом прогоне экстрактора
// и передаётся по значению; после Validate не изменяется.
type Event struct {
	Name       string `json:"name"`
	StartDate  Date   `json:"start_date"`
	EndDate    Date   `json:"end_date"`
	Mode       Mode   `json:"mode"`
	Location   string `json:"location"`
	PrizeMoney Prize  `json:"prize_money"`
	ApplyLink  string `json:"apply_link"`
	Source     Source `json:"source"`
}

// Validate проверяет инварианты записи до любой попытки сохранения.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if !e.Source.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSource, e.Source)
	}
	switch e.Mode {
	case ModeOnline, ModeOffline, ModeHybrid, ModeUnknown:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, e.Mode)
	}
	if e.StartDate.Known() && e.EndDate.Known() && e.EndDate.Before(e.StartDate) {
		return fmt.Errorf("%w: %s > %s", ErrDateOrder, e.StartDate, e.EndDate)
	}
	return nil
}
