package checksum

import (
	"testing"
	"time"

	"hackathon-sync/internal/model"
)

func sampleEvent() model.Event {
	return model.Event{
		Name:      "Hack the North",
		StartDate: model.NewDate(2025, time.September, 12),
		EndDate:   model.NewDate(2025, time.September, 14),
		Mode:      model.ModeOffline,
		Location:  "Waterloo, ON",
		Source:    model.SourceMLH,
	}
}

func TestEventKey(t *testing.T) {
	gen := NewGenerator(KeyNameStartDate)
	ev := sampleEvent()

	key1 := gen.EventKey(ev)
	key2 := gen.EventKey(ev)

	// Ключ детерминирован
	if key1 != key2 {
		t.Errorf("Key not deterministic: %s != %s", key1, key2)
	}

	// SHA256 hex: 64 символа
	if len(key1) != 64 {
		t.Errorf("Key wrong length: %d, expected 64", len(key1))
	}

	// Регистр и пробелы в имени не влияют
	other := ev
	other.Name = "  hack THE   north "
	if gen.EventKey(other) != key1 {
		t.Errorf("Key should ignore case and spacing of the name")
	}

	// Другая дата начала: другой ключ
	other = ev
	other.StartDate = model.NewDate(2026, time.September, 12)
	if gen.EventKey(other) == key1 {
		t.Errorf("Key should change when start date changes")
	}

	// Поля вне ключа ничего не меняют
	other = ev
	other.Location = "Toronto, ON"
	other.PrizeMoney = model.PrizeOf(1000)
	if gen.EventKey(other) != key1 {
		t.Errorf("Key should depend only on source, name and start date")
	}
}

func TestEventKeyStrategies(t *testing.T) {
	ev := sampleEvent()
	byName := NewGenerator(KeyName)

	moved := ev
	moved.StartDate = model.NewDate(2026, time.January, 1)
	if byName.EventKey(ev) != byName.EventKey(moved) {
		t.Errorf("name strategy must ignore start date")
	}

	// Без даты начала составной ключ сводится к имени
	undated := ev
	undated.StartDate = model.UnknownDate()
	if NewGenerator(KeyNameStartDate).EventKey(undated) != byName.EventKey(ev) {
		t.Errorf("unknown start date must fall back to the name key")
	}

	// Источники не пересекаются
	devpost := ev
	devpost.Source = model.SourceDevpost
	if byName.EventKey(devpost) == byName.EventKey(ev) {
		t.Errorf("keys of different sources must differ")
	}
}

func TestParseKeyStrategy(t *testing.T) {
	if s, err := ParseKeyStrategy(""); err != nil || s != KeyNameStartDate {
		t.Errorf("default strategy = %q, %v", s, err)
	}
	if _, err := ParseKeyStrategy("url"); err == nil {
		t.Errorf("expected error for unknown strategy")
	}
}
