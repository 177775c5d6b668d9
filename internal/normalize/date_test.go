package normalize

import (
	"testing"
	"time"

	"hackathon-sync/internal/model"
)

func fixedNow() time.Time {
	return time.Date(2025, time.October, 19, 12, 0, 0, 0, time.UTC)
}

func TestParseRange(t *testing.T) {
	dp := NewDateParserAt(fixedNow)

	tests := []struct {
		name      string
		input     string
		wantStart string
		wantEnd   string
	}{
		{"same month with ordinals", "FEB 21ST - 23RD", "2025-02-21", "2025-02-23"},
		{"same month with year", "Mar 7 - 9, 2026", "2026-03-07", "2026-03-09"},
		{"cross month", "Apr 30 - May 2", "2025-04-30", "2025-05-02"},
		{"cross month year inferred from end", "Jan 28 - Feb 3, 2026", "2026-01-28", "2026-02-03"},
		{"cross year with end year", "Dec 28 - Jan 3, 2026", "2025-12-28", "2026-01-03"},
		{"cross year without year", "Dec 28 - Jan 3", "2025-12-28", "2026-01-03"},
		{"fully qualified", "DEC 18, 2024 - MAR 02, 2025", "2024-12-18", "2025-03-02"},
		{"fully qualified full month names", "September 1, 2025 - October 15, 2025", "2025-09-01", "2025-10-15"},
		{"start year only", "Feb 10, 2025 - Mar 15", "2025-02-10", "2025-03-15"},
		{"single day", "Nov 8", "2025-11-08", "2025-11-08"},
		{"single day with year", "November 8th, 2026", "2026-11-08", "2026-11-08"},
		{"en dash", "Oct 3 – 5", "2025-10-03", "2025-10-05"},
		{"label prefix", "Runs Jun 13 - 15", "2025-06-13", "2025-06-15"},
		{"devfolio numeric", "STARTS 12/03/25", "2025-03-12", "2025-03-12"},
		{"iso date", "2025-09-13", "2025-09-13", "2025-09-13"},
		{"august keeps its letters", "AUGUST 1ST - 3RD", "2025-08-01", "2025-08-03"},
		{"unparseable", "Not available", "unknown", "unknown"},
		{"empty", "", "unknown", "unknown"},
		{"invalid day", "Feb 30", "unknown", "unknown"},
		{"explicit reversed years", "Mar 2, 2025 - Dec 18, 2024", "unknown", "unknown"},
		{"same month reversed", "Feb 23 - 21", "unknown", "unknown"},
		{"explicit same month reversed", "Feb 23 - 21, 2025", "unknown", "unknown"},
		{"weekday prefixes", "Sat, Feb 21 - Sun, Feb 23", "2025-02-21", "2025-02-23"},
		{"full weekday names", "Friday, March 7th - Sunday, March 9th, 2026", "2026-03-07", "2026-03-09"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := dp.ParseRange(tt.input)
			if start.String() != tt.wantStart || end.String() != tt.wantEnd {
				t.Errorf("ParseRange(%q) = (%s, %s), want (%s, %s)", tt.input, start, end, tt.wantStart, tt.wantEnd)
			}
			if start.Known() && end.Known() && end.Before(start) {
				t.Errorf("ParseRange(%q): start %s after end %s", tt.input, start, end)
			}
		})
	}
}

func TestParseRangeDefaultsToCurrentYear(t *testing.T) {
	dp := NewDateParser()
	start, end := dp.ParseRange("FEB 21ST - 23RD")

	year := time.Now().Year()
	if start != model.NewDate(year, time.February, 21) {
		t.Errorf("start = %s", start)
	}
	if end != model.NewDate(year, time.February, 23) {
		t.Errorf("end = %s", end)
	}
}
