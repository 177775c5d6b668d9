package normalize

import (
	"testing"

	"hackathon-sync/internal/model"
)

func TestNormalizeMode(t *testing.T) {
	tests := []struct {
		name         string
		mode         string
		location     string
		wantMode     model.Mode
		wantLocation string
	}{
		{"digital overrides location", "Digital Only", "Boston, MA", model.ModeOnline, model.LocationEverywhere},
		{"online case-insensitive", "ONLINE", "", model.ModeOnline, model.LocationEverywhere},
		{"in person", "In-Person Only", "Boston, MA", model.ModeOffline, "Boston, MA"},
		{"location trimmed", "In-Person Only", "  Austin, TX  ", model.ModeOffline, "Austin, TX"},
		{"hybrid", "Hybrid", "Toronto, ON", model.ModeHybrid, "Toronto, ON"},
		{"devpost location as mode", "Boston, MA", "Boston, MA", model.ModeOffline, "Boston, MA"},
		{"absent mode keeps location", "", "Paris", model.ModeUnknown, "Paris"},
		{"absent everything", "", "", model.ModeUnknown, model.LocationUnknown},
		{"offline without location", "Offline", "", model.ModeOffline, model.LocationUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, location := NormalizeMode(tt.mode, tt.location)
			if mode != tt.wantMode || location != tt.wantLocation {
				t.Errorf("NormalizeMode(%q, %q) = (%s, %q), want (%s, %q)",
					tt.mode, tt.location, mode, location, tt.wantMode, tt.wantLocation)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		raw, base, want string
	}{
		{"https://example.com/page#anchor", "", "https://example.com/page"},
		{"  https://example.com  ", "", "https://example.com"},
		{"/hackathons/open-jam", "https://devfolio.co/hackathons/open", "https://devfolio.co/hackathons/open-jam"},
		{"", "https://mlh.io", ""},
	}

	for _, tt := range tests {
		if got := NormalizeURL(tt.raw, tt.base); got != tt.want {
			t.Errorf("NormalizeURL(%q, %q) = %q, want %q", tt.raw, tt.base, got, tt.want)
		}
	}
}

func TestCleanText(t *testing.T) {
	if got := CleanText("  Hack the   North \n"); got != "Hack the North" {
		t.Errorf("CleanText = %q", got)
	}
}
