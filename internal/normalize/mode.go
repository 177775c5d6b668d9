package normalize

import (
	"strings"

	"hackathon-sync/internal/model"
)

// NormalizeMode выводит канонические режим и локацию.
// Признак "digital"/"online" перекрывает любую указанную локацию.
// Пустой режим даёт Unknown и локацию как есть.
func NormalizeMode(rawMode, rawLocation string) (model.Mode, string) {
	mode := strings.ToLower(CleanText(rawMode))
	location := strings.TrimSpace(strings.ReplaceAll(rawLocation, "\u00A0", " "))
	if location == "" {
		location = model.LocationUnknown
	}

	switch {
	case mode == "":
		return model.ModeUnknown, location
	case strings.Contains(mode, "digital"), strings.Contains(mode, "online"):
		return model.ModeOnline, model.LocationEverywhere
	case strings.Contains(mode, "hybrid"):
		return model.ModeHybrid, location
	default:
		// "In-Person Only", "Offline" и любой текст без онлайн-признака
		return model.ModeOffline, location
	}
}
