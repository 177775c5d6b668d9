package scraper

import (
	"fmt"

	"hackathon-sync/internal/checksum"
	"hackathon-sync/internal/model"
	"hackathon-sync/internal/render"
)

func rule(selectors ...string) render.FieldRule {
	return render.FieldRule{Selectors: selectors}
}

func attrRule(attr string, selectors ...string) render.FieldRule {
	return render.FieldRule{Selectors: selectors, Attr: attr}
}

// MLHProfile: mlh.io: режим в ".event-hybrid-notes" ("Digital Only", "In-Person Only", "Hybrid").
func MLHProfile() Profile {
	return Profile{
		Source: model.SourceMLH,
		URL:    "https://mlh.io/seasons/2027/events",
		Selectors: Selectors{
			ReadySelector:   ".event-wrapper",
			ListingSelector: ".event-wrapper",
			Name:            rule(".event-name"),
			Date:            rule(".event-date"),
			Location:        rule(".event-location"),
			Mode:            rule(".event-hybrid-notes"),
			ApplyLink:       attrRule("href", "a"),
		},
		DedupKey: checksum.KeyNameStartDate,
	}
}

// DevpostProfile: devpost.com: "Online" или адрес в ".info", приз в ".prize-amount".
func DevpostProfile() Profile {
	return Profile{
		Source: model.SourceDevpost,
		URL:    "https://devpost.com/hackathons",
		Selectors: Selectors{
			ReadySelector:   ".hackathon-tile",
			ListingSelector: ".hackathon-tile",
			Name:            rule("h3.mb-4", ".mb-4", "h3"),
			Date:            rule(".submission-period"),
			Location:        rule(".info", ".location"),
			Prize:           rule(".prize-amount", ".prize"),
			ApplyLink:       attrRule("href", "a.tile-anchor", "a"),
		},
		DedupKey:         checksum.KeyNameStartDate,
		ModeFromLocation: true,
	}
}

// DevfolioProfile: devfolio.co: лента с ленивой подгрузкой, только дата начала ("STARTS 12/03/25"),
// ни приза, ни даты окончания, ни адреса на карточке нет.
func DevfolioProfile() Profile {
	return Profile{
		Source: model.SourceDevfolio,
		URL:    "https://devfolio.co/hackathons/open",
		Selectors: Selectors{
			ReadySelector:   "#__next a h3",
			ListingSelector: "#__next > div:nth-of-type(2) > div:nth-of-type(2) > div > div > div",
			Name:            rule("a h3", "h3"),
			Date: rule(
				"div > div > div:nth-of-type(3) > div > div:nth-of-type(3) > p",
				"p:contains('STARTS')",
				"p:contains('Starts')",
			),
			Mode: rule(
				"div > div > div:nth-of-type(3) > div > div:nth-of-type(1) > p",
				"p:contains('Online')",
				"p:contains('Offline')",
			),
			ApplyLink: attrRule("href", "a"),
		},
		Scroll:    true,
		DedupKey:  checksum.KeyName,
		StartOnly: true,
	}
}

// DefaultProfile возвращает встроенный профиль источника.
func DefaultProfile(source model.Source) (Profile, error) {
	switch source {
	case model.SourceMLH:
		return MLHProfile(), nil
	case model.SourceDevpost:
		return DevpostProfile(), nil
	case model.SourceDevfolio:
		return DevfolioProfile(), nil
	}
	return Profile{}, fmt.Errorf("no profile for source: %q", source)
}
