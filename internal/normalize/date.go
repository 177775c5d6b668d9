package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"hackathon-sync/internal/model"
)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

const (
	monthPat = `([a-z]{3,9})\.?`
	dayPat   = `(\d{1,2})`
	yearPat  = `(\d{4})`
)

var (
	ordinalRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)\b`)
	weekdayRe = regexp.MustCompile(`\b(?:mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)(?:day|sday|nesday|rsday|urday)?\b\.?,?`)
	dashRe    = regexp.MustCompile(`\s*[-–—−]+\s*|\s+(?:to|until|till)\s+`)

	// Формы пробуются по порядку, побеждает первая подходящая.
	sameMonthRe  = regexp.MustCompile(`\b` + monthPat + ` ` + dayPat + ` - ` + dayPat + `\b(?:,? ` + yearPat + `\b)?`)
	crossMonthRe = regexp.MustCompile(`\b` + monthPat + ` ` + dayPat + ` - ` + monthPat + ` ` + dayPat + `\b(?:,? ` + yearPat + `\b)?`)
	qualifiedRe  = regexp.MustCompile(`\b` + monthPat + ` ` + dayPat + `,? ` + yearPat + ` - ` + monthPat + ` ` + dayPat + `\b(?:,? ` + yearPat + `\b)?`)
	singleDayRe  = regexp.MustCompile(`\b` + monthPat + ` ` + dayPat + `\b(?:,? ` + yearPat + `\b)?`)
	numericRe    = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})\b`)
)

// DateParser разбирает текст дат с карточек. Никогда не возвращает ошибку:
// неизвестный формат: нормальная ситуация, результат (unknown, unknown).
type DateParser struct {
	now func() time.Time
}

func NewDateParser() *DateParser {
	return &DateParser{now: time.Now}
}

// NewDateParserAt фиксирует "сегодня" для подстановки года.
func NewDateParserAt(now func() time.Time) *DateParser {
	return &DateParser{now: now}
}

// ParseRange возвращает (start, end). Для одиночной даты end = start.
func (dp *DateParser) ParseRange(text string) (model.Date, model.Date) {
	s := prepare(text)
	if s == "" {
		return model.UnknownDate(), model.UnknownDate()
	}

	if t, err := time.Parse(model.DateLayout, s); err == nil {
		d := model.DateOf(t)
		return d, d
	}

	s = dashRe.ReplaceAllString(s, " - ")

	for _, shape := range []func(string) (model.Date, model.Date, bool){
		dp.sameMonth,
		dp.crossMonth,
		dp.qualified,
		dp.singleDay,
		dp.numeric,
	} {
		if start, end, ok := shape(s); ok {
			return start, end
		}
	}
	return model.UnknownDate(), model.UnknownDate()
}

func prepare(text string) string {
	s := strings.ToLower(CleanText(text))
	s = ordinalRe.ReplaceAllString(s, "$1")
	// "sat, feb 21 - sun, feb 23": день недели мешает формам диапазона
	s = weekdayRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// "Feb 21 - 23[, 2025]"
func (dp *DateParser) sameMonth(s string) (model.Date, model.Date, bool) {
	for _, m := range sameMonthRe.FindAllStringSubmatch(s, -1) {
		month, ok := months[m[1]]
		if !ok {
			continue
		}
		year, _ := dp.yearOr(m[4], 0)
		start, ok1 := makeDate(year, month, m[2])
		end, ok2 := makeDate(year, month, m[3])
		if !ok1 || !ok2 {
			continue
		}
		if end.Before(start) {
			return model.UnknownDate(), model.UnknownDate(), true
		}
		return start, end, true
	}
	return model.Date{}, model.Date{}, false
}

// "Dec 28 - Jan 3[, 2026]"
func (dp *DateParser) crossMonth(s string) (model.Date, model.Date, bool) {
	for _, m := range crossMonthRe.FindAllStringSubmatch(s, -1) {
		startMonth, ok1 := months[m[1]]
		endMonth, ok2 := months[m[3]]
		if !ok1 || !ok2 {
			continue
		}
		endYear, explicit := dp.yearOr(m[5], 0)
		// год начала берётся с конца диапазона
		start, ok1 := makeDate(endYear, startMonth, m[2])
		end, ok2 := makeDate(endYear, endMonth, m[4])
		if !ok1 || !ok2 {
			continue
		}
		if end.Before(start) {
			if explicit {
				start, ok1 = makeDate(endYear-1, startMonth, m[2])
			} else {
				end, ok2 = makeDate(endYear+1, endMonth, m[4])
			}
			if !ok1 || !ok2 {
				continue
			}
		}
		return start, end, true
	}
	return model.Date{}, model.Date{}, false
}

// "Dec 18, 2024 - Mar 02[, 2025]"
func (dp *DateParser) qualified(s string) (model.Date, model.Date, bool) {
	for _, m := range qualifiedRe.FindAllStringSubmatch(s, -1) {
		startMonth, ok1 := months[m[1]]
		endMonth, ok2 := months[m[4]]
		if !ok1 || !ok2 {
			continue
		}
		startYear, _ := strconv.Atoi(m[3])
		endYear, explicit := dp.yearOr(m[6], startYear)
		start, ok1 := makeDate(startYear, startMonth, m[2])
		end, ok2 := makeDate(endYear, endMonth, m[5])
		if !ok1 || !ok2 {
			continue
		}
		if end.Before(start) {
			if explicit {
				return model.UnknownDate(), model.UnknownDate(), true
			}
			if end, ok2 = makeDate(endYear+1, endMonth, m[5]); !ok2 {
				continue
			}
		}
		return start, end, true
	}
	return model.Date{}, model.Date{}, false
}

// "Feb 21[, 2025]"
func (dp *DateParser) singleDay(s string) (model.Date, model.Date, bool) {
	for _, m := range singleDayRe.FindAllStringSubmatch(s, -1) {
		month, ok := months[m[1]]
		if !ok {
			continue
		}
		year, _ := dp.yearOr(m[3], 0)
		d, ok := makeDate(year, month, m[2])
		if !ok {
			continue
		}
		return d, d, true
	}
	return model.Date{}, model.Date{}, false
}

// "12/03/25": день/месяц/год, как у Devfolio ("STARTS 12/03/25").
func (dp *DateParser) numeric(s string) (model.Date, model.Date, bool) {
	for _, m := range numericRe.FindAllStringSubmatch(s, -1) {
		monthNum, err := strconv.Atoi(m[2])
		if err != nil || monthNum < 1 || monthNum > 12 {
			continue
		}
		year, _ := strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
		d, ok := makeDate(year, time.Month(monthNum), m[1])
		if !ok {
			continue
		}
		return d, d, true
	}
	return model.Date{}, model.Date{}, false
}

// yearOr возвращает год из текста, иначе fallback, иначе текущий год.
func (dp *DateParser) yearOr(raw string, fallback int) (int, bool) {
	if raw != "" {
		if y, err := strconv.Atoi(raw); err == nil {
			return y, true
		}
	}
	if fallback != 0 {
		return fallback, false
	}
	return dp.now().Year(), false
}

// makeDate отклоняет несуществующие даты вроде 30 февраля.
func makeDate(year int, month time.Month, rawDay string) (model.Date, bool) {
	day, err := strconv.Atoi(rawDay)
	if err != nil || day < 1 || day > 31 {
		return model.Date{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Month() != month || t.Day() != day {
		return model.Date{}, false
	}
	return model.NewDate(year, month, day), true
}
