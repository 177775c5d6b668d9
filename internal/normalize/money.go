package normalize

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"hackathon-sync/internal/model"
)

var (
	currencySymbolRe = regexp.MustCompile(`[$€£₹¥]`)
	currencyCodeRe   = regexp.MustCompile(`(?i)\b(usd|inr|eur|gbp|cad|aud|sgd|rs)\b\.?`)
	digitGroupRe     = regexp.MustCompile(`(\d)[ \x{00a0}](\d{3})\b`)
	amountRe         = regexp.MustCompile(`(\d+(?:\.\d+)?)(?:\s*(k|m|thousand|million)\b)?`)
)

var multipliers = map[string]float64{
	"":         1,
	"k":        1_000,
	"thousand": 1_000,
	"m":        1_000_000,
	"million":  1_000_000,
}

// ParsePrize извлекает сумму приза из свободного текста.
// Если сумм несколько ("Between $5K and $10K"), возвращается наибольшая.
// Без чисел: unspecified, а не ноль. Суммы больше MaxInt64 обрезаются до MaxInt64.
func ParsePrize(text string) model.Prize {
	s := currencySymbolRe.ReplaceAllString(text, " ")
	s = currencyCodeRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, ",", "")
	// "10 000 000": группы разрядов через пробел
	for prev := ""; prev != s; {
		prev = s
		s = digitGroupRe.ReplaceAllString(s, "$1$2")
	}
	s = strings.ToLower(s)

	best := int64(-1)
	for _, m := range amountRe.FindAllStringSubmatch(s, -1) {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			continue
		}
		amount := int64(math.MaxInt64)
		if scaled := math.Round(value * multipliers[m[2]]); scaled < float64(math.MaxInt64) {
			amount = int64(scaled)
		}
		if amount > best {
			best = amount
		}
	}

	if best < 0 {
		return model.UnspecifiedPrize()
	}
	return model.PrizeOf(best)
}
