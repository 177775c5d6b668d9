package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout: ISO 8601 дата без времени.
	DateLayout = "2006-01-02"

	UnknownDateText      = "unknown"
	UnspecifiedPrizeText = "unspecified"
)

// Date: календарная дата либо явный маркер "unknown". Нулевое значение: unknown.
type Date struct {
	t     time.Time
	known bool
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), known: true}
}

// DateOf отбрасывает время и зону, оставляя календарную дату.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func UnknownDate() Date {
	return Date{}
}

// ParseDate разбирает каноническое представление: "YYYY-MM-DD" или "unknown".
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, UnknownDateText) {
		return UnknownDate(), nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) Known() bool { return d.known }

// Time возвращает полночь UTC; для unknown: нулевое время.
func (d Date) Time() time.Time {
	if !d.known {
		return time.Time{}
	}
	return d.t
}

func (d Date) Before(o Date) bool {
	return d.known && o.known && d.t.Before(o.t)
}

func (d Date) Equal(o Date) bool {
	if d.known != o.known {
		return false
	}
	return !d.known || d.t.Equal(o.t)
}

func (d Date) String() string {
	if !d.known {
		return UnknownDateText
	}
	return d.t.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Prize: неотрицательная сумма в базовых единицах валюты либо "unspecified".
// Источники никогда не подтверждают нулевой приз, поэтому "не указан" и 0 различаются.
type Prize struct {
	amount int64
	known  bool
}

// PrizeOf для отрицательной суммы возвращает unspecified.
func PrizeOf(amount int64) Prize {
	if amount < 0 {
		return Prize{}
	}
	return Prize{amount: amount, known: true}
}

func UnspecifiedPrize() Prize {
	return Prize{}
}

func (p Prize) Amount() (int64, bool) {
	return p.amount, p.known
}

func (p Prize) Known() bool { return p.known }

func (p Prize) String() string {
	if !p.known {
		return UnspecifiedPrizeText
	}
	return strconv.FormatInt(p.amount, 10)
}

func (p Prize) MarshalJSON() ([]byte, error) {
	if !p.known {
		return json.Marshal(UnspecifiedPrizeText)
	}
	return []byte(strconv.FormatInt(p.amount, 10)), nil
}

func (p *Prize) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if !strings.EqualFold(s, UnspecifiedPrizeText) {
			return fmt.Errorf("invalid prize sentinel %q", s)
		}
		*p = UnspecifiedPrize()
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid prize amount: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("negative prize amount: %d", n)
	}
	*p = PrizeOf(n)
	return nil
}
