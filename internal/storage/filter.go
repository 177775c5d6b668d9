package storage

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"hackathon-sync/internal/model"
)

// ErrInvalidFilter: фильтр не удалось разобрать.
var ErrInvalidFilter = errors.New("invalid filter")

// Op: оператор сравнения суммы приза.
type Op string

const (
	OpGT Op = ">"
	OpGE Op = ">="
	OpLT Op = "<"
	OpLE Op = "<="
	OpEQ Op = "="
)

// Comparison: условие на сумму приза. Маркер unspecified ему никогда не удовлетворяет.
type Comparison struct {
	Op    Op
	Value int64
}

var comparisonRe = regexp.MustCompile(`^(>=|<=|>|<|=)?\s*(\d[\d,]*)$`)

// ParseComparison разбирает ">=5000", "< 1,000", "=0". Без оператора: равенство.
func ParseComparison(s string) (*Comparison, error) {
	m := comparisonRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, fmt.Errorf("%w: prize comparison %q", ErrInvalidFilter, s)
	}
	value, err := strconv.ParseInt(strings.ReplaceAll(m[2], ",", ""), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: prize value %q: %v", ErrInvalidFilter, m[2], err)
	}
	op := Op(m[1])
	if op == "" {
		op = OpEQ
	}
	return &Comparison{Op: op, Value: value}, nil
}

func (c Comparison) Match(p model.Prize) bool {
	amount, ok := p.Amount()
	if !ok {
		return false
	}
	switch c.Op {
	case OpGT:
		return amount > c.Value
	case OpGE:
		return amount >= c.Value
	case OpLT:
		return amount < c.Value
	case OpLE:
		return amount <= c.Value
	case OpEQ:
		return amount == c.Value
	}
	return false
}

// Filter: условия выборки. Пустое поле не ограничивает.
// Режим и локация сравниваются точно, название по подстроке без учёта регистра.
// Даты сравниваются только с известными датами записи.
type Filter struct {
	NameContains string
	Mode         model.Mode
	Location     string
	Prize        *Comparison
	StartFrom    model.Date
	EndUntil     model.Date
	Source       model.Source
}

// Match применяет фильтр к записи в памяти; SQL и Mongo реализуют те же условия запросом.
func (f Filter) Match(ev model.Event) bool {
	if f.Source != "" && ev.Source != f.Source {
		return false
	}
	if f.Mode != "" && ev.Mode != f.Mode {
		return false
	}
	if f.NameContains != "" && !containsFold(ev.Name, f.NameContains) {
		return false
	}
	if f.Location != "" && ev.Location != f.Location {
		return false
	}
	if f.Prize != nil && !f.Prize.Match(ev.PrizeMoney) {
		return false
	}
	if f.StartFrom.Known() && (!ev.StartDate.Known() || ev.StartDate.Before(f.StartFrom)) {
		return false
	}
	if f.EndUntil.Known() && (!ev.EndDate.Known() || f.EndUntil.Before(ev.EndDate)) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// LikePattern: подстрока для LIKE с экранированием служебных символов (ESCAPE '\').
func LikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `[`, `\[`)
	return "%" + strings.ToLower(r.Replace(s)) + "%"
}
