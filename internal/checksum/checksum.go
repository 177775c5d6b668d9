package checksum

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"hackathon-sync/internal/model"
)

// KeyStrategy задаёт, какие поля участвуют в ключе дедупликации.
type KeyStrategy string

const (
	// KeyName: (name, source).
	KeyName KeyStrategy = "name"
	// KeyNameStartDate: (name, start_date, source); без даты начала сводится к KeyName.
	KeyNameStartDate KeyStrategy = "name_start_date"
)

func ParseKeyStrategy(s string) (KeyStrategy, error) {
	switch KeyStrategy(strings.TrimSpace(s)) {
	case KeyName:
		return KeyName, nil
	case KeyNameStartDate, "":
		return KeyNameStartDate, nil
	}
	return "", fmt.Errorf("unknown dedup key strategy: %q", s)
}

// Generator строит ключи записей для одного источника.
type Generator struct {
	strategy KeyStrategy
}

func NewGenerator(strategy KeyStrategy) *Generator {
	return &Generator{strategy: strategy}
}

// EventKey генерирует SHA256 ключа записи.
// Формула: SHA256(source|lower(name)|start_iso); start пустой для KeyName или неизвестной даты.
func (g *Generator) EventKey(ev model.Event) string {
	start := ""
	if g.strategy == KeyNameStartDate && ev.StartDate.Known() {
		start = ev.StartDate.String()
	}
	return EventKey(ev.Source, ev.Name, start)
}

func EventKey(source model.Source, name, start string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(name), " "))
	content := fmt.Sprintf("%s|%s|%s", source, normalized, start)
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}
