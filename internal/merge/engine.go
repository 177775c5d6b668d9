// Package merge решает судьбу каждой записи пачки: вставить, пропустить как
// дубликат или (в режиме refresh) заменить весь раздел источника.
package merge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hackathon-sync/internal/checksum"
	"hackathon-sync/internal/model"
	"hackathon-sync/internal/observability"
	"hackathon-sync/internal/storage"
)

var (
	// ErrSourceMismatch: в пачке запись чужого источника.
	ErrSourceMismatch = errors.New("record belongs to another source")
	// ErrPartitionLost: старые записи источника удалены, новые не записаны.
	ErrPartitionLost = errors.New("source partition deleted but not refilled")
)

type Mode string

const (
	// ModeIncremental вставляет только записи с новыми ключами.
	ModeIncremental Mode = "incremental"
	// ModeRefresh заменяет все записи источника новой пачкой.
	ModeRefresh Mode = "refresh"
)

type OnConflict string

const (
	// OnConflictSkip: first-write-wins: существующий ключ не перезаписывается.
	OnConflictSkip OnConflict = "skip"
	// OnConflictReplace: last-write-wins, только по явной настройке.
	OnConflictReplace OnConflict = "replace"
)

type Policy struct {
	Mode       Mode
	OnConflict OnConflict
}

// DefaultPolicy: incremental, first-write-wins.
func DefaultPolicy() Policy {
	return Policy{Mode: ModeIncremental, OnConflict: OnConflictSkip}
}

func ParsePolicy(mode, onConflict string) (Policy, error) {
	p := DefaultPolicy()
	switch Mode(mode) {
	case "", ModeIncremental:
	case ModeRefresh:
		p.Mode = ModeRefresh
	default:
		return Policy{}, fmt.Errorf("unknown merge mode: %q", mode)
	}
	switch OnConflict(onConflict) {
	case "", OnConflictSkip:
	case OnConflictReplace:
		p.OnConflict = OnConflictReplace
	default:
		return Policy{}, fmt.Errorf("unknown conflict policy: %q", onConflict)
	}
	return p, nil
}

// Result: итог слияния одной пачки.
type Result struct {
	Inserted int
	Updated  int
	Skipped  int
	// Deleted: удалено перед вставкой в режиме refresh (если хранилище сообщает).
	Deleted int
}

// Engine: единственный компонент, который меняет хранилище.
type Engine struct {
	repo   storage.Repository
	locks  *PartitionLocks
	logger *observability.Logger
}

func NewEngine(repo storage.Repository, logger *observability.Logger) *Engine {
	return &Engine{
		repo:   repo,
		locks:  NewPartitionLocks(),
		logger: logger,
	}
}

// Merge сливает пачку одного источника. Ключи строит keys; дубликаты ключей
// внутри пачки схлопываются, побеждает первая запись.
func (e *Engine) Merge(ctx context.Context, src model.Source, keys *checksum.Generator, events []model.Event, policy Policy) (Result, error) {
	var res Result

	records, dups, err := collapse(src, keys, events)
	if err != nil {
		return res, err
	}
	res.Skipped = dups

	release, err := e.locks.Acquire(ctx, string(src))
	if err != nil {
		return res, fmt.Errorf("failed to acquire partition %s: %w", src, err)
	}
	defer release()

	start := time.Now()
	switch policy.Mode {
	case ModeRefresh:
		err = e.refresh(ctx, src, records, &res)
	default:
		err = e.incremental(ctx, records, policy.OnConflict, &res)
	}
	if err != nil {
		return res, err
	}

	e.logger.Info("Batch merged",
		"source", string(src),
		"mode", string(policy.Mode),
		"inserted", res.Inserted,
		"updated", res.Updated,
		"skipped", res.Skipped,
		"deleted", res.Deleted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (e *Engine) incremental(ctx context.Context, records []storage.Record, onConflict OnConflict, res *Result) error {
	if len(records) == 0 {
		return nil
	}
	if onConflict == OnConflictReplace {
		inserted, updated, err := e.repo.Upsert(ctx, records)
		if err != nil {
			return fmt.Errorf("failed to upsert records: %w", err)
		}
		res.Inserted += inserted
		res.Updated += updated
		return nil
	}

	inserted, err := e.repo.InsertIfAbsent(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to insert records: %w", err)
	}
	res.Inserted += inserted
	res.Skipped += len(records) - inserted
	return nil
}

// refresh заменяет раздел. Транзакционная замена, если хранилище её умеет,
// иначе удаление и вставка под блокировкой раздела.
func (e *Engine) refresh(ctx context.Context, src model.Source, records []storage.Record, res *Result) error {
	if replacer, ok := e.repo.(storage.Replacer); ok {
		inserted, err := replacer.ReplaceSource(ctx, src, records)
		if err != nil {
			return fmt.Errorf("failed to replace source %s: %w", src, err)
		}
		res.Inserted += inserted
		return nil
	}

	deleted, err := e.repo.DeleteSource(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to delete source %s: %w", src, err)
	}
	res.Deleted = deleted
	if len(records) == 0 {
		return nil
	}

	inserted, err := e.repo.InsertIfAbsent(ctx, records)
	if err != nil {
		// хранилище без транзакций: удалённое уже не вернуть
		e.logger.Error("Refresh left source partition empty",
			"source", string(src),
			"deleted", deleted,
			"batch", len(records),
			"error", err.Error(),
		)
		return fmt.Errorf("%w: %s: %w", ErrPartitionLost, src, err)
	}
	res.Inserted += inserted
	res.Skipped += len(records) - inserted
	return nil
}

func collapse(src model.Source, keys *checksum.Generator, events []model.Event) ([]storage.Record, int, error) {
	seen := make(map[string]struct{}, len(events))
	records := make([]storage.Record, 0, len(events))
	dups := 0

	for i, ev := range events {
		if ev.Source != src {
			return nil, 0, fmt.Errorf("%w: record %d has source %q, batch is %q", ErrSourceMismatch, i, ev.Source, src)
		}
		if err := ev.Validate(); err != nil {
			return nil, 0, fmt.Errorf("record %d: %w", i, err)
		}
		key := keys.EventKey(ev)
		if _, dup := seen[key]; dup {
			dups++
			continue
		}
		seen[key] = struct{}{}
		records = append(records, storage.Record{Key: key, Event: ev})
	}
	return records, dups, nil
}
