// Package memory: хранилище в памяти процесса для dry-run и тестов.
package memory

import (
	"context"
	"sort"
	"sync"

	"hackathon-sync/internal/model"
	"hackathon-sync/internal/storage"
)

type Repository struct {
	mu     sync.RWMutex
	events map[string]model.Event
}

func NewRepository() *Repository {
	return &Repository{events: make(map[string]model.Event)}
}

func (r *Repository) InsertIfAbsent(ctx context.Context, records []storage.Record) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, rec := range records {
		if _, exists := r.events[rec.Key]; exists {
			continue
		}
		r.events[rec.Key] = rec.Event
		inserted++
	}
	return inserted, nil
}

func (r *Repository) Upsert(ctx context.Context, records []storage.Record) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted, updated := 0, 0
	for _, rec := range records {
		if _, exists := r.events[rec.Key]; exists {
			updated++
		} else {
			inserted++
		}
		r.events[rec.Key] = rec.Event
	}
	return inserted, updated, nil
}

func (r *Repository) DeleteSource(ctx context.Context, src model.Source) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteSourceLocked(src), nil
}

// ReplaceSource меняет раздел источника под одной блокировкой.
func (r *Repository) ReplaceSource(ctx context.Context, src model.Source, records []storage.Record) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deleteSourceLocked(src)
	for _, rec := range records {
		r.events[rec.Key] = rec.Event
	}
	return len(records), nil
}

func (r *Repository) deleteSourceLocked(src model.Source) int {
	deleted := 0
	for key, ev := range r.events {
		if ev.Source == src {
			delete(r.events, key)
			deleted++
		}
	}
	return deleted
}

func (r *Repository) Find(ctx context.Context, filter storage.Filter) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []model.Event
	for _, ev := range r.events {
		if filter.Match(ev) {
			out = append(out, ev)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if !a.StartDate.Equal(b.StartDate) {
			if !b.StartDate.Known() {
				return true
			}
			if !a.StartDate.Known() {
				return false
			}
			return a.StartDate.Before(b.StartDate)
		}
		return a.Name < b.Name
	})
	return out, nil
}

func (r *Repository) Count(ctx context.Context, src model.Source) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if src == "" {
		return len(r.events), nil
	}
	count := 0
	for _, ev := range r.events {
		if ev.Source == src {
			count++
		}
	}
	return count, nil
}

func (r *Repository) Close() error {
	return nil
}
