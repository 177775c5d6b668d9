// Package storage описывает хранилище канонических записей и чтение по фильтру.
// Реализации: memory (dry-run и тесты), mssql, postgres, mongo.
package storage

import (
	"context"

	"hackathon-sync/internal/model"
)

// Record: запись вместе с ключом дедупликации.
type Record struct {
	Key   string
	Event model.Event
}

// Repository: хранилище записей. Ключ уникален во всём хранилище; ключ включает источник,
// поэтому записи разных источников никогда не конфликтуют.
type Repository interface {
	// InsertIfAbsent вставляет записи, ключей которых ещё нет. Существующие не трогает.
	InsertIfAbsent(ctx context.Context, records []Record) (inserted int, err error)

	// Upsert вставляет новые записи и перезаписывает существующие.
	Upsert(ctx context.Context, records []Record) (inserted int, updated int, err error)

	// DeleteSource удаляет все записи источника.
	DeleteSource(ctx context.Context, src model.Source) (int, error)

	// Find возвращает записи по фильтру, упорядоченные по источнику, дате начала
	// (неизвестные в конце) и названию.
	Find(ctx context.Context, filter Filter) ([]model.Event, error)

	// Count считает записи источника; пустой src: все записи.
	Count(ctx context.Context, src model.Source) (int, error)

	Close() error
}

// Replacer: хранилище умеет атомарно заменить раздел источника.
// Читатель видит либо старый, либо новый раздел целиком.
type Replacer interface {
	ReplaceSource(ctx context.Context, src model.Source, records []Record) (int, error)
}
