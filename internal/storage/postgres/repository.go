package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hackathon-sync/internal/model"
	"hackathon-sync/internal/observability"
	"hackathon-sync/internal/storage"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS hackathon_events (
	event_key   CHAR(64) PRIMARY KEY,
	source      TEXT NOT NULL,
	name        TEXT NOT NULL,
	start_date  DATE,
	end_date    DATE,
	mode        TEXT NOT NULL,
	location    TEXT NOT NULL,
	prize_money BIGINT,
	apply_link  TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS hackathon_events_source_idx ON hackathon_events (source);`

const insertSQL = `
	INSERT INTO hackathon_events
	(event_key, source, name, start_date, end_date, mode, location, prize_money, apply_link, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())`

// xmax = 0 только у только что вставленной строки.
const upsertSQL = insertSQL + `
	ON CONFLICT (event_key) DO UPDATE SET
		name = EXCLUDED.name,
		start_date = EXCLUDED.start_date,
		end_date = EXCLUDED.end_date,
		mode = EXCLUDED.mode,
		location = EXCLUDED.location,
		prize_money = EXCLUDED.prize_money,
		apply_link = EXCLUDED.apply_link,
		updated_at = now()
	RETURNING (xmax = 0)`

type Repository struct {
	pool           *pgxpool.Pool
	commandTimeout time.Duration
	batchSize      int
	logger         *observability.Logger
}

func NewRepository(ctx context.Context, dsn string, commandTimeoutMS, batchSize int, logger *observability.Logger) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}
	if cfg.MaxConns < 4 {
		cfg.MaxConns = 4
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(pingCtx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	if batchSize <= 0 {
		batchSize = 200
	}

	return &Repository{
		pool:           pool,
		commandTimeout: time.Duration(commandTimeoutMS) * time.Millisecond,
		batchSize:      batchSize,
		logger:         logger,
	}, nil
}

func recordArgs(rec storage.Record) []any {
	ev := rec.Event
	var prize *int64
	if amount, ok := ev.PrizeMoney.Amount(); ok {
		prize = &amount
	}
	return []any{
		rec.Key, string(ev.Source), ev.Name,
		storage.DatePtr(ev.StartDate), storage.DatePtr(ev.EndDate),
		string(ev.Mode), ev.Location, prize, ev.ApplyLink,
	}
}

// sender: общее у пула и транзакции.
type sender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// insertChunks ставит вставки пачками по batchSize; ON CONFLICT DO NOTHING оставляет первую запись.
func (r *Repository) insertChunks(ctx context.Context, s sender, records []storage.Record) (int, error) {
	total := 0
	for i := 0; i < len(records); i += r.batchSize {
		j := i + r.batchSize
		if j > len(records) {
			j = len(records)
		}
		b := &pgx.Batch{}
		for _, rec := range records[i:j] {
			b.Queue(insertSQL+` ON CONFLICT (event_key) DO NOTHING`, recordArgs(rec)...)
		}
		br := s.SendBatch(ctx, b)
		for k := i; k < j; k++ {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return total, fmt.Errorf("failed to insert: %w", err)
			}
			total += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return total, fmt.Errorf("failed to close batch: %w", err)
		}
	}
	return total, nil
}

func (r *Repository) InsertIfAbsent(ctx context.Context, records []storage.Record) (int, error) {
	ctx, cancel := r.timeout(ctx, len(records))
	defer cancel()
	return r.insertChunks(ctx, r.pool, records)
}

func (r *Repository) Upsert(ctx context.Context, records []storage.Record) (int, int, error) {
	ctx, cancel := r.timeout(ctx, len(records))
	defer cancel()

	inserted, updated := 0, 0
	for i := 0; i < len(records); i += r.batchSize {
		j := i + r.batchSize
		if j > len(records) {
			j = len(records)
		}
		b := &pgx.Batch{}
		for _, rec := range records[i:j] {
			b.Queue(upsertSQL, recordArgs(rec)...)
		}
		br := r.pool.SendBatch(ctx, b)
		for k := i; k < j; k++ {
			var isNew bool
			if err := br.QueryRow().Scan(&isNew); err != nil {
				_ = br.Close()
				return inserted, updated, fmt.Errorf("failed to upsert: %w", err)
			}
			if isNew {
				inserted++
			} else {
				updated++
			}
		}
		if err := br.Close(); err != nil {
			return inserted, updated, fmt.Errorf("failed to close batch: %w", err)
		}
	}
	return inserted, updated, nil
}

func (r *Repository) DeleteSource(ctx context.Context, src model.Source) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM hackathon_events WHERE source = $1`, string(src))
	if err != nil {
		return 0, fmt.Errorf("failed to delete source: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ReplaceSource: удаление и вставка в одной транзакции.
func (r *Repository) ReplaceSource(ctx context.Context, src model.Source, records []storage.Record) (int, error) {
	ctx, cancel := r.timeout(ctx, len(records))
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM hackathon_events WHERE source = $1`, string(src)); err != nil {
		return 0, fmt.Errorf("failed to delete source: %w", err)
	}
	inserted, err := r.insertChunks(ctx, tx, records)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return inserted, nil
}

func (r *Repository) Find(ctx context.Context, filter storage.Filter) ([]model.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	where, args := buildWhere(filter)
	query := `SELECT name, start_date, end_date, mode, location, prize_money, apply_link, source
		FROM hackathon_events` + where + `
		ORDER BY source, start_date NULLS LAST, name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var (
			ev         model.Event
			start, end *time.Time
			prize      *int64
			mode, src  string
		)
		if err := rows.Scan(&ev.Name, &start, &end, &mode, &ev.Location, &prize, &ev.ApplyLink, &src); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ev.StartDate = storage.DateFromPtr(start)
		ev.EndDate = storage.DateFromPtr(end)
		ev.PrizeMoney = model.UnspecifiedPrize()
		if prize != nil {
			ev.PrizeMoney = model.PrizeOf(*prize)
		}
		ev.Mode = model.Mode(mode)
		ev.Source = model.Source(src)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return events, nil
}

func buildWhere(f storage.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Source != "" {
		add("source = $%d", string(f.Source))
	}
	if f.Mode != "" {
		add("mode = $%d", string(f.Mode))
	}
	if f.NameContains != "" {
		add(`lower(name) LIKE $%d ESCAPE '\'`, storage.LikePattern(f.NameContains))
	}
	if f.Location != "" {
		add("location = $%d", f.Location)
	}
	if f.Prize != nil {
		add("prize_money "+string(f.Prize.Op)+" $%d", f.Prize.Value)
	}
	if f.StartFrom.Known() {
		add("start_date >= $%d", f.StartFrom.Time())
	}
	if f.EndUntil.Known() {
		add("end_date <= $%d", f.EndUntil.Time())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *Repository) Count(ctx context.Context, src model.Source) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var count int
	var err error
	if src == "" {
		err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM hackathon_events`).Scan(&count)
	} else {
		err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM hackathon_events WHERE source = $1`, string(src)).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query database: %w", err)
	}
	return count, nil
}

// timeout растёт с числом пачек.
func (r *Repository) timeout(ctx context.Context, n int) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.commandTimeout*time.Duration(1+n/r.batchSize))
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}
