package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"hackathon-sync/internal/model"
	"hackathon-sync/internal/observability"
	"hackathon-sync/internal/storage"
)

const schemaSQL = `
IF OBJECT_ID(N'dbo.TblHackathons', N'U') IS NULL
BEGIN
	CREATE TABLE dbo.TblHackathons (
		[EventKey]   CHAR(64)       NOT NULL PRIMARY KEY,
		[Source]     NVARCHAR(16)   NOT NULL,
		[Name]       NVARCHAR(400)  NOT NULL,
		[StartDate]  DATE           NULL,
		[EndDate]    DATE           NULL,
		[Mode]       NVARCHAR(16)   NOT NULL,
		[Location]   NVARCHAR(400)  NOT NULL,
		[PrizeMoney] BIGINT         NULL,
		[ApplyLink]  NVARCHAR(2000) NOT NULL,
		[UpdatedAt]  DATETIME2      NOT NULL
	);
	CREATE INDEX IX_TblHackathons_Source ON dbo.TblHackathons ([Source]);
END`

const insertIfAbsentSQL = `
	MERGE INTO TblHackathons AS target
	USING (SELECT @EventKey AS EventKey) AS source
	ON target.[EventKey] = source.EventKey
	WHEN NOT MATCHED THEN
		INSERT ([EventKey], [Source], [Name], [StartDate], [EndDate], [Mode], [Location], [PrizeMoney], [ApplyLink], [UpdatedAt])
		VALUES (@EventKey, @Source, @Name, @StartDate, @EndDate, @Mode, @Location, @PrizeMoney, @ApplyLink, @UpdatedAt);
`

const upsertSQL = `
	MERGE INTO TblHackathons AS target
	USING (SELECT @EventKey AS EventKey) AS source
	ON target.[EventKey] = source.EventKey
	WHEN MATCHED THEN
		UPDATE SET
			[Name] = @Name,
			[StartDate] = @StartDate,
			[EndDate] = @EndDate,
			[Mode] = @Mode,
			[Location] = @Location,
			[PrizeMoney] = @PrizeMoney,
			[ApplyLink] = @ApplyLink,
			[UpdatedAt] = @UpdatedAt
	WHEN NOT MATCHED THEN
		INSERT ([EventKey], [Source], [Name], [StartDate], [EndDate], [Mode], [Location], [PrizeMoney], [ApplyLink], [UpdatedAt])
		VALUES (@EventKey, @Source, @Name, @StartDate, @EndDate, @Mode, @Location, @PrizeMoney, @ApplyLink, @UpdatedAt)
	OUTPUT $action;
`

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	batchSize      int
	logger         *observability.Logger
}

func NewRepository(dsn string, commandTimeoutMS, batchSize int, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Тестируем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	if batchSize <= 0 {
		batchSize = 200
	}

	return &Repository{
		db:             db,
		commandTimeout: time.Duration(commandTimeoutMS) * time.Millisecond,
		batchSize:      batchSize,
		logger:         logger,
	}, nil
}

func recordArgs(rec storage.Record, now time.Time) []interface{} {
	ev := rec.Event
	return []interface{}{
		sql.Named("EventKey", rec.Key),
		sql.Named("Source", string(ev.Source)),
		sql.Named("Name", ev.Name),
		sql.Named("StartDate", storage.NullDate(ev.StartDate)),
		sql.Named("EndDate", storage.NullDate(ev.EndDate)),
		sql.Named("Mode", string(ev.Mode)),
		sql.Named("Location", ev.Location),
		sql.Named("PrizeMoney", storage.NullPrize(ev.PrizeMoney)),
		sql.Named("ApplyLink", ev.ApplyLink),
		sql.Named("UpdatedAt", now),
	}
}

// InsertIfAbsent вставляет записи пачками, по транзакции на пачку.
func (r *Repository) InsertIfAbsent(ctx context.Context, records []storage.Record) (int, error) {
	inserted := 0
	err := r.inBatches(ctx, records, func(ctx context.Context, tx *sql.Tx, chunk []storage.Record) error {
		stmt, err := tx.PrepareContext(ctx, insertIfAbsentSQL)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer r.closeStmt(stmt)

		now := time.Now().UTC()
		for _, rec := range chunk {
			result, err := stmt.ExecContext(ctx, recordArgs(rec, now)...)
			if err != nil {
				return fmt.Errorf("failed to execute insert: %w", err)
			}
			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			inserted += int(rowsAffected)
		}
		return nil
	})
	return inserted, err
}

// Upsert различает вставку и обновление по OUTPUT $action.
func (r *Repository) Upsert(ctx context.Context, records []storage.Record) (int, int, error) {
	inserted, updated := 0, 0
	err := r.inBatches(ctx, records, func(ctx context.Context, tx *sql.Tx, chunk []storage.Record) error {
		stmt, err := tx.PrepareContext(ctx, upsertSQL)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer r.closeStmt(stmt)

		now := time.Now().UTC()
		for _, rec := range chunk {
			var action string
			if err := stmt.QueryRowContext(ctx, recordArgs(rec, now)...).Scan(&action); err != nil {
				return fmt.Errorf("failed to execute upsert: %w", err)
			}
			if action == "INSERT" {
				inserted++
			} else {
				updated++
			}
		}
		return nil
	})
	return inserted, updated, err
}

func (r *Repository) DeleteSource(ctx context.Context, src model.Source) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM TblHackathons WHERE [Source] = @Source`, sql.Named("Source", string(src)))
	if err != nil {
		return 0, fmt.Errorf("failed to delete source: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

// ReplaceSource удаляет и вставляет раздел в одной транзакции.
func (r *Repository) ReplaceSource(ctx context.Context, src model.Source, records []storage.Record) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout*time.Duration(1+len(records)/r.batchSize))
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM TblHackathons WHERE [Source] = @Source`, sql.Named("Source", string(src))); err != nil {
		return 0, fmt.Errorf("failed to delete source: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertIfAbsentSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer r.closeStmt(stmt)

	now := time.Now().UTC()
	inserted := 0
	for _, rec := range records {
		result, err := stmt.ExecContext(ctx, recordArgs(rec, now)...)
		if err != nil {
			return 0, fmt.Errorf("failed to execute insert: %w", err)
		}
		n, _ := result.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return inserted, nil
}

func (r *Repository) Find(ctx context.Context, filter storage.Filter) ([]model.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	where, args := buildWhere(filter)
	query := `SELECT [Name], [StartDate], [EndDate], [Mode], [Location], [PrizeMoney], [ApplyLink], [Source]
		FROM TblHackathons` + where + `
		ORDER BY [Source], CASE WHEN [StartDate] IS NULL THEN 1 ELSE 0 END, [StartDate], [Name]`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Error("Failed to close rows", "error", err.Error())
		}
	}()

	var events []model.Event
	for rows.Next() {
		var (
			ev         model.Event
			start, end sql.NullTime
			prize      sql.NullInt64
			mode, src  string
		)
		if err := rows.Scan(&ev.Name, &start, &end, &mode, &ev.Location, &prize, &ev.ApplyLink, &src); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ev.StartDate = storage.DateFromNull(start)
		ev.EndDate = storage.DateFromNull(end)
		ev.PrizeMoney = storage.PrizeFromNull(prize)
		ev.Mode = model.Mode(mode)
		ev.Source = model.Source(src)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return events, nil
}

// buildWhere собирает условия фильтра с именованными параметрами.
func buildWhere(f storage.Filter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if f.Source != "" {
		conds = append(conds, "[Source] = @Source")
		args = append(args, sql.Named("Source", string(f.Source)))
	}
	if f.Mode != "" {
		conds = append(conds, "[Mode] = @Mode")
		args = append(args, sql.Named("Mode", string(f.Mode)))
	}
	if f.NameContains != "" {
		conds = append(conds, `LOWER([Name]) LIKE @Name ESCAPE '\'`)
		args = append(args, sql.Named("Name", storage.LikePattern(f.NameContains)))
	}
	if f.Location != "" {
		conds = append(conds, "[Location] = @Location")
		args = append(args, sql.Named("Location", f.Location))
	}
	if f.Prize != nil {
		// Op проверен ParseComparison; NULL не проходит ни одно сравнение
		conds = append(conds, fmt.Sprintf("[PrizeMoney] %s @Prize", f.Prize.Op))
		args = append(args, sql.Named("Prize", f.Prize.Value))
	}
	if f.StartFrom.Known() {
		conds = append(conds, "[StartDate] >= @StartFrom")
		args = append(args, sql.Named("StartFrom", f.StartFrom.Time()))
	}
	if f.EndUntil.Known() {
		conds = append(conds, "[EndDate] <= @EndUntil")
		args = append(args, sql.Named("EndUntil", f.EndUntil.Time()))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *Repository) Count(ctx context.Context, src model.Source) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `SELECT COUNT(*) FROM TblHackathons`
	var args []interface{}
	if src != "" {
		query += ` WHERE [Source] = @Source`
		args = append(args, sql.Named("Source", string(src)))
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to query database: %w", err)
	}
	return count, nil
}

func (r *Repository) inBatches(ctx context.Context, records []storage.Record, fn func(context.Context, *sql.Tx, []storage.Record) error) error {
	for i := 0; i < len(records); i += r.batchSize {
		j := i + r.batchSize
		if j > len(records) {
			j = len(records)
		}
		if err := r.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
			return fn(ctx, tx, records[i:j])
		}); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) runTx(ctx context.Context, fn func(context.Context, *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error("Failed to rollback", "error", rbErr.Error())
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (r *Repository) closeStmt(stmt *sql.Stmt) {
	if err := stmt.Close(); err != nil {
		r.logger.Error("Failed to close statement", "error", err.Error())
	}
}

// Close закрывает соединение с БД
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
