package storage

import (
	"database/sql"
	"time"

	"hackathon-sync/internal/model"
)

// SQL-хранилища держат unknown и unspecified как NULL.

func NullDate(d model.Date) sql.NullTime {
	if !d.Known() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: d.Time(), Valid: true}
}

func DateFromNull(t sql.NullTime) model.Date {
	if !t.Valid {
		return model.UnknownDate()
	}
	return model.DateOf(t.Time)
}

// DatePtr: для драйверов, принимающих *time.Time (pgx).
func DatePtr(d model.Date) *time.Time {
	if !d.Known() {
		return nil
	}
	t := d.Time()
	return &t
}

func DateFromPtr(t *time.Time) model.Date {
	if t == nil {
		return model.UnknownDate()
	}
	return model.DateOf(*t)
}

func NullPrize(p model.Prize) sql.NullInt64 {
	amount, ok := p.Amount()
	return sql.NullInt64{Int64: amount, Valid: ok}
}

func PrizeFromNull(v sql.NullInt64) model.Prize {
	if !v.Valid {
		return model.UnspecifiedPrize()
	}
	return model.PrizeOf(v.Int64)
}
