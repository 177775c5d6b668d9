package mssql

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"hackathon-sync/internal/model"
	"hackathon-sync/internal/storage"
)

func TestBuildWhere(t *testing.T) {
	where, args := buildWhere(storage.Filter{})
	if where != "" || len(args) != 0 {
		t.Errorf("empty filter = %q %v", where, args)
	}

	ge, _ := storage.ParseComparison(">=5000")
	where, args = buildWhere(storage.Filter{
		Source:       model.SourceDevpost,
		NameContains: "AI",
		Prize:        ge,
		StartFrom:    model.NewDate(2025, time.March, 1),
	})

	for _, want := range []string{"[Source] = @Source", "LOWER([Name]) LIKE @Name", "[PrizeMoney] >= @Prize", "[StartDate] >= @StartFrom"} {
		if !strings.Contains(where, want) {
			t.Errorf("where %q missing %q", where, want)
		}
	}
	if len(args) != 4 {
		t.Fatalf("got %d args, want 4", len(args))
	}
	if arg := args[1].(sql.NamedArg); arg.Name != "Name" || arg.Value != "%ai%" {
		t.Errorf("name arg = %+v", arg)
	}
}

func TestRecordArgsNulls(t *testing.T) {
	rec := storage.Record{Key: "k", Event: model.Event{
		Name:       "Open Hack",
		StartDate:  model.UnknownDate(),
		EndDate:    model.UnknownDate(),
		Mode:       model.ModeUnknown,
		PrizeMoney: model.UnspecifiedPrize(),
		Source:     model.SourceDevfolio,
	}}

	byName := map[string]interface{}{}
	for _, a := range recordArgs(rec, time.Now()) {
		na := a.(sql.NamedArg)
		byName[na.Name] = na.Value
	}

	if v := byName["StartDate"].(sql.NullTime); v.Valid {
		t.Errorf("unknown start must be NULL")
	}
	if v := byName["PrizeMoney"].(sql.NullInt64); v.Valid {
		t.Errorf("unspecified prize must be NULL")
	}
}
