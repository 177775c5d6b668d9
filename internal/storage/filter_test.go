package storage

import (
	"errors"
	"testing"
	"time"

	"hackathon-sync/internal/model"
)

func TestParseComparison(t *testing.T) {
	tests := []struct {
		in      string
		wantOp  Op
		wantVal int64
		wantErr bool
	}{
		{">=5000", OpGE, 5000, false},
		{"> 1,000", OpGT, 1000, false},
		{"<=250", OpLE, 250, false},
		{"<10", OpLT, 10, false},
		{"=0", OpEQ, 0, false},
		{"750", OpEQ, 750, false},
		{"", "", 0, true},
		{">>5", "", 0, true},
		{">=abc", "", 0, true},
		{"-5", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseComparison(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFilter) {
					t.Errorf("error = %v, want ErrInvalidFilter", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Op != tt.wantOp || c.Value != tt.wantVal {
				t.Errorf("got %s%d, want %s%d", c.Op, c.Value, tt.wantOp, tt.wantVal)
			}
		})
	}
}

func TestFilterMatchUnknowns(t *testing.T) {
	ev := model.Event{
		Name:       "Open Hack",
		StartDate:  model.UnknownDate(),
		EndDate:    model.UnknownDate(),
		Mode:       model.ModeUnknown,
		Location:   model.LocationUnknown,
		PrizeMoney: model.UnspecifiedPrize(),
		Source:     model.SourceDevfolio,
	}

	if !(Filter{}).Match(ev) {
		t.Errorf("empty filter must match everything")
	}
	if (Filter{StartFrom: model.NewDate(2025, time.January, 1)}).Match(ev) {
		t.Errorf("unknown start must not satisfy start_from")
	}
	if (Filter{EndUntil: model.NewDate(2030, time.January, 1)}).Match(ev) {
		t.Errorf("unknown end must not satisfy end_until")
	}
	if (Filter{Prize: &Comparison{Op: OpGE, Value: 0}}).Match(ev) {
		t.Errorf("unspecified prize must not satisfy >=0")
	}
}

func TestLikePattern(t *testing.T) {
	if got := LikePattern("100%_AI"); got != `%100\%\_ai%` {
		t.Errorf("LikePattern = %q", got)
	}
}
