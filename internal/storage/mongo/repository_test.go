package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"hackathon-sync/internal/model"
	"hackathon-sync/internal/storage"
)

func TestDocRoundTrip(t *testing.T) {
	rec := storage.Record{Key: "abc", Event: model.Event{
		Name:       "Eth India",
		StartDate:  model.NewDate(2025, time.March, 12),
		EndDate:    model.UnknownDate(),
		Mode:       model.ModeOffline,
		Location:   model.LocationUnknown,
		PrizeMoney: model.UnspecifiedPrize(),
		ApplyLink:  "https://ethindia.devfolio.co/",
		Source:     model.SourceDevfolio,
	}}

	raw, err := bson.Marshal(toDoc(rec, time.Now().UTC()))
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if fields["_id"] != "abc" || fields["end_date"] != "unknown" || fields["prize_money"] != "unspecified" {
		t.Errorf("interchange fields = %v", fields)
	}

	var doc eventDoc
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	ev, err := doc.toEvent()
	if err != nil {
		t.Fatalf("toEvent error: %v", err)
	}
	if ev.Name != rec.Event.Name || !ev.StartDate.Equal(rec.Event.StartDate) || ev.EndDate.Known() || ev.PrizeMoney.Known() {
		t.Errorf("round trip = %+v", ev)
	}

	rec.Event.PrizeMoney = model.PrizeOf(5000)
	raw, _ = bson.Marshal(toDoc(rec, time.Now().UTC()))
	doc = eventDoc{}
	_ = bson.Unmarshal(raw, &doc)
	ev, _ = doc.toEvent()
	if amount, ok := ev.PrizeMoney.Amount(); !ok || amount != 5000 {
		t.Errorf("numeric prize round trip = %s", ev.PrizeMoney)
	}
}

func TestBuildQuery(t *testing.T) {
	ge, _ := storage.ParseComparison(">=5000")
	q := buildQuery(storage.Filter{
		NameContains: "a.i",
		Prize:        ge,
		StartFrom:    model.NewDate(2025, time.January, 1),
	})

	if re, ok := q["name"].(primitive.Regex); !ok || re.Pattern != `a\.i` || re.Options != "i" {
		t.Errorf("name = %#v", q["name"])
	}
	if prize := q["prize_money"].(bson.M); prize["$gte"] != int64(5000) {
		t.Errorf("prize = %v", prize)
	}
	start := q["start_date"].(bson.M)
	if start["$gte"] != "2025-01-01" || start["$ne"] != "unknown" {
		t.Errorf("start_date = %v", start)
	}
	if len(buildQuery(storage.Filter{})) != 0 {
		t.Errorf("empty filter must produce empty query")
	}
}
