package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"hackathon-sync/internal/model"
	"hackathon-sync/internal/observability"
	"hackathon-sync/internal/storage"
)

const collectionName = "hackathons"

// eventDoc хранит запись в формате обмена: даты "YYYY-MM-DD" или "unknown",
// приз числом или "unspecified".
type eventDoc struct {
	Key        string      `bson:"_id,omitempty"`
	Name       string      `bson:"name"`
	StartDate  string      `bson:"start_date"`
	EndDate    string      `bson:"end_date"`
	Mode       string      `bson:"mode"`
	Location   string      `bson:"location"`
	PrizeMoney interface{} `bson:"prize_money"`
	ApplyLink  string      `bson:"apply_link"`
	Source     string      `bson:"source"`
	UpdatedAt  time.Time   `bson:"updated_at"`
}

func toDoc(rec storage.Record, now time.Time) eventDoc {
	ev := rec.Event
	var prize interface{} = model.UnspecifiedPrizeText
	if amount, ok := ev.PrizeMoney.Amount(); ok {
		prize = amount
	}
	return eventDoc{
		Key:        rec.Key,
		Name:       ev.Name,
		StartDate:  ev.StartDate.String(),
		EndDate:    ev.EndDate.String(),
		Mode:       string(ev.Mode),
		Location:   ev.Location,
		PrizeMoney: prize,
		ApplyLink:  ev.ApplyLink,
		Source:     string(ev.Source),
		UpdatedAt:  now,
	}
}

func (d eventDoc) toEvent() (model.Event, error) {
	start, err := model.ParseDate(d.StartDate)
	if err != nil {
		return model.Event{}, err
	}
	end, err := model.ParseDate(d.EndDate)
	if err != nil {
		return model.Event{}, err
	}

	prize := model.UnspecifiedPrize()
	switch v := d.PrizeMoney.(type) {
	case int64:
		prize = model.PrizeOf(v)
	case int32:
		prize = model.PrizeOf(int64(v))
	case float64:
		prize = model.PrizeOf(int64(v))
	}

	return model.Event{
		Name:       d.Name,
		StartDate:  start,
		EndDate:    end,
		Mode:       model.Mode(d.Mode),
		Location:   d.Location,
		PrizeMoney: prize,
		ApplyLink:  d.ApplyLink,
		Source:     model.Source(d.Source),
	}, nil
}

// Repository: коллекция с ключом записи в _id. ReplaceSource не реализован:
// транзакции требуют replica set, раздел заменяется удалением и вставкой.
type Repository struct {
	client         *mongo.Client
	coll           *mongo.Collection
	commandTimeout time.Duration
	batchSize      int
	logger         *observability.Logger
}

func NewRepository(ctx context.Context, uri, database string, commandTimeoutMS, batchSize int, logger *observability.Logger) (*Repository, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	coll := client.Database(database).Collection(collectionName)
	_, err = coll.Indexes().CreateMany(connectCtx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "source", Value: 1}, {Key: "start_date", Value: 1}, {Key: "name", Value: 1}}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	if batchSize <= 0 {
		batchSize = 200
	}

	return &Repository{
		client:         client,
		coll:           coll,
		commandTimeout: time.Duration(commandTimeoutMS) * time.Millisecond,
		batchSize:      batchSize,
		logger:         logger,
	}, nil
}

// InsertIfAbsent: upsert с $setOnInsert: существующий документ не меняется.
func (r *Repository) InsertIfAbsent(ctx context.Context, records []storage.Record) (int, error) {
	now := time.Now().UTC()
	inserted := 0
	err := r.bulk(ctx, records, func(rec storage.Record) mongo.WriteModel {
		doc := toDoc(rec, now)
		doc.Key = ""
		return mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": rec.Key}).
			SetUpdate(bson.M{"$setOnInsert": doc}).
			SetUpsert(true)
	}, func(res *mongo.BulkWriteResult) {
		inserted += int(res.UpsertedCount)
	})
	return inserted, err
}

func (r *Repository) Upsert(ctx context.Context, records []storage.Record) (int, int, error) {
	now := time.Now().UTC()
	inserted, updated := 0, 0
	err := r.bulk(ctx, records, func(rec storage.Record) mongo.WriteModel {
		return mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": rec.Key}).
			SetReplacement(toDoc(rec, now)).
			SetUpsert(true)
	}, func(res *mongo.BulkWriteResult) {
		inserted += int(res.UpsertedCount)
		updated += int(res.MatchedCount)
	})
	return inserted, updated, err
}

func (r *Repository) bulk(ctx context.Context, records []storage.Record, build func(storage.Record) mongo.WriteModel, collect func(*mongo.BulkWriteResult)) error {
	for i := 0; i < len(records); i += r.batchSize {
		j := i + r.batchSize
		if j > len(records) {
			j = len(records)
		}
		models := make([]mongo.WriteModel, 0, j-i)
		for _, rec := range records[i:j] {
			models = append(models, build(rec))
		}

		opCtx, cancel := context.WithTimeout(ctx, r.commandTimeout)
		res, err := r.coll.BulkWrite(opCtx, models, options.BulkWrite().SetOrdered(false))
		cancel()
		if err != nil {
			return fmt.Errorf("failed to bulk write: %w", err)
		}
		collect(res)
	}
	return nil
}

func (r *Repository) DeleteSource(ctx context.Context, src model.Source) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"source": string(src)})
	if err != nil {
		return 0, fmt.Errorf("failed to delete source: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (r *Repository) Find(ctx context.Context, filter storage.Filter) ([]model.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "source", Value: 1}, {Key: "start_date", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := r.coll.Find(ctx, buildQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}
	defer func() {
		if err := cursor.Close(context.Background()); err != nil {
			r.logger.Error("Failed to close cursor", "error", err.Error())
		}
	}()

	var docs []eventDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}

	events := make([]model.Event, 0, len(docs))
	for _, d := range docs {
		ev, err := d.toEvent()
		if err != nil {
			r.logger.Warn("Skipping malformed document", "key", d.Key, "error", err.Error())
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// buildQuery переводит фильтр в запрос. "unknown" лексикографически больше любой
// ISO-даты, поэтому для start_from он исключается явно; строка "unspecified"
// не сравнивается с числами.
func buildQuery(f storage.Filter) bson.M {
	q := bson.M{}
	if f.Source != "" {
		q["source"] = string(f.Source)
	}
	if f.Mode != "" {
		q["mode"] = string(f.Mode)
	}
	if f.NameContains != "" {
		q["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.NameContains), Options: "i"}
	}
	if f.Location != "" {
		q["location"] = f.Location
	}
	if f.Prize != nil {
		q["prize_money"] = bson.M{comparisonOps[f.Prize.Op]: f.Prize.Value}
	}
	if f.StartFrom.Known() {
		q["start_date"] = bson.M{"$gte": f.StartFrom.String(), "$ne": model.UnknownDateText}
	}
	if f.EndUntil.Known() {
		q["end_date"] = bson.M{"$lte": f.EndUntil.String(), "$ne": model.UnknownDateText}
	}
	return q
}

var comparisonOps = map[storage.Op]string{
	storage.OpGT: "$gt",
	storage.OpGE: "$gte",
	storage.OpLT: "$lt",
	storage.OpLE: "$lte",
	storage.OpEQ: "$eq",
}

func (r *Repository) Count(ctx context.Context, src model.Source) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	q := bson.M{}
	if src != "" {
		q["source"] = string(src)
	}
	n, err := r.coll.CountDocuments(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(n), nil
}

func (r *Repository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
