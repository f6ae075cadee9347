// Package mongoout upserts exported cards into a MongoDB collection.
package mongoout

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/duoload/pkg/output"
	"github.com/Sternrassler/duoload/pkg/vocab"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultBatchSize is the number of upserts sent per BulkWrite.
const DefaultBatchSize = 500

// Document is the stored form of a card. Word is unique per collection.
type Document struct {
	Word           string    `bson:"word"`
	Translation    string    `bson:"translation"`
	Example        *string   `bson:"example"`
	LearningStatus string    `bson:"learning_status"`
	ExportedAt     time.Time `bson:"exported_at"`
}

// NewDocument converts a card. A card without example stores a null example.
func NewDocument(c vocab.Card, exportedAt time.Time) Document {
	d := Document{
		Word:           c.Word,
		Translation:    c.Translation,
		LearningStatus: c.Status.String(),
		ExportedAt:     exportedAt,
	}
	if c.HasExample() {
		example := c.Example
		d.Example = &example
	}
	return d
}

// Sink accumulates cards and upserts them into a collection on Finalize.
// Re-exporting a deck into the same collection replaces cards by word.
type Sink struct {
	db        *mongo.Database
	cards     []vocab.Card
	words     map[string]struct{}
	batchSize int
	logger    zerolog.Logger
	now       func() time.Time
}

// New returns a sink writing into db.
func New(db *mongo.Database) *Sink {
	return &Sink{
		db:        db,
		words:     make(map[string]struct{}),
		batchSize: DefaultBatchSize,
		logger:    log.With().Str("component", "mongo-output").Logger(),
		now:       time.Now,
	}
}

// Add queues card unless a card with the same word was already queued.
func (s *Sink) Add(card vocab.Card) (bool, error) {
	if _, ok := s.words[card.Word]; ok {
		return false, nil
	}
	s.words[card.Word] = struct{}{}
	s.cards = append(s.cards, card)
	return true, nil
}

// Len returns the number of queued cards.
func (s *Sink) Len() int {
	return len(s.cards)
}

// Finalize upserts every queued card into the collection named by dest.
func (s *Sink) Finalize(ctx context.Context, dest output.Destination) error {
	if dest.Kind != output.KindCollection {
		return output.Unsupported("mongo", dest)
	}
	if dest.Name == "" {
		return fmt.Errorf("collection destination has no name")
	}
	if s.db == nil {
		return fmt.Errorf("mongo sink has no database")
	}

	coll := s.db.Collection(dest.Name)

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "word", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create word index on %s: %w", dest.Name, err)
	}

	exportedAt := s.now().UTC()
	var upserted, modified int64

	for start := 0; start < len(s.cards); start += s.batchSize {
		end := start + s.batchSize
		if end > len(s.cards) {
			end = len(s.cards)
		}

		writes := make([]mongo.WriteModel, 0, end-start)
		for _, card := range s.cards[start:end] {
			writes = append(writes, mongo.NewReplaceOneModel().
				SetFilter(bson.M{"word": card.Word}).
				SetReplacement(NewDocument(card, exportedAt)).
				SetUpsert(true))
		}

		res, err := coll.BulkWrite(ctx, writes)
		if err != nil {
			return fmt.Errorf("bulk write to %s: %w", dest.Name, err)
		}
		upserted += res.UpsertedCount
		modified += res.ModifiedCount

		s.logger.Debug().
			Str("collection", dest.Name).
			Int("batch", end-start).
			Int64("matched", res.MatchedCount).
			Int64("upserted", res.UpsertedCount).
			Msg("Mongo bulk write")
	}

	s.logger.Info().
		Str("destination", dest.String()).
		Int("cards", len(s.cards)).
		Int64("upserted", upserted).
		Int64("modified", modified).
		Msg("Cards written to MongoDB")
	return nil
}

// Connect opens a client for uri and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("create mongodb client: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, fmt.Errorf("connect to mongodb (ping failed): %w", err)
	}

	return client, nil
}
