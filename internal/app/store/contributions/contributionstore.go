// internal/app/store/contributions/contributionstore.go

// Package contributionstore manages the dues ledger in a tenant database.
// Contributions are append-only: corrections happen by voiding, never by
// deleting, so receipts stay accountable.
package contributionstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/dueshub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrBadAmount     = errors.New("amount must be positive")
	ErrAlreadyVoided = errors.New("contribution is already voided")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contributions")}
}

// Record inserts a new contribution, assigning its receipt number.
func (s *Store) Record(ctx context.Context, c models.Contribution) (models.Contribution, error) {
	if c.AmountCents <= 0 {
		return models.Contribution{}, ErrBadAmount
	}
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.ReceiptNo = uuid.NewString()
	c.Status = models.ContributionRecorded
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Contribution{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Contribution, error) {
	var c models.Contribution
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		return models.Contribution{}, err
	}
	return c, nil
}

// Filter narrows List and SumByPeriod results. Zero fields are ignored.
type Filter struct {
	MemberID primitive.ObjectID
	Period   string
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.MemberID != primitive.NilObjectID {
		q["member_id"] = f.MemberID
	}
	if f.Period != "" {
		q["period"] = f.Period
	}
	return q
}

// List returns contributions newest first.
func (s *Store) List(ctx context.Context, f Filter, limit, offset int64) ([]models.Contribution, error) {
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(limit).
		SetSkip(offset)
	cur, err := s.c.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var cs []models.Contribution
	if err := cur.All(ctx, &cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// ListAll returns every matching contribution without paging. Used by the
// CSV export, which streams the full ledger.
func (s *Store) ListAll(ctx context.Context, f Filter) ([]models.Contribution, error) {
	opts := options.Find().SetSort(bson.M{"created_at": 1})
	cur, err := s.c.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var cs []models.Contribution
	if err := cur.All(ctx, &cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// Void marks a contribution voided. Voided rows are excluded from totals
// but remain in the ledger.
func (s *Store) Void(ctx context.Context, id primitive.ObjectID, reason string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.ContributionRecorded},
		bson.M{"$set": bson.M{
			"status":      models.ContributionVoided,
			"void_reason": reason,
			"updated_at":  time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Either absent or already voided; distinguish for the caller.
		if err := s.c.FindOne(ctx, bson.M{"_id": id}).Err(); err == mongo.ErrNoDocuments {
			return mongo.ErrNoDocuments
		}
		return ErrAlreadyVoided
	}
	return nil
}

// PeriodTotal is an aggregate of recorded contributions for one period.
type PeriodTotal struct {
	Period      string `bson:"_id" json:"period"`
	AmountCents int64  `bson:"amount_cents" json:"amount_cents"`
	Count       int64  `bson:"count" json:"count"`
}

// TotalsByPeriod sums recorded (non-voided) contributions grouped by
// period, newest period first.
func (s *Store) TotalsByPeriod(ctx context.Context) ([]PeriodTotal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.ContributionRecorded}}},
		{{Key: "$group", Value: bson.M{
			"_id":          "$period",
			"amount_cents": bson.M{"$sum": "$amount_cents"},
			"count":        bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": -1}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var totals []PeriodTotal
	if err := cur.All(ctx, &totals); err != nil {
		return nil, err
	}
	return totals, nil
}
