// internal/app/store/expenses/expensestore.go

// Package expensestore manages expenses and budgets in a tenant database.
package expensestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/dueshub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrBadAmount       = errors.New("amount must be positive")
	ErrDuplicateBudget = errors.New("a budget for this category and period already exists")
)

type Store struct {
	expenses *mongo.Collection
	budgets  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		expenses: db.Collection("expenses"),
		budgets:  db.Collection("budgets"),
	}
}

// AddExpense inserts an expense, assigning its reference number.
func (s *Store) AddExpense(ctx context.Context, e models.Expense) (models.Expense, error) {
	if e.AmountCents <= 0 {
		return models.Expense{}, ErrBadAmount
	}
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.RefNo = uuid.NewString()
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.expenses.InsertOne(ctx, e); err != nil {
		return models.Expense{}, err
	}
	return e, nil
}

// ListExpenses returns expenses newest first, optionally filtered by period.
func (s *Store) ListExpenses(ctx context.Context, period string, limit, offset int64) ([]models.Expense, error) {
	q := bson.M{}
	if period != "" {
		q["period"] = period
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(limit).
		SetSkip(offset)
	cur, err := s.expenses.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var es []models.Expense
	if err := cur.All(ctx, &es); err != nil {
		return nil, err
	}
	return es, nil
}

// ListAllExpenses returns every matching expense without paging, oldest
// first. Used by the CSV export.
func (s *Store) ListAllExpenses(ctx context.Context, period string) ([]models.Expense, error) {
	q := bson.M{}
	if period != "" {
		q["period"] = period
	}
	cur, err := s.expenses.Find(ctx, q, options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var es []models.Expense
	if err := cur.All(ctx, &es); err != nil {
		return nil, err
	}
	return es, nil
}

// DeleteExpense removes an expense. Returns the number deleted (0 or 1).
func (s *Store) DeleteExpense(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.expenses.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// SetBudget creates or replaces the budget for (category, period).
func (s *Store) SetBudget(ctx context.Context, b models.Budget) (models.Budget, error) {
	if b.LimitCents <= 0 {
		return models.Budget{}, ErrBadAmount
	}
	now := time.Now().UTC()
	filter := bson.M{"category": b.Category, "period": b.Period}
	update := bson.M{
		"$set": bson.M{
			"limit_cents": b.LimitCents,
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"category":   b.Category,
			"period":     b.Period,
			"created_at": now,
		},
	}
	_, err := s.budgets.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Budget{}, ErrDuplicateBudget
		}
		return models.Budget{}, err
	}
	var saved models.Budget
	if err := s.budgets.FindOne(ctx, filter).Decode(&saved); err != nil {
		return models.Budget{}, err
	}
	return saved, nil
}

// ListBudgets returns budgets for a period, sorted by category.
func (s *Store) ListBudgets(ctx context.Context, period string) ([]models.Budget, error) {
	q := bson.M{}
	if period != "" {
		q["period"] = period
	}
	cur, err := s.budgets.Find(ctx, q, options.Find().SetSort(bson.M{"category": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var bs []models.Budget
	if err := cur.All(ctx, &bs); err != nil {
		return nil, err
	}
	return bs, nil
}

// CategorySpend is the spent total for one category within a period.
type CategorySpend struct {
	Category    string `bson:"_id" json:"category"`
	AmountCents int64  `bson:"amount_cents" json:"amount_cents"`
}

// SpendByCategory sums expenses grouped by category for a period.
func (s *Store) SpendByCategory(ctx context.Context, period string) ([]CategorySpend, error) {
	match := bson.M{}
	if period != "" {
		match["period"] = period
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":          "$category",
			"amount_cents": bson.M{"$sum": "$amount_cents"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cur, err := s.expenses.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var spend []CategorySpend
	if err := cur.All(ctx, &spend); err != nil {
		return nil, err
	}
	return spend, nil
}
