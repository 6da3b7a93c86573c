// internal/app/store/members/memberstore.go

// Package memberstore manages an organization's dues-paying roster. It
// operates on the tenant database resolved for the request, never the
// central directory.
package memberstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/dueshub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrDuplicateMember = errors.New("a member with this name already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("members")}
}

func (s *Store) Create(ctx context.Context, m models.Member) (models.Member, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.FullNameCI = text.Fold(m.FullName)
	if m.Status == "" {
		m.Status = "active"
	}
	m.CreatedAt = now
	m.UpdatedAt = now

	// Tenant databases may predate the unique index on full_name_ci, so the
	// folded name is checked explicitly as well.
	if err := s.c.FindOne(ctx, bson.M{"full_name_ci": m.FullNameCI}).Err(); err == nil {
		return models.Member{}, ErrDuplicateMember
	} else if err != mongo.ErrNoDocuments {
		return models.Member{}, err
	}

	_, err := s.c.InsertOne(ctx, m)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateMember
		}
		return models.Member{}, err
	}
	return m, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Member, error) {
	var m models.Member
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		return models.Member{}, err
	}
	return m, nil
}

// Count returns the roster size.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// List returns members sorted by folded name.
func (s *Store) List(ctx context.Context, limit, offset int64) ([]models.Member, error) {
	opts := options.Find().
		SetSort(bson.M{"full_name_ci": 1}).
		SetLimit(limit).
		SetSkip(offset)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var ms []models.Member
	if err := cur.All(ctx, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// NamesByIDs returns a map of member ID hex to display name for the given
// IDs. Used when exporting ledgers.
func (s *Store) NamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	names := make(map[string]string, len(ids))
	for cur.Next(ctx) {
		var m models.Member
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		names[m.ID.Hex()] = m.FullName
	}
	return names, cur.Err()
}

// Update modifies a member's mutable fields and refreshes UpdatedAt.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, m models.Member) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if m.FullName != "" {
		set["full_name"] = m.FullName
		set["full_name_ci"] = text.Fold(m.FullName)
	}
	if m.Email != "" {
		set["email"] = m.Email
	}
	if m.Phone != "" {
		set["phone"] = m.Phone
	}
	if m.ContactInfo != "" {
		set["contact_info"] = m.ContactInfo
	}
	if m.Status != "" {
		set["status"] = m.Status
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMember
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a member. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
