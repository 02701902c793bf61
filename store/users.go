package store

import (
	"context"
	"time"

	"civicalert-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserCounts is the account breakdown for the admin dashboard.
type UserCounts struct {
	Total   int64 `json:"total"`
	Staff   int64 `json:"staff"`
	Premium int64 `json:"premium"`
	Blocked int64 `json:"blocked"`
}

// UserStore is the accessor for user documents, keyed by email.
type UserStore struct {
	collection *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{collection: db.Collection("users")}
}

// CreateCitizen registers a citizen account on first sign-in. Registration is
// idempotent by email: an existing account makes this a no-op, reported via
// the returned flag.
func (s *UserStore) CreateCitizen(ctx context.Context, email, name string) (created bool, err error) {
	now := time.Now()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Name:      name,
		Role:      models.RoleCitizen,
		IsPremium: false,
		IsBlocked: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateStaff persists a staff record referencing the identity provider's
// uid. The provider account must exist before this is called.
func (s *UserStore) CreateStaff(ctx context.Context, user models.User) error {
	if _, err := s.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByEmail returns one user record.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := s.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// GetByID returns one user record by object id.
func (s *UserStore) GetByID(ctx context.Context, id string) (models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, ErrNotFound
	}

	var user models.User
	if err := s.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// ListAll returns every user, newest first.
func (s *UserStore) ListAll(ctx context.Context) ([]models.User, error) {
	return s.find(ctx, bson.M{})
}

// ListStaff returns every staff account.
func (s *UserStore) ListStaff(ctx context.Context) ([]models.User, error) {
	return s.find(ctx, bson.M{"role": models.RoleStaff})
}

func (s *UserStore) find(ctx context.Context, filter bson.M) ([]models.User, error) {
	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateName changes a staff member's display name.
func (s *UserStore) UpdateName(ctx context.Context, id, name string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": objID},
		bson.M{"$set": bson.M{"name": name, "updatedAt": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user record by id.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetBlocked toggles an account's blocked flag.
func (s *UserStore) SetBlocked(ctx context.Context, id string, blocked bool) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": objID},
		bson.M{"$set": bson.M{"isBlocked": blocked, "updatedAt": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPremium grants or revokes premium on the account with the given email.
func (s *UserStore) SetPremium(ctx context.Context, email string, premium bool) error {
	res, err := s.collection.UpdateOne(ctx, bson.M{"email": email},
		bson.M{"$set": bson.M{"isPremium": premium, "updatedAt": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Counts breaks accounts down for the admin dashboard.
func (s *UserStore) Counts(ctx context.Context) (UserCounts, error) {
	var counts UserCounts
	var err error

	if counts.Total, err = s.collection.CountDocuments(ctx, bson.M{}); err != nil {
		return counts, err
	}
	if counts.Staff, err = s.collection.CountDocuments(ctx, bson.M{"role": models.RoleStaff}); err != nil {
		return counts, err
	}
	if counts.Premium, err = s.collection.CountDocuments(ctx, bson.M{"isPremium": true}); err != nil {
		return counts, err
	}
	if counts.Blocked, err = s.collection.CountDocuments(ctx, bson.M{"isBlocked": true}); err != nil {
		return counts, err
	}
	return counts, nil
}
