package identity

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// account is a credential record in the identity_accounts collection,
// separate from the application's user profiles.
type account struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Name         string             `bson:"name"`
	PasswordHash string             `bson:"passwordHash"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

// AccountStore implements Provider over a MongoDB collection.
type AccountStore struct {
	collection *mongo.Collection
}

func NewAccountStore(db *mongo.Database) *AccountStore {
	return &AccountStore{collection: db.Collection("identity_accounts")}
}

// EnsureIndexes creates the unique email index for credential records.
func (s *AccountStore) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err := s.collection.Indexes().CreateOne(ctx, indexModel)
	return err
}

// CreateAccount provisions a credential record and returns its unique id.
func (s *AccountStore) CreateAccount(ctx context.Context, email, password, name string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	acct := account{
		ID:           primitive.NewObjectID(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hashed),
		CreatedAt:    time.Now(),
	}

	if _, err := s.collection.InsertOne(ctx, acct); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrAccountExists
		}
		return "", err
	}

	return acct.ID.Hex(), nil
}

// Authenticate checks an email/password pair and returns the account's unique id.
func (s *AccountStore) Authenticate(ctx context.Context, email, password string) (string, error) {
	var acct account
	if err := s.collection.FindOne(ctx, bson.M{"email": email}).Decode(&acct); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", ErrBadCredentials
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return "", ErrBadCredentials
	}

	return acct.ID.Hex(), nil
}

// DeleteAccount removes a credential record by its unique id. Missing
// accounts are not an error so staff deletion stays idempotent.
func (s *AccountStore) DeleteAccount(ctx context.Context, uid string) error {
	id, err := primitive.ObjectIDFromHex(uid)
	if err != nil {
		return nil
	}
	_, err = s.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
