package store

import (
	"context"

	"civicalert-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PaymentSummary is the revenue roll-up for the admin dashboard.
type PaymentSummary struct {
	Count   int64 `json:"count"`
	Revenue int64 `json:"revenue"`
}

// PaymentStore is the accessor for payment records. Records are insert-only.
type PaymentStore struct {
	collection *mongo.Collection
}

func NewPaymentStore(db *mongo.Database) *PaymentStore {
	return &PaymentStore{collection: db.Collection("payments")}
}

// InsertIfAbsent records a payment exactly once per transaction id. The
// unique index on transactionId makes this an atomic check-and-insert:
// a concurrent duplicate surfaces as ErrDuplicate, never a second record.
func (s *PaymentStore) InsertIfAbsent(ctx context.Context, payment models.Payment) error {
	if payment.ID.IsZero() {
		payment.ID = primitive.NewObjectID()
	}
	if _, err := s.collection.InsertOne(ctx, payment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// List returns every payment, newest first.
func (s *PaymentStore) List(ctx context.Context) ([]models.Payment, error) {
	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	payments := []models.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// Summary totals recorded payments for the admin dashboard.
func (s *PaymentStore) Summary(ctx context.Context) (PaymentSummary, error) {
	var summary PaymentSummary

	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return summary, err
	}
	summary.Count = count

	pipeline := []bson.M{
		{"$group": bson.M{"_id": nil, "revenue": bson.M{"$sum": "$amount"}}},
	}
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return summary, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Revenue int64 `bson:"revenue"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return summary, err
	}
	if len(rows) > 0 {
		summary.Revenue = rows[0].Revenue
	}
	return summary, nil
}
