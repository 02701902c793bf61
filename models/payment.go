package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PaymentType enum
type PaymentType string

const (
	PaymentSubscription   PaymentType = "subscription"
	PaymentIssuePromotion PaymentType = "issue_promotion"
)

// Payment is the record of one completed checkout session. Exactly one record
// exists per provider transaction id; records are never mutated or deleted.
type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TransactionID string             `bson:"transactionId" json:"transactionId"`
	Email         string             `bson:"email" json:"email"`
	Name          string             `bson:"name" json:"name"`
	Amount        int64              `bson:"amount" json:"amount"`
	Date          time.Time          `bson:"date" json:"date"`
	Type          PaymentType        `bson:"type" json:"type"`
	Status        string             `bson:"status" json:"status"`
}

// EnsurePaymentIndexes creates the unique index on transactionId. Duplicate
// completion callbacks rely on this index to make recording a payment an
// atomic insert-if-absent.
func EnsurePaymentIndexes(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "transactionId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}
