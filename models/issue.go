package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// IssueStatus enum
type IssueStatus string

const (
	StatusPending    IssueStatus = "Pending"
	StatusInProgress IssueStatus = "In Progress"
	StatusResolved   IssueStatus = "Resolved"
	StatusRejected   IssueStatus = "Rejected"
	StatusClosed     IssueStatus = "Closed"
)

// ValidStatus reports whether s is one of the known issue statuses.
func ValidStatus(s string) bool {
	switch IssueStatus(s) {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected, StatusClosed:
		return true
	}
	return false
}

// IssuePriority enum
type IssuePriority string

const (
	PriorityNormal IssuePriority = "Normal"
	PriorityHigh   IssuePriority = "High"
)

// PaymentState of an issue's boost, only meaningful once a boost is attempted.
type PaymentState string

const (
	PaymentPending PaymentState = "Pending"
	PaymentPaid    PaymentState = "Paid"
)

// StaffRef is a denormalized reference to the staff member assigned to an issue.
type StaffRef struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
}

// TimelineEntry is one event in an issue's audit timeline. Entries are only
// ever appended; existing entries are never altered or reordered.
type TimelineEntry struct {
	Status    IssueStatus `bson:"status" json:"status"`
	Message   string      `bson:"message" json:"message"`
	Actor     string      `bson:"actor" json:"actor"`
	Timestamp time.Time   `bson:"timestamp" json:"timestamp"`
}

// Issue represents a civic issue reported by a citizen
type Issue struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Category      string             `bson:"category" json:"category"`
	Location      string             `bson:"location" json:"location"`
	Image         string             `bson:"image,omitempty" json:"image,omitempty"`
	Priority      IssuePriority      `bson:"priority" json:"priority"`
	Status        IssueStatus        `bson:"status" json:"status"`
	PaymentStatus PaymentState       `bson:"paymentStatus,omitempty" json:"paymentStatus,omitempty"`
	Upvotes       int64              `bson:"upvotes" json:"upvotes"`
	UpvotedBy     []string           `bson:"upvotedBy" json:"upvotedBy"`
	AssignedStaff *StaffRef          `bson:"assignedStaff,omitempty" json:"assignedStaff,omitempty"`
	Timeline      []TimelineEntry    `bson:"timeline" json:"timeline"`
	CreatedBy     string             `bson:"createdBy" json:"createdBy"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewIssue builds a fresh issue in its initial state: Pending, no upvotes,
// and a single timeline entry recording the submission.
func NewIssue(title, description, category, location, image string, priority IssuePriority, createdBy string) Issue {
	now := time.Now()
	if priority == "" {
		priority = PriorityNormal
	}
	return Issue{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: description,
		Category:    category,
		Location:    location,
		Image:       image,
		Priority:    priority,
		Status:      StatusPending,
		Upvotes:     0,
		UpvotedBy:   []string{},
		Timeline: []TimelineEntry{{
			Status:    StatusPending,
			Message:   "Issue reported",
			Actor:     createdBy,
			Timestamp: now,
		}},
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// EnsureIssueIndexes creates the indexes the list queries lean on.
func EnsureIssueIndexes(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "priority", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}}},
		{Keys: bson.D{{Key: "assignedStaff.email", Value: 1}}},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexModels)
	return err
}
