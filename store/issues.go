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

// IssueFilter narrows the issue list query.
type IssueFilter struct {
	Search   string
	Status   string
	Category string
}

// IssueEdit carries the fields an edit may replace. Nil fields are untouched.
// Status, priority, upvotes and the timeline are never editable this way.
type IssueEdit struct {
	Title       *string
	Description *string
	Category    *string
	Location    *string
	Image       *string
}

// StaffIssueStats summarizes the issues assigned to one staff member.
type StaffIssueStats struct {
	Assigned   int64 `json:"assigned"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Resolved   int64 `json:"resolved"`
}

// CitizenIssueStats summarizes one citizen's reported issues.
type CitizenIssueStats struct {
	Reported        int64 `json:"reported"`
	Resolved        int64 `json:"resolved"`
	Open            int64 `json:"open"`
	UpvotesReceived int64 `json:"upvotesReceived"`
}

// IssueTotals is the global issue breakdown for the admin dashboard.
type IssueTotals struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Resolved   int64 `json:"resolved"`
	Rejected   int64 `json:"rejected"`
	Closed     int64 `json:"closed"`
}

// IssueStore is the accessor for issue documents. Every mutation that must
// not interleave with a concurrent writer is expressed as a single atomic
// document update.
type IssueStore struct {
	collection *mongo.Collection
}

func NewIssueStore(db *mongo.Database) *IssueStore {
	return &IssueStore{collection: db.Collection("issues")}
}

// Create inserts a new issue and returns its id.
func (s *IssueStore) Create(ctx context.Context, issue models.Issue) (primitive.ObjectID, error) {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	_, err := s.collection.InsertOne(ctx, issue)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return issue.ID, nil
}

// buildIssueFilter translates an IssueFilter into a Mongo query document.
func buildIssueFilter(f IssueFilter) bson.M {
	filter := bson.M{}
	if f.Search != "" {
		filter["title"] = bson.M{"$regex": f.Search, "$options": "i"}
	}
	if f.Status != "" && f.Status != "all" {
		filter["status"] = f.Status
	}
	if f.Category != "" && f.Category != "all" {
		filter["category"] = f.Category
	}
	return filter
}

// issueSortOrder sorts High priority before Normal, then newest first.
// "High" < "Normal" lexicographically, so an ascending sort on priority
// puts boosted issues on top.
var issueSortOrder = bson.D{{Key: "priority", Value: 1}, {Key: "createdAt", Value: -1}}

// List returns every issue matching the filter, boosted issues first, then
// newest first. The full result set is returned; there is no pagination.
func (s *IssueStore) List(ctx context.Context, f IssueFilter) ([]models.Issue, error) {
	cursor, err := s.collection.Find(ctx, buildIssueFilter(f), options.Find().SetSort(issueSortOrder))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// GetByID returns one issue. A malformed id is reported as ErrNotFound.
func (s *IssueStore) GetByID(ctx context.Context, id string) (models.Issue, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Issue{}, ErrNotFound
	}

	var issue models.Issue
	if err := s.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&issue); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Issue{}, ErrNotFound
		}
		return models.Issue{}, err
	}
	return issue, nil
}

// ByCreator returns every issue reported by the given identity, newest first.
func (s *IssueStore) ByCreator(ctx context.Context, email string) ([]models.Issue, error) {
	return s.find(ctx, bson.M{"createdBy": email})
}

// ByAssignee returns every issue assigned to the given staff email.
func (s *IssueStore) ByAssignee(ctx context.Context, email string) ([]models.Issue, error) {
	return s.find(ctx, bson.M{"assignedStaff.email": email})
}

func (s *IssueStore) find(ctx context.Context, filter bson.M) ([]models.Issue, error) {
	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// Upvote records one vote by voter. The increment and the membership append
// are a single document update whose filter excludes the creator and prior
// voters, so concurrent votes cannot double-count. When the update matches
// nothing, the issue is re-read once to name the reason.
func (s *IssueStore) Upvote(ctx context.Context, id, voter string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := s.collection.UpdateOne(ctx,
		bson.M{
			"_id":       objID,
			"createdBy": bson.M{"$ne": voter},
			"upvotedBy": bson.M{"$ne": voter},
		},
		bson.M{
			"$inc":      bson.M{"upvotes": 1},
			"$addToSet": bson.M{"upvotedBy": voter},
			"$set":      bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 1 {
		return nil
	}

	issue, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if issue.CreatedBy == voter {
		return ErrSelfVote
	}
	for _, v := range issue.UpvotedBy {
		if v == voter {
			return ErrAlreadyVoted
		}
	}
	// Lost a race with a concurrent identical vote; treat it as a duplicate.
	return ErrAlreadyVoted
}

// HasUpvoted reports whether email appears in the issue's voter set. A
// missing or malformed id yields false, never an error.
func (s *IssueStore) HasUpvoted(ctx context.Context, id, email string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	count, err := s.collection.CountDocuments(ctx, bson.M{"_id": objID, "upvotedBy": email})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update replaces only the descriptive fields of an issue.
func (s *IssueStore) Update(ctx context.Context, id string, edit IssueEdit) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	set := bson.M{"updatedAt": time.Now()}
	if edit.Title != nil {
		set["title"] = *edit.Title
	}
	if edit.Description != nil {
		set["description"] = *edit.Description
	}
	if edit.Category != nil {
		set["category"] = *edit.Category
	}
	if edit.Location != nil {
		set["location"] = *edit.Location
	}
	if edit.Image != nil {
		set["image"] = *edit.Image
	}

	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an issue by id.
func (s *IssueStore) Delete(ctx context.Context, id string) error {
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

// appendEvent is the only way timeline entries come into existence: a $push
// combined with whatever $set the transition needs, in one atomic update.
func (s *IssueStore) appendEvent(ctx context.Context, objID primitive.ObjectID, set bson.M, entry models.TimelineEntry) error {
	set["updatedAt"] = entry.Timestamp
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": set, "$push": bson.M{"timeline": entry}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Assign sets the staff reference and forces status back to Pending:
// assignment never advances status, staff must explicitly start work.
func (s *IssueStore) Assign(ctx context.Context, id string, staff models.StaffRef, actor string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	return s.appendEvent(ctx, objID,
		bson.M{"assignedStaff": staff, "status": models.StatusPending},
		models.TimelineEntry{
			Status:    models.StatusPending,
			Message:   "Assigned to " + staff.Name,
			Actor:     actor,
			Timestamp: time.Now(),
		},
	)
}

// Reject marks an issue Rejected.
func (s *IssueStore) Reject(ctx context.Context, id, actor string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	return s.appendEvent(ctx, objID,
		bson.M{"status": models.StatusRejected},
		models.TimelineEntry{
			Status:    models.StatusRejected,
			Message:   "Issue rejected",
			Actor:     actor,
			Timestamp: time.Now(),
		},
	)
}

// SetStatus moves an issue to the requested status. Transitions are not
// validated; any status may follow any other.
func (s *IssueStore) SetStatus(ctx context.Context, id string, status models.IssueStatus, actor string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	return s.appendEvent(ctx, objID,
		bson.M{"status": status},
		models.TimelineEntry{
			Status:    status,
			Message:   "Status changed to " + string(status),
			Actor:     actor,
			Timestamp: time.Now(),
		},
	)
}

// Promote applies a paid boost: priority High, payment marked Paid, one
// timeline entry. The paymentStatus filter keeps a duplicate promotion from
// appending a second entry.
func (s *IssueStore) Promote(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	_, err = s.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "paymentStatus": bson.M{"$ne": models.PaymentPaid}},
		bson.M{
			"$set": bson.M{
				"priority":      models.PriorityHigh,
				"paymentStatus": models.PaymentPaid,
				"updatedAt":     time.Now(),
			},
			"$push": bson.M{"timeline": models.TimelineEntry{
				Status:    models.StatusPending,
				Message:   "Priority boosted to High",
				Actor:     "system",
				Timestamp: time.Now(),
			}},
		},
	)
	return err
}

// StaffStats counts the issues assigned to one staff member by status.
func (s *IssueStore) StaffStats(ctx context.Context, email string) (StaffIssueStats, error) {
	base := bson.M{"assignedStaff.email": email}
	var stats StaffIssueStats
	var err error

	if stats.Assigned, err = s.collection.CountDocuments(ctx, base); err != nil {
		return stats, err
	}
	if stats.Pending, err = s.count(ctx, base, "status", models.StatusPending); err != nil {
		return stats, err
	}
	if stats.InProgress, err = s.count(ctx, base, "status", models.StatusInProgress); err != nil {
		return stats, err
	}
	if stats.Resolved, err = s.count(ctx, base, "status", models.StatusResolved); err != nil {
		return stats, err
	}
	return stats, nil
}

// CitizenStats summarizes one citizen's reported issues, including total
// upvotes received across them.
func (s *IssueStore) CitizenStats(ctx context.Context, email string) (CitizenIssueStats, error) {
	base := bson.M{"createdBy": email}
	var stats CitizenIssueStats
	var err error

	if stats.Reported, err = s.collection.CountDocuments(ctx, base); err != nil {
		return stats, err
	}
	if stats.Resolved, err = s.count(ctx, base, "status", models.StatusResolved); err != nil {
		return stats, err
	}
	open, err := s.collection.CountDocuments(ctx, bson.M{
		"createdBy": email,
		"status":    bson.M{"$in": []models.IssueStatus{models.StatusPending, models.StatusInProgress}},
	})
	if err != nil {
		return stats, err
	}
	stats.Open = open

	pipeline := []bson.M{
		{"$match": base},
		{"$group": bson.M{"_id": nil, "upvotes": bson.M{"$sum": "$upvotes"}}},
	}
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return stats, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Upvotes int64 `bson:"upvotes"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return stats, err
	}
	if len(rows) > 0 {
		stats.UpvotesReceived = rows[0].Upvotes
	}
	return stats, nil
}

// Totals breaks all issues down by status for the admin dashboard.
func (s *IssueStore) Totals(ctx context.Context) (IssueTotals, error) {
	var totals IssueTotals
	var err error

	if totals.Total, err = s.collection.CountDocuments(ctx, bson.M{}); err != nil {
		return totals, err
	}
	if totals.Pending, err = s.count(ctx, bson.M{}, "status", models.StatusPending); err != nil {
		return totals, err
	}
	if totals.InProgress, err = s.count(ctx, bson.M{}, "status", models.StatusInProgress); err != nil {
		return totals, err
	}
	if totals.Resolved, err = s.count(ctx, bson.M{}, "status", models.StatusResolved); err != nil {
		return totals, err
	}
	if totals.Rejected, err = s.count(ctx, bson.M{}, "status", models.StatusRejected); err != nil {
		return totals, err
	}
	if totals.Closed, err = s.count(ctx, bson.M{}, "status", models.StatusClosed); err != nil {
		return totals, err
	}
	return totals, nil
}

func (s *IssueStore) count(ctx context.Context, base bson.M, key string, value interface{}) (int64, error) {
	filter := bson.M{key: value}
	for k, v := range base {
		filter[k] = v
	}
	return s.collection.CountDocuments(ctx, filter)
}
