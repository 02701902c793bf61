package store

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/stretchr/testify/assert"
)

func TestBuildIssueFilterEmpty(t *testing.T) {
	assert.Equal(t, bson.M{}, buildIssueFilter(IssueFilter{}))
}

func TestBuildIssueFilterSearchIsCaseInsensitive(t *testing.T) {
	filter := buildIssueFilter(IssueFilter{Search: "pothole"})
	assert.Equal(t, bson.M{"title": bson.M{"$regex": "pothole", "$options": "i"}}, filter)
}

func TestBuildIssueFilterExactMatches(t *testing.T) {
	filter := buildIssueFilter(IssueFilter{Status: "Pending", Category: "Road"})
	assert.Equal(t, bson.M{"status": "Pending", "category": "Road"}, filter)
}

func TestBuildIssueFilterIgnoresAll(t *testing.T) {
	filter := buildIssueFilter(IssueFilter{Status: "all", Category: "all", Search: "water"})
	assert.Equal(t, bson.M{"title": bson.M{"$regex": "water", "$options": "i"}}, filter)
}

func TestIssueSortOrderPutsHighPriorityFirst(t *testing.T) {
	// "High" < "Normal" lexicographically, so the ascending priority key
	// sorts boosted issues before normal ones, then newest first.
	assert.Equal(t, bson.D{{Key: "priority", Value: 1}, {Key: "createdAt", Value: -1}}, issueSortOrder)
	assert.Less(t, "High", "Normal")
}
