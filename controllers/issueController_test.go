package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"civicalert-be/authz"
	"civicalert-be/config"
	"civicalert-be/middlewares"
	"civicalert-be/models"
	"civicalert-be/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memIssues is an in-memory IssueStore mirroring the accessor's semantics.
type memIssues struct {
	byID map[string]*models.Issue
}

func newMemIssues() *memIssues {
	return &memIssues{byID: map[string]*models.Issue{}}
}

func (m *memIssues) Create(_ context.Context, issue models.Issue) (primitive.ObjectID, error) {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	m.byID[issue.ID.Hex()] = &issue
	return issue.ID, nil
}

func (m *memIssues) List(_ context.Context, f store.IssueFilter) ([]models.Issue, error) {
	out := []models.Issue{}
	for _, issue := range m.byID {
		if f.Status != "" && string(issue.Status) != f.Status {
			continue
		}
		if f.Category != "" && issue.Category != f.Category {
			continue
		}
		out = append(out, *issue)
	}
	return out, nil
}

func (m *memIssues) get(id string) (*models.Issue, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, store.ErrNotFound
	}
	issue, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return issue, nil
}

func (m *memIssues) GetByID(_ context.Context, id string) (models.Issue, error) {
	issue, err := m.get(id)
	if err != nil {
		return models.Issue{}, err
	}
	return *issue, nil
}

func (m *memIssues) ByCreator(_ context.Context, email string) ([]models.Issue, error) {
	out := []models.Issue{}
	for _, issue := range m.byID {
		if issue.CreatedBy == email {
			out = append(out, *issue)
		}
	}
	return out, nil
}

func (m *memIssues) ByAssignee(_ context.Context, email string) ([]models.Issue, error) {
	out := []models.Issue{}
	for _, issue := range m.byID {
		if issue.AssignedStaff != nil && issue.AssignedStaff.Email == email {
			out = append(out, *issue)
		}
	}
	return out, nil
}

func (m *memIssues) Upvote(_ context.Context, id, voter string) error {
	issue, err := m.get(id)
	if err != nil {
		return err
	}
	if issue.CreatedBy == voter {
		return store.ErrSelfVote
	}
	for _, v := range issue.UpvotedBy {
		if v == voter {
			return store.ErrAlreadyVoted
		}
	}
	issue.Upvotes++
	issue.UpvotedBy = append(issue.UpvotedBy, voter)
	return nil
}

func (m *memIssues) HasUpvoted(_ context.Context, id, email string) (bool, error) {
	issue, err := m.get(id)
	if err != nil {
		return false, nil
	}
	for _, v := range issue.UpvotedBy {
		if v == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memIssues) Update(_ context.Context, id string, edit store.IssueEdit) error {
	issue, err := m.get(id)
	if err != nil {
		return err
	}
	if edit.Title != nil {
		issue.Title = *edit.Title
	}
	if edit.Description != nil {
		issue.Description = *edit.Description
	}
	if edit.Category != nil {
		issue.Category = *edit.Category
	}
	if edit.Location != nil {
		issue.Location = *edit.Location
	}
	if edit.Image != nil {
		issue.Image = *edit.Image
	}
	return nil
}

func (m *memIssues) Delete(_ context.Context, id string) error {
	if _, err := m.get(id); err != nil {
		return err
	}
	delete(m.byID, id)
	return nil
}

func (m *memIssues) appendEvent(issue *models.Issue, status models.IssueStatus, message, actor string) {
	issue.Timeline = append(issue.Timeline, models.TimelineEntry{
		Status:    status,
		Message:   message,
		Actor:     actor,
		Timestamp: time.Now(),
	})
}

func (m *memIssues) Assign(_ context.Context, id string, staff models.StaffRef, actor string) error {
	issue, err := m.get(id)
	if err != nil {
		return err
	}
	issue.AssignedStaff = &staff
	issue.Status = models.StatusPending
	m.appendEvent(issue, models.StatusPending, "Assigned to "+staff.Name, actor)
	return nil
}

func (m *memIssues) Reject(_ context.Context, id, actor string) error {
	issue, err := m.get(id)
	if err != nil {
		return err
	}
	issue.Status = models.StatusRejected
	m.appendEvent(issue, models.StatusRejected, "Issue rejected", actor)
	return nil
}

func (m *memIssues) SetStatus(_ context.Context, id string, status models.IssueStatus, actor string) error {
	issue, err := m.get(id)
	if err != nil {
		return err
	}
	issue.Status = status
	m.appendEvent(issue, status, "Status changed to "+string(status), actor)
	return nil
}

func issueTestRouter(issues IssueStore, caller authz.Caller, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if cfg == nil {
		cfg = &config.Config{}
	}
	ic := NewIssueController(issues, cfg)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middlewares.CtxEmail, caller.Email)
		c.Set(middlewares.CtxCaller, caller)
	})
	r.POST("/issues", ic.Create)
	r.GET("/issues", ic.List)
	r.GET("/issues/:id", ic.Get)
	r.GET("/issues/:id/upvote-status", ic.UpvoteStatus)
	r.PATCH("/issues/upvote/:id", ic.Upvote)
	r.PATCH("/issues/:id", ic.Update)
	r.DELETE("/issues/:id", ic.Delete)
	r.PATCH("/issues/status/:id", ic.SetStatus)
	r.GET("/my-issues/:email", ic.MyIssues)
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateIssueInitialState(t *testing.T) {
	issues := newMemIssues()
	r := issueTestRouter(issues, authz.Caller{Email: "a@x.com", Role: models.RoleCitizen}, nil)

	w := doJSON(r, http.MethodPost, "/issues", gin.H{
		"title":       "Pothole",
		"description": "deep",
		"category":    "Road",
		"priority":    "Normal",
		"location":    "5th Ave",
		"createdBy":   "a@x.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		InsertedID string `json:"insertedId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	issue := issues.byID[resp.InsertedID]
	require.NotNil(t, issue)
	assert.Equal(t, models.StatusPending, issue.Status)
	assert.Equal(t, int64(0), issue.Upvotes)
	assert.Equal(t, "a@x.com", issue.CreatedBy)
	require.Len(t, issue.Timeline, 1)
	assert.Equal(t, models.StatusPending, issue.Timeline[0].Status)
}

func TestCreateIssueMissingFields(t *testing.T) {
	r := issueTestRouter(newMemIssues(), authz.Caller{Email: "a@x.com"}, nil)

	w := doJSON(r, http.MethodPost, "/issues", gin.H{"title": "Pothole"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateIssueRejectsSpoofedCreator(t *testing.T) {
	r := issueTestRouter(newMemIssues(), authz.Caller{Email: "a@x.com"}, nil)

	w := doJSON(r, http.MethodPost, "/issues", gin.H{
		"title":       "Pothole",
		"description": "deep",
		"category":    "Road",
		"location":    "5th Ave",
		"createdBy":   "someone-else@x.com",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateIssueTrustsClientWhenConfigured(t *testing.T) {
	issues := newMemIssues()
	cfg := &config.Config{TrustClientIdentity: true}
	r := issueTestRouter(issues, authz.Caller{Email: "a@x.com"}, cfg)

	w := doJSON(r, http.MethodPost, "/issues", gin.H{
		"title":       "Pothole",
		"description": "deep",
		"category":    "Road",
		"location":    "5th Ave",
		"createdBy":   "someone-else@x.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	for _, issue := range issues.byID {
		assert.Equal(t, "someone-else@x.com", issue.CreatedBy)
	}
}

func seedIssue(issues *memIssues, createdBy string) string {
	issue := models.NewIssue("Pothole", "deep", "Road", "5th Ave", "", models.PriorityNormal, createdBy)
	id, _ := issues.Create(context.Background(), issue)
	return id.Hex()
}

func TestUpvoteFlow(t *testing.T) {
	issues := newMemIssues()
	id := seedIssue(issues, "a@x.com")

	// Creator cannot vote on their own issue.
	creator := issueTestRouter(issues, authz.Caller{Email: "a@x.com"}, nil)
	w := doJSON(creator, http.MethodPatch, "/issues/upvote/"+id, gin.H{"email": "a@x.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Another identity votes once, then gets a conflict.
	voter := issueTestRouter(issues, authz.Caller{Email: "b@x.com"}, nil)
	w = doJSON(voter, http.MethodPatch, "/issues/upvote/"+id, gin.H{"email": "b@x.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), issues.byID[id].Upvotes)

	w = doJSON(voter, http.MethodGet, "/issues/"+id+"/upvote-status?email=b@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"upvoted":true}`, w.Body.String())

	w = doJSON(voter, http.MethodPatch, "/issues/upvote/"+id, gin.H{"email": "b@x.com"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, int64(1), issues.byID[id].Upvotes)

	w = doJSON(voter, http.MethodPatch, "/issues/upvote/"+primitive.NewObjectID().Hex(), gin.H{"email": "b@x.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpvoteStatusMissingIssueIsFalse(t *testing.T) {
	r := issueTestRouter(newMemIssues(), authz.Caller{Email: "b@x.com"}, nil)

	w := doJSON(r, http.MethodGet, "/issues/"+primitive.NewObjectID().Hex()+"/upvote-status?email=b@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"upvoted":false}`, w.Body.String())
}

func TestGetIssueMalformedID(t *testing.T) {
	r := issueTestRouter(newMemIssues(), authz.Caller{Email: "a@x.com"}, nil)

	w := doJSON(r, http.MethodGet, "/issues/not-a-hex-id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMyIssuesRequiresMatchingIdentity(t *testing.T) {
	issues := newMemIssues()
	seedIssue(issues, "a@x.com")
	r := issueTestRouter(issues, authz.Caller{Email: "b@x.com", Role: models.RoleCitizen}, nil)

	w := doJSON(r, http.MethodGet, "/my-issues/a@x.com", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	own := issueTestRouter(issues, authz.Caller{Email: "a@x.com", Role: models.RoleCitizen}, nil)
	w = doJSON(own, http.MethodGet, "/my-issues/a@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestEditRestrictedToOwner(t *testing.T) {
	issues := newMemIssues()
	id := seedIssue(issues, "a@x.com")

	other := issueTestRouter(issues, authz.Caller{Email: "b@x.com", Role: models.RoleCitizen}, nil)
	w := doJSON(other, http.MethodPatch, "/issues/"+id, gin.H{"title": "Hacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	owner := issueTestRouter(issues, authz.Caller{Email: "a@x.com", Role: models.RoleCitizen}, nil)
	w = doJSON(owner, http.MethodPatch, "/issues/"+id, gin.H{"title": "Big pothole"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Big pothole", issues.byID[id].Title)
	// Edits never touch status or the timeline.
	assert.Equal(t, models.StatusPending, issues.byID[id].Status)
	assert.Len(t, issues.byID[id].Timeline, 1)
}

func TestEditPendingOnlyPolicy(t *testing.T) {
	issues := newMemIssues()
	id := seedIssue(issues, "a@x.com")
	issues.byID[id].Status = models.StatusResolved

	cfg := &config.Config{EditPendingOnly: true}
	owner := issueTestRouter(issues, authz.Caller{Email: "a@x.com", Role: models.RoleCitizen}, cfg)
	w := doJSON(owner, http.MethodPatch, "/issues/"+id, gin.H{"title": "Too late"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminCanDeleteAnyIssue(t *testing.T) {
	issues := newMemIssues()
	id := seedIssue(issues, "a@x.com")

	admin := issueTestRouter(issues, authz.Caller{Email: "ad@x.com", Role: models.RoleAdmin}, nil)
	w := doJSON(admin, http.MethodDelete, "/issues/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, issues.byID)
}

func TestSetStatusAppendsTimeline(t *testing.T) {
	issues := newMemIssues()
	id := seedIssue(issues, "a@x.com")

	staff := issueTestRouter(issues, authz.Caller{Email: "s@x.com", Role: models.RoleStaff}, nil)
	w := doJSON(staff, http.MethodPatch, "/issues/status/"+id, gin.H{"status": "In Progress"})
	require.Equal(t, http.StatusOK, w.Code)

	issue := issues.byID[id]
	assert.Equal(t, models.StatusInProgress, issue.Status)
	require.Len(t, issue.Timeline, 2)
	assert.Equal(t, models.StatusInProgress, issue.Timeline[1].Status)
	assert.Equal(t, "s@x.com", issue.Timeline[1].Actor)

	w = doJSON(staff, http.MethodPatch, "/issues/status/"+id, gin.H{"status": "Paused"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
