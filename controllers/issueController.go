package controllers

import (
	"context"
	"errors"
	"net/http"

	"civicalert-be/authz"
	"civicalert-be/config"
	"civicalert-be/middlewares"
	"civicalert-be/models"
	"civicalert-be/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueStore is the issue accessor the controller consumes.
type IssueStore interface {
	Create(ctx context.Context, issue models.Issue) (primitive.ObjectID, error)
	List(ctx context.Context, f store.IssueFilter) ([]models.Issue, error)
	GetByID(ctx context.Context, id string) (models.Issue, error)
	ByCreator(ctx context.Context, email string) ([]models.Issue, error)
	ByAssignee(ctx context.Context, email string) ([]models.Issue, error)
	Upvote(ctx context.Context, id, voter string) error
	HasUpvoted(ctx context.Context, id, email string) (bool, error)
	Update(ctx context.Context, id string, edit store.IssueEdit) error
	Delete(ctx context.Context, id string) error
	Assign(ctx context.Context, id string, staff models.StaffRef, actor string) error
	Reject(ctx context.Context, id, actor string) error
	SetStatus(ctx context.Context, id string, status models.IssueStatus, actor string) error
}

type IssueController struct {
	issues              IssueStore
	trustClientIdentity bool
	editPendingOnly     bool
}

func NewIssueController(issues IssueStore, cfg *config.Config) *IssueController {
	return &IssueController{
		issues:              issues,
		trustClientIdentity: cfg.TrustClientIdentity,
		editPendingOnly:     cfg.EditPendingOnly,
	}
}

// Create handles POST /issues.
func (ic *IssueController) Create(c *gin.Context) {
	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Priority    string `json:"priority"`
		Location    string `json:"location"`
		Image       string `json:"image"`
		CreatedBy   string `json:"createdBy"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if input.Title == "" || input.Description == "" || input.Category == "" || input.Location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
		return
	}

	priority := models.IssuePriority(input.Priority)
	switch priority {
	case "", models.PriorityNormal, models.PriorityHigh:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid priority"})
		return
	}

	createdBy, ok := resolveIdentity(c, input.CreatedBy, ic.trustClientIdentity)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"message": "createdBy does not match the authenticated user"})
		return
	}

	issue := models.NewIssue(input.Title, input.Description, input.Category, input.Location, input.Image, priority, createdBy)
	id, err := ic.issues.Create(c.Request.Context(), issue)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create issue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"acknowledged": true, "insertedId": id.Hex()})
}

// List handles GET /issues with search/status/category filters.
func (ic *IssueController) List(c *gin.Context) {
	issues, err := ic.issues.List(c.Request.Context(), store.IssueFilter{
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Category: c.Query("category"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issues"})
		return
	}
	c.JSON(http.StatusOK, issues)
}

// Get handles GET /issues/:id.
func (ic *IssueController) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid issue ID"})
		return
	}

	issue, err := ic.issues.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issue"})
		}
		return
	}
	c.JSON(http.StatusOK, issue)
}

// UpvoteStatus handles GET /issues/:id/upvote-status.
func (ic *IssueController) UpvoteStatus(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		email = middlewares.CallerEmail(c)
	}

	upvoted, err := ic.issues.HasUpvoted(c.Request.Context(), c.Param("id"), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to check upvote status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"upvoted": upvoted})
}

// Upvote handles PATCH /issues/upvote/:id.
func (ic *IssueController) Upvote(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	voter, ok := resolveIdentity(c, input.Email, ic.trustClientIdentity)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"message": "email does not match the authenticated user"})
		return
	}

	err := ic.issues.Upvote(c.Request.Context(), c.Param("id"), voter)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Upvoted"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
	case errors.Is(err, store.ErrSelfVote):
		c.JSON(http.StatusForbidden, gin.H{"message": "You cannot upvote your own issue"})
	case errors.Is(err, store.ErrAlreadyVoted):
		c.JSON(http.StatusConflict, gin.H{"message": "You already upvoted this issue"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to upvote issue"})
	}
}

// MyIssues handles GET /my-issues/:email.
func (ic *IssueController) MyIssues(c *gin.Context) {
	email := c.Param("email")
	caller := middlewares.Caller(c)
	if d := authz.Authorize(caller, authz.IssuesViewOwn, authz.Resource{OwnerEmail: email}); !d.Allowed {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
		return
	}

	issues, err := ic.issues.ByCreator(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issues"})
		return
	}
	c.JSON(http.StatusOK, issues)
}

// AssignedIssues handles GET /assigned-issues/:email.
func (ic *IssueController) AssignedIssues(c *gin.Context) {
	email := c.Param("email")
	caller := middlewares.Caller(c)
	if caller.Email != email && caller.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
		return
	}

	issues, err := ic.issues.ByAssignee(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issues"})
		return
	}
	c.JSON(http.StatusOK, issues)
}

// Update handles PATCH /issues/:id. Only descriptive fields are editable.
func (ic *IssueController) Update(c *gin.Context) {
	id := c.Param("id")

	issue, err := ic.issues.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issue"})
		}
		return
	}

	caller := middlewares.Caller(c)
	if d := authz.Authorize(caller, authz.IssueEdit, authz.Resource{OwnerEmail: issue.CreatedBy}); !d.Allowed {
		c.JSON(http.StatusForbidden, gin.H{"message": "You are not authorized to update this issue"})
		return
	}

	if ic.editPendingOnly && issue.Status != models.StatusPending {
		c.JSON(http.StatusForbidden, gin.H{"message": "Issue can no longer be edited"})
		return
	}

	var input struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Category    *string `json:"category"`
		Location    *string `json:"location"`
		Image       *string `json:"image"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	err = ic.issues.Update(c.Request.Context(), id, store.IssueEdit{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Location:    input.Location,
		Image:       input.Image,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update issue"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Issue updated successfully"})
}

// Delete handles DELETE /issues/:id. Creators and admins may delete.
func (ic *IssueController) Delete(c *gin.Context) {
	id := c.Param("id")

	issue, err := ic.issues.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issue"})
		}
		return
	}

	caller := middlewares.Caller(c)
	if d := authz.Authorize(caller, authz.IssueDelete, authz.Resource{OwnerEmail: issue.CreatedBy}); !d.Allowed {
		c.JSON(http.StatusForbidden, gin.H{"message": "You are not authorized to delete this issue"})
		return
	}

	if err := ic.issues.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete issue"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

// Assign handles PATCH /issues/assign/:id (admin). Assignment forces the
// status back to Pending; staff start work explicitly.
func (ic *IssueController) Assign(c *gin.Context) {
	var input struct {
		StaffID    string `json:"staffId" binding:"required"`
		StaffName  string `json:"staffName" binding:"required"`
		StaffEmail string `json:"staffEmail" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	staff := models.StaffRef{ID: input.StaffID, Name: input.StaffName, Email: input.StaffEmail}
	err := ic.issues.Assign(c.Request.Context(), c.Param("id"), staff, middlewares.CallerEmail(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to assign staff"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Staff assigned"})
}

// RejectIssue handles PATCH /issues/reject/:id (admin).
func (ic *IssueController) RejectIssue(c *gin.Context) {
	err := ic.issues.Reject(c.Request.Context(), c.Param("id"), middlewares.CallerEmail(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to reject issue"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Issue rejected"})
}

// SetStatus handles PATCH /issues/status/:id (staff/admin). Any known status
// may be set; transitions are not validated.
func (ic *IssueController) SetStatus(c *gin.Context) {
	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if !models.ValidStatus(input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status"})
		return
	}

	err := ic.issues.SetStatus(c.Request.Context(), c.Param("id"), models.IssueStatus(input.Status), middlewares.CallerEmail(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update status"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated"})
}
