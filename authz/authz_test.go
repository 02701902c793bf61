package authz

import (
	"testing"

	"civicalert-be/models"

	"github.com/stretchr/testify/assert"
)

func TestBlockedAccountCannotCreate(t *testing.T) {
	caller := Caller{Email: "a@x.com", Role: models.RoleCitizen, Blocked: true}
	d := Authorize(caller, IssueCreate, Resource{})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonAccountBlocked, d.Reason)
}

func TestCreatorCannotUpvoteOwnIssue(t *testing.T) {
	caller := Caller{Email: "a@x.com", Role: models.RoleCitizen}
	d := Authorize(caller, IssueUpvote, Resource{OwnerEmail: "a@x.com"})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonSelfVote, d.Reason)

	d = Authorize(caller, IssueUpvote, Resource{OwnerEmail: "b@x.com"})
	assert.True(t, d.Allowed)
}

func TestRoleGates(t *testing.T) {
	citizen := Caller{Email: "c@x.com", Role: models.RoleCitizen}
	staff := Caller{Email: "s@x.com", Role: models.RoleStaff}
	admin := Caller{Email: "ad@x.com", Role: models.RoleAdmin}

	assert.False(t, Authorize(citizen, IssueAssign, Resource{}).Allowed)
	assert.False(t, Authorize(staff, IssueAssign, Resource{}).Allowed)
	assert.True(t, Authorize(admin, IssueAssign, Resource{}).Allowed)

	assert.False(t, Authorize(citizen, IssueSetStatus, Resource{}).Allowed)
	assert.True(t, Authorize(staff, IssueSetStatus, Resource{}).Allowed)
	assert.True(t, Authorize(admin, IssueSetStatus, Resource{}).Allowed)

	assert.Equal(t, ReasonInsufficientRole, Authorize(staff, UsersManage, Resource{}).Reason)
	assert.True(t, Authorize(admin, PaymentsView, Resource{}).Allowed)
}

func TestOwnershipChecks(t *testing.T) {
	owner := Caller{Email: "a@x.com", Role: models.RoleCitizen}
	other := Caller{Email: "b@x.com", Role: models.RoleCitizen}
	admin := Caller{Email: "ad@x.com", Role: models.RoleAdmin}

	res := Resource{OwnerEmail: "a@x.com"}

	assert.True(t, Authorize(owner, IssueEdit, res).Allowed)
	assert.Equal(t, ReasonNotOwner, Authorize(other, IssueEdit, res).Reason)

	// Admins may delete any issue but may not edit someone else's.
	assert.True(t, Authorize(admin, IssueDelete, res).Allowed)
	assert.False(t, Authorize(admin, IssueEdit, res).Allowed)

	assert.True(t, Authorize(owner, IssuesViewOwn, res).Allowed)
	assert.Equal(t, ReasonNotOwner, Authorize(other, IssuesViewOwn, res).Reason)
}
