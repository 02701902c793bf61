// Package authz holds the capability checks. Decisions are pure functions of
// the caller, the action and the resource, independent of the HTTP layer.
package authz

import "civicalert-be/models"

// Action names one permission-gated operation.
type Action string

const (
	IssueCreate    Action = "issue:create"
	IssueEdit      Action = "issue:edit"
	IssueDelete    Action = "issue:delete"
	IssueUpvote    Action = "issue:upvote"
	IssueAssign    Action = "issue:assign"
	IssueReject    Action = "issue:reject"
	IssueSetStatus Action = "issue:set-status"
	IssuesViewOwn  Action = "issue:view-own"
	UsersManage    Action = "users:manage"
	PaymentsView   Action = "payments:view"
	StatsView      Action = "stats:view"
	CheckoutBegin  Action = "checkout:begin"
)

// Reason explains a denial.
type Reason string

const (
	ReasonAccountBlocked   Reason = "AccountBlocked"
	ReasonInsufficientRole Reason = "InsufficientRole"
	ReasonNotOwner         Reason = "NotOwner"
	ReasonSelfVote         Reason = "SelfVote"
)

// Caller is the verified, looked-up account performing an action.
type Caller struct {
	Email   string
	Role    models.Role
	Blocked bool
}

// Resource carries the ownership facts a decision may need.
type Resource struct {
	OwnerEmail string
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r Reason) Decision { return Decision{Reason: r} }

// CheckActive is the active-account guard: it denies blocked accounts.
func CheckActive(caller Caller) Decision {
	if caller.Blocked {
		return deny(ReasonAccountBlocked)
	}
	return allow()
}

// CheckRole is the role guard: caller's role must be in the required set.
func CheckRole(caller Caller, roles ...models.Role) Decision {
	for _, role := range roles {
		if caller.Role == role {
			return allow()
		}
	}
	return deny(ReasonInsufficientRole)
}

type rule struct {
	roles         []models.Role // empty means any role
	requireActive bool
	requireOwner  bool
	forbidOwner   bool
}

var rules = map[Action]rule{
	IssueCreate:    {requireActive: true},
	IssueEdit:      {requireActive: true, requireOwner: true},
	IssueDelete:    {requireActive: true, requireOwner: true},
	IssueUpvote:    {requireActive: true, forbidOwner: true},
	IssueAssign:    {roles: []models.Role{models.RoleAdmin}},
	IssueReject:    {roles: []models.Role{models.RoleAdmin}},
	IssueSetStatus: {roles: []models.Role{models.RoleStaff, models.RoleAdmin}},
	IssuesViewOwn:  {requireOwner: true},
	UsersManage:    {roles: []models.Role{models.RoleAdmin}},
	PaymentsView:   {roles: []models.Role{models.RoleAdmin}},
	StatsView:      {roles: []models.Role{models.RoleAdmin}},
	CheckoutBegin:  {requireActive: true},
}

// Authorize decides whether caller may perform action on resource. Admins pass
// ownership checks on delete but ownership of an upvote target is a hard no
// (a creator never votes on their own issue, admin or not).
func Authorize(caller Caller, action Action, resource Resource) Decision {
	r, ok := rules[action]
	if !ok {
		return deny(ReasonInsufficientRole)
	}

	if r.requireActive && caller.Blocked {
		return deny(ReasonAccountBlocked)
	}

	if len(r.roles) > 0 {
		matched := false
		for _, role := range r.roles {
			if caller.Role == role {
				matched = true
				break
			}
		}
		if !matched {
			return deny(ReasonInsufficientRole)
		}
	}

	if r.forbidOwner && caller.Email == resource.OwnerEmail {
		return deny(ReasonSelfVote)
	}

	if r.requireOwner && caller.Email != resource.OwnerEmail {
		if caller.Role == models.RoleAdmin && action == IssueDelete {
			return allow()
		}
		return deny(ReasonNotOwner)
	}

	return allow()
}
