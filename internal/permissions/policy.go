// Package permissions holds the organization authorization policy. The policy
// is a decision table evaluated top to bottom; the first matching rule wins
// and anything unmatched is denied.
package permissions

import (
	"slices"

	"github.com/charlesng35/teamhub/internal/models"
)

// Action names an operation gated by the policy.
type Action string

const (
	ActionCreateOrganization Action = "organization.create"
	ActionCreateTeam         Action = "team.create"
	ActionInvite             Action = "invite.create"
	ActionViewInvites        Action = "invite.view"
	ActionRevokeInvite       Action = "invite.revoke"
	ActionChangeRole         Action = "member.role.change"
)

// DefaultDenyReason is returned when no rule matches.
const DefaultDenyReason = "Permission denied"

// Request describes the attempted action.
//
// TargetRole is the invited role for ActionInvite and the target member's
// current role for ActionChangeRole. NewRole is only used by ActionChangeRole.
// Self is true when the actor targets their own membership.
type Request struct {
	Actor      models.Role
	Action     Action
	TargetRole models.Role
	NewRole    models.Role
	Self       bool
}

// Decision is the outcome of evaluating a Request.
type Decision struct {
	Allowed bool
	Reason  string
}

// Rule is one row of the decision table. Empty role sets match anything.
type Rule struct {
	Action   Action
	Actors   []models.Role
	Targets  []models.Role
	NewRoles []models.Role
	Self     bool
	Allow    bool
	Reason   string
}

var (
	ownerOnly     = []models.Role{models.RoleOwner}
	adminOnly     = []models.Role{models.RoleAdmin}
	memberOnly    = []models.Role{models.RoleMember}
	ownerAndAdmin = []models.Role{models.RoleOwner, models.RoleAdmin}
	notMember     = []models.Role{models.RoleOwner, models.RoleAdmin}
)

var table = []Rule{
	{Action: ActionCreateOrganization, Actors: ownerOnly, Allow: true},
	{Action: ActionCreateOrganization, Reason: "Only owners can create organizations"},

	{Action: ActionCreateTeam, Actors: ownerAndAdmin, Allow: true},
	{Action: ActionCreateTeam, Reason: "Only owners and admins can create teams"},

	{Action: ActionInvite, Actors: adminOnly, Targets: adminOnly, Reason: "Admins cannot invite other admins, can only invite members"},
	{Action: ActionInvite, Actors: ownerAndAdmin, Allow: true},
	{Action: ActionInvite, Reason: "Only owners and admins can send invites"},

	{Action: ActionViewInvites, Actors: ownerAndAdmin, Allow: true},
	{Action: ActionViewInvites, Reason: "Only owners and admins can view invites"},

	{Action: ActionRevokeInvite, Actors: ownerAndAdmin, Allow: true},
	{Action: ActionRevokeInvite, Reason: "Only owners and admins can revoke invites"},

	{Action: ActionChangeRole, Actors: memberOnly, Reason: "Only owners and admins can change roles"},
	{Action: ActionChangeRole, Actors: adminOnly, Targets: notMember, Reason: "Admins can only promote members to admin"},
	{Action: ActionChangeRole, Actors: adminOnly, NewRoles: ownerOnly, Reason: "Admins can only set role to admin or member"},
	{Action: ActionChangeRole, Self: true, Reason: "You cannot change your own role"},
	{Action: ActionChangeRole, Actors: ownerAndAdmin, Allow: true},
}

// Decide evaluates req against the decision table. It has no side effects.
func Decide(req Request) Decision {
	for _, rule := range table {
		if rule.matches(req) {
			if rule.Allow {
				return Decision{Allowed: true}
			}
			return Decision{Reason: rule.Reason}
		}
	}
	return Decision{Reason: DefaultDenyReason}
}

// Table returns a copy of the decision table, in evaluation order.
func Table() []Rule {
	return slices.Clone(table)
}

func (r Rule) matches(req Request) bool {
	if r.Action != req.Action {
		return false
	}
	if r.Self && !req.Self {
		return false
	}
	return matchRole(r.Actors, req.Actor) &&
		matchRole(r.Targets, req.TargetRole) &&
		matchRole(r.NewRoles, req.NewRole)
}

func matchRole(set []models.Role, role models.Role) bool {
	return len(set) == 0 || slices.Contains(set, role)
}
