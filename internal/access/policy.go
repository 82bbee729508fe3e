// Package access holds the authorization model: which roles may perform an
// action and whether the action is restricted to the resource owner.
package access

import (
	"go-contacts-api/internal/model"
	"go-contacts-api/pkg/apierror"
)

type Action string

const (
	ActionContactCreate   Action = "contact:create"
	ActionContactList     Action = "contact:list"
	ActionContactSearch   Action = "contact:search"
	ActionContactUpdate   Action = "contact:update"
	ActionContactDelete   Action = "contact:delete"
	ActionAuditList       Action = "audit:list"
	ActionEventsSubscribe Action = "events:subscribe"
)

// Rule describes who may perform an action. When OwnerOnly is set, non-admin
// callers must own the resource; for collection actions it means rows are
// scoped to the caller.
type Rule struct {
	Roles     []model.Role
	OwnerOnly bool
}

var anyRole = []model.Role{model.RoleUser, model.RoleAdmin}

// rules is the single source of truth for authorization decisions.
var rules = map[Action]Rule{
	ActionContactCreate:   {Roles: anyRole},
	ActionContactList:     {Roles: anyRole, OwnerOnly: true},
	ActionContactSearch:   {Roles: anyRole, OwnerOnly: true},
	ActionContactUpdate:   {Roles: anyRole, OwnerOnly: true},
	ActionContactDelete:   {Roles: anyRole, OwnerOnly: true},
	ActionAuditList:       {Roles: []model.Role{model.RoleAdmin}},
	ActionEventsSubscribe: {Roles: anyRole, OwnerOnly: true},
}

// RuleFor returns the rule for action. Unknown actions allow nobody.
func RuleFor(action Action) Rule {
	return rules[action]
}

// RequireRole passes iff role is one of allowed.
func RequireRole(allowed []model.Role, role model.Role) error {
	for _, r := range allowed {
		if r == role {
			return nil
		}
	}
	return apierror.Wrap(apierror.KindForbidden, model.ErrForbidden, "insufficient permissions")
}

// RequireOwnerOrAdmin passes iff the caller is an admin or owns the resource.
// Callers look the resource up first so a missing resource reports NotFound.
func RequireOwnerOrAdmin(ownerID int64, caller model.Principal) error {
	if caller.IsAdmin() || caller.UserID == ownerID {
		return nil
	}
	return apierror.Wrap(apierror.KindForbidden, model.ErrForbidden, "forbidden: not owner")
}

// Authorize evaluates the rule for action against caller. ownerID is the owner
// of the target resource, or nil for collection-level actions.
func Authorize(caller model.Principal, action Action, ownerID *int64) error {
	rule, ok := rules[action]
	if !ok {
		return apierror.Wrap(apierror.KindForbidden, model.ErrForbidden, "action not permitted")
	}
	if err := RequireRole(rule.Roles, caller.Role); err != nil {
		return err
	}
	if rule.OwnerOnly && ownerID != nil {
		return RequireOwnerOrAdmin(*ownerID, caller)
	}
	return nil
}

// ScopeFor returns the owner filter that must be applied to collection reads
// for action: nil means unrestricted.
func ScopeFor(caller model.Principal, action Action) *int64 {
	if caller.IsAdmin() || !rules[action].OwnerOnly {
		return nil
	}
	id := caller.UserID
	return &id
}

// CanSee reports whether caller may observe a resource owned by ownerID under action.
func CanSee(caller model.Principal, action Action, ownerID int64) bool {
	return Authorize(caller, action, &ownerID) == nil
}
