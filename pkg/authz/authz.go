// Package authz holds the single capability predicate every mutating
// operation is gated on. Two shapes exist: a plain role allowlist, and
// owner-or-role for ownership-scoped resources.
package authz

import (
	"github.com/medicare-hq/medicare-api/internal/model"
)

// RoleAllowed reports whether role is in the allowlist.
func RoleAllowed(role model.Role, allowed ...model.Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// OwnerOrRole reports whether the caller either holds one of the allowed
// roles or is the resource's recorded owner.
func OwnerOrRole(callerID model.AccountID, callerRole model.Role, ownerID model.AccountID, allowed ...model.Role) bool {
	if callerID == ownerID {
		return true
	}
	return RoleAllowed(callerRole, allowed...)
}
