// Package authz contains the role and ownership decision rules.
//
// Every function is pure: it looks only at its arguments and returns nil to allow
// or an apperr forbidden error to deny.
package authz

import (
	"strings"

	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/pkg/apperr"
)

// RequireAnyRole passes when the user holds at least one of the required roles.
func RequireAnyRole(userRoles domain.RoleSet, required ...domain.Role) error {
	for _, r := range required {
		if userRoles.Has(r) {
			return nil
		}
	}
	return apperr.Forbidden("Access denied. Required roles: %s", joinRoles(required))
}

// RequireAllRoles passes when the user holds every required role.
func RequireAllRoles(userRoles domain.RoleSet, required ...domain.Role) error {
	for _, r := range required {
		if !userRoles.Has(r) {
			return apperr.Forbidden("Access denied. All roles required: %s", joinRoles(required))
		}
	}
	return nil
}

// RequireMinimumRole passes when the user's highest role is at least minimum.
func RequireMinimumRole(userRoles domain.RoleSet, minimum domain.Role) error {
	if minimum.IsValid() && userRoles.MaxLevel() >= minimum.Level() {
		return nil
	}
	return apperr.Forbidden("Access denied. Minimum role required: %s", minimum)
}

// CheckOwnership passes for the owner of a resource or any ADMIN.
func CheckOwnership(userID, ownerID string, userRoles domain.RoleSet) error {
	if isOwner(userID, ownerID) || IsAdmin(userRoles) {
		return nil
	}
	return apperr.Forbidden("You can only access your own resources")
}

// CheckModifyPermission decides whether the user may update a resource.
func CheckModifyPermission(userID, ownerID string, userRoles domain.RoleSet) error {
	return CheckOwnership(userID, ownerID, userRoles)
}

// CheckDeletePermission decides whether the user may delete a resource. The rule
// currently matches CheckModifyPermission but is kept separate.
func CheckDeletePermission(userID, ownerID string, userRoles domain.RoleSet) error {
	if isOwner(userID, ownerID) || IsAdmin(userRoles) {
		return nil
	}
	return apperr.Forbidden("You can only delete your own resources")
}

// HighestRole returns the most privileged role in roles. Which of two equally
// ranked roles is returned is unspecified. Unknown roles are ignored.
func HighestRole(roles []domain.Role) (domain.Role, bool) {
	var (
		best  domain.Role
		level int
	)
	for _, r := range roles {
		if l := r.Level(); l > level {
			best, level = r, l
		}
	}
	return best, level > 0
}

// IsAdmin reports whether the set contains ADMIN.
func IsAdmin(userRoles domain.RoleSet) bool {
	return userRoles.Has(domain.RoleAdmin)
}

// CanCreatePost reports whether the user ranks at least AUTHOR.
func CanCreatePost(userRoles domain.RoleSet) bool {
	return userRoles.MaxLevel() >= domain.RoleAuthor.Level()
}

// CanCreateComment reports whether the user holds any role at all.
func CanCreateComment(userRoles domain.RoleSet) bool {
	return userRoles.Len() > 0
}

func isOwner(userID, ownerID string) bool {
	return userID != "" && userID == ownerID
}

func joinRoles(roles []domain.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
