package authz

import (
	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/pkg/apperr"
)

// Policy is an access rule a route or service declares for an identity.
type Policy interface {
	// Name is a short stable label used in logs and metrics.
	Name() string
	Evaluate(identity domain.Identity) error
}

// Authorize evaluates policy against identity. A nil policy allows everything.
func Authorize(identity domain.Identity, policy Policy) error {
	if policy == nil {
		return nil
	}
	return policy.Evaluate(identity)
}

type anyRolePolicy struct{ roles []domain.Role }

// AnyRole requires at least one of roles.
func AnyRole(roles ...domain.Role) Policy {
	return anyRolePolicy{roles: roles}
}

func (p anyRolePolicy) Name() string { return "any_role" }

func (p anyRolePolicy) Evaluate(identity domain.Identity) error {
	return RequireAnyRole(identity.Roles, p.roles...)
}

type allRolesPolicy struct{ roles []domain.Role }

// AllRoles requires every one of roles.
func AllRoles(roles ...domain.Role) Policy {
	return allRolesPolicy{roles: roles}
}

func (p allRolesPolicy) Name() string { return "all_roles" }

func (p allRolesPolicy) Evaluate(identity domain.Identity) error {
	return RequireAllRoles(identity.Roles, p.roles...)
}

type minimumRolePolicy struct{ role domain.Role }

// MinimumRole requires a role at or above role in the hierarchy.
func MinimumRole(role domain.Role) Policy {
	return minimumRolePolicy{role: role}
}

func (p minimumRolePolicy) Name() string { return "minimum_role" }

func (p minimumRolePolicy) Evaluate(identity domain.Identity) error {
	return RequireMinimumRole(identity.Roles, p.role)
}

type ownerPolicy struct{ ownerID string }

// Owner allows the resource owner and admins.
func Owner(ownerID string) Policy {
	return ownerPolicy{ownerID: ownerID}
}

func (p ownerPolicy) Name() string { return "owner" }

func (p ownerPolicy) Evaluate(identity domain.Identity) error {
	return CheckOwnership(identity.SubjectID, p.ownerID, identity.Roles)
}

type authenticatedPolicy struct{}

// Authenticated allows any identity carrying at least one role.
func Authenticated() Policy {
	return authenticatedPolicy{}
}

func (authenticatedPolicy) Name() string { return "authenticated" }

func (authenticatedPolicy) Evaluate(identity domain.Identity) error {
	if identity.SubjectID == "" || !CanCreateComment(identity.Roles) {
		return apperr.Forbidden("Access denied. Authentication with a role is required")
	}
	return nil
}
