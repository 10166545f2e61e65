// Package policy is the authorization engine. It answers whether a subject
// may perform an action on a resource by walking an ordered rule table; the
// first rule that matches decides, and nothing matching means deny.
package policy

import (
	"pizza-franchise-api/apperr"
	"pizza-franchise-api/models"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type ResourceKind string

const (
	ResourceUser      ResourceKind = "user"
	ResourceOrder     ResourceKind = "order"
	ResourceStore     ResourceKind = "store"
	ResourceFranchise ResourceKind = "franchise"
	ResourceMenu      ResourceKind = "menu"
)

// Resource identifies what an action targets. OwnerID is the user the
// resource belongs to (the user itself for ResourceUser); FranchiseID is the
// franchise it lives under. Zero means not applicable.
type Resource struct {
	Kind        ResourceKind
	OwnerID     uint
	FranchiseID uint
}

func User(id uint) Resource {
	return Resource{Kind: ResourceUser, OwnerID: id}
}

func Order(ownerID, franchiseID uint) Resource {
	return Resource{Kind: ResourceOrder, OwnerID: ownerID, FranchiseID: franchiseID}
}

func FranchiseOrders(franchiseID uint) Resource {
	return Resource{Kind: ResourceOrder, FranchiseID: franchiseID}
}

func Store(franchiseID uint) Resource {
	return Resource{Kind: ResourceStore, FranchiseID: franchiseID}
}

func Franchise(id uint) Resource {
	return Resource{Kind: ResourceFranchise, FranchiseID: id}
}

func Menu() Resource {
	return Resource{Kind: ResourceMenu}
}

// Subject is an authenticated caller. A nil *Subject is an anonymous caller.
type Subject struct {
	UserID uint
	Roles  []models.Role
}

type Effect string

const (
	Allow Effect = "allow"
	Deny  Effect = "deny"
)

type Decision struct {
	Effect Effect
	Rule   string
}

func (d Decision) Allowed() bool { return d.Effect == Allow }

// Authorize evaluates the rule table.
func Authorize(s *Subject, action Action, res Resource) Decision {
	for _, r := range rules {
		if r.match(s, action, res) {
			return Decision{Effect: r.Effect, Rule: r.Name}
		}
	}
	return Decision{Effect: Deny, Rule: "default"}
}

// Err is nil for an allow. A deny is Unauthenticated for an anonymous
// caller and Forbidden otherwise.
func (d Decision) Err(s *Subject, action Action, res Resource) error {
	if d.Allowed() {
		return nil
	}
	if s == nil {
		return apperr.New(apperr.KindUnauthenticated, "authentication required to %s %s", action, res.Kind)
	}
	return apperr.New(apperr.KindForbidden, "not allowed to %s %s", action, res.Kind)
}

// Require is Authorize as an error.
func Require(s *Subject, action Action, res Resource) error {
	return Authorize(s, action, res).Err(s, action, res)
}

// IsAdmin reports whether s holds the global admin role.
func IsAdmin(s *Subject) bool {
	return s != nil && holds(s, isAdmin)
}

func holds(s *Subject, pred func(models.Role) bool) bool {
	for _, r := range s.Roles {
		if pred(r) {
			return true
		}
	}
	return false
}

func isAdmin(r models.Role) bool {
	switch r.Kind {
	case models.RoleAdmin:
		return true
	case models.RoleFranchisee, models.RoleDiner:
		return false
	default:
		return false
	}
}

func isFranchiseeOf(franchiseID uint) func(models.Role) bool {
	return func(r models.Role) bool {
		switch r.Kind {
		case models.RoleFranchisee:
			return franchiseID != 0 && r.FranchiseID == franchiseID
		case models.RoleAdmin, models.RoleDiner:
			return false
		default:
			return false
		}
	}
}

func isFranchisee(r models.Role) bool {
	switch r.Kind {
	case models.RoleFranchisee:
		return true
	case models.RoleAdmin, models.RoleDiner:
		return false
	default:
		return false
	}
}
