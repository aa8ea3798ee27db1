package auth

import (
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/utils"
)

// Action is what a principal wants to do with a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionLike   Action = "like"
)

// IsSafe reports whether the action only reads.
func (a Action) IsSafe() bool {
	return a == ActionRead || a == ActionList
}

// Owned is a resource with an author. OwnerID is zero for shared resources
// such as categories and tags.
type Owned interface {
	OwnerID() uint
}

// IsAllowed applies the ownership rule:
//   - reads are public, even without a principal;
//   - create and like need any principal;
//   - update and delete need the resource's author. Staff get no override.
func IsAllowed(principal *models.User, action Action, resource Owned) bool {
	if action.IsSafe() {
		return true
	}
	if principal == nil {
		return false
	}
	switch action {
	case ActionCreate, ActionLike:
		return true
	case ActionUpdate, ActionDelete:
		if resource == nil {
			return false
		}
		owner := resource.OwnerID()
		return owner == 0 || owner == principal.ID
	}
	return false
}

// Authorize is IsAllowed with the reason for a refusal: no principal is an
// AuthenticationFailure, a principal that is not the author is PermissionDenied.
func Authorize(principal *models.User, action Action, resource Owned) error {
	if IsAllowed(principal, action, resource) {
		return nil
	}
	if principal == nil {
		return utils.AuthenticationFailure("authentication credentials were not provided", nil)
	}
	return utils.PermissionDenied("you do not have permission to perform this action")
}
