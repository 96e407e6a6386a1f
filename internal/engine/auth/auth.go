package auth

import (
	"errors"
	"fmt"

	"sitebuilder/internal/domain"
)

var ErrForbidden = errors.New("forbidden")

// Actions checked against a project.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionExport = "export"
)

// ForbiddenError indicates the actor may not perform Action on a project.
type ForbiddenError struct {
	Action    string
	ProjectID string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("%s access to project %s denied", e.Action, e.ProjectID)
}

func (e ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// IsOwner reports whether actorID owns p. The anonymous actor owns nothing.
func IsOwner(p domain.Project, actorID string) bool {
	return actorID != "" && p.OwnerID == actorID
}

// Allowed applies the ownership policy: reads and exports are open on public
// projects, everything else is owner-only.
func Allowed(p domain.Project, actorID, action string) bool {
	if IsOwner(p, actorID) {
		return true
	}
	switch action {
	case ActionRead, ActionExport:
		return p.IsPublic
	default:
		return false
	}
}

// Require returns a ForbiddenError when the actor is not allowed.
func Require(p domain.Project, actorID, action string) error {
	if Allowed(p, actorID, action) {
		return nil
	}
	return ForbiddenError{Action: action, ProjectID: p.ID}
}
