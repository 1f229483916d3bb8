// Package policy decides whether an actor may assign, reassign or change the
// status of a task. Every rule is a pure function of the task and actor snapshots.
package policy

import (
	"errors"

	"github.com/teamtask/teamtask-api/internal/models"
)

const (
	ReasonAlreadyAssigned = "already assigned"
	ReasonNotAuthorized   = "not authorized"
)

// DeniedError is returned when a rule rejects the actor.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return "denied: " + e.Reason
}

// Is lets errors.Is match on the reason alone.
func (e *DeniedError) Is(target error) bool {
	t, ok := target.(*DeniedError)
	return ok && t.Reason == e.Reason
}

var (
	ErrAlreadyAssigned = &DeniedError{Reason: ReasonAlreadyAssigned}
	ErrNotAuthorized   = &DeniedError{Reason: ReasonNotAuthorized}
)

// IsDenied reports whether err carries a DeniedError and returns it.
func IsDenied(err error) (*DeniedError, bool) {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied, true
	}
	return nil, false
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID    uint64
	Roles models.Roles
}

// HasAnyRole reports whether roles contains at least one of want.
func HasAnyRole(roles models.Roles, want ...models.Role) bool {
	for _, w := range want {
		if roles.Has(w) {
			return true
		}
	}
	return false
}

func isManager(a Actor) bool {
	return HasAnyRole(a.Roles, models.RoleManager, models.RoleAdmin)
}

// CanAssign applies the first-assignment rule. Only managers and admins may
// assign, so an unassigned task is still denied to a plain user.
func CanAssign(task *models.Task, actor Actor) error {
	if !isManager(actor) {
		return ErrNotAuthorized
	}
	if task.IsAssigned() {
		return ErrAlreadyAssigned
	}
	return nil
}

// CanReassign allows managers and admins to overwrite any current assignee.
func CanReassign(task *models.Task, actor Actor) error {
	if !isManager(actor) {
		return ErrNotAuthorized
	}
	return nil
}

// CanUpdateStatus only lets the current assignee change the status.
func CanUpdateStatus(task *models.Task, actor Actor) error {
	if task.AssignedTo == nil || *task.AssignedTo != actor.ID {
		return ErrNotAuthorized
	}
	return nil
}
