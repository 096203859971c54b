// Package authz centralizes every role-based access rule as a single pure
// decision table, consulted by handlers before any state mutation or
// scoped read touches storage.
package authz

import (
	"github.com/volatiletech/null/v8"

	"github.com/kwanza/mahudhurio/core/user"
)

type Action string

const (
	CheckSelfInOut       Action = "attendance:check-self"
	ReadOwnAttendance    Action = "attendance:read-own"
	ReadUserAttendance   Action = "attendance:read-user"
	ReadAllAttendance    Action = "attendance:read-all"
	ReadClassAttendance  Action = "attendance:read-class"
	DeleteAttendance     Action = "attendance:delete"
	BulkDeleteAttendance Action = "attendance:bulk-delete"

	CreateClass       Action = "class:create"
	UpdateClass       Action = "class:update"
	ListClasses       Action = "class:list"
	ReadOwnClass      Action = "class:read-own"
	ListClassStudents Action = "class:list-students"

	CreateMaterial Action = "material:create"
	CreateNotice   Action = "notice:create"
	CreateEvent    Action = "event:create"
	CreateMark     Action = "mark:create"
	ReadMarks      Action = "mark:read"

	ListUsers  Action = "user:list"
	DeleteUser Action = "user:delete"
)

// Target identifies what an action is aimed at. Zero values mean
// "not applicable" for the given action.
type Target struct {
	OwnerID int      // owning/target user of the resource
	ClassID null.Int // class the resource belongs to
}

// Stable denial reasons, distinct from generic failures so callers can
// tell "not allowed" from "not found" or "already done".
const (
	ReasonAdminRequired       = "admin access required"
	ReasonTeacherRequired     = "admin or teacher access required"
	ReasonAccessDenied        = "access denied"
	ReasonNotInClass          = "target is not in your class"
	ReasonCannotDeleteOwnAcct = "cannot delete your own account"
)

type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// Decide is a total function from (actor, action, target) to a Decision.
// It never touches storage; class membership comes in on the actor and
// target. Unknown actions are denied.
func Decide(actor user.User, action Action, target Target) Decision {
	switch action {
	case CheckSelfInOut, ReadOwnAttendance, ReadOwnClass:
		return allow()

	case ReadUserAttendance:
		switch {
		case actor.IsAdmin():
			return allow()
		case actor.IsTeacher():
			if sameClass(actor, target) {
				return allow()
			}
			return deny(ReasonNotInClass)
		default:
			if target.OwnerID == actor.ID {
				return allow()
			}
			return deny(ReasonAccessDenied)
		}

	case ReadAllAttendance, BulkDeleteAttendance, ListUsers:
		if actor.IsAdmin() {
			return allow()
		}
		return deny(ReasonAdminRequired)

	case ReadClassAttendance, ListClasses, ListClassStudents:
		// explicit cross-class privilege for admins and teachers
		if actor.IsAdmin() || actor.IsTeacher() {
			return allow()
		}
		return deny(ReasonTeacherRequired)

	case DeleteAttendance:
		if actor.IsAdmin() || target.OwnerID == actor.ID {
			return allow()
		}
		return deny(ReasonAccessDenied)

	case CreateClass, UpdateClass:
		if actor.IsAdmin() {
			return allow()
		}
		return deny(ReasonAdminRequired)

	case CreateMaterial, CreateNotice, CreateEvent, CreateMark:
		// creation is always bound to the creator's own class
		if actor.IsAdmin() || actor.IsTeacher() {
			return allow()
		}
		return deny(ReasonTeacherRequired)

	case ReadMarks:
		switch {
		case target.OwnerID == actor.ID:
			return allow()
		case actor.IsAdmin():
			return allow()
		case actor.IsTeacher():
			if sameClass(actor, target) {
				return allow()
			}
			return deny(ReasonNotInClass)
		default:
			return deny(ReasonAccessDenied)
		}

	case DeleteUser:
		if !actor.IsAdmin() {
			return deny(ReasonAdminRequired)
		}
		if target.OwnerID == actor.ID {
			return deny(ReasonCannotDeleteOwnAcct)
		}
		return allow()
	}

	return deny(ReasonAccessDenied)
}

func sameClass(actor user.User, target Target) bool {
	return actor.ClassID.Valid && target.ClassID.Valid && actor.ClassID.Int == target.ClassID.Int
}
