package authz

import (
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/kwanza/mahudhurio/core/user"
)

func TestDecide(t *testing.T) {
	admin := user.User{ID: 1, Role: user.RoleAdmin}
	teacher := user.User{ID: 2, Role: user.RoleTeacher, ClassID: null.IntFrom(10)}
	student := user.User{ID: 3, Role: user.RoleStudent, ClassID: null.IntFrom(10)}
	outsider := user.User{ID: 4, Role: user.RoleStudent, ClassID: null.IntFrom(20)}

	inClass10 := Target{ClassID: null.IntFrom(10)}
	inClass20 := Target{ClassID: null.IntFrom(20)}

	tests := []struct {
		name       string
		actor      user.User
		action     Action
		target     Target
		want       bool
		wantReason string
	}{
		{name: "anyone checks self in/out", actor: student, action: CheckSelfInOut, want: true},
		{name: "anyone reads own attendance", actor: student, action: ReadOwnAttendance, want: true},
		{name: "anyone reads own class", actor: outsider, action: ReadOwnClass, want: true},

		{name: "admin reads any user attendance", actor: admin, action: ReadUserAttendance, target: Target{OwnerID: 3, ClassID: null.IntFrom(20)}, want: true},
		{name: "teacher reads own class attendance", actor: teacher, action: ReadUserAttendance, target: Target{OwnerID: 3, ClassID: null.IntFrom(10)}, want: true},
		{name: "teacher denied other class attendance", actor: teacher, action: ReadUserAttendance, target: Target{OwnerID: 4, ClassID: null.IntFrom(20)}, wantReason: ReasonNotInClass},
		{name: "student reads own attendance by id", actor: student, action: ReadUserAttendance, target: Target{OwnerID: 3}, want: true},
		{name: "student denied others attendance", actor: student, action: ReadUserAttendance, target: Target{OwnerID: 4}, wantReason: ReasonAccessDenied},

		{name: "admin reads all attendance", actor: admin, action: ReadAllAttendance, want: true},
		{name: "teacher denied all attendance", actor: teacher, action: ReadAllAttendance, wantReason: ReasonAdminRequired},

		{name: "teacher reads class attendance by id", actor: teacher, action: ReadClassAttendance, target: inClass20, want: true},
		{name: "student denied class attendance by id", actor: student, action: ReadClassAttendance, target: inClass10, wantReason: ReasonTeacherRequired},

		{name: "owner deletes own record", actor: student, action: DeleteAttendance, target: Target{OwnerID: 3}, want: true},
		{name: "admin deletes any record", actor: admin, action: DeleteAttendance, target: Target{OwnerID: 3}, want: true},
		{name: "student denied deleting others record", actor: student, action: DeleteAttendance, target: Target{OwnerID: 4}, wantReason: ReasonAccessDenied},
		{name: "teacher denied bulk delete", actor: teacher, action: BulkDeleteAttendance, wantReason: ReasonAdminRequired},

		{name: "admin creates class", actor: admin, action: CreateClass, want: true},
		{name: "teacher denied class create", actor: teacher, action: CreateClass, wantReason: ReasonAdminRequired},
		{name: "student denied class create", actor: student, action: CreateClass, wantReason: ReasonAdminRequired},
		{name: "teacher lists classes", actor: teacher, action: ListClasses, want: true},

		{name: "teacher creates material", actor: teacher, action: CreateMaterial, want: true},
		{name: "teacher creates mark", actor: teacher, action: CreateMark, want: true},
		{name: "student denied event create", actor: student, action: CreateEvent, wantReason: ReasonTeacherRequired},

		{name: "student reads own marks", actor: student, action: ReadMarks, target: Target{OwnerID: 3}, want: true},
		{name: "student denied others marks", actor: student, action: ReadMarks, target: Target{OwnerID: 4, ClassID: null.IntFrom(10)}, wantReason: ReasonAccessDenied},
		{name: "teacher reads own class student marks", actor: teacher, action: ReadMarks, target: Target{OwnerID: 3, ClassID: null.IntFrom(10)}, want: true},
		{name: "teacher denied other class marks", actor: teacher, action: ReadMarks, target: Target{OwnerID: 4, ClassID: null.IntFrom(20)}, wantReason: ReasonNotInClass},
		{name: "admin reads any marks", actor: admin, action: ReadMarks, target: Target{OwnerID: 4, ClassID: null.IntFrom(20)}, want: true},

		{name: "admin lists users", actor: admin, action: ListUsers, want: true},
		{name: "student denied user list", actor: student, action: ListUsers, wantReason: ReasonAdminRequired},

		{name: "admin deletes other user", actor: admin, action: DeleteUser, target: Target{OwnerID: 3}, want: true},
		{name: "admin denied deleting self", actor: admin, action: DeleteUser, target: Target{OwnerID: 1}, wantReason: ReasonCannotDeleteOwnAcct},
		{name: "teacher denied user delete", actor: teacher, action: DeleteUser, target: Target{OwnerID: 3}, wantReason: ReasonAdminRequired},

		{name: "unknown action denied", actor: admin, action: Action("lol"), wantReason: ReasonAccessDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.actor, tt.action, tt.target)
			if got.Allowed != tt.want {
				t.Errorf("Decide() allowed = %v; want %v", got.Allowed, tt.want)
			}
			if !tt.want && got.Reason != tt.wantReason {
				t.Errorf("Decide() reason = %q; want %q", got.Reason, tt.wantReason)
			}
		})
	}
}

// students may never create notices, whatever the class target
func TestDecide_studentCreateNoticeAlwaysDenied(t *testing.T) {
	for _, classID := range []null.Int{{}, null.IntFrom(10), null.IntFrom(20), null.IntFrom(999)} {
		student := user.User{ID: 3, Role: user.RoleStudent, ClassID: null.IntFrom(10)}
		if d := Decide(student, CreateNotice, Target{ClassID: classID}); d.Allowed {
			t.Errorf("Decide(student, CreateNotice, class=%v) allowed; want deny", classID)
		}
	}
}
