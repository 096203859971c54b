package school

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kwanza/mahudhurio/core"
	"github.com/kwanza/mahudhurio/core/user"
)

var (
	// errors
	ErrClassNotFound   = errors.New("class not found")
	errNotATeacher     = errors.New("teacher reference must be a user with the teacher role")
	errNotAClassMember = errors.New("user is not assigned to a class")
	errNotAStudent     = errors.New("target must be a student of the class")
)

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		// UpdateClass fails with ErrClassNotFound when no row changed.
		UpdateClass(ctx context.Context, cls Class) (Class, error)
		GetClassByID(ctx context.Context, id int) (Class, error)
		QueryAllClasses(ctx context.Context) ([]ClassInfo, error)
		QueryClassStudents(ctx context.Context, classID int) ([]user.User, error)

		CreateMaterial(ctx context.Context, m Material) (Material, error)
		QueryMaterialsByClass(ctx context.Context, classID int) ([]Material, error)

		CreateNotice(ctx context.Context, n Notice) (Notice, error)
		QueryNoticesByClass(ctx context.Context, classID int) ([]Notice, error)

		CreateEvent(ctx context.Context, e Event) (Event, error)
		QueryEventsByClass(ctx context.Context, classID int) ([]Event, error)

		CreateMark(ctx context.Context, m Mark) (Mark, error)
		QueryMarksByStudent(ctx context.Context, studentID int) ([]Mark, error)
	}

	// UserGetter resolves user references (teacher refs, mark targets).
	UserGetter interface {
		GetByID(ctx context.Context, id int) (user.User, error)
	}

	Service struct {
		repo  Repository
		users UserGetter
	}
)

func NewService(repo Repository, users UserGetter) *Service {
	return &Service{repo: repo, users: users}
}

// classOf returns the user's class id, or false for users without one.
func classOf(usr user.User) (int, bool) {
	if !usr.ClassID.Valid {
		return 0, false
	}
	return usr.ClassID.Int, true
}

// checkTeacherRef verifies that a teacher reference points at an actual teacher.
func (svc *Service) checkTeacherRef(ctx context.Context, teacherID *int) error {
	if teacherID == nil {
		return nil
	}
	tchr, err := svc.users.GetByID(ctx, *teacherID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewValidationError(errNotATeacher, core.FieldError{Field: "teacher_id", Error: errNotATeacher.Error()})
		}
		return errors.Wrap(err, "resolving teacher reference")
	}
	if !tchr.IsTeacher() {
		return core.NewValidationError(errNotATeacher, core.FieldError{Field: "teacher_id", Error: errNotATeacher.Error()})
	}
	return nil
}

func (svc *Service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	if err := svc.checkTeacherRef(ctx, nc.TeacherID); err != nil {
		return Class{}, err
	}
	cls := Class{
		Name:        nc.Name,
		Description: null.NewString(nc.Description, nc.Description != ""),
		CreatedAt:   time.Now().UTC(),
	}
	if nc.TeacherID != nil {
		cls.TeacherID.SetValid(*nc.TeacherID)
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *Service) UpdateClass(ctx context.Context, id int, nc NewClass) (Class, error) {
	if err := svc.checkTeacherRef(ctx, nc.TeacherID); err != nil {
		return Class{}, err
	}
	cls := Class{
		ID:          id,
		Name:        nc.Name,
		Description: null.NewString(nc.Description, nc.Description != ""),
	}
	if nc.TeacherID != nil {
		cls.TeacherID.SetValid(*nc.TeacherID)
	}
	return svc.repo.UpdateClass(ctx, cls)
}

func (svc *Service) GetClass(ctx context.Context, id int) (Class, error) {
	return svc.repo.GetClassByID(ctx, id)
}

// ClassOf returns the user's own class, or nil when they have none.
func (svc *Service) ClassOf(ctx context.Context, usr user.User) (*Class, error) {
	id, ok := classOf(usr)
	if !ok {
		return nil, nil
	}
	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &cls, nil
}

func (svc *Service) QueryAllClasses(ctx context.Context) ([]ClassInfo, error) {
	return svc.repo.QueryAllClasses(ctx)
}

// StudentsOf lists the students of the user's own class; empty when the
// user has no class. No access means no data, not an error.
func (svc *Service) StudentsOf(ctx context.Context, usr user.User) ([]user.User, error) {
	id, ok := classOf(usr)
	if !ok {
		return []user.User{}, nil
	}
	return svc.repo.QueryClassStudents(ctx, id)
}

// StudentsOfClass lists the students of an arbitrary class, for the
// teacher/admin cross-class views. Callers must authorize explicitly.
func (svc *Service) StudentsOfClass(ctx context.Context, classID int) ([]user.User, error) {
	return svc.repo.QueryClassStudents(ctx, classID)
}

// Materials

func (svc *Service) MaterialsFor(ctx context.Context, usr user.User) ([]Material, error) {
	id, ok := classOf(usr)
	if !ok {
		return []Material{}, nil
	}
	return svc.repo.QueryMaterialsByClass(ctx, id)
}

func (svc *Service) CreateMaterial(ctx context.Context, creator user.User, nm NewMaterial) (Material, error) {
	classID, ok := classOf(creator)
	if !ok {
		return Material{}, core.NewValidationError(errNotAClassMember)
	}
	m := Material{
		Title:       nm.Title,
		Description: null.NewString(nm.Description, nm.Description != ""),
		FileType:    nm.FileType,
		ClassID:     classID,
		UploadedBy:  creator.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if nm.FileType == "" {
		m.FileType = "document"
	}
	// the stored file key is generated here; upload bytes are handled by
	// the external file store
	if nm.FileName != "" {
		ext := strings.ToLower(filepath.Ext(nm.FileName))
		m.FilePath = null.StringFrom(uuid.New().String() + ext)
		if ext != "" {
			m.FileType = ext[1:]
		}
	}
	return svc.repo.CreateMaterial(ctx, m)
}

// Notices

func (svc *Service) NoticesFor(ctx context.Context, usr user.User) ([]Notice, error) {
	id, ok := classOf(usr)
	if !ok {
		return []Notice{}, nil
	}
	return svc.repo.QueryNoticesByClass(ctx, id)
}

func (svc *Service) CreateNotice(ctx context.Context, creator user.User, nn NewNotice) (Notice, error) {
	classID, ok := classOf(creator)
	if !ok {
		return Notice{}, core.NewValidationError(errNotAClassMember)
	}
	n := Notice{
		Title:     nn.Title,
		Content:   nn.Content,
		ClassID:   classID,
		CreatedBy: creator.ID,
		Priority:  nn.Priority,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateNotice(ctx, n)
}

// Events

func (svc *Service) EventsFor(ctx context.Context, usr user.User) ([]Event, error) {
	id, ok := classOf(usr)
	if !ok {
		return []Event{}, nil
	}
	return svc.repo.QueryEventsByClass(ctx, id)
}

func (svc *Service) CreateEvent(ctx context.Context, creator user.User, ne NewEvent) (Event, error) {
	classID, ok := classOf(creator)
	if !ok {
		return Event{}, core.NewValidationError(errNotAClassMember)
	}
	e := Event{
		Title:       ne.Title,
		Description: null.NewString(ne.Description, ne.Description != ""),
		EventType:   ne.EventType,
		ClassID:     classID,
		EventDate:   ne.EventDate,
		EventTime:   null.NewString(ne.EventTime, ne.EventTime != ""),
		CreatedBy:   creator.ID,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateEvent(ctx, e)
}

// Marks

// MarksFor returns the marks targeting this user only; marks are never
// visible to the whole class.
func (svc *Service) MarksFor(ctx context.Context, usr user.User) ([]Mark, error) {
	return svc.repo.QueryMarksByStudent(ctx, usr.ID)
}

func (svc *Service) CreateMark(ctx context.Context, creator user.User, nm NewMark) (Mark, error) {
	classID, ok := classOf(creator)
	if !ok {
		return Mark{}, core.NewValidationError(errNotAClassMember)
	}
	target, err := svc.users.GetByID(ctx, nm.StudentID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Mark{}, core.NewValidationError(errNotAStudent, core.FieldError{Field: "student_id", Error: errNotAStudent.Error()})
		}
		return Mark{}, errors.Wrap(err, "resolving mark target")
	}
	if !target.IsStudent() || !target.ClassID.Valid || target.ClassID.Int != classID {
		return Mark{}, core.NewValidationError(errNotAStudent, core.FieldError{Field: "student_id", Error: errNotAStudent.Error()})
	}
	m := Mark{
		StudentID:     nm.StudentID,
		Subject:       nm.Subject,
		ExamType:      nm.ExamType,
		MarksObtained: nm.MarksObtained,
		TotalMarks:    nm.TotalMarks,
		ClassID:       classID,
		CreatedBy:     creator.ID,
		CreatedAt:     time.Now().UTC(),
	}
	return svc.repo.CreateMark(ctx, m)
}
