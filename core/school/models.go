package school

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/kwanza/mahudhurio/core"
)

// Class is the scoping unit binding students, a teacher and class-scoped
// resources. Not owned by any single user.
type Class struct {
	ID          int         `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Description null.String `json:"description" db:"description"`
	TeacherID   null.Int    `json:"teacher_id" db:"teacher_id"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// ClassInfo is a Class joined with its teacher's name and student count,
// for the administrative class listing.
type ClassInfo struct {
	Class
	TeacherFirstName null.String `json:"teacher_first_name" db:"teacher_first_name"`
	TeacherLastName  null.String `json:"teacher_last_name" db:"teacher_last_name"`
	StudentCount     int         `json:"student_count" db:"student_count"`
}

type NewClass struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	TeacherID   *int   `json:"teacher_id"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

// Material is a study material reference. The file itself lives in external
// storage; only the generated file key and type are recorded here.
type Material struct {
	ID          int         `json:"id" db:"id"`
	Title       string      `json:"title" db:"title"`
	Description null.String `json:"description" db:"description"`
	FilePath    null.String `json:"file_path" db:"file_path"`
	FileType    string      `json:"file_type" db:"file_type"`
	ClassID     int         `json:"class_id" db:"class_id"`
	UploadedBy  int         `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

type NewMaterial struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	FileType    string `json:"file_type"`
	// FileName is the original client filename; only its extension is kept.
	FileName string `json:"file_name"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	nm.FileName = core.CleanString(nm.FileName)
	return validate.Struct(nm)
}

type Notice struct {
	ID        int         `json:"id" db:"id"`
	Title     string      `json:"title" db:"title"`
	Content   string      `json:"content" db:"content"`
	ClassID   int         `json:"class_id" db:"class_id"`
	CreatedBy int         `json:"created_by" db:"created_by"`
	Priority  string      `json:"priority" db:"priority"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

type NewNotice struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	Priority string `json:"priority" validate:"omitempty,oneof=normal high"`
}

func (nn *NewNotice) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Content = core.CleanString(nn.Content)
	if nn.Priority == "" {
		nn.Priority = PriorityNormal
	}
	return validate.Struct(nn)
}

type Event struct {
	ID          int         `json:"id" db:"id"`
	Title       string      `json:"title" db:"title"`
	Description null.String `json:"description" db:"description"`
	EventType   string      `json:"event_type" db:"event_type"`
	ClassID     int         `json:"class_id" db:"class_id"`
	EventDate   string      `json:"event_date" db:"event_date"` // YYYY-MM-DD
	EventTime   null.String `json:"event_time" db:"event_time"` // HH:MM
	CreatedBy   int         `json:"created_by" db:"created_by"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

const EventTypeDefault = "event"

type NewEvent struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	EventType   string `json:"event_type"`
	EventDate   string `json:"event_date" validate:"required,datetime=2006-01-02"`
	EventTime   string `json:"event_time" validate:"omitempty,datetime=15:04"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	if ne.EventType == "" {
		ne.EventType = EventTypeDefault
	}
	return validate.Struct(ne)
}

// Mark carries a target student distinct from its creator and is visible
// to that student only, not to the whole class.
type Mark struct {
	ID            int       `json:"id" db:"id"`
	StudentID     int       `json:"student_id" db:"student_id"`
	Subject       string    `json:"subject" db:"subject"`
	ExamType      string    `json:"exam_type" db:"exam_type"`
	MarksObtained int       `json:"marks_obtained" db:"marks_obtained"`
	TotalMarks    int       `json:"total_marks" db:"total_marks"`
	ClassID       int       `json:"class_id" db:"class_id"`
	CreatedBy     int       `json:"created_by" db:"created_by"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

type NewMark struct {
	StudentID     int    `json:"student_id" validate:"required"`
	Subject       string `json:"subject" validate:"required"`
	ExamType      string `json:"exam_type" validate:"required"`
	MarksObtained int    `json:"marks_obtained" validate:"gte=0"`
	TotalMarks    int    `json:"total_marks" validate:"required,gtefield=MarksObtained"`
}

func (nm *NewMark) Validate(validate *validator.Validate) error {
	nm.Subject = core.CleanString(nm.Subject)
	nm.ExamType = core.CleanString(nm.ExamType)
	return validate.Struct(nm)
}
