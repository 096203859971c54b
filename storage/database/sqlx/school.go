package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kwanza/mahudhurio/core/school"
	"github.com/kwanza/mahudhurio/core/user"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

// Classes

func (repo schoolRepository) CreateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	q := `INSERT INTO class (name, description, teacher_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, q, cls.Name, cls.Description, cls.TeacherID, cls.CreatedAt).Scan(&cls.ID)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "creating class")
	}
	return cls, nil
}

func (repo schoolRepository) UpdateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	q := `UPDATE class SET name = $1, description = $2, teacher_id = $3 WHERE id = $4`
	res, err := repo.db.ExecContext(ctx, q, cls.Name, cls.Description, cls.TeacherID, cls.ID)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "updating class")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.Class{}, school.ErrClassNotFound
	}
	return repo.GetClassByID(ctx, cls.ID)
}

func (repo schoolRepository) GetClassByID(ctx context.Context, id int) (school.Class, error) {
	var cls school.Class
	if err := repo.db.GetContext(ctx, &cls, `SELECT * FROM class WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return school.Class{}, school.ErrClassNotFound
		}
		return school.Class{}, errors.Wrap(err, "getting class")
	}
	return cls, nil
}

func (repo schoolRepository) QueryAllClasses(ctx context.Context) ([]school.ClassInfo, error) {
	q := `SELECT c.*, t.first_name AS teacher_first_name, t.last_name AS teacher_last_name,
			(SELECT count(*) FROM users s WHERE s.class_id = c.id AND s.role = $1) AS student_count
		FROM class c
		LEFT JOIN users t ON t.id = c.teacher_id
		ORDER BY c.name`
	infos := make([]school.ClassInfo, 0)
	if err := repo.db.SelectContext(ctx, &infos, q, user.RoleStudent); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	return infos, nil
}

func (repo schoolRepository) QueryClassStudents(ctx context.Context, classID int) ([]user.User, error) {
	q := `SELECT * FROM users WHERE class_id = $1 AND role = $2 ORDER BY first_name, last_name, username`
	students := make([]user.User, 0)
	if err := repo.db.SelectContext(ctx, &students, q, classID, user.RoleStudent); err != nil {
		return nil, errors.Wrap(err, "querying class students")
	}
	return students, nil
}

// Materials

func (repo schoolRepository) CreateMaterial(ctx context.Context, m school.Material) (school.Material, error) {
	q := `INSERT INTO material (title, description, file_path, file_type, class_id, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, q,
		m.Title, m.Description, m.FilePath, m.FileType, m.ClassID, m.UploadedBy, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return school.Material{}, errors.Wrap(err, "creating material")
	}
	return m, nil
}

func (repo schoolRepository) QueryMaterialsByClass(ctx context.Context, classID int) ([]school.Material, error) {
	q := `SELECT * FROM material WHERE class_id = $1 ORDER BY created_at DESC`
	materials := make([]school.Material, 0)
	if err := repo.db.SelectContext(ctx, &materials, q, classID); err != nil {
		return nil, errors.Wrap(err, "querying class materials")
	}
	return materials, nil
}

// Notices

func (repo schoolRepository) CreateNotice(ctx context.Context, n school.Notice) (school.Notice, error) {
	q := `INSERT INTO notice (title, content, class_id, created_by, priority, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, q,
		n.Title, n.Content, n.ClassID, n.CreatedBy, n.Priority, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		return school.Notice{}, errors.Wrap(err, "creating notice")
	}
	return n, nil
}

func (repo schoolRepository) QueryNoticesByClass(ctx context.Context, classID int) ([]school.Notice, error) {
	q := `SELECT * FROM notice WHERE class_id = $1 ORDER BY created_at DESC`
	notices := make([]school.Notice, 0)
	if err := repo.db.SelectContext(ctx, &notices, q, classID); err != nil {
		return nil, errors.Wrap(err, "querying class notices")
	}
	return notices, nil
}

// Events

func (repo schoolRepository) CreateEvent(ctx context.Context, e school.Event) (school.Event, error) {
	q := `INSERT INTO event (title, description, event_type, class_id, event_date, event_time, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, q,
		e.Title, e.Description, e.EventType, e.ClassID, e.EventDate, e.EventTime, e.CreatedBy, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return school.Event{}, errors.Wrap(err, "creating event")
	}
	return e, nil
}

func (repo schoolRepository) QueryEventsByClass(ctx context.Context, classID int) ([]school.Event, error) {
	q := `SELECT * FROM event WHERE class_id = $1 ORDER BY event_date`
	events := make([]school.Event, 0)
	if err := repo.db.SelectContext(ctx, &events, q, classID); err != nil {
		return nil, errors.Wrap(err, "querying class events")
	}
	return events, nil
}

// Marks

func (repo schoolRepository) CreateMark(ctx context.Context, m school.Mark) (school.Mark, error) {
	q := `INSERT INTO mark (student_id, subject, exam_type, marks_obtained, total_marks, class_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, q,
		m.StudentID, m.Subject, m.ExamType, m.MarksObtained, m.TotalMarks, m.ClassID, m.CreatedBy, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return school.Mark{}, errors.Wrap(err, "creating mark")
	}
	return m, nil
}

func (repo schoolRepository) QueryMarksByStudent(ctx context.Context, studentID int) ([]school.Mark, error) {
	q := `SELECT * FROM mark WHERE student_id = $1 ORDER BY created_at DESC`
	marks := make([]school.Mark, 0)
	if err := repo.db.SelectContext(ctx, &marks, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying student marks")
	}
	return marks, nil
}
