package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kwanza/mahudhurio/core"
	"github.com/kwanza/mahudhurio/core/attendance"
	"github.com/kwanza/mahudhurio/core/user"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var (
	_ attendance.Repository  = (*attendanceRepository)(nil)
	_ user.AttendanceDeleter = (*attendanceRepository)(nil)
)

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

const userRecordQuery = `
	SELECT a.*, u.username, u.email, u.first_name, u.last_name, u.student_no
	FROM attendance a
	JOIN users u ON u.id = a.user_id`

// ordering fields accepted from callers; anything else is ignored
var orderableColumns = map[string]string{
	"date":       "a.date",
	"created_at": "a.created_at",
	"username":   "u.username",
}

func orderBy(orderings []core.DBOrdering) string {
	parts := make([]string, 0, len(orderings))
	for _, o := range orderings {
		col, ok := orderableColumns[o.Field]
		if !ok {
			continue
		}
		dir := "DESC"
		if o.Ascending {
			dir = "ASC"
		}
		parts = append(parts, col+" "+dir)
	}
	if len(parts) == 0 {
		return "a.date DESC, a.created_at DESC"
	}
	return strings.Join(parts, ", ")
}

// dateBounds appends the range conditions of dr to q, numbering
// placeholders after the existing args.
func dateBounds(q string, args []interface{}, col string, dr attendance.DateRange) (string, []interface{}) {
	if dr.From != "" {
		args = append(args, dr.From)
		q += fmt.Sprintf(" AND %s >= $%d", col, len(args))
	}
	if dr.To != "" {
		args = append(args, dr.To)
		q += fmt.Sprintf(" AND %s <= $%d", col, len(args))
	}
	return q, args
}

func (repo attendanceRepository) GetRecord(ctx context.Context, userID int, date string) (attendance.Record, error) {
	var rec attendance.Record
	q := `SELECT * FROM attendance WHERE user_id = $1 AND date = $2`
	if err := repo.db.GetContext(ctx, &rec, q, userID, date); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting attendance record")
	}
	return rec, nil
}

func (repo attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := `INSERT INTO attendance (user_id, date, check_in, check_out, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, q,
		rec.UserID, rec.Date, rec.CheckIn, rec.CheckOut, rec.Status, rec.Notes, rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		if uniqueViolation(err, "attendance_user_id_date_key") {
			return attendance.Record{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.Record{}, errors.Wrap(err, "creating attendance record")
	}
	return rec, nil
}

func (repo attendanceRepository) SetCheckOut(ctx context.Context, id int, t time.Time) error {
	q := `UPDATE attendance SET check_out = $1 WHERE id = $2 AND check_out IS NULL`
	res, err := repo.db.ExecContext(ctx, q, t, id)
	if err != nil {
		return errors.Wrap(err, "setting check-out")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// either the record is gone or a concurrent check-out won
		if _, err = repo.GetRecordByID(ctx, id); err != nil {
			return err
		}
		return attendance.ErrAlreadyCheckedOut
	}
	return nil
}

func (repo attendanceRepository) GetRecordByID(ctx context.Context, id int) (attendance.Record, error) {
	var rec attendance.Record
	if err := repo.db.GetContext(ctx, &rec, `SELECT * FROM attendance WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting attendance record")
	}
	return rec, nil
}

func (repo attendanceRepository) QueryRecordsByUser(ctx context.Context, userID int, dr attendance.DateRange, limit int) ([]attendance.Record, error) {
	q := `SELECT * FROM attendance WHERE user_id = $1`
	args := []interface{}{userID}
	q, args = dateBounds(q, args, "date", dr)
	q += " ORDER BY date DESC"
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	recs := make([]attendance.Record, 0)
	if err := repo.db.SelectContext(ctx, &recs, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying user attendance records")
	}
	return recs, nil
}

func (repo attendanceRepository) QueryAllRecords(ctx context.Context, dr attendance.DateRange, orderings ...core.DBOrdering) ([]attendance.UserRecord, error) {
	q := userRecordQuery + ` WHERE true`
	var args []interface{}
	q, args = dateBounds(q, args, "a.date", dr)
	q += " ORDER BY " + orderBy(orderings)

	recs := make([]attendance.UserRecord, 0)
	if err := repo.db.SelectContext(ctx, &recs, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	return recs, nil
}

func (repo attendanceRepository) QueryRecordsByClass(ctx context.Context, classID int, dr attendance.DateRange) ([]attendance.UserRecord, error) {
	q := userRecordQuery + ` WHERE u.class_id = $1`
	args := []interface{}{classID}
	q, args = dateBounds(q, args, "a.date", dr)
	q += " ORDER BY a.date DESC, u.username ASC"

	recs := make([]attendance.UserRecord, 0)
	if err := repo.db.SelectContext(ctx, &recs, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying class attendance records")
	}
	return recs, nil
}

func (repo attendanceRepository) DeleteRecord(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ErrNotFound
	}
	return nil
}

func (repo attendanceRepository) DeleteRecords(ctx context.Context, ids ...int) (int, error) {
	q, args, err := sqlx.In(`DELETE FROM attendance WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building attendance delete query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting attendance records")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (repo attendanceRepository) DeleteRecordsByUser(ctx context.Context, userID int) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM attendance WHERE user_id = $1`, userID); err != nil {
		return errors.Wrap(err, "deleting user attendance records")
	}
	return nil
}
