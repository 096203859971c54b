package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/kwanza/mahudhurio/core"
	"github.com/kwanza/mahudhurio/core/attendance"
	"github.com/kwanza/mahudhurio/core/user"
)

type attendanceRepository struct {
	db      *attendanceTable
	users   *userTable
	pkCount int
}

var (
	_ attendance.Repository  = (*attendanceRepository)(nil)
	_ user.AttendanceDeleter = (*attendanceRepository)(nil)
)

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db.attendance, users: db.user}
}

func inRange(date string, dr attendance.DateRange) bool {
	if dr.From != "" && date < dr.From {
		return false
	}
	if dr.To != "" && date > dr.To {
		return false
	}
	return true
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, userID int, date string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rec := range repo.db.table {
		if rec.UserID == userID && rec.Date == date {
			return *rec, nil
		}
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// the (user, date) unique constraint, in miniature
	for _, r := range repo.db.table {
		if r.UserID == rec.UserID && r.Date == rec.Date {
			return attendance.Record{}, attendance.ErrAlreadyCheckedIn
		}
	}

	repo.pkCount++
	rec.ID = repo.pkCount
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) SetCheckOut(ctx context.Context, id int, t time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec, ok := repo.db.table[id]
	if !ok {
		return attendance.ErrNotFound
	}
	// set-once, like the SQL `check_out IS NULL` guard
	if rec.CheckOut.Valid {
		return attendance.ErrAlreadyCheckedOut
	}
	rec.CheckOut = null.TimeFrom(t)
	return nil
}

func (repo *attendanceRepository) GetRecordByID(ctx context.Context, id int) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) QueryRecordsByUser(ctx context.Context, userID int, dr attendance.DateRange, limit int) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var recs []attendance.Record
	for _, rec := range repo.db.table {
		if rec.UserID == userID && inRange(rec.Date, dr) {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date > recs[j].Date })
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (repo *attendanceRepository) withUser(rec attendance.Record) attendance.UserRecord {
	urec := attendance.UserRecord{Record: rec}
	repo.users.RLock()
	if usr, ok := repo.users.table[rec.UserID]; ok {
		urec.Username = usr.Username
		urec.Email = usr.Email
		urec.FirstName = usr.FirstName
		urec.LastName = usr.LastName
		urec.StudentNo = usr.StudentNo
	}
	repo.users.RUnlock()
	return urec
}

func (repo *attendanceRepository) QueryAllRecords(ctx context.Context, dr attendance.DateRange, orderings ...core.DBOrdering) ([]attendance.UserRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var recs []attendance.UserRecord
	for _, rec := range repo.db.table {
		if inRange(rec.Date, dr) {
			recs = append(recs, repo.withUser(*rec))
		}
	}
	// date desc, created desc; explicit orderings are a SQL-layer concern
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Date != recs[j].Date {
			return recs[i].Date > recs[j].Date
		}
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	return recs, nil
}

func (repo *attendanceRepository) QueryRecordsByClass(ctx context.Context, classID int, dr attendance.DateRange) ([]attendance.UserRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	members := make(map[int]bool)
	repo.users.RLock()
	for _, usr := range repo.users.table {
		if usr.ClassID.Valid && usr.ClassID.Int == classID {
			members[usr.ID] = true
		}
	}
	repo.users.RUnlock()

	var recs []attendance.UserRecord
	for _, rec := range repo.db.table {
		if members[rec.UserID] && inRange(rec.Date, dr) {
			recs = append(recs, repo.withUser(*rec))
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date > recs[j].Date })
	return recs, nil
}

func (repo *attendanceRepository) DeleteRecord(ctx context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return attendance.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *attendanceRepository) DeleteRecords(ctx context.Context, ids ...int) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var count int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			count++
		}
	}
	return count, nil
}

func (repo *attendanceRepository) DeleteRecordsByUser(ctx context.Context, userID int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, rec := range repo.db.table {
		if rec.UserID == userID {
			delete(repo.db.table, id)
		}
	}
	return nil
}
