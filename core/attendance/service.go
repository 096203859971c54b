package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kwanza/mahudhurio/core"
)

var (
	// errors
	ErrNotFound          = errors.New("attendance record not found")
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrNoOpenCheckIn     = errors.New("no check-in found for today")
	ErrAlreadyCheckedOut = errors.New("already checked out today")
)

type (
	Repository interface {
		// GetRecord returns the (user, date) record or ErrNotFound.
		GetRecord(ctx context.Context, userID int, date string) (Record, error)
		// CreateRecord inserts a new record. A (user, date) uniqueness
		// violation surfaces as ErrAlreadyCheckedIn: the storage constraint
		// serializes concurrent check-in races.
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		// SetCheckOut sets the check-out instant exactly once.
		SetCheckOut(ctx context.Context, id int, t time.Time) error
		GetRecordByID(ctx context.Context, id int) (Record, error)
		// QueryRecordsByUser returns the user's records date-descending,
		// optionally bounded, capped at `limit` (0 means no cap).
		QueryRecordsByUser(ctx context.Context, userID int, dr DateRange, limit int) ([]Record, error)
		QueryAllRecords(ctx context.Context, dr DateRange, orderings ...core.DBOrdering) ([]UserRecord, error)
		QueryRecordsByClass(ctx context.Context, classID int, dr DateRange) ([]UserRecord, error)
		DeleteRecord(ctx context.Context, id int) error
		DeleteRecords(ctx context.Context, ids ...int) (int, error)
		DeleteRecordsByUser(ctx context.Context, userID int) error
	}

	Service struct {
		repo Repository
	}
)

const historyLimit = 30

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CheckIn opens today's ledger entry for the user. Legal only when no
// record exists for (user, today); otherwise ErrAlreadyCheckedIn.
func (svc *Service) CheckIn(ctx context.Context, userID int) (Record, error) {
	now := NowFunc().UTC()
	date := now.Format(DateFormat)

	if _, err := svc.repo.GetRecord(ctx, userID, date); err == nil {
		return Record{}, ErrAlreadyCheckedIn
	} else if errors.Cause(err) != ErrNotFound {
		return Record{}, errors.Wrap(err, "checking today's record")
	}

	rec := Record{
		UserID:    userID,
		Date:      date,
		CheckIn:   now,
		Status:    StatusPresent,
		CreatedAt: now,
	}
	return svc.repo.CreateRecord(ctx, rec)
}

// CheckOut completes today's entry. Legal only from the checked-in state:
// no record yields ErrNoOpenCheckIn, a completed record ErrAlreadyCheckedOut.
// A set check-out is never cleared or overwritten.
func (svc *Service) CheckOut(ctx context.Context, userID int) (Record, error) {
	now := NowFunc().UTC()
	date := now.Format(DateFormat)

	rec, err := svc.repo.GetRecord(ctx, userID, date)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Record{}, ErrNoOpenCheckIn
		}
		return Record{}, errors.Wrap(err, "getting today's record")
	}
	if rec.CheckOut.Valid {
		return Record{}, ErrAlreadyCheckedOut
	}

	if err = svc.repo.SetCheckOut(ctx, rec.ID, now); err != nil {
		return Record{}, errors.Wrap(err, "setting check-out")
	}
	rec.CheckOut = null.TimeFrom(now)
	return rec, nil
}

// Today returns the user's record for today, or nil when none exists.
// Pure read; never mutates.
func (svc *Service) Today(ctx context.Context, userID int) (*Record, error) {
	date := NowFunc().UTC().Format(DateFormat)
	rec, err := svc.repo.GetRecord(ctx, userID, date)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "getting today's record")
	}
	return &rec, nil
}

// History returns the user's most recent records, date-descending.
func (svc *Service) History(ctx context.Context, userID int, dr DateRange) ([]Record, error) {
	return svc.repo.QueryRecordsByUser(ctx, userID, dr, historyLimit)
}

// QueryAll returns all users' records with owner info (admin view).
func (svc *Service) QueryAll(ctx context.Context, dr DateRange, orderings ...core.DBOrdering) ([]UserRecord, error) {
	return svc.repo.QueryAllRecords(ctx, dr, orderings...)
}

// QueryByClass returns records of all students in a class (teacher/admin view).
func (svc *Service) QueryByClass(ctx context.Context, classID int, dr DateRange) ([]UserRecord, error) {
	return svc.repo.QueryRecordsByClass(ctx, classID, dr)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Record, error) {
	return svc.repo.GetRecordByID(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteRecord(ctx, id)
}

// DeleteMany removes records by id, returning how many were deleted.
func (svc *Service) DeleteMany(ctx context.Context, ids ...int) (int, error) {
	if len(ids) == 0 {
		return 0, core.NewValidationError(errors.New("attendance record ids are required"))
	}
	return svc.repo.DeleteRecords(ctx, ids...)
}
