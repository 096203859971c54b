package attendance

import (
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"
)

// DateFormat is the civil-date key of the ledger: one record per (user, date).
const DateFormat = "2006-01-02"

const StatusPresent = "present"

// NowFunc is the wall clock used to derive "today" and check times. Mockable.
var NowFunc = time.Now

// State of a user's ledger entry for a given day.
type State int

const (
	NoRecord State = iota
	CheckedIn
	Complete
)

func (s State) String() string {
	switch s {
	case CheckedIn:
		return "checked-in"
	case Complete:
		return "complete"
	default:
		return "no-record"
	}
}

// Record is one day's check-in/check-out pair for one user.
// Check-in and check-out are full UTC instants: a check-out past midnight
// still belongs to the check-in date and yields a positive duration.
type Record struct {
	ID        int         `json:"id" db:"id"`
	UserID    int         `json:"user_id" db:"user_id"`
	Date      string      `json:"date" db:"date"` // YYYY-MM-DD
	CheckIn   time.Time   `json:"check_in" db:"check_in"`
	CheckOut  null.Time   `json:"check_out" db:"check_out"`
	Status    string      `json:"status" db:"status"`
	Notes     null.String `json:"notes" db:"notes"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

func (r *Record) State() State {
	if r == nil || r.ID == 0 {
		return NoRecord
	}
	if r.CheckOut.Valid {
		return Complete
	}
	return CheckedIn
}

// HoursWorked formats the elapsed time between check-in and check-out
// (or now, while still checked in) as HH:MM, floored to whole minutes.
// Without a check-in the value is undefined and "--:--" is returned.
func (r *Record) HoursWorked() string {
	if r == nil || r.CheckIn.IsZero() {
		return "--:--"
	}
	end := NowFunc().UTC()
	if r.CheckOut.Valid {
		end = r.CheckOut.Time
	}
	mins := int(end.Sub(r.CheckIn).Minutes())
	if mins < 0 {
		mins = 0
	}
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// UserRecord is a Record joined with its owner's identity, for the
// cross-user admin and per-class views.
type UserRecord struct {
	Record
	Username  string `json:"username" db:"username"`
	Email     string `json:"email" db:"email"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	StudentNo string `json:"student_no" db:"student_no"`
}

// DateRange bounds history queries; zero values mean unbounded.
type DateRange struct {
	From string `query:"start_date"`
	To   string `query:"end_date"`
}

func (dr DateRange) IsZero() bool { return dr.From == "" && dr.To == "" }
