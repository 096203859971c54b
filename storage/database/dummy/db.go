// Package dummydb provides in-memory repositories with the same
// uniqueness semantics as the SQL layer, for tests and local hacking.
package dummydb

import (
	"sync"

	"github.com/kwanza/mahudhurio/core/attendance"
	"github.com/kwanza/mahudhurio/core/school"
	"github.com/kwanza/mahudhurio/core/user"
)

type (
	DB struct {
		user       *userTable
		attendance *attendanceTable
		school     *schoolTables
	}

	userTable struct {
		sync.RWMutex
		table map[int]*user.User
	}

	attendanceTable struct {
		sync.RWMutex
		table map[int]*attendance.Record
	}

	schoolTables struct {
		sync.RWMutex
		classes   map[int]*school.Class
		materials map[int]*school.Material
		notices   map[int]*school.Notice
		events    map[int]*school.Event
		marks     map[int]*school.Mark
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[int]*user.User)},
		attendance: &attendanceTable{table: make(map[int]*attendance.Record)},
		school: &schoolTables{
			classes:   make(map[int]*school.Class),
			materials: make(map[int]*school.Material),
			notices:   make(map[int]*school.Notice),
			events:    make(map[int]*school.Event),
			marks:     make(map[int]*school.Mark),
		},
	}
	return db, nil
}
