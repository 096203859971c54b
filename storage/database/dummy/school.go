package dummydb

import (
	"context"
	"sort"

	"github.com/kwanza/mahudhurio/core/school"
	"github.com/kwanza/mahudhurio/core/user"
)

type schoolRepository struct {
	db    *schoolTables
	users *userTable

	classPK, materialPK, noticePK, eventPK, markPK int
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db.school, users: db.user}
}

// Classes

func (repo *schoolRepository) CreateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.classPK++
	cls.ID = repo.classPK
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *schoolRepository) UpdateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.classes[cls.ID]
	if !ok {
		return school.Class{}, school.ErrClassNotFound
	}
	existing.Name = cls.Name
	existing.Description = cls.Description
	existing.TeacherID = cls.TeacherID
	return *existing, nil
}

func (repo *schoolRepository) GetClassByID(ctx context.Context, id int) (school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return *cls, nil
	}
	return school.Class{}, school.ErrClassNotFound
}

func (repo *schoolRepository) QueryAllClasses(ctx context.Context) ([]school.ClassInfo, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	infos := make([]school.ClassInfo, 0, len(repo.db.classes))
	for _, cls := range repo.db.classes {
		info := school.ClassInfo{Class: *cls}
		repo.users.RLock()
		for _, usr := range repo.users.table {
			if cls.TeacherID.Valid && usr.ID == cls.TeacherID.Int {
				info.TeacherFirstName.SetValid(usr.FirstName)
				info.TeacherLastName.SetValid(usr.LastName)
			}
			if usr.IsStudent() && usr.ClassID.Valid && usr.ClassID.Int == cls.ID {
				info.StudentCount++
			}
		}
		repo.users.RUnlock()
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (repo *schoolRepository) QueryClassStudents(ctx context.Context, classID int) ([]user.User, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	students := make([]user.User, 0)
	for _, usr := range repo.users.table {
		if usr.IsStudent() && usr.ClassID.Valid && usr.ClassID.Int == classID {
			students = append(students, *usr)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name() < students[j].Name() })
	return students, nil
}

// Materials

func (repo *schoolRepository) CreateMaterial(ctx context.Context, m school.Material) (school.Material, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.materialPK++
	m.ID = repo.materialPK
	repo.db.materials[m.ID] = &m
	return m, nil
}

func (repo *schoolRepository) QueryMaterialsByClass(ctx context.Context, classID int) ([]school.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	materials := make([]school.Material, 0)
	for _, m := range repo.db.materials {
		if m.ClassID == classID {
			materials = append(materials, *m)
		}
	}
	sort.Slice(materials, func(i, j int) bool { return materials[i].CreatedAt.After(materials[j].CreatedAt) })
	return materials, nil
}

// Notices

func (repo *schoolRepository) CreateNotice(ctx context.Context, n school.Notice) (school.Notice, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.noticePK++
	n.ID = repo.noticePK
	repo.db.notices[n.ID] = &n
	return n, nil
}

func (repo *schoolRepository) QueryNoticesByClass(ctx context.Context, classID int) ([]school.Notice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notices := make([]school.Notice, 0)
	for _, n := range repo.db.notices {
		if n.ClassID == classID {
			notices = append(notices, *n)
		}
	}
	sort.Slice(notices, func(i, j int) bool { return notices[i].CreatedAt.After(notices[j].CreatedAt) })
	return notices, nil
}

// Events

func (repo *schoolRepository) CreateEvent(ctx context.Context, e school.Event) (school.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.eventPK++
	e.ID = repo.eventPK
	repo.db.events[e.ID] = &e
	return e, nil
}

func (repo *schoolRepository) QueryEventsByClass(ctx context.Context, classID int) ([]school.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]school.Event, 0)
	for _, e := range repo.db.events {
		if e.ClassID == classID {
			events = append(events, *e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].EventDate < events[j].EventDate })
	return events, nil
}

// Marks

func (repo *schoolRepository) CreateMark(ctx context.Context, m school.Mark) (school.Mark, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.markPK++
	m.ID = repo.markPK
	repo.db.marks[m.ID] = &m
	return m, nil
}

func (repo *schoolRepository) QueryMarksByStudent(ctx context.Context, studentID int) ([]school.Mark, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	marks := make([]school.Mark, 0)
	for _, m := range repo.db.marks {
		if m.StudentID == studentID {
			marks = append(marks, *m)
		}
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].CreatedAt.After(marks[j].CreatedAt) })
	return marks, nil
}
