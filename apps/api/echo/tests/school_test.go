package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/kwanza/mahudhurio/core/school"
	"github.com/kwanza/mahudhurio/core/user"
)

func Test_schoolApi_classes(t *testing.T) {
	env := setup(t)

	teacher := env.createUser(t, "missA", user.RoleTeacher, 0)
	student := env.createUser(t, "pupil", user.RoleStudent, 0)
	admin := env.createUser(t, "head", user.RoleAdmin, 0)

	tests := []httpTest{
		{
			name: "Create admin only", method: http.MethodPost, path: "/v1/school/classes", token: getToken(t, teacher),
			body:     marchallObj(t, map[string]string{"name": "Form 1A"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "admin access required"}),
		},
		{
			name: "Create", method: http.MethodPost, path: "/v1/school/classes", token: getToken(t, admin),
			body:     marchallObj(t, map[string]interface{}{"name": "Form 1A", "teacher_id": teacher.ID}),
			wantCode: http.StatusCreated,
		},
		{
			name: "Teacher ref must be a teacher", method: http.MethodPost, path: "/v1/school/classes", token: getToken(t, admin),
			body:     marchallObj(t, map[string]interface{}{"name": "Form 1B", "teacher_id": student.ID}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"teacher_id": "teacher reference must be a user with the teacher role"}),
		},
		{
			name: "Name required", method: http.MethodPost, path: "/v1/school/classes", token: getToken(t, admin),
			body: marchallObj(t, map[string]string{}), wantCode: http.StatusBadRequest,
		},
		{
			name: "List teacher or admin", method: http.MethodGet, path: "/v1/school/classes", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "admin or teacher access required"}),
		},
		{name: "List", method: http.MethodGet, path: "/v1/school/classes", token: getToken(t, teacher), wantCode: http.StatusOK},
		{
			name: "Update", method: http.MethodPut, path: "/v1/school/classes/1", token: getToken(t, admin),
			body: marchallObj(t, map[string]string{"name": "Form 1A Renamed"}), wantCode: http.StatusOK,
		},
		{
			name: "Update unknown class", method: http.MethodPut, path: "/v1/school/classes/999", token: getToken(t, admin),
			body:     marchallObj(t, map[string]string{"name": "Ghost"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "class not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_schoolApi_ownClass(t *testing.T) {
	env := setup(t)

	cls := env.createClass(t, "Form 2A")
	member := env.createUser(t, "member", user.RoleStudent, cls.ID)
	orphan := env.createUser(t, "orphan", user.RoleStudent, 0)

	req, rec := newAuthRequest(http.MethodGet, "/v1/school/class", getToken(t, member))
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("own class code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var got school.Class
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	if got.ID != cls.ID || got.Name != cls.Name {
		t.Errorf("own class = %+v; want %+v", got, cls)
	}

	// users without a class get an explicit null
	req, rec = newAuthRequest(http.MethodGet, "/v1/school/class", getToken(t, orphan))
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte("null")}, rec)
}

func Test_schoolApi_classStudents(t *testing.T) {
	env := setup(t)

	clsA := env.createClass(t, "Form 1A")
	clsB := env.createClass(t, "Form 1B")

	teacherA := env.createUser(t, "missA", user.RoleTeacher, clsA.ID)
	inA := env.createUser(t, "inA", user.RoleStudent, clsA.ID)
	env.createUser(t, "inB", user.RoleStudent, clsB.ID)
	admin := env.createUser(t, "head", user.RoleAdmin, 0)

	tests := []httpTest{
		{
			name: "Students denied", method: http.MethodGet, path: "/v1/school/class/students", token: getToken(t, inA),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "admin or teacher access required"}),
		},
		{
			name: "Own class", method: http.MethodGet, path: "/v1/school/class/students", token: getToken(t, teacherA),
			wantCode: http.StatusOK, wantData: marchallList(t, inA),
		},
		{
			name: "By class id", method: http.MethodGet, path: "/v1/school/classes/" + itoa(clsA.ID) + "/students",
			token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallList(t, inA),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_schoolApi_materials(t *testing.T) {
	env := setup(t)

	clsA := env.createClass(t, "Form 1A")
	clsB := env.createClass(t, "Form 1B")

	teacherA := env.createUser(t, "missA", user.RoleTeacher, clsA.ID)
	inA := env.createUser(t, "inA", user.RoleStudent, clsA.ID)
	inB := env.createUser(t, "inB", user.RoleStudent, clsB.ID)
	orphan := env.createUser(t, "orphan", user.RoleStudent, 0)

	body := marchallObj(t, map[string]string{"title": "Algebra notes", "file_name": "Chapter One.PDF"})

	req, rec := newAuthRequest(http.MethodPost, "/v1/school/materials", getToken(t, inA), body)
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "admin or teacher access required"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodPost, "/v1/school/materials", getToken(t, teacherA), body)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create material code = %v; want %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var m school.Material
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	if m.ClassID != clsA.ID || m.FileType != "pdf" {
		t.Errorf("material = %+v; want class %d, file type pdf", m, clsA.ID)
	}
	if m.FilePath.String == "Chapter One.PDF" {
		t.Error("client filename was stored verbatim instead of a generated key")
	}

	query := func(usr user.User) []school.Material {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, "/v1/school/materials", getToken(t, usr))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("query materials code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var materials []school.Material
		if err := json.Unmarshal(rec.Body.Bytes(), &materials); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		return materials
	}

	if got := query(inA); len(got) != 1 {
		t.Errorf("class member sees %d materials; want 1", len(got))
	}
	if got := query(inB); len(got) != 0 {
		t.Errorf("other class sees %d materials; want 0", len(got))
	}
	if got := query(orphan); len(got) != 0 {
		t.Errorf("classless user sees %d materials; want 0", len(got))
	}
}

func Test_schoolApi_noticesAndEvents(t *testing.T) {
	env := setup(t)

	cls := env.createClass(t, "Form 3A")
	teacher := env.createUser(t, "missA", user.RoleTeacher, cls.ID)
	student := env.createUser(t, "pupil", user.RoleStudent, cls.ID)

	tests := []httpTest{
		{
			name: "Notice teacher or admin", method: http.MethodPost, path: "/v1/school/notices", token: getToken(t, student),
			body:     marchallObj(t, map[string]string{"title": "Exams", "content": "Exams start Monday."}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "admin or teacher access required"}),
		},
		{
			name: "Notice", method: http.MethodPost, path: "/v1/school/notices", token: getToken(t, teacher),
			body:     marchallObj(t, map[string]string{"title": "Exams", "content": "Exams start Monday.", "priority": "high"}),
			wantCode: http.StatusCreated,
		},
		{
			name: "Notice content required", method: http.MethodPost, path: "/v1/school/notices", token: getToken(t, teacher),
			body: marchallObj(t, map[string]string{"title": "Empty"}), wantCode: http.StatusBadRequest,
		},
		{
			name: "Event", method: http.MethodPost, path: "/v1/school/events", token: getToken(t, teacher),
			body:     marchallObj(t, map[string]string{"title": "Sports day", "event_date": "2021-06-12", "event_time": "14:30"}),
			wantCode: http.StatusCreated,
		},
		{
			name: "Event bad date", method: http.MethodPost, path: "/v1/school/events", token: getToken(t, teacher),
			body:     marchallObj(t, map[string]string{"title": "Sports day", "event_date": "12/06/2021"}),
			wantCode: http.StatusBadRequest,
		},
		{name: "Notices visible to class", method: http.MethodGet, path: "/v1/school/notices", token: getToken(t, student), wantCode: http.StatusOK},
		{name: "Events visible to class", method: http.MethodGet, path: "/v1/school/events", token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	req, rec := newAuthRequest(http.MethodGet, "/v1/school/notices", getToken(t, student))
	env.app.ServeHTTP(rec, req)
	var notices []school.Notice
	if err := json.Unmarshal(rec.Body.Bytes(), &notices); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	if len(notices) != 1 || notices[0].Priority != "high" {
		t.Errorf("notices = %+v; want the single high-priority notice", notices)
	}
}

func Test_schoolApi_marks(t *testing.T) {
	env := setup(t)

	clsA := env.createClass(t, "Form 1A")
	clsB := env.createClass(t, "Form 1B")

	teacherA := env.createUser(t, "missA", user.RoleTeacher, clsA.ID)
	inA := env.createUser(t, "inA", user.RoleStudent, clsA.ID)
	peerA := env.createUser(t, "peerA", user.RoleStudent, clsA.ID)
	inB := env.createUser(t, "inB", user.RoleStudent, clsB.ID)

	body := func(studentID int) []byte {
		return marchallObj(t, map[string]interface{}{
			"student_id": studentID, "subject": "Mathematics", "exam_type": "midterm",
			"marks_obtained": 72, "total_marks": 100,
		})
	}

	tests := []httpTest{
		{
			name: "Student cannot grade", method: http.MethodPost, path: "/v1/school/marks", token: getToken(t, inA),
			body:     body(peerA.ID),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "admin or teacher access required"}),
		},
		{
			name: "Create", method: http.MethodPost, path: "/v1/school/marks", token: getToken(t, teacherA),
			body: body(inA.ID), wantCode: http.StatusCreated,
		},
		{
			name: "Target outside class", method: http.MethodPost, path: "/v1/school/marks", token: getToken(t, teacherA),
			body:     body(inB.ID),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"student_id": "target must be a student of the class"}),
		},
		{
			name: "Target not a student", method: http.MethodPost, path: "/v1/school/marks", token: getToken(t, teacherA),
			body:     body(teacherA.ID),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"student_id": "target must be a student of the class"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	query := func(usr user.User) []school.Mark {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, "/v1/school/marks", getToken(t, usr))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("query marks code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var marks []school.Mark
		if err := json.Unmarshal(rec.Body.Bytes(), &marks); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		return marks
	}

	// marks are visible to the graded student only, not the whole class
	if got := query(inA); len(got) != 1 || got[0].StudentID != inA.ID {
		t.Errorf("target sees %+v; want their single mark", got)
	}
	if got := query(peerA); len(got) != 0 {
		t.Errorf("classmate sees %d marks; want 0", len(got))
	}
}

func Test_schoolApi_classAttendance(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	fixClock(t, time.Date(2021, time.May, 3, 9, 0, 0, 0, time.UTC))

	clsA := env.createClass(t, "Form 1A")
	clsB := env.createClass(t, "Form 1B")

	teacherA := env.createUser(t, "missA", user.RoleTeacher, clsA.ID)
	inA := env.createUser(t, "inA", user.RoleStudent, clsA.ID)
	inB := env.createUser(t, "inB", user.RoleStudent, clsB.ID)

	if _, err := env.attSvc.CheckIn(ctx, inA.ID); err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}
	if _, err := env.attSvc.CheckIn(ctx, inB.ID); err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}

	req, rec := newAuthRequest(http.MethodGet, "/v1/school/classes/"+itoa(clsA.ID)+"/attendance", getToken(t, inA))
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "admin or teacher access required"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodGet, "/v1/school/classes/"+itoa(clsA.ID)+"/attendance", getToken(t, teacherA))
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("class attendance code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var recs []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &recs); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("class attendance returned %d records; want 1", len(recs))
	}
	if recs[0]["username"] != inA.Username {
		t.Errorf("class attendance record belongs to %v; want %v", recs[0]["username"], inA.Username)
	}
}
