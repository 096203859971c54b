package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/kwanza/mahudhurio/core/attendance"
	"github.com/kwanza/mahudhurio/core/user"
)

func Test_attendanceApi_checkInOut(t *testing.T) {
	env := setup(t)
	fixClock(t, time.Date(2021, time.May, 3, 9, 0, 0, 0, time.UTC))

	usr := env.createUser(t, "amani", user.RoleStudent, 0)
	idle := env.createUser(t, "idle", user.RoleStudent, 0)

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: "/v1/attendance/check-in",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Check-in", method: http.MethodPost, path: "/v1/attendance/check-in", token: getToken(t, usr),
			wantCode: http.StatusCreated,
		},
		{
			name: "Double check-in", method: http.MethodPost, path: "/v1/attendance/check-in", token: getToken(t, usr),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "already checked in today"}),
		},
		{
			name: "Check-out without check-in", method: http.MethodPost, path: "/v1/attendance/check-out", token: getToken(t, idle),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "no check-in found for today"}),
		},
		{
			name: "Check-out", method: http.MethodPost, path: "/v1/attendance/check-out", token: getToken(t, usr),
			wantCode: http.StatusOK,
		},
		{
			name: "Double check-out", method: http.MethodPost, path: "/v1/attendance/check-out", token: getToken(t, usr),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "already checked out today"}),
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

func Test_attendanceApi_today(t *testing.T) {
	env := setup(t)
	in := time.Date(2021, time.May, 4, 8, 30, 0, 0, time.UTC)
	fixClock(t, in)

	usr := env.createUser(t, "leo", user.RoleStudent, 0)

	get := func() (int, map[string]interface{}) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/today", getToken(t, usr))
		env.app.ServeHTTP(rec, req)
		var res map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling response failed: %v: %s", err, rec.Body.String())
		}
		return rec.Code, res
	}

	code, res := get()
	if code != http.StatusOK {
		t.Fatalf("today code = %v; want %v", code, http.StatusOK)
	}
	if res["record"] != nil || res["state"] != "no-record" || res["hours_worked"] != "--:--" {
		t.Errorf("unexpected empty-day response: %v", res)
	}

	if _, err := env.attSvc.CheckIn(context.Background(), usr.ID); err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}
	fixClock(t, in.Add(2*time.Hour+5*time.Minute))

	code, res = get()
	if code != http.StatusOK {
		t.Fatalf("today code = %v; want %v", code, http.StatusOK)
	}
	if res["record"] == nil || res["state"] != "checked-in" || res["hours_worked"] != "02:05" {
		t.Errorf("unexpected checked-in response: %v", res)
	}
}

func Test_attendanceApi_history(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	usr := env.createUser(t, "mine", user.RoleStudent, 0)
	other := env.createUser(t, "theirs", user.RoleStudent, 0)

	for day := 1; day <= 3; day++ {
		fixClock(t, time.Date(2021, time.May, day, 9, 0, 0, 0, time.UTC))
		if _, err := env.attSvc.CheckIn(ctx, usr.ID); err != nil {
			t.Fatalf("CheckIn() failed: %v", err)
		}
	}
	fixClock(t, time.Date(2021, time.May, 1, 9, 0, 0, 0, time.UTC))
	if _, err := env.attSvc.CheckIn(ctx, other.ID); err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}

	req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/history", getToken(t, usr))
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("history code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var recs []attendance.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &recs); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("history returned %d records; want 3", len(recs))
	}
	for _, r := range recs {
		if r.UserID != usr.ID {
			t.Errorf("history leaked a record of user %d", r.UserID)
		}
	}

	// date range bounds apply
	req, rec = newAuthRequest(http.MethodGet, "/v1/attendance/history?start_date=2021-05-02&end_date=2021-05-02", getToken(t, usr))
	env.app.ServeHTTP(rec, req)
	recs = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &recs); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	if len(recs) != 1 || recs[0].Date != "2021-05-02" {
		t.Errorf("bounded history = %v; want the single 2021-05-02 record", recs)
	}
}

func Test_attendanceApi_queryAll(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	fixClock(t, time.Date(2021, time.May, 3, 9, 0, 0, 0, time.UTC))

	student := env.createUser(t, "stud", user.RoleStudent, 0)
	admin := env.createUser(t, "head", user.RoleAdmin, 0)
	if _, err := env.attSvc.CheckIn(ctx, student.ID); err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}
	if _, err := env.attSvc.CheckIn(ctx, admin.ID); err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}

	req, rec := newAuthRequest(http.MethodGet, "/v1/attendance", getToken(t, student))
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "admin access required"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodGet, "/v1/attendance", getToken(t, admin))
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("queryAll code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var recs []attendance.UserRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &recs); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("queryAll returned %d records; want 2", len(recs))
	}
}

func Test_attendanceApi_queryUser(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	fixClock(t, time.Date(2021, time.May, 3, 9, 0, 0, 0, time.UTC))

	clsA := env.createClass(t, "Form 1A")
	clsB := env.createClass(t, "Form 1B")

	student := env.createUser(t, "pupil", user.RoleStudent, clsA.ID)
	peer := env.createUser(t, "peer", user.RoleStudent, clsA.ID)
	teacherA := env.createUser(t, "missA", user.RoleTeacher, clsA.ID)
	teacherB := env.createUser(t, "misterB", user.RoleTeacher, clsB.ID)
	admin := env.createUser(t, "head", user.RoleAdmin, 0)

	if _, err := env.attSvc.CheckIn(ctx, student.ID); err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}

	path := "/v1/attendance/users/" + itoa(student.ID)
	tests := []httpTest{
		{name: "Own records", path: path, token: getToken(t, student), wantCode: http.StatusOK},
		{
			name: "Classmate denied", path: path, token: getToken(t, peer),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "access denied"}),
		},
		{name: "Teacher same class", path: path, token: getToken(t, teacherA), wantCode: http.StatusOK},
		{
			name: "Teacher other class", path: path, token: getToken(t, teacherB),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "target is not in your class"}),
		},
		{name: "Admin", path: path, token: getToken(t, admin), wantCode: http.StatusOK},
		{
			name: "Unknown user", path: "/v1/attendance/users/999", token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_attendanceApi_destroy(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	fixClock(t, time.Date(2021, time.May, 3, 9, 0, 0, 0, time.UTC))

	owner := env.createUser(t, "owner", user.RoleStudent, 0)
	other := env.createUser(t, "other", user.RoleStudent, 0)
	admin := env.createUser(t, "head", user.RoleAdmin, 0)

	rec1, err := env.attSvc.CheckIn(ctx, owner.ID)
	if err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}
	fixClock(t, time.Date(2021, time.May, 4, 9, 0, 0, 0, time.UTC))
	rec2, err := env.attSvc.CheckIn(ctx, owner.ID)
	if err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}

	tests := []httpTest{
		{
			name: "Stranger denied", path: "/v1/attendance/" + itoa(rec1.ID), token: getToken(t, other),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "access denied"}),
		},
		{name: "Owner", path: "/v1/attendance/" + itoa(rec1.ID), token: getToken(t, owner), wantCode: http.StatusNoContent},
		{name: "Admin", path: "/v1/attendance/" + itoa(rec2.ID), token: getToken(t, admin), wantCode: http.StatusNoContent},
		{
			name: "Unknown record", path: "/v1/attendance/999", token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "attendance record not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodDelete, tt.path, tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_attendanceApi_destroyMultiple(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	usr := env.createUser(t, "bulk", user.RoleStudent, 0)
	admin := env.createUser(t, "head", user.RoleAdmin, 0)

	var ids string
	for day := 1; day <= 2; day++ {
		fixClock(t, time.Date(2021, time.May, day, 9, 0, 0, 0, time.UTC))
		rec, err := env.attSvc.CheckIn(ctx, usr.ID)
		if err != nil {
			t.Fatalf("CheckIn() failed: %v", err)
		}
		ids += "id=" + itoa(rec.ID) + "&"
	}
	path := "/v1/attendance?" + ids + "id=999"

	req, rec := newAuthRequest(http.MethodDelete, path, getToken(t, usr))
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "admin access required"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodDelete, path, getToken(t, admin))
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, map[string]int{"deleted": 2}),
	}, rec)

	recs, err := env.attRepo.QueryRecordsByUser(ctx, usr.ID, attendance.DateRange{}, 0)
	if err != nil {
		t.Fatalf("QueryRecordsByUser() failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("%d attendance records survived the bulk delete", len(recs))
	}
}
