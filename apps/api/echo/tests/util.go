package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/kwanza/mahudhurio/apps/api/echo"
	"github.com/kwanza/mahudhurio/core"
	"github.com/kwanza/mahudhurio/core/attendance"
	"github.com/kwanza/mahudhurio/core/school"
	"github.com/kwanza/mahudhurio/core/user"
	emailsvc "github.com/kwanza/mahudhurio/services/email"
	dummydb "github.com/kwanza/mahudhurio/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app     *Server
	usrSvc  user.ServiceInterface
	attSvc  *attendance.Service
	schSvc  *school.Service
	attRepo attendance.Repository
	schRepo school.Repository
}

// nopLogger drops all output; API tests assert on responses, not logs.
type nopLogger struct{}

func (nopLogger) Enable(bool)                        {}
func (nopLogger) Debug(string, ...interface{})       {}
func (nopLogger) Info(string, ...interface{})        {}
func (nopLogger) Warn(string, ...interface{})        {}
func (nopLogger) Error(string, ...interface{})       {}
func (nopLogger) Fatal(msg string, _ ...interface{}) { panic(msg) }

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func setup(t *testing.T) testEnv {
	t.Helper()

	conf := &core.Config{
		TestMode:  true,
		Env:       "TEST",
		AppName:   "Mahudhurio",
		SecretKey: []byte("53cr3t"),
		Server: core.ServerConfig{
			JWTExpirationDelta:        24 * time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		},
	}

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	attRepo := dummydb.NewAttendanceRepository(db)
	schRepo := dummydb.NewSchoolRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(conf, usrRepo, attRepo, mailSvc)
	attSvc := attendance.NewService(attRepo)
	schSvc := school.NewService(schRepo, usrSvc)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	app := NewServer(ServerDeps{
		Conf:          conf,
		Logger:        nopLogger{},
		UserSvc:       usrSvc,
		AttendanceSvc: attSvc,
		SchoolSvc:     schSvc,
		Validate:      validate,
		Translator:    translator,
	})
	return testEnv{
		app:     app,
		usrSvc:  usrSvc,
		attSvc:  attSvc,
		schSvc:  schSvc,
		attRepo: attRepo,
		schRepo: schRepo,
	}
}

const testPassword = "V3ryS3cretPwd"

func (env testEnv) createUser(t *testing.T, uname, role string, classID int) user.User {
	t.Helper()
	nu := user.NewUser{
		Username: uname,
		Email:    uname + "@kwanza.org",
		Password: testPassword,
		Role:     role,
	}
	if classID > 0 {
		nu.ClassID = &classID
	}
	usr, err := env.usrSvc.Register(context.Background(), nu)
	if err != nil {
		t.Fatalf("createUser(%q) failed: %v", uname, err)
	}
	return usr
}

func (env testEnv) createClass(t *testing.T, name string) school.Class {
	t.Helper()
	cls, err := env.schSvc.CreateClass(context.Background(), school.NewClass{Name: name})
	if err != nil {
		t.Fatalf("createClass(%q) failed: %v", name, err)
	}
	return cls
}

// fixClock pins the attendance clock for the duration of the test.
func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	attendance.NowFunc = func() time.Time { return at }
	t.Cleanup(func() { attendance.NowFunc = time.Now })
}

func itoa(i int) string { return strconv.Itoa(i) }

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	if l1, ok := j1.([]interface{}); ok {
		if l2, ok := j2.([]interface{}); ok {
			return assert.ElementsMatch(t, l1, l2), nil
		}
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
