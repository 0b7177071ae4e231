package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/dmitrijs2005/qrattend/internal/client/models"
	"github.com/dmitrijs2005/qrattend/internal/client/storage"
	"github.com/dmitrijs2005/qrattend/internal/logging"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// ---- helpers ----

func setupStore(t *testing.T) *storage.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);
`)
	require.NoError(t, err)
	return storage.Open(db, logging.Nop())
}

// ---- fake client ----

// fakeClient implements client.Client; unset funcs panic so a test notices
// unexpected network calls.
type fakeClient struct {
	mu    sync.Mutex
	calls []string

	CheckAuthFn        func(ident *models.Identity) (*models.CheckAuthResponse, error)
	ReauthFn           func(userID string, role models.Role) (*models.ReauthResponse, error)
	LoginFn            func(email, password string) (*models.LoginResult, error)
	RegisterFn         func(req models.RegisterRequest) error
	LogoutFn           func() error
	GenerateQRFn       func(req models.GenerateQRRequest) (*models.QrSession, error)
	TeacherClassesFn   func(teacherID string) ([]models.Class, error)
	CreateClassFn      func(req models.CreateClassRequest) error
	DeleteClassFn      func(classID string) error
	ClassSessionsFn    func(classID string) ([]models.ClassSession, error)
	AttendanceReportFn func(sessionID string) (*models.AttendanceReport, error)
	RecordAttendanceFn func(sessionID string) (*models.RecordResult, error)
	StudentHistoryFn   func() ([]models.AttendanceRecord, error)
}

func (f *fakeClient) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) CheckAuth(_ context.Context, ident *models.Identity) (*models.CheckAuthResponse, error) {
	f.record("CheckAuth")
	return f.CheckAuthFn(ident)
}

func (f *fakeClient) Reauth(_ context.Context, userID string, role models.Role) (*models.ReauthResponse, error) {
	f.record("Reauth")
	return f.ReauthFn(userID, role)
}

func (f *fakeClient) Login(_ context.Context, email, password string) (*models.LoginResult, error) {
	f.record("Login")
	return f.LoginFn(email, password)
}

func (f *fakeClient) Register(_ context.Context, req models.RegisterRequest) error {
	f.record("Register")
	return f.RegisterFn(req)
}

func (f *fakeClient) Logout(context.Context) error {
	f.record("Logout")
	return f.LogoutFn()
}

func (f *fakeClient) GenerateQR(_ context.Context, req models.GenerateQRRequest) (*models.QrSession, error) {
	f.record("GenerateQR")
	return f.GenerateQRFn(req)
}

func (f *fakeClient) TeacherClasses(_ context.Context, teacherID string) ([]models.Class, error) {
	f.record("TeacherClasses")
	return f.TeacherClassesFn(teacherID)
}

func (f *fakeClient) CreateClass(_ context.Context, req models.CreateClassRequest) error {
	f.record("CreateClass")
	return f.CreateClassFn(req)
}

func (f *fakeClient) DeleteClass(_ context.Context, classID string) error {
	f.record("DeleteClass")
	return f.DeleteClassFn(classID)
}

func (f *fakeClient) ClassSessions(_ context.Context, classID string) ([]models.ClassSession, error) {
	f.record("ClassSessions")
	return f.ClassSessionsFn(classID)
}

func (f *fakeClient) AttendanceReport(_ context.Context, sessionID string) (*models.AttendanceReport, error) {
	f.record("AttendanceReport")
	return f.AttendanceReportFn(sessionID)
}

func (f *fakeClient) RecordAttendance(_ context.Context, sessionID string) (*models.RecordResult, error) {
	f.record("RecordAttendance")
	return f.RecordAttendanceFn(sessionID)
}

func (f *fakeClient) StudentHistory(context.Context) ([]models.AttendanceRecord, error) {
	f.record("StudentHistory")
	return f.StudentHistoryFn()
}
