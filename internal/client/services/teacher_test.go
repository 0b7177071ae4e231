package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/qrattend/internal/client/client"
	"github.com/dmitrijs2005/qrattend/internal/client/models"
	"github.com/dmitrijs2005/qrattend/internal/client/storage"
	"github.com/dmitrijs2005/qrattend/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTeacher(t *testing.T, fc *fakeClient) (TeacherService, *storage.Store) {
	t.Helper()
	st := setupStore(t)
	return NewTeacherService(fc, st, logging.Nop()), st
}

func TestGenerateQR_Validation(t *testing.T) {
	fc := &fakeClient{}
	svc, _ := newTeacher(t, fc)
	ctx := context.Background()

	_, err := svc.GenerateQR(ctx, "t1", models.Class{}, "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "classId", ve.Field)

	_, err = svc.GenerateQR(ctx, "t1", models.Class{ID: "c1"}, "")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "subject", ve.Field)

	_, err = svc.GenerateQR(ctx, "", models.Class{ID: "c1", Subject: "Algo"}, "")
	require.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, fc.Calls())
}

func TestGenerateQR_StoresCurrentSession(t *testing.T) {
	exp := time.Now().Add(time.Minute)
	fc := &fakeClient{
		GenerateQRFn: func(req models.GenerateQRRequest) (*models.QrSession, error) {
			assert.Equal(t, models.GenerateQRRequest{Subject: "Algo", ClassID: "c1", TeacherID: "t1", Section: "B"}, req)
			return &models.QrSession{SessionID: "s9", ClassID: "c1", Subject: "Algo", Section: "B", ExpiresAt: exp}, nil
		},
	}
	svc, st := newTeacher(t, fc)
	ctx := context.Background()

	qr, err := svc.GenerateQR(ctx, "t1", models.Class{ID: "c1", Name: "CS-1", Subject: "Algo"}, " B ")
	require.NoError(t, err)
	assert.Equal(t, "s9", qr.SessionID)

	cur, ok := svc.CurrentSession(ctx)
	require.True(t, ok)
	assert.Equal(t, "s9", cur)

	require.True(t, st.ResetSession(ctx))
	_, ok = svc.CurrentSession(ctx)
	assert.False(t, ok, "current session is session-scoped")
}

func TestReport_DefaultsToCurrentSession(t *testing.T) {
	fc := &fakeClient{
		AttendanceReportFn: func(sessionID string) (*models.AttendanceReport, error) {
			return &models.AttendanceReport{SessionID: sessionID, Subject: "Algo"}, nil
		},
	}
	svc, st := newTeacher(t, fc)
	ctx := context.Background()

	_, err := svc.Report(ctx, "")
	require.ErrorIs(t, err, ErrValidation)

	require.True(t, st.Set(ctx, storage.KeyCurrentQRSession, "s9"))
	rep, err := svc.Report(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "s9", rep.SessionID)

	rep, err = svc.Report(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, "other", rep.SessionID)
}

func TestClassCRUD(t *testing.T) {
	var created models.CreateClassRequest
	fc := &fakeClient{
		TeacherClassesFn: func(teacherID string) ([]models.Class, error) {
			return []models.Class{{ID: "c1", Name: "CS-1", Subject: "Algo"}}, nil
		},
		CreateClassFn: func(req models.CreateClassRequest) error { created = req; return nil },
		DeleteClassFn: func(classID string) error {
			return &client.ServerError{StatusCode: 404, Message: "no such class"}
		},
		ClassSessionsFn: func(classID string) ([]models.ClassSession, error) {
			return []models.ClassSession{{ID: "1", SessionID: "s1"}}, nil
		},
	}
	svc, _ := newTeacher(t, fc)
	ctx := context.Background()

	classes, err := svc.Classes(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, classes, 1)

	require.ErrorIs(t, svc.CreateClass(ctx, "t1", "", "Algo"), ErrValidation)
	require.NoError(t, svc.CreateClass(ctx, "t1", " CS-2 ", "DB"))
	assert.Equal(t, models.CreateClassRequest{ClassName: "CS-2", Subject: "DB", TeacherID: "t1"}, created)

	var se *client.ServerError
	require.ErrorAs(t, svc.DeleteClass(ctx, "c9"), &se)
	require.ErrorIs(t, svc.DeleteClass(ctx, ""), ErrValidation)

	sessions, err := svc.Sessions(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sessions[0].SessionID)
	_, err = svc.Sessions(ctx, "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestExportReport(t *testing.T) {
	svc, _ := newTeacher(t, &fakeClient{})

	_, err := svc.ExportReport(nil, "x.xlsx")
	require.ErrorIs(t, err, ErrValidation)

	path := filepath.Join(t.TempDir(), "r.xlsx")
	abs, err := svc.ExportReport(&models.AttendanceReport{SessionID: "s1", Subject: "Algo"}, path)
	require.NoError(t, err)
	assert.Equal(t, path, abs)
	assert.FileExists(t, abs)
}
