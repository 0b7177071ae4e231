package devserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/qrattend/internal/client/auth"
	"github.com/dmitrijs2005/qrattend/internal/client/client"
	"github.com/dmitrijs2005/qrattend/internal/client/models"
	"github.com/dmitrijs2005/qrattend/internal/client/qrview"
	"github.com/dmitrijs2005/qrattend/internal/client/scan"
	"github.com/dmitrijs2005/qrattend/internal/client/services"
	"github.com/dmitrijs2005/qrattend/internal/client/storage"
	"github.com/dmitrijs2005/qrattend/internal/devserver/config"
	"github.com/dmitrijs2005/qrattend/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.QRValidity = time.Minute

	s := NewServer(cfg, newTestStore(), logging.Nop())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	s.config.PublicURL = ts.URL
	return s, ts
}

// device is one client installation: its own cookie jar and local store.
type device struct {
	api   *client.APIClient
	cache *storage.IdentityCache
	auth  services.AuthService
}

func newDevice(t *testing.T, baseURL string) *device {
	t.Helper()
	ctx := context.Background()

	db, err := client.InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cache := storage.NewIdentityCache(storage.Open(db, logging.Nop()))
	h, err := client.NewHTTPClient(baseURL, client.WithCredentials(cache), client.WithTimeout(5*time.Second))
	require.NoError(t, err)

	api := client.NewAPIClient(h)
	return &device{api: api, cache: cache, auth: services.NewAuthService(api, cache, logging.Nop())}
}

// sameUser returns a device with a fresh cookie jar whose local store holds
// a copy of d's cached identity.
func (d *device) sameUser(t *testing.T, baseURL string) *device {
	t.Helper()
	ctx := context.Background()
	other := newDevice(t, baseURL)

	ident, ok := d.cache.Load(ctx)
	require.True(t, ok)
	require.True(t, other.cache.Merge(ctx, models.IdentityPatch{
		UserID: &ident.UserID, Role: &ident.Role, FirstName: &ident.FirstName, LastName: &ident.LastName,
	}))
	if _, secret, ok := d.cache.Credentials(ctx); ok {
		require.True(t, other.cache.SetCredential(ctx, secret))
	}
	return other
}

func register(t *testing.T, d *device, role models.Role, email, first, last, studentID string) {
	t.Helper()
	require.NoError(t, d.auth.Register(context.Background(), models.RegisterRequest{
		Role: role, Email: email, FirstName: first, LastName: last, Password: "pw", StudentID: studentID,
	}))
}

func TestServer_AttendanceFlow(t *testing.T) {
	_, ts := newTestServer(t)
	ctx := context.Background()

	teacher := newDevice(t, ts.URL)
	student := newDevice(t, ts.URL)
	register(t, teacher, models.RoleTeacher, "grace@example.com", "Grace", "Hopper", "")
	register(t, student, models.RoleStudent, "ada@example.com", "Ada", "Lovelace", "S-42")

	tr, err := teacher.auth.Login(ctx, "grace@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, tr.Role)

	ident, ok := teacher.auth.CachedIdentity(ctx)
	require.True(t, ok)
	assert.Equal(t, "Grace", ident.FirstName, "names come from the reauth profile")

	require.NoError(t, teacher.api.CreateClass(ctx, models.CreateClassRequest{ClassName: "Mechanics", Subject: "Physics", TeacherID: tr.UserID}))
	classes, err := teacher.api.TeacherClasses(ctx, tr.UserID)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "Mechanics", classes[0].Name)

	qr, err := teacher.api.GenerateQR(ctx, models.GenerateQRRequest{
		Subject: "Physics", ClassID: classes[0].ID, TeacherID: tr.UserID, Section: "A",
	})
	require.NoError(t, err)
	assert.Equal(t, "A", qr.Section)
	assert.WithinDuration(t, time.Now().Add(time.Minute), qr.ExpiresAt, 5*time.Second)

	content, err := qrview.Content(qr.QRPayloadURL)
	require.NoError(t, err)
	sessionID, err := scan.ParsePayload(content)
	require.NoError(t, err)
	assert.Equal(t, qr.SessionID, sessionID)

	_, err = student.auth.Login(ctx, "ada@example.com", "pw")
	require.NoError(t, err)

	rec, err := student.api.RecordAttendance(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "Physics", rec.Subject)

	_, err = student.api.RecordAttendance(ctx, sessionID)
	var se *client.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.StatusCode)

	report, err := teacher.api.AttendanceReport(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "S-42", report.Entries[0].StudentNumber)
	assert.Equal(t, "Ada Lovelace", report.Entries[0].StudentName)

	sessions, err := teacher.api.ClassSessions(ctx, classes[0].ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, sessionID, sessions[0].SessionID)

	history, err := student.api.StudentHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Grace Hopper", history[0].TeacherName)

	_, err = student.api.TeacherClasses(ctx, tr.UserID)
	assert.ErrorIs(t, err, client.ErrUnauthorized, "students cannot use teacher endpoints")

	require.NoError(t, teacher.api.DeleteClass(ctx, classes[0].ID))
	err = teacher.api.DeleteClass(ctx, classes[0].ID)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestServer_ExpiredQRIsRejected(t *testing.T) {
	s, ts := newTestServer(t)
	ctx := context.Background()

	teacher := newDevice(t, ts.URL)
	student := newDevice(t, ts.URL)
	register(t, teacher, models.RoleTeacher, "t@example.com", "T", "One", "")
	register(t, student, models.RoleStudent, "s@example.com", "S", "One", "S-1")
	tr, err := teacher.auth.Login(ctx, "t@example.com", "pw")
	require.NoError(t, err)
	_, err = student.auth.Login(ctx, "s@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, teacher.api.CreateClass(ctx, models.CreateClassRequest{ClassName: "C", Subject: "S"}))
	classes, err := teacher.api.TeacherClasses(ctx, tr.UserID)
	require.NoError(t, err)
	qr, err := teacher.api.GenerateQR(ctx, models.GenerateQRRequest{ClassID: classes[0].ID})
	require.NoError(t, err)

	s.now = func() time.Time { return qr.ExpiresAt }

	_, err = student.api.RecordAttendance(ctx, qr.SessionID)
	var se *client.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusGone, se.StatusCode)
	assert.Equal(t, ErrSessionExpired.Error(), se.Message)
}

func TestServer_ResolverChain(t *testing.T) {
	_, ts := newTestServer(t)
	ctx := context.Background()

	first := newDevice(t, ts.URL)
	register(t, first, models.RoleStudent, "ada@example.com", "Ada", "Lovelace", "S-42")
	_, err := first.auth.Login(ctx, "ada@example.com", "pw")
	require.NoError(t, err)

	t.Run("cookie", func(t *testing.T) {
		o := first.auth.Resolve(ctx, models.RoleStudent)
		require.Equal(t, auth.Authenticated, o.Kind)
		assert.Equal(t, auth.SourceCookie, o.Source)
		assert.Equal(t, "Ada", o.Identity.FirstName)
	})

	t.Run("header fallback without cookie", func(t *testing.T) {
		other := first.sameUser(t, ts.URL)
		o := other.auth.Resolve(ctx, models.RoleStudent)
		require.Equal(t, auth.Authenticated, o.Kind)
		assert.Equal(t, auth.SourceHeader, o.Source)
	})

	t.Run("wrong role", func(t *testing.T) {
		o := first.auth.Resolve(ctx, models.RoleTeacher)
		assert.Equal(t, auth.WrongRole, o.Kind)
		assert.Equal(t, models.RoleStudent, o.ActualRole)
	})

	t.Run("basic auth retry with the reauth credential", func(t *testing.T) {
		other := first.sameUser(t, ts.URL)
		_, _, ok := other.cache.Credentials(ctx)
		require.True(t, ok)

		_, err := other.api.StudentHistory(ctx)
		require.NoError(t, err)
	})

	t.Run("unknown user is unauthenticated", func(t *testing.T) {
		stranger := newDevice(t, ts.URL)
		id, role := "nobody", models.RoleStudent
		require.True(t, stranger.cache.Merge(ctx, models.IdentityPatch{UserID: &id, Role: &role}))

		o := stranger.auth.Resolve(ctx, models.RoleStudent)
		assert.Equal(t, auth.Unauthenticated, o.Kind)
	})
}

func TestServer_LogoutEndsSession(t *testing.T) {
	_, ts := newTestServer(t)
	ctx := context.Background()

	d := newDevice(t, ts.URL)
	register(t, d, models.RoleTeacher, "t@example.com", "T", "One", "")
	_, err := d.auth.Login(ctx, "t@example.com", "pw")
	require.NoError(t, err)

	resp, err := d.api.CheckAuth(ctx, nil)
	require.NoError(t, err)
	assert.True(t, resp.Authenticated)

	require.NoError(t, d.auth.Logout(ctx))

	resp, err = d.api.CheckAuth(ctx, nil)
	require.NoError(t, err)
	assert.False(t, resp.Authenticated)
	_, ok := d.auth.CachedIdentity(ctx)
	assert.False(t, ok)
}

func TestServer_RejectsBadInput(t *testing.T) {
	_, ts := newTestServer(t)
	ctx := context.Background()
	d := newDevice(t, ts.URL)

	_, err := d.api.Login(ctx, "who@example.com", "pw")
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	register(t, d, models.RoleStudent, "s@example.com", "S", "One", "S-1")
	err = d.api.Register(ctx, models.RegisterRequest{Role: models.RoleStudent, Email: "s@example.com", FirstName: "S", LastName: "Two", Password: "x", StudentID: "S-2"})
	var se *client.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.StatusCode)
	assert.Equal(t, "Email already registered", se.Message)

	_, err = d.api.Reauth(ctx, "nobody", models.RoleStudent)
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	_, err = d.api.StudentHistory(ctx)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}
