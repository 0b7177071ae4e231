package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/qrattend/internal/client/models"
	"github.com/dmitrijs2005/qrattend/internal/common"
)

// APIClient implements Client over HTTPClient.
type APIClient struct {
	http *HTTPClient
}

func NewAPIClient(h *HTTPClient) *APIClient {
	return &APIClient{http: h}
}

type call struct {
	method  string
	path    string
	query   url.Values
	header  http.Header
	body    any
	noRetry bool
}

// send performs c and decodes a 2xx body into out. Non-2xx statuses are
// mapped by mapStatus.
func (a *APIClient) send(ctx context.Context, c call, out any) (int, error) {
	resp, err := a.http.Request(ctx, c.path, RequestOptions{
		Method:  c.method,
		Header:  c.header,
		Query:   c.query,
		Body:    c.body,
		NoRetry: c.noRetry,
	})
	if err != nil {
		return 0, err
	}
	if !resp.OK() {
		return resp.StatusCode, mapStatus(resp)
	}
	if out != nil {
		if err := resp.Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s response: %w", c.path, err)
		}
	}
	return resp.StatusCode, nil
}

// CheckAuth asks whether the caller is authenticated. With ident == nil only
// the ambient session cookie is sent; otherwise the fallback identity headers
// are attached too. The basic-auth retry is never used here.
func (a *APIClient) CheckAuth(ctx context.Context, ident *models.Identity) (*models.CheckAuthResponse, error) {
	c := call{method: http.MethodGet, path: "/auth/check-auth", noRetry: true}
	if ident != nil {
		c.header = http.Header{}
		c.header.Set(common.UserIDHeaderName, ident.UserID)
		c.header.Set(common.UserRoleHeaderName, string(ident.Role))
	}

	var out models.CheckAuthResponse
	if _, err := a.send(ctx, c, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *APIClient) Reauth(ctx context.Context, userID string, role models.Role) (*models.ReauthResponse, error) {
	var out models.ReauthResponse
	status, err := a.send(ctx, call{
		method:  http.MethodPost,
		path:    "/auth/reauth",
		body:    models.ReauthRequest{UserID: userID, Role: role},
		noRetry: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, rejected(status, out.Message)
	}
	return &out, nil
}

func (a *APIClient) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	var out models.LoginResponse
	status, err := a.send(ctx, call{
		method:  http.MethodPost,
		path:    "/auth/login",
		body:    models.LoginRequest{Email: email, Password: password},
		noRetry: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, rejected(status, out.Message)
	}
	role, ok := models.ParseRole(out.Role)
	if !ok {
		return nil, &ServerError{StatusCode: status, Message: fmt.Sprintf("unknown role %q", out.Role)}
	}
	return &models.LoginResult{UserID: out.UserID.String(), Role: role, Message: out.Message}, nil
}

func (a *APIClient) Register(ctx context.Context, req models.RegisterRequest) error {
	return a.status(ctx, call{method: http.MethodPost, path: "/auth/register", body: req, noRetry: true})
}

func (a *APIClient) Logout(ctx context.Context) error {
	return a.status(ctx, call{method: http.MethodPost, path: "/auth/logout"})
}

// status sends c and checks the {success, message} envelope.
func (a *APIClient) status(ctx context.Context, c call) error {
	var out models.StatusResponse
	status, err := a.send(ctx, c, &out)
	if err != nil {
		return err
	}
	if !out.Success {
		return rejected(status, out.Message)
	}
	return nil
}

func (a *APIClient) GenerateQR(ctx context.Context, req models.GenerateQRRequest) (*models.QrSession, error) {
	var out models.GenerateQRResponse
	status, err := a.send(ctx, call{method: http.MethodPost, path: "/auth/generate-qr", body: req}, &out)
	if err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, rejected(status, out.Message)
	}
	if out.SessionID == "" || out.ExpiresAt.IsZero() {
		return nil, &ServerError{StatusCode: status, Message: "incomplete QR session in response"}
	}

	section := out.Section
	if section == "" {
		section = req.Section
	}
	return &models.QrSession{
		SessionID:    out.SessionID.String(),
		ClassID:      req.ClassID,
		Subject:      req.Subject,
		Section:      section,
		QRPayloadURL: out.QRCodeURL,
		ExpiresAt:    out.ExpiresAt,
	}, nil
}

func (a *APIClient) TeacherClasses(ctx context.Context, teacherID string) ([]models.Class, error) {
	var out models.ClassesResponse
	status, err := a.send(ctx, call{method: http.MethodGet, path: "/auth/teacher-classes/" + url.PathEscape(teacherID)}, &out)
	if err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, rejected(status, out.Message)
	}

	classes := make([]models.Class, 0, len(out.Classes))
	for _, c := range out.Classes {
		name := c.ClassName
		if name == "" {
			name = c.Name
		}
		classes = append(classes, models.Class{ID: c.ID.String(), Name: name, Subject: c.Subject})
	}
	return classes, nil
}

func (a *APIClient) CreateClass(ctx context.Context, req models.CreateClassRequest) error {
	return a.status(ctx, call{method: http.MethodPost, path: "/auth/classes", body: req})
}

func (a *APIClient) DeleteClass(ctx context.Context, classID string) error {
	return a.status(ctx, call{method: http.MethodDelete, path: "/auth/classes/" + url.PathEscape(classID)})
}

func (a *APIClient) ClassSessions(ctx context.Context, classID string) ([]models.ClassSession, error) {
	var out models.ClassSessionsResponse
	status, err := a.send(ctx, call{method: http.MethodGet, path: "/auth/class-sessions/" + url.PathEscape(classID)}, &out)
	if err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, rejected(status, out.Message)
	}

	sessions := make([]models.ClassSession, 0, len(out.Sessions))
	for _, s := range out.Sessions {
		sessionID := s.SessionID.String()
		if sessionID == "" {
			sessionID = s.ID.String()
		}
		sessions = append(sessions, models.ClassSession{ID: s.ID.String(), SessionID: sessionID, CreatedAt: s.CreatedAt})
	}
	return sessions, nil
}

func (a *APIClient) AttendanceReport(ctx context.Context, sessionID string) (*models.AttendanceReport, error) {
	var out models.AttendanceReportResponse
	status, err := a.send(ctx, call{
		method: http.MethodGet,
		path:   "/auth/attendance-reports",
		query:  url.Values{"session_id": {sessionID}},
	}, &out)
	if err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, rejected(status, out.Message)
	}

	report := &models.AttendanceReport{SessionID: sessionID, Subject: out.Subject}
	for _, e := range out.Attendance {
		report.Entries = append(report.Entries, models.AttendanceEntry{
			StudentNumber: e.StudentNumber.String(),
			StudentName:   e.StudentName,
			Timestamp:     e.Timestamp,
		})
	}
	return report, nil
}

func (a *APIClient) RecordAttendance(ctx context.Context, sessionID string) (*models.RecordResult, error) {
	var out models.RecordAttendanceResponse
	status, err := a.send(ctx, call{
		method: http.MethodPost,
		path:   "/auth/record-attendance",
		body:   models.RecordAttendanceRequest{SessionID: sessionID},
	}, &out)
	if err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, rejected(status, out.Message)
	}
	return &models.RecordResult{Subject: out.Subject, Message: out.Message}, nil
}

func (a *APIClient) StudentHistory(ctx context.Context) ([]models.AttendanceRecord, error) {
	var out models.HistoryResponse
	status, err := a.send(ctx, call{method: http.MethodGet, path: "/auth/student-attendance-history"}, &out)
	if err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, rejected(status, out.Message)
	}

	records := make([]models.AttendanceRecord, 0, len(out.History))
	for _, h := range out.History {
		records = append(records, models.AttendanceRecord{Subject: h.Subject, TeacherName: h.TeacherName, Timestamp: h.Timestamp})
	}
	return records, nil
}
