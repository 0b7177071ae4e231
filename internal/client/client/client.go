package client

import (
	"context"

	"github.com/dmitrijs2005/qrattend/internal/client/models"
)

// Client is the transport-agnostic contract of the attendance API as the
// client consumes it.
type Client interface {
	CheckAuth(ctx context.Context, ident *models.Identity) (*models.CheckAuthResponse, error)
	Reauth(ctx context.Context, userID string, role models.Role) (*models.ReauthResponse, error)
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	Register(ctx context.Context, req models.RegisterRequest) error
	Logout(ctx context.Context) error

	GenerateQR(ctx context.Context, req models.GenerateQRRequest) (*models.QrSession, error)
	TeacherClasses(ctx context.Context, teacherID string) ([]models.Class, error)
	CreateClass(ctx context.Context, req models.CreateClassRequest) error
	DeleteClass(ctx context.Context, classID string) error
	ClassSessions(ctx context.Context, classID string) ([]models.ClassSession, error)
	AttendanceReport(ctx context.Context, sessionID string) (*models.AttendanceReport, error)

	RecordAttendance(ctx context.Context, sessionID string) (*models.RecordResult, error)
	StudentHistory(ctx context.Context) ([]models.AttendanceRecord, error)
}
