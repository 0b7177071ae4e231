package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/qrattend/internal/client/client"
	"github.com/dmitrijs2005/qrattend/internal/client/export"
	"github.com/dmitrijs2005/qrattend/internal/client/models"
	"github.com/dmitrijs2005/qrattend/internal/client/storage"
	"github.com/dmitrijs2005/qrattend/internal/logging"
)

type TeacherService interface {
	Classes(ctx context.Context, teacherID string) ([]models.Class, error)
	CreateClass(ctx context.Context, teacherID, name, subject string) error
	DeleteClass(ctx context.Context, classID string) error
	GenerateQR(ctx context.Context, teacherID string, class models.Class, section string) (*models.QrSession, error)
	Sessions(ctx context.Context, classID string) ([]models.ClassSession, error)
	Report(ctx context.Context, sessionID string) (*models.AttendanceReport, error)
	ExportReport(report *models.AttendanceReport, path string) (string, error)
	CurrentSession(ctx context.Context) (string, bool)
}

type teacherService struct {
	client client.Client
	store  *storage.Store
	log    logging.Logger
	loc    *time.Location
}

func NewTeacherService(c client.Client, store *storage.Store, log logging.Logger) TeacherService {
	return &teacherService{client: c, store: store, log: log, loc: time.Local}
}

func (s *teacherService) Classes(ctx context.Context, teacherID string) ([]models.Class, error) {
	if teacherID == "" {
		return nil, invalid("teacherId", "log in as a teacher first")
	}
	classes, err := s.client.TeacherClasses(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("load classes: %w", err)
	}
	return classes, nil
}

func (s *teacherService) CreateClass(ctx context.Context, teacherID, name, subject string) error {
	name, subject = strings.TrimSpace(name), strings.TrimSpace(subject)
	switch {
	case teacherID == "":
		return invalid("teacherId", "log in as a teacher first")
	case name == "":
		return invalid("className", "class name is required")
	case subject == "":
		return invalid("subject", "subject is required")
	}
	if err := s.client.CreateClass(ctx, models.CreateClassRequest{ClassName: name, Subject: subject, TeacherID: teacherID}); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

func (s *teacherService) DeleteClass(ctx context.Context, classID string) error {
	if strings.TrimSpace(classID) == "" {
		return invalid("classId", "select a class first")
	}
	if err := s.client.DeleteClass(ctx, classID); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}

// GenerateQR asks the server for a new QR session and remembers it as the
// current session of this client session.
func (s *teacherService) GenerateQR(ctx context.Context, teacherID string, class models.Class, section string) (*models.QrSession, error) {
	switch {
	case teacherID == "":
		return nil, invalid("teacherId", "log in as a teacher first")
	case class.ID == "":
		return nil, invalid("classId", "select a class first")
	case strings.TrimSpace(class.Subject) == "":
		return nil, invalid("subject", "the selected class has no subject")
	}

	qr, err := s.client.GenerateQR(ctx, models.GenerateQRRequest{
		Subject:   class.Subject,
		ClassID:   class.ID,
		TeacherID: teacherID,
		Section:   strings.TrimSpace(section),
	})
	if err != nil {
		return nil, fmt.Errorf("generate qr: %w", err)
	}

	if !s.store.Set(ctx, storage.KeyCurrentQRSession, qr.SessionID) {
		s.log.Warn(ctx, "current session not cached", "session_id", qr.SessionID)
	}
	return qr, nil
}

func (s *teacherService) Sessions(ctx context.Context, classID string) ([]models.ClassSession, error) {
	if strings.TrimSpace(classID) == "" {
		return nil, invalid("classId", "select a class first")
	}
	sessions, err := s.client.ClassSessions(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	return sessions, nil
}

// Report loads the attendance of sessionID, or of the current session when
// sessionID is empty.
func (s *teacherService) Report(ctx context.Context, sessionID string) (*models.AttendanceReport, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		cur, ok := s.CurrentSession(ctx)
		if !ok {
			return nil, invalid("sessionId", "select a session first")
		}
		sessionID = cur
	}
	report, err := s.client.AttendanceReport(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	return report, nil
}

func (s *teacherService) ExportReport(report *models.AttendanceReport, path string) (string, error) {
	if report == nil {
		return "", invalid("report", "load a report first")
	}
	if strings.TrimSpace(path) == "" {
		path = fmt.Sprintf("attendance-%s.xlsx", report.SessionID)
	}
	return export.WriteFile(path, report, s.loc)
}

func (s *teacherService) CurrentSession(ctx context.Context) (string, bool) {
	return s.store.Get(ctx, storage.KeyCurrentQRSession)
}
