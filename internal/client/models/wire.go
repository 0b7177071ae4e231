package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// FlexString accepts both JSON strings and numbers; the API returns numeric
// ids on some endpoints and string ids on others.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("id is neither string nor number: %s", string(b))
	}
	*s = FlexString(num.String())
	return nil
}

func (s FlexString) String() string { return string(s) }

// WireUser is the user object embedded in auth responses. Pointer fields
// distinguish "absent" from "empty".
type WireUser struct {
	ID        *FlexString `json:"id,omitempty"`
	Role      *string     `json:"role,omitempty"`
	FirstName *string     `json:"firstName,omitempty"`
	LastName  *string     `json:"lastName,omitempty"`
}

// Patch converts the present fields into an IdentityPatch. An unknown role is
// treated as absent.
func (u *WireUser) Patch() IdentityPatch {
	var p IdentityPatch
	if u == nil {
		return p
	}
	if u.ID != nil && *u.ID != "" {
		id := u.ID.String()
		p.UserID = &id
	}
	if u.Role != nil {
		if r, ok := ParseRole(*u.Role); ok {
			p.Role = &r
		}
	}
	p.FirstName = u.FirstName
	p.LastName = u.LastName
	return p
}

// CheckAuthResponse is returned by GET /auth/check-auth.
type CheckAuthResponse struct {
	Authenticated bool      `json:"authenticated"`
	User          *WireUser `json:"user,omitempty"`
}

// ReauthRequest is the body of POST /auth/reauth.
type ReauthRequest struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// ReauthResponse is returned by POST /auth/reauth.
type ReauthResponse struct {
	Success   bool      `json:"success"`
	SessionID string    `json:"sessionId,omitempty"`
	User      *WireUser `json:"user,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	Success bool       `json:"success"`
	Role    string     `json:"role"`
	UserID  FlexString `json:"userId"`
	Message string     `json:"message"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Role      Role   `json:"role"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
	StudentID string `json:"studentId,omitempty"`
}

// StatusResponse is the generic {success, message} envelope.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// GenerateQRRequest is the body of POST /auth/generate-qr.
type GenerateQRRequest struct {
	Subject   string `json:"subject"`
	ClassID   string `json:"class_id"`
	TeacherID string `json:"teacher_id"`
	Section   string `json:"section,omitempty"`
}

// GenerateQRResponse is returned by POST /auth/generate-qr.
type GenerateQRResponse struct {
	Success   bool       `json:"success"`
	SessionID FlexString `json:"sessionId"`
	QRCodeURL string     `json:"qrCodeUrl"`
	ExpiresAt time.Time  `json:"expiresAt"`
	Section   string     `json:"section,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// WireClass is one element of GET /auth/teacher-classes/:teacherId.
type WireClass struct {
	ID        FlexString `json:"id"`
	ClassName string     `json:"class_name,omitempty"`
	Name      string     `json:"name,omitempty"`
	Subject   string     `json:"subject"`
}

// ClassesResponse is returned by GET /auth/teacher-classes/:teacherId.
type ClassesResponse struct {
	Success bool        `json:"success"`
	Classes []WireClass `json:"classes"`
	Message string      `json:"message,omitempty"`
}

// CreateClassRequest is the body of POST /auth/classes.
type CreateClassRequest struct {
	ClassName string `json:"class_name"`
	Subject   string `json:"subject"`
	TeacherID string `json:"teacher_id"`
}

// WireClassSession is one element of GET /auth/class-sessions/:classId.
type WireClassSession struct {
	ID        FlexString `json:"id"`
	SessionID FlexString `json:"session_id"`
	CreatedAt time.Time  `json:"created_at"`
}

// ClassSessionsResponse is returned by GET /auth/class-sessions/:classId.
type ClassSessionsResponse struct {
	Success  bool               `json:"success"`
	Sessions []WireClassSession `json:"sessions"`
	Message  string             `json:"message,omitempty"`
}

// WireAttendanceEntry is one element of an attendance report.
type WireAttendanceEntry struct {
	StudentNumber FlexString `json:"studentNumber"`
	StudentName   string     `json:"studentName"`
	Timestamp     time.Time  `json:"timestamp"`
}

// AttendanceReportResponse is returned by GET /auth/attendance-reports.
type AttendanceReportResponse struct {
	Success    bool                  `json:"success"`
	Subject    string                `json:"subject"`
	Attendance []WireAttendanceEntry `json:"attendance"`
	Message    string                `json:"message,omitempty"`
}

// RecordAttendanceRequest is the body of POST /auth/record-attendance.
type RecordAttendanceRequest struct {
	SessionID string `json:"session_id"`
}

// RecordAttendanceResponse is returned by POST /auth/record-attendance.
type RecordAttendanceResponse struct {
	Success bool   `json:"success"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// WireHistoryEntry is one element of the student attendance history.
type WireHistoryEntry struct {
	Subject     string    `json:"subject"`
	TeacherName string    `json:"teacherName"`
	Timestamp   time.Time `json:"timestamp"`
}

// HistoryResponse is returned by GET /auth/student-attendance-history.
type HistoryResponse struct {
	Success bool               `json:"success"`
	History []WireHistoryEntry `json:"history"`
	Message string             `json:"message,omitempty"`
}
