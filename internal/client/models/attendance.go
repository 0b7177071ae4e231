package models

import "time"

// QrSession is a server-issued, time-limited QR code for one class meeting.
type QrSession struct {
	SessionID    string
	ClassID      string
	Subject      string
	Section      string
	QRPayloadURL string
	ExpiresAt    time.Time
}

// Expired reports whether now is at or past ExpiresAt. This is a client-side
// projection; the server enforces expiry on its own.
func (s QrSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Class is a teacher's class.
type Class struct {
	ID      string
	Name    string
	Subject string
}

// ClassSession is one past QR session of a class.
type ClassSession struct {
	ID        string
	SessionID string
	CreatedAt time.Time
}

// AttendanceEntry is one line of a teacher's attendance report.
type AttendanceEntry struct {
	StudentNumber string
	StudentName   string
	Timestamp     time.Time
}

// AttendanceReport lists who attended one session.
type AttendanceReport struct {
	SessionID string
	Subject   string
	Entries   []AttendanceEntry
}

// AttendanceRecord is a server-owned record shown in a student's history.
type AttendanceRecord struct {
	StudentID   string
	StudentName string
	Subject     string
	TeacherName string
	Timestamp   time.Time
}

// RecordResult is the server's answer to an attendance submission.
type RecordResult struct {
	Subject string
	Message string
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	UserID  string
	Role    Role
	Message string
}
