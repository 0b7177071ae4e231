package devserver

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/qrattend/internal/common"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken      = errors.New("email already registered")
	ErrBadCredentials  = errors.New("invalid email or password")
	ErrSessionExpired  = errors.New("QR code has expired")
	ErrAlreadyRecorded = errors.New("attendance already recorded")
)

type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	Role         string
	StudentID    string
	PasswordHash []byte
}

func (u *User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type Class struct {
	ID        string
	TeacherID string
	Name      string
	Subject   string
}

type QRSession struct {
	ID        string
	ClassID   string
	TeacherID string
	Subject   string
	Section   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Attendance struct {
	SessionID string
	StudentID string
	At        time.Time
}

// Store keeps every record in memory. It is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	users      map[string]*User
	byEmail    map[string]string
	classes    map[string]*Class
	sessions   map[string]*QRSession
	attendance []Attendance
	bcryptCost int
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]*User),
		byEmail:    make(map[string]string),
		classes:    make(map[string]*Class),
		sessions:   make(map[string]*QRSession),
		bcryptCost: bcrypt.DefaultCost,
	}
}

func normEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) CreateUser(u User, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := normEmail(u.Email)
	if _, ok := s.byEmail[email]; ok {
		return nil, ErrEmailTaken
	}
	u.ID = uuid.NewString()
	u.Email = email
	u.PasswordHash = hash
	s.users[u.ID] = &u
	s.byEmail[email] = u.ID
	return &u, nil
}

// Authenticate checks the password against the stored bcrypt hash.
func (s *Store) Authenticate(email, password string) (*User, error) {
	s.mu.RLock()
	id, ok := s.byEmail[normEmail(email)]
	u := s.users[id]
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

func (s *Store) User(id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (s *Store) CreateClass(teacherID, name, subject string) *Class {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &Class{ID: uuid.NewString(), TeacherID: teacherID, Name: name, Subject: subject}
	s.classes[c.ID] = c
	return c
}

// Class returns the class when it belongs to teacherID.
func (s *Store) Class(teacherID, classID string) (*Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.classes[classID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if c.TeacherID != teacherID {
		return nil, common.ErrorForbidden
	}
	return c, nil
}

func (s *Store) TeacherClasses(teacherID string) []Class {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Class
	for _, c := range s.classes {
		if c.TeacherID == teacherID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Store) DeleteClass(teacherID, classID string) error {
	if _, err := s.Class(teacherID, classID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.classes, classID)
	return nil
}

func (s *Store) CreateSession(class *Class, subject, section string, now time.Time, validity time.Duration) *QRSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if subject == "" {
		subject = class.Subject
	}
	qs := &QRSession{
		ID:        uuid.NewString(),
		ClassID:   class.ID,
		TeacherID: class.TeacherID,
		Subject:   subject,
		Section:   section,
		CreatedAt: now,
		ExpiresAt: now.Add(validity),
	}
	s.sessions[qs.ID] = qs
	return qs
}

// Session returns the QR session; teacherID, when set, must own it.
func (s *Store) Session(teacherID, sessionID string) (*QRSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qs, ok := s.sessions[sessionID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if teacherID != "" && qs.TeacherID != teacherID {
		return nil, common.ErrorForbidden
	}
	return qs, nil
}

// ClassSessions lists the sessions of a class, newest first.
func (s *Store) ClassSessions(classID string) []QRSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []QRSession
	for _, qs := range s.sessions {
		if qs.ClassID == classID {
			out = append(out, *qs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Record stores the attendance of studentID. Expiry is checked against now;
// a student is recorded at most once per session.
func (s *Store) Record(studentID, sessionID string, now time.Time) (*QRSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	qs, ok := s.sessions[sessionID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if !now.Before(qs.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	for _, a := range s.attendance {
		if a.SessionID == sessionID && a.StudentID == studentID {
			return nil, ErrAlreadyRecorded
		}
	}
	s.attendance = append(s.attendance, Attendance{SessionID: sessionID, StudentID: studentID, At: now})
	return qs, nil
}

func (s *Store) SessionAttendance(sessionID string) []Attendance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Attendance
	for _, a := range s.attendance {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out
}

func (s *Store) StudentAttendance(studentID string) []Attendance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Attendance
	for _, a := range s.attendance {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	return out
}
