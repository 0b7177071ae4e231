package devserver

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/qrattend/internal/common"
	"github.com/dmitrijs2005/qrattend/internal/devserver/auth"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const (
	roleStudent = "student"
	roleTeacher = "teacher"

	qrImageSize = 256
)

func (s *Server) checkAuth(c *gin.Context) {
	u, ok := s.sessionUser(c)
	if !ok {
		u, ok = s.headerUser(c)
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": wireUser(u)})
}

type reauthRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// reauth restores a session for a known user id and role and returns a
// token the client can send as basic auth.
func (s *Server) reauth(c *gin.Context) {
	var req reauthRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		fail(c, http.StatusBadRequest, "userId and role are required")
		return
	}

	u, err := s.store.User(req.UserID)
	if err != nil || u.Role != req.Role {
		fail(c, http.StatusUnauthorized, "Unknown user")
		return
	}

	token, err := auth.GenerateToken(u.ID, u.Role, []byte(s.config.TokenSecret), s.config.TokenValidity)
	if err != nil {
		s.log.Error(c.Request.Context(), "token generation failed", "err", err)
		fail(c, http.StatusInternalServerError, "Could not issue token")
		return
	}
	if err := startSession(c, u); err != nil {
		s.log.Warn(c.Request.Context(), "session not saved", "err", err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "sessionId": token, "user": wireUser(u)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	u, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err := startSession(c, u); err != nil {
		s.log.Error(c.Request.Context(), "session not saved", "err", err)
		fail(c, http.StatusInternalServerError, "Could not start session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "role": u.Role, "userId": u.ID, "message": "Login successful"})
}

type registerRequest struct {
	Role      string `json:"role"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
	StudentID string `json:"studentId"`
}

func (r registerRequest) validate() string {
	switch {
	case r.Role != roleStudent && r.Role != roleTeacher:
		return "Role must be student or teacher"
	case !strings.Contains(r.Email, "@"):
		return "A valid email is required"
	case r.FirstName == "" || r.LastName == "":
		return "First and last name are required"
	case r.Password == "":
		return "Password is required"
	case r.Role == roleStudent && r.StudentID == "":
		return "Student id is required"
	}
	return ""
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}
	if msg := req.validate(); msg != "" {
		fail(c, http.StatusBadRequest, msg)
		return
	}

	u := User{Email: req.Email, FirstName: req.FirstName, LastName: req.LastName, Role: req.Role}
	if req.Role == roleStudent {
		u.StudentID = req.StudentID
	}
	if _, err := s.store.CreateUser(u, req.Password); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			fail(c, http.StatusConflict, "Email already registered")
			return
		}
		s.log.Error(c.Request.Context(), "register failed", "err", err)
		fail(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Registration successful"})
}

func (s *Server) logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := sess.Save(); err != nil {
		s.log.Warn(c.Request.Context(), "session not cleared", "err", err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

// storeStatus maps store errors to HTTP statuses.
func storeStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrSessionExpired):
		return http.StatusGone
	case errors.Is(err, ErrAlreadyRecorded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type generateQRRequest struct {
	Subject   string `json:"subject"`
	ClassID   string `json:"class_id"`
	TeacherID string `json:"teacher_id"`
	Section   string `json:"section"`
}

func (s *Server) generateQR(c *gin.Context) {
	var req generateQRRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ClassID == "" {
		fail(c, http.StatusBadRequest, "class_id is required")
		return
	}
	u := caller(c)
	if req.TeacherID != "" && req.TeacherID != u.ID {
		fail(c, http.StatusForbidden, "Cannot generate codes for another teacher")
		return
	}

	class, err := s.store.Class(u.ID, req.ClassID)
	if err != nil {
		fail(c, storeStatus(err), "Class not found")
		return
	}

	qs := s.store.CreateSession(class, req.Subject, req.Section, s.now(), s.config.QRValidity)
	png, err := qrcode.Encode(s.scanURL(qs.ID), qrcode.Medium, qrImageSize)
	if err != nil {
		s.log.Error(c.Request.Context(), "qr encode failed", "err", err)
		fail(c, http.StatusInternalServerError, "Could not generate QR code")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"sessionId": qs.ID,
		"qrCodeUrl": "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		"expiresAt": qs.ExpiresAt.UTC(),
		"section":   qs.Section,
	})
}

// scanURL is the content encoded into a QR code.
func (s *Server) scanURL(sessionID string) string {
	return strings.TrimRight(s.config.PublicURL, "/") + "/scan?" + url.Values{"session_id": {sessionID}}.Encode()
}

func (s *Server) teacherClasses(c *gin.Context) {
	u := caller(c)
	if c.Param("teacherId") != u.ID {
		fail(c, http.StatusForbidden, "Cannot list another teacher's classes")
		return
	}

	classes := []gin.H{}
	for _, cl := range s.store.TeacherClasses(u.ID) {
		classes = append(classes, gin.H{"id": cl.ID, "class_name": cl.Name, "subject": cl.Subject})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "classes": classes})
}

type createClassRequest struct {
	ClassName string `json:"class_name"`
	Subject   string `json:"subject"`
	TeacherID string `json:"teacher_id"`
}

func (s *Server) createClass(c *gin.Context) {
	var req createClassRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ClassName) == "" {
		fail(c, http.StatusBadRequest, "class_name is required")
		return
	}
	u := caller(c)
	if req.TeacherID != "" && req.TeacherID != u.ID {
		fail(c, http.StatusForbidden, "Cannot create classes for another teacher")
		return
	}

	cl := s.store.CreateClass(u.ID, strings.TrimSpace(req.ClassName), strings.TrimSpace(req.Subject))
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Class created", "classId": cl.ID})
}

func (s *Server) deleteClass(c *gin.Context) {
	if err := s.store.DeleteClass(caller(c).ID, c.Param("classId")); err != nil {
		fail(c, storeStatus(err), "Class not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Class deleted"})
}

func (s *Server) classSessions(c *gin.Context) {
	class, err := s.store.Class(caller(c).ID, c.Param("classId"))
	if err != nil {
		fail(c, storeStatus(err), "Class not found")
		return
	}

	out := []gin.H{}
	for _, qs := range s.store.ClassSessions(class.ID) {
		out = append(out, gin.H{"id": qs.ID, "session_id": qs.ID, "created_at": qs.CreatedAt.UTC()})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sessions": out})
}

func (s *Server) attendanceReport(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		fail(c, http.StatusBadRequest, "session_id is required")
		return
	}
	qs, err := s.store.Session(caller(c).ID, sessionID)
	if err != nil {
		fail(c, storeStatus(err), "Session not found")
		return
	}

	entries := []gin.H{}
	for _, a := range s.store.SessionAttendance(qs.ID) {
		number, name := "", ""
		if st, err := s.store.User(a.StudentID); err == nil {
			number, name = st.StudentID, st.Name()
		}
		entries = append(entries, gin.H{"studentNumber": number, "studentName": name, "timestamp": a.At.UTC()})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subject": qs.Subject, "attendance": entries})
}

type recordAttendanceRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) recordAttendance(c *gin.Context) {
	var req recordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" {
		fail(c, http.StatusBadRequest, "session_id is required")
		return
	}

	qs, err := s.store.Record(caller(c).ID, req.SessionID, s.now())
	if err != nil {
		msg := "Session not found"
		if !errors.Is(err, common.ErrorNotFound) {
			msg = err.Error()
		}
		fail(c, storeStatus(err), msg)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subject": qs.Subject, "message": "Attendance recorded"})
}

func (s *Server) studentHistory(c *gin.Context) {
	history := []gin.H{}
	for _, a := range s.store.StudentAttendance(caller(c).ID) {
		subject, teacher := "", ""
		if qs, err := s.store.Session("", a.SessionID); err == nil {
			subject = qs.Subject
			if t, err := s.store.User(qs.TeacherID); err == nil {
				teacher = t.Name()
			}
		}
		history = append(history, gin.H{"subject": subject, "teacherName": teacher, "timestamp": a.At.UTC()})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "history": history})
}
