// Package devserver is an in-memory implementation of the attendance REST
// API consumed by the client. It keeps nothing across restarts and exists
// to run the client end to end.
package devserver

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/qrattend/internal/common"
	"github.com/dmitrijs2005/qrattend/internal/devserver/auth"
	"github.com/dmitrijs2005/qrattend/internal/devserver/config"
	"github.com/dmitrijs2005/qrattend/internal/logging"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	sessionUserID = "user_id"
	sessionRole   = "role"

	callerKey = "caller"
)

type Server struct {
	config *config.Config
	store  *Store
	log    logging.Logger
	now    func() time.Time
	engine *gin.Engine
}

func NewServer(cfg *config.Config, store *Store, log logging.Logger) *Server {
	s := &Server{config: cfg, store: store, log: log, now: time.Now}

	cs := cookie.NewStore([]byte(cfg.SessionSecret))
	cs.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests, sessions.Sessions(common.SessionCookieName, cs))

	a := r.Group("/auth")
	a.GET("/check-auth", s.checkAuth)
	a.POST("/reauth", s.reauth)
	a.POST("/login", s.login)
	a.POST("/register", s.register)
	a.POST("/logout", s.logout)

	teacher := a.Group("", s.requireRole(roleTeacher))
	teacher.POST("/generate-qr", s.generateQR)
	teacher.GET("/teacher-classes/:teacherId", s.teacherClasses)
	teacher.POST("/classes", s.createClass)
	teacher.DELETE("/classes/:classId", s.deleteClass)
	teacher.GET("/class-sessions/:classId", s.classSessions)
	teacher.GET("/attendance-reports", s.attendanceReport)

	student := a.Group("", s.requireRole(roleStudent))
	student.POST("/record-attendance", s.recordAttendance)
	student.GET("/student-attendance-history", s.studentHistory)

	s.engine = r
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Info(c.Request.Context(), "request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"duration", time.Since(start),
		"request_id", c.GetHeader(common.RequestIDHeaderName),
	)
}

// sessionUser returns the user bound to the session cookie.
func (s *Server) sessionUser(c *gin.Context) (*User, bool) {
	sess := sessions.Default(c)
	id, ok := sess.Get(sessionUserID).(string)
	if !ok || id == "" {
		return nil, false
	}
	u, err := s.store.User(id)
	if err != nil {
		return nil, false
	}
	return u, true
}

// basicUser accepts "userId:token" basic auth where token was issued by
// /auth/reauth for the same user.
func (s *Server) basicUser(c *gin.Context) (*User, bool) {
	id, token, ok := c.Request.BasicAuth()
	if !ok {
		return nil, false
	}
	claims, err := auth.ParseToken(token, []byte(s.config.TokenSecret))
	if err != nil || claims.UserID != id {
		s.log.Debug(c.Request.Context(), "basic auth rejected", "err", err)
		return nil, false
	}
	u, err := s.store.User(id)
	if err != nil || u.Role != claims.Role {
		return nil, false
	}
	return u, true
}

// headerUser trusts the fallback identity headers when they name an existing
// user with that role.
func (s *Server) headerUser(c *gin.Context) (*User, bool) {
	id := c.GetHeader(common.UserIDHeaderName)
	role := c.GetHeader(common.UserRoleHeaderName)
	if id == "" || role == "" {
		return nil, false
	}
	u, err := s.store.User(id)
	if err != nil || u.Role != role {
		return nil, false
	}
	return u, true
}

func (s *Server) requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := s.sessionUser(c)
		if !ok {
			u, ok = s.basicUser(c)
		}
		if !ok {
			fail(c, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if u.Role != role {
			fail(c, http.StatusForbidden, "This endpoint requires a "+role+" account")
			return
		}
		c.Set(callerKey, u)
		c.Next()
	}
}

func caller(c *gin.Context) *User {
	return c.MustGet(callerKey).(*User)
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func startSession(c *gin.Context, u *User) error {
	sess := sessions.Default(c)
	sess.Set(sessionUserID, u.ID)
	sess.Set(sessionRole, u.Role)
	return sess.Save()
}

func wireUser(u *User) gin.H {
	return gin.H{"id": u.ID, "role": u.Role, "firstName": u.FirstName, "lastName": u.LastName}
}
