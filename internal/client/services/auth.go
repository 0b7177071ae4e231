// Package services contains the application services of the attendance
// client: authentication, the teacher workflow and the student workflow.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/qrattend/internal/client/auth"
	"github.com/dmitrijs2005/qrattend/internal/client/client"
	"github.com/dmitrijs2005/qrattend/internal/client/models"
	"github.com/dmitrijs2005/qrattend/internal/client/storage"
	"github.com/dmitrijs2005/qrattend/internal/logging"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate with email/password and cache the identity.
//   - Register: create a new account on the server.
//   - Logout: end the server session and forget the cached identity.
//   - Resolve: run the auth fallback chain for the expected role.
//   - CachedIdentity: the identity last cached locally, unverified.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	Register(ctx context.Context, req models.RegisterRequest) error
	Logout(ctx context.Context) error
	Resolve(ctx context.Context, role models.Role) auth.Outcome
	CachedIdentity(ctx context.Context) (models.Identity, bool)
}

type authService struct {
	client client.Client
	cache  *storage.IdentityCache
	log    logging.Logger
}

func NewAuthService(c client.Client, cache *storage.IdentityCache, log logging.Logger) AuthService {
	return &authService{client: c, cache: cache, log: log}
}

// Login authenticates and caches the user id and role. A different user's
// cached data is dropped first. The profile and the re-authentication
// credential are then fetched on a best-effort basis.
func (a *authService) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, invalid("email", "email is required")
	}
	if password == "" {
		return nil, invalid("password", "password is required")
	}

	res, err := a.client.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	if prev, ok := a.cache.Load(ctx); !ok || prev.UserID != res.UserID {
		a.cache.Clear(ctx)
	}
	a.cache.Merge(ctx, models.IdentityPatch{UserID: &res.UserID, Role: &res.Role})

	profile, err := a.client.Reauth(ctx, res.UserID, res.Role)
	if err != nil {
		a.log.Warn(ctx, "profile refresh failed", "err", err)
		return res, nil
	}
	p := profile.User.Patch()
	a.cache.Merge(ctx, models.IdentityPatch{FirstName: p.FirstName, LastName: p.LastName})
	if profile.SessionID != "" {
		a.cache.SetCredential(ctx, profile.SessionID)
	}
	return res, nil
}

func (a *authService) Register(ctx context.Context, req models.RegisterRequest) error {
	if err := validateRegistration(&req); err != nil {
		return err
	}
	if err := a.client.Register(ctx, req); err != nil {
		return fmt.Errorf("register error: %w", err)
	}
	return nil
}

func validateRegistration(req *models.RegisterRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.StudentID = strings.TrimSpace(req.StudentID)

	role, ok := models.ParseRole(string(req.Role))
	if !ok {
		return invalid("role", "role must be student or teacher")
	}
	req.Role = role

	switch {
	case req.Email == "":
		return invalid("email", "email is required")
	case req.FirstName == "":
		return invalid("firstName", "first name is required")
	case req.LastName == "":
		return invalid("lastName", "last name is required")
	case req.Password == "":
		return invalid("password", "password is required")
	case role == models.RoleStudent && req.StudentID == "":
		return invalid("studentId", "student id is required for students")
	}
	if role == models.RoleTeacher {
		req.StudentID = ""
	}
	return nil
}

// Logout clears the local identity even when the server call fails; the
// server error is still returned.
func (a *authService) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	a.cache.Clear(ctx)
	if err != nil {
		return fmt.Errorf("logout error: %w", err)
	}
	return nil
}

func (a *authService) Resolve(ctx context.Context, role models.Role) auth.Outcome {
	return auth.NewResolver(a.client, a.cache, role, a.log).Resolve(ctx)
}

func (a *authService) CachedIdentity(ctx context.Context) (models.Identity, bool) {
	return a.cache.Load(ctx)
}
