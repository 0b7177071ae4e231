package cli

import (
	"context"

	"github.com/dmitrijs2005/qrattend/internal/client/auth"
	"github.com/dmitrijs2005/qrattend/internal/client/models"
	"github.com/dmitrijs2005/qrattend/internal/common"
)

// getSimpleText, getChoice and getPassword are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getChoice     = GetChoice
	getPassword   = GetPassword
)

// Register prompts for the account details and creates the account. The
// user still has to log in afterwards.
func (a *App) Register(ctx context.Context) error {
	role, err := getChoice(a.reader, "Account type", []string{string(models.RoleStudent), string(models.RoleTeacher)}, "", a.out)
	if err != nil {
		return err
	}
	req := models.RegisterRequest{Role: models.Role(role)}

	if req.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}
	if req.FirstName, err = getSimpleText(a.reader, "Enter first name", a.out); err != nil {
		return err
	}
	if req.LastName, err = getSimpleText(a.reader, "Enter last name", a.out); err != nil {
		return err
	}
	if req.Role == models.RoleStudent {
		if req.StudentID, err = getSimpleText(a.reader, "Enter student id", a.out); err != nil {
			return err
		}
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	req.Password = string(password)

	if err := a.authService.Register(ctx, req); err != nil {
		return err
	}

	a.println("Registration successful. Use 'login' to sign in.")
	return nil
}

// Login prompts for credentials, signs in and starts a new resolution
// context for the signed-in identity.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.authService.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	ident := models.Identity{UserID: res.UserID, Role: res.Role}
	if cached, ok := a.authService.CachedIdentity(ctx); ok && cached.UserID == res.UserID {
		ident.FirstName, ident.LastName = cached.FirstName, cached.LastName
	}
	a.countdowns.Stop(qrSurface)
	a.status.clear()
	a.setIdentity(&ident)

	a.printf("Login successful. Welcome, %s (%s).\n", ident.DisplayName(), ident.Role)
	a.println(roleHelp(ident.Role))
	return nil
}

// Logout ends the server session and forgets the local identity. The local
// state is cleared even when the server cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	err := a.authService.Logout(ctx)

	a.countdowns.Stop(qrSurface)
	a.status.clear()
	a.setIdentity(nil)

	if err != nil {
		return err
	}
	a.println("Logged out.")
	return nil
}

// WhoAmI re-runs the resolution for any role and reports the result.
func (a *App) WhoAmI(ctx context.Context) error {
	a.mu.Lock()
	a.outcomes = make(map[models.Role]auth.Outcome)
	a.mu.Unlock()

	o := a.authService.Resolve(ctx, models.RoleAny)
	switch o.Kind {
	case auth.Authenticated:
		ident := o.Identity
		a.mu.Lock()
		a.identity = &ident
		a.mu.Unlock()
		a.printf("Signed in as %s (%s, id %s) via %s.\n", ident.DisplayName(), ident.Role, ident.UserID, o.Source)
		return nil
	case auth.Error:
		return o.Err
	default:
		a.mu.Lock()
		a.identity = nil
		a.mu.Unlock()
		a.println("Not signed in.")
		return nil
	}
}
