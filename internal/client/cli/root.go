package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/qrattend/internal/client/auth"
	"github.com/dmitrijs2005/qrattend/internal/client/models"
)

// Root prints the welcome banner, resolves the cached identity and runs the
// REPL until the user exits.
func (a *App) Root(ctx context.Context) {
	a.println("Welcome to the attendance CLI (type 'help' for commands)")
	a.Start(ctx)
	runREPL(ctx, a, a.getStatus, a.reader, func(cmd string, err error) {
		a.reportError(ctx, cmd, err)
	})
}

// Start begins a client session: session-scoped keys are dropped and the
// cached identity is resolved once for any role.
func (a *App) Start(ctx context.Context) {
	if !a.store.ResetSession(ctx) {
		a.log.Warn(ctx, "local store unavailable; continuing without cached identity")
	}

	o := a.authService.Resolve(ctx, models.RoleAny)
	switch o.Kind {
	case auth.Authenticated:
		ident := o.Identity
		a.setIdentity(&ident)
		a.printf("Signed in as %s (%s).\n", ident.DisplayName(), ident.Role)
	case auth.Error:
		a.log.Warn(ctx, "auth resolution failed", "err", o.Err)
		a.println("Not signed in. Use 'login' or 'register'.")
	default:
		a.println("Not signed in. Use 'login' or 'register'.")
	}
}

func (a *App) reportError(ctx context.Context, cmd string, err error) {
	if errors.Is(err, errNotAllowed) {
		return
	}
	a.log.Warn(ctx, "command failed", "cmd", cmd, "err", err)
	a.println(describe(err))
}

// requireRole resolves the identity for role once per login context and
// tells the user what to do when the outcome is not Authenticated.
func (a *App) requireRole(ctx context.Context, role models.Role) (models.Identity, error) {
	a.mu.Lock()
	o, ok := a.outcomes[role]
	a.mu.Unlock()

	if !ok {
		o = a.authService.Resolve(ctx, role)
		if o.Kind != auth.Error {
			a.mu.Lock()
			a.outcomes[role] = o
			a.mu.Unlock()
		}
	}

	switch o.Kind {
	case auth.Authenticated:
		ident := o.Identity
		a.mu.Lock()
		a.identity = &ident
		a.mu.Unlock()
		return ident, nil
	case auth.WrongRole:
		a.printf("This command is for %s accounts; you are signed in as a %s.\n", role, o.ActualRole)
		a.println(roleHelp(o.ActualRole))
		return models.Identity{}, errNotAllowed
	case auth.Unauthenticated:
		a.println("Please log in first.")
		return models.Identity{}, errNotAllowed
	default:
		return models.Identity{}, o.Err
	}
}

func roleHelp(role models.Role) string {
	switch role {
	case models.RoleTeacher:
		return "Teacher commands: classes, addclass, delclass <n>, generate <n> [section], qr [save <file>], sessions <n>, report [session] [file.xlsx]"
	case models.RoleStudent:
		return "Student commands: scan <image|dir>, record <session>, history"
	default:
		return ""
	}
}

func (a *App) help() string {
	common := "Available commands: help, whoami, logout, exit"
	ident, ok := a.currentIdentity()
	if !ok {
		return "Available commands: help, register, login, whoami, exit"
	}
	return common + "\n" + roleHelp(ident.Role)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
