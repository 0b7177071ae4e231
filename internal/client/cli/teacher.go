package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/qrattend/internal/client/countdown"
	"github.com/dmitrijs2005/qrattend/internal/client/models"
	"github.com/dmitrijs2005/qrattend/internal/client/qrview"
	"github.com/dmitrijs2005/qrattend/internal/client/services"
)

const timeLayout = "2006-01-02 15:04"

func (a *App) Classes(ctx context.Context) error {
	ident, err := a.requireRole(ctx, models.RoleTeacher)
	if err != nil {
		return err
	}
	classes, err := a.loadClasses(ctx, ident)
	if err != nil {
		return err
	}
	if len(classes) == 0 {
		a.println("No classes yet. Use 'addclass' to create one.")
		return nil
	}
	for i, c := range classes {
		a.printf("%d. %s - %s (id %s)\n", i+1, c.Name, c.Subject, c.ID)
	}
	return nil
}

func (a *App) loadClasses(ctx context.Context, ident models.Identity) ([]models.Class, error) {
	classes, err := a.teacherService.Classes(ctx, ident.UserID)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.classes = classes
	a.mu.Unlock()
	return classes, nil
}

// pickClass resolves a class by its list number or id. The class list is
// loaded when it has not been yet.
func (a *App) pickClass(ctx context.Context, ident models.Identity, args []string, usage string) (models.Class, error) {
	if len(args) == 0 {
		return models.Class{}, &services.ValidationError{Field: "classId", Message: "Select a class first: " + usage}
	}

	a.mu.Lock()
	classes := a.classes
	a.mu.Unlock()
	if classes == nil {
		var err error
		if classes, err = a.loadClasses(ctx, ident); err != nil {
			return models.Class{}, err
		}
	}

	key := args[0]
	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(classes) {
		return classes[n-1], nil
	}
	for _, c := range classes {
		if c.ID == key {
			return c, nil
		}
	}
	return models.Class{}, &services.ValidationError{Field: "classId", Message: fmt.Sprintf("No class %q. Run 'classes' to list them.", key)}
}

func (a *App) AddClass(ctx context.Context) error {
	ident, err := a.requireRole(ctx, models.RoleTeacher)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter class name", a.out)
	if err != nil {
		return err
	}
	subject, err := getSimpleText(a.reader, "Enter subject", a.out)
	if err != nil {
		return err
	}
	if err := a.teacherService.CreateClass(ctx, ident.UserID, name, subject); err != nil {
		return err
	}

	a.mu.Lock()
	a.classes = nil
	a.mu.Unlock()
	a.println("Class created.")
	return nil
}

func (a *App) DeleteClass(ctx context.Context, args []string) error {
	ident, err := a.requireRole(ctx, models.RoleTeacher)
	if err != nil {
		return err
	}
	class, err := a.pickClass(ctx, ident, args, "delclass <number|id>")
	if err != nil {
		return err
	}
	if err := a.teacherService.DeleteClass(ctx, class.ID); err != nil {
		return err
	}

	a.mu.Lock()
	a.classes = nil
	a.mu.Unlock()
	a.printf("Class %s deleted.\n", class.Name)
	return nil
}

// Generate requests a QR code for a class, draws it and starts the expiry
// countdown shown in the prompt. A previous countdown is replaced.
func (a *App) Generate(ctx context.Context, args []string) error {
	ident, err := a.requireRole(ctx, models.RoleTeacher)
	if err != nil {
		return err
	}
	class, err := a.pickClass(ctx, ident, args, "generate <number|id> [section]")
	if err != nil {
		return err
	}
	section := ""
	if len(args) > 1 {
		section = strings.Join(args[1:], " ")
	}

	qr, err := a.teacherService.GenerateQR(ctx, ident.UserID, class, section)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.lastQR = qr
	a.mu.Unlock()

	a.drawQR(qr)
	a.countdowns.Start(qrSurface, a.status, qr.ExpiresAt)
	a.printf("Session %s for %s expires at %s.\n", qr.SessionID, qr.Subject, qr.ExpiresAt.Local().Format(timeLayout+":05"))
	return nil
}

func (a *App) drawQR(qr *models.QrSession) {
	content, art, err := qrview.Render(qr.QRPayloadURL)
	if err != nil {
		a.log.Warn(context.Background(), "qr code not rendered", "err", err)
		a.printf("(QR image could not be drawn; session id %s)\n", qr.SessionID)
		return
	}
	a.println(art)
	a.printf("Payload: %s\n", content)
}

// ShowQR redraws the last QR code with its remaining time, or saves it as
// PNG with "qr save [file]".
func (a *App) ShowQR(ctx context.Context, args []string) error {
	if _, err := a.requireRole(ctx, models.RoleTeacher); err != nil {
		return err
	}

	a.mu.Lock()
	qr := a.lastQR
	a.mu.Unlock()
	if qr == nil {
		return &services.ValidationError{Field: "sessionId", Message: "Generate a QR code first: generate <number|id>"}
	}

	if len(args) > 0 && args[0] == "save" {
		path := fmt.Sprintf("qr-%s.png", qr.SessionID)
		if len(args) > 1 {
			path = args[1]
		}
		abs, err := qrview.SavePNG(qr.QRPayloadURL, path)
		if err != nil {
			return err
		}
		a.printf("Saved to %s\n", abs)
		return nil
	}

	a.drawQR(qr)
	if cd, ok := a.countdowns.Get(qrSurface); ok && cd.Left() > 0 {
		a.printf("Expires in %s.\n", countdown.Format(cd.Left()))
	} else {
		a.println(countdown.ExpiredText)
	}
	return nil
}

func (a *App) Sessions(ctx context.Context, args []string) error {
	ident, err := a.requireRole(ctx, models.RoleTeacher)
	if err != nil {
		return err
	}
	class, err := a.pickClass(ctx, ident, args, "sessions <number|id>")
	if err != nil {
		return err
	}
	sessions, err := a.teacherService.Sessions(ctx, class.ID)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		a.printf("No sessions for %s yet.\n", class.Name)
		return nil
	}
	for i, s := range sessions {
		a.printf("%d. %s (created %s)\n", i+1, s.SessionID, s.CreatedAt.Local().Format(timeLayout))
	}
	return nil
}

// Report prints the attendance of a session (the current one by default)
// and exports it when an .xlsx path is given.
func (a *App) Report(ctx context.Context, args []string) error {
	if _, err := a.requireRole(ctx, models.RoleTeacher); err != nil {
		return err
	}

	var sessionID, path string
	for _, arg := range args {
		if strings.HasSuffix(strings.ToLower(arg), ".xlsx") {
			path = arg
		} else {
			sessionID = arg
		}
	}

	report, err := a.teacherService.Report(ctx, sessionID)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.report = report
	a.mu.Unlock()

	a.printf("%s - session %s - %d present\n", report.Subject, report.SessionID, len(report.Entries))
	for _, e := range report.Entries {
		a.printf("  %-12s %-30s %s\n", e.StudentNumber, e.StudentName, e.Timestamp.Local().Format(timeLayout))
	}

	if path != "" {
		abs, err := a.teacherService.ExportReport(report, path)
		if err != nil {
			return err
		}
		a.printf("Saved to %s\n", abs)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.Local().Format(timeLayout)
}
