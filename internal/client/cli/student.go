package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/qrattend/internal/client/models"
	"github.com/dmitrijs2005/qrattend/internal/client/scan"
	"github.com/dmitrijs2005/qrattend/internal/client/services"
	"github.com/dmitrijs2005/qrattend/internal/filex"
)

// Scan reads a QR code from an image file, or from the frames dropped into a
// directory, and records attendance for it.
func (a *App) Scan(ctx context.Context, args []string) error {
	if _, err := a.requireRole(ctx, models.RoleStudent); err != nil {
		return err
	}
	if len(args) == 0 {
		return &services.ValidationError{Field: "source", Message: "Usage: scan <image|dir>"}
	}

	src := args[0]
	var camera scan.Camera = scan.ImageCamera{Path: src}
	if filex.IsDir(src) {
		camera = &scan.DirCamera{Dir: src}
		a.printf("Watching %s for frames...\n", src)
	}

	res, err := a.studentService.Scan(ctx, camera)
	if err != nil {
		return err
	}
	a.printRecorded(res.Record)
	return nil
}

func (a *App) Record(ctx context.Context, args []string) error {
	if _, err := a.requireRole(ctx, models.RoleStudent); err != nil {
		return err
	}

	payload := strings.Join(args, " ")
	if payload == "" {
		var err error
		if payload, err = getSimpleText(a.reader, "Enter session id or QR link", a.out); err != nil {
			return err
		}
	}

	res, err := a.studentService.RecordAttendance(ctx, payload)
	if err != nil {
		return err
	}
	a.printRecorded(res)
	return nil
}

func (a *App) printRecorded(res *models.RecordResult) {
	msg := res.Message
	if msg == "" {
		msg = "Attendance recorded"
	}
	if res.Subject != "" {
		a.printf("%s for %s.\n", strings.TrimSuffix(msg, "."), res.Subject)
		return
	}
	a.println(msg)
}

func (a *App) History(ctx context.Context) error {
	if _, err := a.requireRole(ctx, models.RoleStudent); err != nil {
		return err
	}
	records, err := a.studentService.History(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.println("No attendance recorded yet.")
		return nil
	}
	for _, r := range records {
		a.printf("%s  %-24s %s\n", formatTime(r.Timestamp), r.Subject, r.TeacherName)
	}
	return nil
}
