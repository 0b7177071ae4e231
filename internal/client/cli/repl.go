package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	help() string
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error

	Classes(ctx context.Context) error
	AddClass(ctx context.Context) error
	DeleteClass(ctx context.Context, args []string) error
	Generate(ctx context.Context, args []string) error
	ShowQR(ctx context.Context, args []string) error
	Sessions(ctx context.Context, args []string) error
	Report(ctx context.Context, args []string) error

	Scan(ctx context.Context, args []string) error
	Record(ctx context.Context, args []string) error
	History(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the attendance CLI.
//
// It reads a line from reader, which the command prompts share, parses the
// first token as the command, and dispatches to methods on 'a' with the
// remaining tokens as arguments. The loop exits on EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn): the signed-in user
// and, for teachers, the countdown of the last generated QR code.
//
//	Everyone:
//	  - help                       - show available commands
//	  - register | login | logout  - account management
//	  - whoami                     - re-check who the server thinks you are
//	  - exit | quit                - leave the program
//
//	Teachers:
//	  - classes                    - list classes
//	  - addclass | delclass <n>    - manage classes
//	  - generate <n> [section]     - generate a QR code for a class
//	  - qr [save <file>]           - show or save the last QR code
//	  - sessions <n>               - list past sessions of a class
//	  - report [session] [x.xlsx]  - attendance report, optionally exported
//
//	Students:
//	  - scan <image|dir>           - scan a QR code and record attendance
//	  - record <session|url>       - record attendance manually
//	  - history                    - attendance history
//
// Errors returned by command handlers are passed to onError, which prints
// them for the user; the loop itself keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, onError func(cmd string, err error)) {
	for {
		printlnFn(fmt.Sprintf("qa> %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		err = nil
		switch cmd {
		case "help":
			printlnFn(a.help())
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "whoami":
			err = a.WhoAmI(ctx)
		case "classes":
			err = a.Classes(ctx)
		case "addclass":
			err = a.AddClass(ctx)
		case "delclass":
			err = a.DeleteClass(ctx, args)
		case "generate":
			err = a.Generate(ctx, args)
		case "qr":
			err = a.ShowQR(ctx, args)
		case "sessions":
			err = a.Sessions(ctx, args)
		case "report":
			err = a.Report(ctx, args)
		case "scan":
			err = a.Scan(ctx, args)
		case "record":
			err = a.Record(ctx, args)
		case "history":
			err = a.History(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil && onError != nil {
			onError(cmd, err)
		}
	}
}
