package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	isAdmin() bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error

	RecordResult(ctx context.Context) error
	DeleteAccount(ctx context.Context) error

	AddStudent(ctx context.Context) error
	Records(ctx context.Context) error
	Stats(ctx context.Context) error
	Courses(ctx context.Context) error
	Usage(ctx context.Context) error
	Users(ctx context.Context) error
	Delete(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, exit"
	helpStudent   = "Available commands: result, delete-account, logout, exit"
	helpAdmin     = "Available commands: result, add-student, records, stats, courses, usage, users, delete, delete-account, logout, exit"
)

// runREPL reads a line from reader, parses the first token as the command
// and dispatches to a. Commands the current session may not use are
// reported as unknown. The loop exits on EOF or when the user types "exit"
// or "quit".
//
// Handler errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("lk %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		handler, ok := lookup(a, cmd)
		switch {
		case cmd == "exit" || cmd == "quit":
			printlnFn("Bye!")
			return
		case cmd == "help":
			printlnFn(help(a))
			continue
		case !ok:
			printlnFn("Unknown command:", cmd)
			continue
		}

		if err := handler(ctx); err != nil {
			printlnFn("Error:", err)
		}
	}
}

func help(a execIface) string {
	switch {
	case a.isAdmin():
		return helpAdmin
	case a.isLoggedIn():
		return helpStudent
	default:
		return helpLoggedOut
	}
}

// lookup returns the handler of cmd if the current session may run it.
func lookup(a execIface, cmd string) (func(context.Context) error, bool) {
	if !a.isLoggedIn() {
		switch cmd {
		case "register":
			return a.Register, true
		case "login":
			return a.Login, true
		}
		return nil, false
	}

	switch cmd {
	case "result":
		return a.RecordResult, true
	case "delete-account":
		return a.DeleteAccount, true
	case "logout":
		return a.Logout, true
	}

	if !a.isAdmin() {
		return nil, false
	}
	switch cmd {
	case "add-student":
		return a.AddStudent, true
	case "records":
		return a.Records, true
	case "stats":
		return a.Stats, true
	case "courses":
		return a.Courses, true
	case "usage":
		return a.Usage, true
	case "users":
		return a.Users, true
	case "delete":
		return a.Delete, true
	}
	return nil, false
}
