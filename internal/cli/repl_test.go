package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	admin    bool
	loginAs  string

	calls []string
	fail  map[string]error
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	return f.fail[name]
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) isAdmin() bool    { return f.loggedIn && f.admin }

func (f *fakeExec) Register(context.Context) error { return f.record("register") }
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	f.admin = f.loginAs == "admin"
	return f.record("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) RecordResult(context.Context) error  { return f.record("result") }
func (f *fakeExec) DeleteAccount(context.Context) error { return f.record("delete-account") }
func (f *fakeExec) AddStudent(context.Context) error    { return f.record("add-student") }
func (f *fakeExec) Records(context.Context) error       { return f.record("records") }
func (f *fakeExec) Stats(context.Context) error         { return f.record("stats") }
func (f *fakeExec) Courses(context.Context) error       { return f.record("courses") }
func (f *fakeExec) Usage(context.Context) error         { return f.record("usage") }
func (f *fakeExec) Users(context.Context) error         { return f.record("users") }
func (f *fakeExec) Delete(context.Context) error        { return f.record("delete") }

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func run(exec *fakeExec, lines ...string) {
	r := bufio.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	runREPL(context.Background(), exec, func() string { return "status" }, r)
}

func TestRunREPL_LoggedOutCommands(t *testing.T) {
	out := captureOutput(t)
	exec := &fakeExec{}

	run(exec, "help", "records", "register", "result", "exit", "login")

	assert.Equal(t, []string{"register"}, exec.calls)
	assert.Contains(t, *out, helpLoggedOut)
	assert.Contains(t, *out, "Unknown command: records")
	assert.Contains(t, *out, "Unknown command: result")
	assert.Contains(t, *out, "Bye!")
}

func TestRunREPL_StudentCannotUseAdminCommands(t *testing.T) {
	out := captureOutput(t)
	exec := &fakeExec{loginAs: "student"}

	run(exec, "login", "help", "result", "records", "delete", "logout", "result")

	assert.Equal(t, []string{"login", "result", "logout"}, exec.calls)
	assert.Contains(t, *out, helpStudent)
	assert.Contains(t, *out, "Unknown command: records")
	assert.Contains(t, *out, "Unknown command: delete")
}

func TestRunREPL_AdminCommands(t *testing.T) {
	out := captureOutput(t)
	exec := &fakeExec{loginAs: "admin"}

	run(exec, "  ", "login", "help", "add-student", "records", "stats", "courses", "usage", "users", "delete", "result", "delete-account", "quit")

	assert.Equal(t, []string{"login", "add-student", "records", "stats", "courses", "usage", "users", "delete", "result", "delete-account"}, exec.calls)
	assert.Contains(t, *out, helpAdmin)
}

func TestRunREPL_PrintsHandlerErrorsAndContinues(t *testing.T) {
	out := captureOutput(t)
	exec := &fakeExec{fail: map[string]error{"register": errors.New("disk full")}}

	run(exec, "register", "login")

	assert.Equal(t, []string{"register", "login"}, exec.calls)
	assert.Contains(t, *out, "Error: disk full")
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	captureOutput(t)
	exec := &fakeExec{}

	run(exec, "register")

	assert.Equal(t, []string{"register"}, exec.calls)
}

func TestRunREPL_StopsOnCanceledContext(t *testing.T) {
	captureOutput(t)
	exec := &fakeExec{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runREPL(ctx, exec, func() string { return "" }, bufio.NewReader(strings.NewReader("register\n")))
	assert.Empty(t, exec.calls)
}
