package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/learnkeeper/internal/logging"
	"github.com/dmitrijs2005/learnkeeper/internal/models"
	"github.com/dmitrijs2005/learnkeeper/internal/services"
)

// Authenticator starts and ends sessions.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (services.Session, error)
	Logout(ctx context.Context, s services.Session) (float64, error)
}

// Registry manages user records.
type Registry interface {
	Register(ctx context.Context, in services.RegisterInput) (bool, error)
	Delete(ctx context.Context, username string) error
	Load(ctx context.Context) ([]models.UserRecord, error)
	Masked(ctx context.Context) ([]models.UserRecord, error)
	FindByUsername(ctx context.Context, username string) (models.UserRecord, bool, error)
	FullName(rec models.UserRecord) string
}

// UserLister lists usernames with credentials.
type UserLister interface {
	Usernames(ctx context.Context) ([]string, error)
}

// ResultRecorder stores quiz results.
type ResultRecorder interface {
	Append(ctx context.Context, username, course string, correct int) (models.PerformanceEntry, error)
}

// Reporter computes the admin reports.
type Reporter interface {
	AgeStatistics(records []models.UserRecord) (services.AgeStats, error)
	CourseScoreAverages(ctx context.Context) (map[string]float64, error)
	ParticipantsPerCourse(ctx context.Context) (map[string]int, error)
	UsageReport(ctx context.Context) ([]services.UsageRow, error)
}

// Deps are the services the App drives.
type Deps struct {
	Sessions Authenticator
	Records  Registry
	Users    UserLister
	Ledger   ResultRecorder
	Stats    Reporter
	Log      logging.Logger
}

type App struct {
	deps    Deps
	session services.Session
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(d Deps, in io.Reader, out io.Writer) *App {
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	return &App{deps: d, reader: bufio.NewReader(in), out: out}
}

// Run reads commands until exit or end of input. A session still open at
// that point is logged out.
func (a *App) Run(ctx context.Context) {
	a.println("Welcome to learnkeeper (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)

	if a.isLoggedIn() {
		if err := a.Logout(context.WithoutCancel(ctx)); err != nil {
			a.deps.Log.Error(ctx, "closing session failed", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool { return a.session.Active() }

func (a *App) isAdmin() bool { return a.isLoggedIn() && a.session.Role.IsAdmin() }

func (a *App) status() string {
	if !a.isLoggedIn() {
		return ""
	}
	return fmt.Sprintf("(%s %s)", a.session.Username, a.session.Role.Label())
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
