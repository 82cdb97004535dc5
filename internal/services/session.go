package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/learnkeeper/internal/logging"
	"github.com/dmitrijs2005/learnkeeper/internal/models"
)

// Session is one logged-in user. The zero value means logged out.
type Session struct {
	ID        string
	Username  string
	Role      models.Role
	StartedAt time.Time
}

// Active reports whether s belongs to a logged-in user.
func (s Session) Active() bool { return s.ID != "" }

// Sessions performs login and logout.
type Sessions struct {
	creds   *CredentialStore
	records *RecordStore
	limiter *rate.Limiter
	log     logging.Logger
	now     func() time.Time
}

// NewSessions allows burst login attempts, refilled one per interval. A
// zero interval disables throttling.
func NewSessions(creds *CredentialStore, records *RecordStore, burst int, interval time.Duration, log logging.Logger) *Sessions {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	if burst < 1 {
		burst = 1
	}
	return &Sessions{
		creds:   creds,
		records: records,
		limiter: rate.NewLimiter(limit, burst),
		log:     log.With("component", "sessions"),
		now:     time.Now,
	}
}

// Login checks the credentials, resolves the role and counts the access.
// Only failed attempts spend the throttling budget.
func (m *Sessions) Login(ctx context.Context, username, password string) (Session, error) {
	username = normalizeUsername(username)
	if m.throttled() {
		m.log.Warn(ctx, "login throttled", "username", username)
		return Session{}, ErrTooManyAttempts
	}

	ok, err := m.creds.Verify(ctx, username, password)
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}
	if !ok {
		m.limiter.Allow()
		m.log.Info(ctx, "login failed", "username", username)
		return Session{}, ErrInvalidCredentials
	}

	role, err := m.records.Role(ctx, username)
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}
	if err := m.records.IncrementAccess(ctx, username); err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}

	s := Session{
		ID:        uuid.NewString(),
		Username:  username,
		Role:      role,
		StartedAt: m.now(),
	}
	m.log.Info(ctx, "logged in", "username", username, "role", role, "session", s.ID)
	return s, nil
}

func (m *Sessions) throttled() bool {
	return m.limiter.Limit() != rate.Inf && m.limiter.Tokens() < 1
}

// Logout adds the session's elapsed time to the user's record and returns
// the hours added.
func (m *Sessions) Logout(ctx context.Context, s Session) (float64, error) {
	if !s.Active() {
		return 0, nil
	}
	hours := m.now().Sub(s.StartedAt).Hours()
	if hours < 0 {
		hours = 0
	}
	if err := m.records.AddSessionTime(ctx, s.Username, hours); err != nil {
		return 0, fmt.Errorf("logout: %w", err)
	}
	m.log.Info(ctx, "logged out", "username", s.Username, "session", s.ID, "hours", hours)
	return hours, nil
}
