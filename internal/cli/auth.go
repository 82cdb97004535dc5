package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/learnkeeper/internal/models"
	"github.com/dmitrijs2005/learnkeeper/internal/services"
)

// getSimpleText, getPassword and getInt are indirections used to facilitate
// testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getInt        = GetInt
	confirm       = Confirm
)

const maxAge = 150

const securityTip = "Security tip: never share your password. This system never asks for it by email or message."

// Register creates an account. The user chooses the account type; anything
// other than "admin" creates a student.
func (a *App) Register(ctx context.Context) error {
	in, err := a.readRegistration(true)
	if err != nil {
		return err
	}
	return a.register(ctx, in)
}

func (a *App) readRegistration(askRole bool) (services.RegisterInput, error) {
	var in services.RegisterInput

	username, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return in, err
	}
	password, err := getPassword(a.reader, "Password", a.out)
	if err != nil {
		return in, err
	}
	fullName, err := getSimpleText(a.reader, "Full name", a.out)
	if err != nil {
		return in, err
	}
	age, err := getInt(a.reader, "Age", a.out, 0, maxAge)
	if err != nil {
		return in, err
	}

	role := models.RoleStudent
	if askRole {
		r, err := getSimpleText(a.reader, "Account type (admin/student)", a.out)
		if err != nil {
			return in, err
		}
		role = models.ParseRole(r)
	}

	return services.RegisterInput{
		Username: username,
		Password: password,
		FullName: fullName,
		Age:      age,
		Role:     role,
	}, nil
}

func (a *App) register(ctx context.Context, in services.RegisterInput) error {
	created, err := a.deps.Records.Register(ctx, in)
	if err != nil {
		return err
	}
	if created {
		a.println("User registered.")
	} else {
		a.println("User already existed; password updated.")
	}
	return nil
}

// Login authenticates and opens a session.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Password", a.out)
	if err != nil {
		return err
	}

	s, err := a.deps.Sessions.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return errors.New("wrong username or password")
		}
		return err
	}
	a.session = s

	greeting := username
	if rec, found, err := a.deps.Records.FindByUsername(ctx, username); err == nil && found {
		if name := a.deps.Records.FullName(rec); name != "" {
			greeting = name
		}
	}
	a.printf("Welcome, %s (%s).\n", greeting, s.Role.Label())
	a.println(securityTip)
	return nil
}

// Logout ends the session and books its duration.
func (a *App) Logout(ctx context.Context) error {
	s := a.session
	a.session = services.Session{}

	hours, err := a.deps.Sessions.Logout(ctx, s)
	if err != nil {
		return err
	}
	a.printf("Logged out after %.2f minutes.\n", hours*60)
	return nil
}

// DeleteAccount removes the logged-in user's own account and ends the
// session.
func (a *App) DeleteAccount(ctx context.Context) error {
	ok, err := confirm(a.reader, "Delete your account permanently?", a.out)
	if err != nil || !ok {
		return err
	}

	username := a.session.Username
	if err := a.deps.Records.Delete(ctx, username); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	a.println("Your account was deleted.")
	return a.Logout(ctx)
}
