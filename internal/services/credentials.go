package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/learnkeeper/internal/cryptox"
	"github.com/dmitrijs2005/learnkeeper/internal/logging"
	"github.com/dmitrijs2005/learnkeeper/internal/store"
)

// CredentialStore maps usernames to password hashes.
type CredentialStore struct {
	store  store.Store
	log    logging.Logger
	params cryptox.Argon2Params
}

// NewCredentialStore hashes new passwords with cryptox.DefaultArgon2Params.
func NewCredentialStore(st store.Store, log logging.Logger) *CredentialStore {
	return NewCredentialStoreWithParams(st, log, cryptox.DefaultArgon2Params())
}

// NewCredentialStoreWithParams is NewCredentialStore with explicit argon2id
// cost parameters.
func NewCredentialStoreWithParams(st store.Store, log logging.Logger, p cryptox.Argon2Params) *CredentialStore {
	return &CredentialStore{
		store:  st,
		log:    log.With("component", "credentials"),
		params: p,
	}
}

// normalizeUsername is applied by every operation that takes a username, so
// " ana" and "ana" name the same account.
func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func (c *CredentialStore) hash(password string) (string, error) {
	h, err := cryptox.HashPasswordWithParams(password, c.params)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return h, nil
}

// Register stores the hash of password under username, replacing any
// existing entry.
func (c *CredentialStore) Register(ctx context.Context, username, password string) error {
	username = normalizeUsername(username)
	if username == "" {
		return ErrInvalidUsername
	}
	h, err := c.hash(password)
	if err != nil {
		return err
	}
	if err := c.store.Update(ctx, func(tx store.Tx) error {
		return tx.Credentials().Put(ctx, username, h)
	}); err != nil {
		return fmt.Errorf("register credential: %w", err)
	}
	c.log.Info(ctx, "credential stored", "username", username)
	return nil
}

// Verify reports whether username exists and password matches its hash.
// A legacy digest that matches is replaced by an argon2id hash.
func (c *CredentialStore) Verify(ctx context.Context, username, password string) (bool, error) {
	username = normalizeUsername(username)
	var stored string
	err := c.store.View(ctx, func(tx store.Tx) error {
		h, err := tx.Credentials().Get(ctx, username)
		stored = h
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load credential: %w", err)
	}

	ok, err := cryptox.VerifyPassword(password, stored)
	if err != nil {
		c.log.Warn(ctx, "stored password hash is unreadable", "username", username, "error", err)
		return false, nil
	}
	if ok && cryptox.NeedsRehashFor(stored, c.params) {
		c.upgrade(ctx, username, password)
	}
	return ok, nil
}

// upgrade rehashes a verified password. Failure leaves the old hash, which
// still verifies, so it is only logged.
func (c *CredentialStore) upgrade(ctx context.Context, username, password string) {
	h, err := c.hash(password)
	if err == nil {
		err = c.store.Update(ctx, func(tx store.Tx) error {
			return tx.Credentials().Put(ctx, username, h)
		})
	}
	if err != nil {
		c.log.Warn(ctx, "password hash upgrade failed", "username", username, "error", err)
		return
	}
	c.log.Info(ctx, "password hash upgraded", "username", username)
}

// Delete removes username. A missing user is ErrUserNotFound.
func (c *CredentialStore) Delete(ctx context.Context, username string) error {
	username = normalizeUsername(username)
	err := c.store.Update(ctx, func(tx store.Tx) error {
		return tx.Credentials().Delete(ctx, username)
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	c.log.Info(ctx, "credential deleted", "username", username)
	return nil
}

// Usernames lists registered usernames in ascending order.
func (c *CredentialStore) Usernames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.store.View(ctx, func(tx store.Tx) error {
		var err error
		names, err = tx.Credentials().Usernames(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list usernames: %w", err)
	}
	return names, nil
}
