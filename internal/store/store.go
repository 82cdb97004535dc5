// Package store defines the persistence contract of learnkeeper.
//
// A Store hands out transactions. Every read or write of credentials,
// records and the performance ledger happens inside View or Update, so an
// operation that touches several datasets (registration, deletion) either
// commits as a whole or not at all.
//
// Drivers live in subpackages: jsonfile keeps one JSON file per dataset,
// sqlite keeps everything in a single database file.
package store

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/learnkeeper/internal/models"
)

var (
	ErrNotFound = errors.New("store: not found")
	// ErrReadOnly is returned by mutating calls made inside View.
	ErrReadOnly = errors.New("store: read-only transaction")
)

// Store is implemented by every driver.
type Store interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(tx Tx) error) error

	// Update runs fn in a read/write transaction. If fn returns nil the
	// changes are committed atomically; otherwise they are discarded.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// Close releases driver resources.
	Close() error
}

// Tx exposes the datasets inside one transaction. Repositories obtained
// from a Tx must not be used after fn returns.
type Tx interface {
	Credentials() Credentials
	Records() Records
	Ledger() Ledger
}

// Credentials maps plaintext usernames to password hashes.
type Credentials interface {
	// Get returns the stored hash or ErrNotFound.
	Get(ctx context.Context, username string) (string, error)

	// Put inserts or overwrites the hash for username.
	Put(ctx context.Context, username, hash string) error

	// Delete removes username or returns ErrNotFound.
	Delete(ctx context.Context, username string) error

	// Usernames lists all usernames in ascending order.
	Usernames(ctx context.Context) ([]string, error)
}

// Records holds user records in insertion order.
type Records interface {
	// List returns every record in insertion order.
	List(ctx context.Context) ([]models.UserRecord, error)

	// FindByLookup returns the record whose lookup token equals token, or
	// ErrNotFound. Records without a token are never matched.
	FindByLookup(ctx context.Context, token string) (models.UserRecord, error)

	// Insert appends rec. rec.ID must be set.
	Insert(ctx context.Context, rec models.UserRecord) error

	// Update replaces the record with the same ID or returns ErrNotFound.
	Update(ctx context.Context, rec models.UserRecord) error

	// Delete removes the record with the given ID or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// Ledger is the append-only performance log.
type Ledger interface {
	Append(ctx context.Context, e models.PerformanceEntry) error
	List(ctx context.Context) ([]models.PerformanceEntry, error)
}
