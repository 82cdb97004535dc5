package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/learnkeeper/internal/cryptox"
	"github.com/dmitrijs2005/learnkeeper/internal/logging"
	"github.com/dmitrijs2005/learnkeeper/internal/models"
	"github.com/dmitrijs2005/learnkeeper/internal/store"
)

// Cipher encrypts individual record fields.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Open(token string) cryptox.Opened
	Decrypt(token string) string
}

// LookupIndexer derives the deterministic lookup token of a username.
type LookupIndexer interface {
	Token(username string) (string, error)
}

// RegisterInput carries a new user's data. Age must already be validated
// by the caller.
type RegisterInput struct {
	Username string
	Password string
	FullName string
	Age      int
	// Role defaults to student when empty.
	Role models.Role
}

// RecordStore keeps user records with encrypted personal data.
type RecordStore struct {
	store  store.Store
	cipher Cipher
	index  LookupIndexer
	creds  *CredentialStore
	log    logging.Logger
}

func NewRecordStore(st store.Store, c Cipher, idx LookupIndexer, creds *CredentialStore, log logging.Logger) *RecordStore {
	return &RecordStore{
		store:  st,
		cipher: c,
		index:  idx,
		creds:  creds,
		log:    log.With("component", "records"),
	}
}

// Load returns every record in insertion order.
func (s *RecordStore) Load(ctx context.Context) ([]models.UserRecord, error) {
	var recs []models.UserRecord
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		recs, err = tx.Records().List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	return recs, nil
}

// FindByUsername returns the record of username and whether it exists.
func (s *RecordStore) FindByUsername(ctx context.Context, username string) (models.UserRecord, bool, error) {
	var (
		rec   models.UserRecord
		found bool
	)
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		rec, found, _, err = s.find(ctx, tx, username)
		return err
	})
	if err != nil {
		return models.UserRecord{}, false, fmt.Errorf("find record: %w", err)
	}
	return rec, found, nil
}

// find resolves username through its lookup token. Records written before
// tokens existed are found by decrypting their names. The token is returned
// so writers can backfill it.
func (s *RecordStore) find(ctx context.Context, tx store.Tx, username string) (models.UserRecord, bool, string, error) {
	username = normalizeUsername(username)
	token, err := s.index.Token(username)
	if err != nil {
		return models.UserRecord{}, false, "", fmt.Errorf("lookup token: %w", err)
	}

	rec, err := tx.Records().FindByLookup(ctx, token)
	if err == nil {
		return rec, true, token, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.UserRecord{}, false, "", err
	}

	recs, err := tx.Records().List(ctx)
	if err != nil {
		return models.UserRecord{}, false, "", err
	}
	for _, r := range recs {
		if r.Lookup != "" {
			continue
		}
		if o := s.cipher.Open(r.Name); o.OK() && o.Plaintext == username {
			s.log.Debug(ctx, "record resolved by legacy scan", "username", username)
			return r, true, token, nil
		}
	}
	return models.UserRecord{}, false, token, nil
}

// Register writes the credential and, unless the user already has a record,
// a new record, in one transaction. The credential is overwritten either
// way; created reports whether a record was added.
func (s *RecordStore) Register(ctx context.Context, in RegisterInput) (created bool, err error) {
	in.Username = normalizeUsername(in.Username)
	if in.Username == "" {
		return false, ErrInvalidUsername
	}
	if in.Age < 0 {
		return false, ErrInvalidAge
	}
	role := in.Role
	if role == "" {
		role = models.RoleStudent
	}

	hash, err := s.creds.hash(in.Password)
	if err != nil {
		return false, err
	}

	fields, err := s.encryptAll(in.Username, in.FullName, in.Password)
	if err != nil {
		return false, err
	}

	err = s.store.Update(ctx, func(tx store.Tx) error {
		if err := tx.Credentials().Put(ctx, in.Username, hash); err != nil {
			return err
		}

		existing, found, token, err := s.find(ctx, tx, in.Username)
		if err != nil {
			return err
		}
		if found {
			created = false
			if existing.Lookup == "" {
				if err := s.upgrade(&existing, token); err != nil {
					return err
				}
				return tx.Records().Update(ctx, existing)
			}
			return nil
		}

		created = true
		return tx.Records().Insert(ctx, models.UserRecord{
			ID:       uuid.NewString(),
			Lookup:   token,
			Name:     fields[0],
			FullName: fields[1],
			Age:      models.IntPtr(in.Age),
			Password: fields[2],
			Role:     role,
		})
	})
	if err != nil {
		return false, fmt.Errorf("register user: %w", err)
	}

	if created {
		s.log.Info(ctx, "user registered", "username", in.Username, "role", role)
	} else {
		s.log.Warn(ctx, "user already had a record, only the credential was replaced", "username", in.Username)
	}
	return created, nil
}

// upgrade stamps the lookup token on rec and re-encrypts the fields that are
// still Fernet tokens.
func (s *RecordStore) upgrade(rec *models.UserRecord, token string) error {
	rec.Lookup = token
	for _, field := range []*string{&rec.Name, &rec.FullName, &rec.Password} {
		if *field == "" {
			continue
		}
		o := s.cipher.Open(*field)
		if !o.OK() || !o.Legacy {
			continue
		}
		tok, err := s.cipher.Encrypt(o.Plaintext)
		if err != nil {
			return fmt.Errorf("re-encrypt field: %w", err)
		}
		*field = tok
	}
	return nil
}

func (s *RecordStore) encryptAll(values ...string) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		tok, err := s.cipher.Encrypt(v)
		if err != nil {
			return nil, fmt.Errorf("encrypt field: %w", err)
		}
		out[i] = tok
	}
	return out, nil
}

// mutate applies fn to the record of username and saves it, backfilling
// the lookup token. A missing record is not an error.
func (s *RecordStore) mutate(ctx context.Context, username string, fn func(*models.UserRecord)) (bool, error) {
	var found bool
	err := s.store.Update(ctx, func(tx store.Tx) error {
		rec, ok, token, err := s.find(ctx, tx, username)
		if err != nil || !ok {
			return err
		}
		found = true
		fn(&rec)
		if rec.Lookup == "" {
			if err := s.upgrade(&rec, token); err != nil {
				return err
			}
		}
		return tx.Records().Update(ctx, rec)
	})
	return found, err
}

// IncrementAccess adds one to the access count of username. Unknown users
// are ignored.
func (s *RecordStore) IncrementAccess(ctx context.Context, username string) error {
	found, err := s.mutate(ctx, username, func(r *models.UserRecord) { r.AccessCount++ })
	if err != nil {
		return fmt.Errorf("increment access: %w", err)
	}
	if !found {
		s.log.Debug(ctx, "no record to count access for", "username", username)
	}
	return nil
}

// AddSessionTime adds hours to the cumulative session time of username.
// Unknown users are ignored.
func (s *RecordStore) AddSessionTime(ctx context.Context, username string, hours float64) error {
	if hours < 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return ErrInvalidHours
	}
	found, err := s.mutate(ctx, username, func(r *models.UserRecord) { r.SessionHours += hours })
	if err != nil {
		return fmt.Errorf("add session time: %w", err)
	}
	if !found {
		s.log.Debug(ctx, "no record to add session time to", "username", username)
	}
	return nil
}

// Delete removes the credential and the record of username together.
func (s *RecordStore) Delete(ctx context.Context, username string) error {
	username = normalizeUsername(username)
	var orphan bool
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := tx.Credentials().Delete(ctx, username); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		rec, found, _, err := s.find(ctx, tx, username)
		if err != nil {
			return err
		}
		if !found {
			orphan = true
			return nil
		}
		return tx.Records().Delete(ctx, rec.ID)
	})
	if errors.Is(err, ErrUserNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if orphan {
		s.log.Warn(ctx, "credential had no matching record", "username", username)
	}
	s.log.Info(ctx, "user deleted", "username", username)
	return nil
}

// Role returns the role on the record of username, or student when there
// is no record.
func (s *RecordStore) Role(ctx context.Context, username string) (models.Role, error) {
	rec, found, err := s.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if !found {
		return models.RoleStudent, nil
	}
	return rec.EffectiveRole(), nil
}

// FullName decrypts the display name stored on rec.
func (s *RecordStore) FullName(rec models.UserRecord) string {
	if rec.FullName == "" {
		return ""
	}
	return s.cipher.Decrypt(rec.FullName)
}

// MaskedLabel is the display label of the i-th record (zero based).
func MaskedLabel(i int) string {
	return fmt.Sprintf("User %d", i+1)
}

// Masked returns all records prepared for display: names replaced by
// "User N", secrets replaced by the redaction sentinel.
func (s *RecordStore) Masked(ctx context.Context) ([]models.UserRecord, error) {
	recs, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		recs[i].Lookup = ""
		recs[i].Name = MaskedLabel(i)
		recs[i].FullName = cryptox.RedactedValue
		recs[i].Password = cryptox.RedactedValue
	}
	return recs, nil
}
