// Package cryptox holds the cryptographic primitives of learnkeeper: the
// secret key file, field encryption, the username lookup index and password
// hashing.
package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/learnkeeper/internal/common"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of the secret key in bytes.
const KeySize = 32

// HKDF info strings. Each purpose gets its own subkey so that the lookup
// index never reuses the encryption key.
const (
	infoFieldEncryption = "learnkeeper field encryption v1"
	infoLookupIndex     = "learnkeeper lookup index v1"
)

// ErrInvalidKey is returned when the key file does not hold KeySize bytes of
// URL-safe base64.
var ErrInvalidKey = errors.New("invalid secret key")

// KeyProvider returns the secret key used for every encryption operation.
type KeyProvider interface {
	Load() ([]byte, error)
}

// FileKeyProvider keeps the secret in a single file. The file is read on
// every Load so the key is never cached in memory between operations.
type FileKeyProvider struct {
	path string
}

func NewFileKeyProvider(path string) *FileKeyProvider {
	return &FileKeyProvider{path: path}
}

// Path returns the location of the key file.
func (p *FileKeyProvider) Path() string {
	return p.path
}

// Load returns the key stored in the key file, generating and persisting a
// new random key on first use. Deleting the file makes every value encrypted
// under the old key unreadable.
func (p *FileKeyProvider) Load() ([]byte, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return p.generate()
	}
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return decodeKey(data)
}

func (p *FileKeyProvider) generate() ([]byte, error) {
	key, err := common.RandomBytes(KeySize)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}

	f, err := os.OpenFile(p.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		// lost a race with another writer; its key wins
		return p.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("create key file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(base64.URLEncoding.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("sync key file: %w", err)
	}
	return key, nil
}

func decodeKey(data []byte) ([]byte, error) {
	text := strings.TrimSpace(string(data))
	key, err := base64.URLEncoding.DecodeString(RepairPadding(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKey, len(key))
	}
	return key, nil
}

// StaticKey is a KeyProvider over an in-memory key. It is meant for tests and
// tools that already hold the secret.
type StaticKey []byte

func (k StaticKey) Load() ([]byte, error) {
	if len(k) != KeySize {
		return nil, ErrInvalidKey
	}
	return append([]byte(nil), k...), nil
}

// RepairPadding appends the '=' padding that base64 requires and that some
// tools strip from stored tokens.
func RepairPadding(s string) string {
	if n := len(s) % 4; n != 0 {
		return s + strings.Repeat("=", 4-n)
	}
	return s
}

// deriveSubkey expands secret into a KeySize purpose-bound key.
func deriveSubkey(secret []byte, info string) ([]byte, error) {
	out := make([]byte, KeySize)
	r := hkdf.New(sha256.New, secret, nil, []byte(info))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("derive subkey: %w", err)
	}
	return out, nil
}
