package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/learnkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash is returned for stored hashes that are neither PHC argon2id
// strings nor legacy SHA-256 digests.
var ErrInvalidHash = errors.New("invalid password hash format")

// Argon2Params configures argon2id hashing.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// DefaultArgon2Params follows the OWASP minimum for argon2id (19 MiB, t=2, p=1).
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      19 * 1024,
		Iterations:  2,
		Parallelism: 1,
		SaltLen:     16,
		KeyLen:      32,
	}
}

// HashPassword returns a PHC-format argon2id hash with a random salt:
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt_b64>$<hash_b64>
func HashPassword(password string) (string, error) {
	return HashPasswordWithParams(password, DefaultArgon2Params())
}

func HashPasswordWithParams(password string, p Argon2Params) (string, error) {
	salt, err := common.RandomBytes(int(p.SaltLen))
	if err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLen)

	enc := base64.RawStdEncoding
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Iterations,
		p.Parallelism,
		enc.EncodeToString(salt),
		enc.EncodeToString(hash),
	), nil
}

// LegacyDigest is the unsalted hex SHA-256 digest earlier data files stored
// for passwords. It is only used to verify and upgrade those entries.
func LegacyDigest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// IsLegacyDigest reports whether encoded is a hex SHA-256 digest.
func IsLegacyDigest(encoded string) bool {
	if len(encoded) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(encoded)
	return err == nil
}

// VerifyPassword reports whether password matches encoded. Both argon2id PHC
// strings and legacy digests are accepted. Comparisons are constant time.
func VerifyPassword(password, encoded string) (bool, error) {
	if IsLegacyDigest(encoded) {
		want := strings.ToLower(encoded)
		return subtle.ConstantTimeCompare([]byte(LegacyDigest(password)), []byte(want)) == 1, nil
	}

	p, salt, want, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// NeedsRehash reports whether encoded should be replaced by a fresh
// HashPassword result: legacy digests, unparsable values and argon2id hashes
// weaker than the defaults.
func NeedsRehash(encoded string) bool {
	return NeedsRehashFor(encoded, DefaultArgon2Params())
}

// NeedsRehashFor is NeedsRehash measured against want instead of the
// defaults.
func NeedsRehashFor(encoded string, want Argon2Params) bool {
	if IsLegacyDigest(encoded) {
		return true
	}
	p, _, _, err := parsePHC(encoded)
	if err != nil {
		return true
	}
	return p.Memory < want.Memory || p.Iterations < want.Iterations
}

func parsePHC(s string) (Argon2Params, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[0] != "" {
		return Argon2Params{}, nil, nil, fmt.Errorf("%w: expected 6 parts", ErrInvalidHash)
	}
	if parts[1] != "argon2id" {
		return Argon2Params{}, nil, nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidHash, parts[1])
	}
	ver, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if !strings.HasPrefix(parts[2], "v=") || err != nil || ver != argon2.Version {
		return Argon2Params{}, nil, nil, fmt.Errorf("%w: unsupported version", ErrInvalidHash)
	}

	var p Argon2Params
	for _, kv := range strings.Split(parts[3], ",") {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return Argon2Params{}, nil, nil, fmt.Errorf("%w: bad parameter %q", ErrInvalidHash, kv)
		}
		switch name {
		case "m":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return Argon2Params{}, nil, nil, fmt.Errorf("%w: bad memory", ErrInvalidHash)
			}
			p.Memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return Argon2Params{}, nil, nil, fmt.Errorf("%w: bad iterations", ErrInvalidHash)
			}
			p.Iterations = uint32(v)
		case "p":
			v, err := strconv.ParseUint(value, 10, 8)
			if err != nil {
				return Argon2Params{}, nil, nil, fmt.Errorf("%w: bad parallelism", ErrInvalidHash)
			}
			p.Parallelism = uint8(v)
		default:
			return Argon2Params{}, nil, nil, fmt.Errorf("%w: unknown parameter %q", ErrInvalidHash, name)
		}
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return Argon2Params{}, nil, nil, fmt.Errorf("%w: missing parameters", ErrInvalidHash)
	}

	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[4])
	if err != nil {
		return Argon2Params{}, nil, nil, fmt.Errorf("%w: bad salt", ErrInvalidHash)
	}
	hash, err := enc.DecodeString(parts[5])
	if err != nil || len(hash) < 16 {
		return Argon2Params{}, nil, nil, fmt.Errorf("%w: bad hash", ErrInvalidHash)
	}
	return p, salt, hash, nil
}
