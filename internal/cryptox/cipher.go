package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/fernet/fernet-go"

	"github.com/dmitrijs2005/learnkeeper/internal/common"
)

// RedactedValue replaces any field that cannot or must not be shown.
const RedactedValue = "Dado protegido pela LGPD"

const tokenVersion byte = 1

// fernetVersion leads tokens written by earlier releases, which sealed
// fields as Fernet tokens under the raw key file secret.
const fernetVersion byte = 0x80

// fernetMinLen is version, timestamp, IV, one cipher block and the HMAC.
const fernetMinLen = 1 + 8 + 16 + 16 + 32

var (
	ErrRedacted       = errors.New("value is redacted")
	ErrMalformedToken = errors.New("malformed token")
	ErrTamperedToken  = errors.New("token failed authentication")
)

// Status classifies the outcome of opening a token.
type Status int

const (
	StatusOK Status = iota
	// StatusRedacted means the stored value is the redaction marker itself.
	StatusRedacted
	// StatusMalformed covers bad base64, truncated tokens and unknown versions.
	StatusMalformed
	// StatusTampered means authentication failed: the token was corrupted,
	// modified, or sealed under a different key.
	StatusTampered
	// StatusKeyUnavailable means the secret key could not be loaded.
	StatusKeyUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusRedacted:
		return "redacted"
	case StatusMalformed:
		return "malformed"
	case StatusTampered:
		return "tampered"
	case StatusKeyUnavailable:
		return "key_unavailable"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Opened is the result of FieldCipher.Open.
type Opened struct {
	Status    Status
	Plaintext string
	Err       error
	// Legacy is set when the token is in the Fernet format. Callers that
	// write the value back should re-encrypt it.
	Legacy bool
}

// OK reports whether the token decrypted successfully.
func (o Opened) OK() bool { return o.Status == StatusOK }

// FieldCipher encrypts individual string fields with AES-256-GCM.
//
// Tokens are URL-safe base64 of version || nonce || ciphertext, with the
// version byte bound as additional data. The key is fetched from the
// KeyProvider on every call.
type FieldCipher struct {
	keys KeyProvider
}

func NewFieldCipher(keys KeyProvider) *FieldCipher {
	return &FieldCipher{keys: keys}
}

func (c *FieldCipher) aead() (cipher.AEAD, error) {
	secret, err := c.keys.Load()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(secret)

	subkey, err := deriveSubkey(secret, infoFieldEncryption)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(subkey)

	block, err := aes.NewCipher(subkey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under a fresh random nonce, so encrypting the same
// value twice yields different tokens.
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	aead, err := c.aead()
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}

	nonce, err := common.RandomBytes(aead.NonceSize())
	if err != nil {
		return "", err
	}

	out := make([]byte, 0, 1+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, tokenVersion)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, []byte(plaintext), []byte{tokenVersion})

	return base64.URLEncoding.EncodeToString(out), nil
}

// Open decrypts token and reports why it failed when it does.
func (c *FieldCipher) Open(token string) Opened {
	if token == RedactedValue {
		return Opened{Status: StatusRedacted, Plaintext: RedactedValue, Err: ErrRedacted}
	}

	raw, err := base64.URLEncoding.DecodeString(RepairPadding(token))
	if err != nil {
		return Opened{Status: StatusMalformed, Err: fmt.Errorf("%w: %v", ErrMalformedToken, err)}
	}

	if len(raw) > 0 && raw[0] == fernetVersion {
		if len(raw) < fernetMinLen {
			return Opened{Status: StatusMalformed, Err: fmt.Errorf("%w: too short", ErrMalformedToken), Legacy: true}
		}
		return c.openFernet(token)
	}

	aead, err := c.aead()
	if err != nil {
		return Opened{Status: StatusKeyUnavailable, Err: err}
	}

	ns := aead.NonceSize()
	if len(raw) < 1+ns+aead.Overhead() {
		return Opened{Status: StatusMalformed, Err: fmt.Errorf("%w: too short", ErrMalformedToken)}
	}
	if raw[0] != tokenVersion {
		return Opened{Status: StatusMalformed, Err: fmt.Errorf("%w: unknown version %d", ErrMalformedToken, raw[0])}
	}

	plaintext, err := aead.Open(nil, raw[1:1+ns], raw[1+ns:], raw[:1])
	if err != nil {
		return Opened{Status: StatusTampered, Err: ErrTamperedToken}
	}
	return Opened{Status: StatusOK, Plaintext: string(plaintext)}
}

func (c *FieldCipher) openFernet(token string) Opened {
	secret, err := c.keys.Load()
	if err != nil {
		return Opened{Status: StatusKeyUnavailable, Err: err, Legacy: true}
	}
	defer common.WipeByteArray(secret)

	var k fernet.Key
	copy(k[:], secret)
	defer common.WipeByteArray(k[:])

	// legacy tokens never expire
	msg := fernet.VerifyAndDecrypt([]byte(RepairPadding(token)), 0, []*fernet.Key{&k})
	if msg == nil {
		return Opened{Status: StatusTampered, Err: ErrTamperedToken, Legacy: true}
	}
	return Opened{Status: StatusOK, Plaintext: string(msg), Legacy: true}
}

// Decrypt returns the plaintext of token, or RedactedValue when the token
// cannot be opened for any reason. It never fails.
func (c *FieldCipher) Decrypt(token string) string {
	o := c.Open(token)
	if !o.OK() {
		return RedactedValue
	}
	return o.Plaintext
}
