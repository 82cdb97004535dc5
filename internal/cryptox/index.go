package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/dmitrijs2005/learnkeeper/internal/common"
)

// Indexer computes deterministic lookup tokens for usernames: an HMAC-SHA256
// under a subkey of the secret. Equal usernames map to equal tokens while the
// username itself cannot be recovered from the token.
type Indexer struct {
	keys KeyProvider
}

func NewIndexer(keys KeyProvider) *Indexer {
	return &Indexer{keys: keys}
}

// Token returns the hex lookup token for username.
func (x *Indexer) Token(username string) (string, error) {
	secret, err := x.keys.Load()
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(secret)

	subkey, err := deriveSubkey(secret, infoLookupIndex)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(subkey)

	mac := hmac.New(sha256.New, subkey)
	mac.Write([]byte(username))
	return hex.EncodeToString(mac.Sum(nil)), nil
}
