package account

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"github.com/fatflowers/backoffice/pkg/config"
)

// CredentialHasher hashes and verifies passwords.
type CredentialHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
	// NeedsRehash reports whether hash was produced by a weaker scheme.
	NeedsRehash(hash string) bool
}

var legacyMD5 = regexp.MustCompile(`^[0-9a-f]{32}$`)

func md5Hex(password string) string {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

func verifyMD5(hash, password string) bool {
	return subtle.ConstantTimeCompare([]byte(hash), []byte(md5Hex(password))) == 1
}

// BcryptHasher is the default scheme. It still verifies legacy MD5 rows so
// existing accounts can log in and be rehashed.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h BcryptHasher) Verify(hash, password string) bool {
	if legacyMD5.MatchString(hash) {
		return verifyMD5(hash, password)
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (h BcryptHasher) NeedsRehash(hash string) bool {
	return legacyMD5.MatchString(hash)
}

// MD5Hasher reproduces the legacy unsalted scheme for databases shared with
// the old back office.
type MD5Hasher struct{}

func (MD5Hasher) Hash(password string) (string, error) { return md5Hex(password), nil }
func (MD5Hasher) Verify(hash, password string) bool    { return verifyMD5(hash, password) }
func (MD5Hasher) NeedsRehash(string) bool              { return false }

func NewHasher(cfg *config.Config) CredentialHasher {
	if cfg.Auth.PasswordScheme == config.PasswordSchemeMD5 {
		return MD5Hasher{}
	}
	return BcryptHasher{}
}
