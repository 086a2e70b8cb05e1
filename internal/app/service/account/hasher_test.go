package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fatflowers/backoffice/internal/apperr"
	"github.com/fatflowers/backoffice/pkg/config"
)

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("pw")
	require.NoError(t, err)
	assert.True(t, h.Verify(hash, "pw"))
	assert.False(t, h.Verify(hash, "nope"))
	assert.False(t, h.NeedsRehash(hash))

	legacy := "5ebe2294ecd0e0f08eab7690d2a6ee69"
	assert.True(t, h.Verify(legacy, "secret"))
	assert.False(t, h.Verify(legacy, "Secret"))
	assert.True(t, h.NeedsRehash(legacy))
}

func TestMD5Hasher(t *testing.T) {
	h := MD5Hasher{}
	hash, err := h.Hash("secret")
	require.NoError(t, err)
	assert.Equal(t, "5ebe2294ecd0e0f08eab7690d2a6ee69", hash)
	assert.True(t, h.Verify(hash, "secret"))
	assert.False(t, h.NeedsRehash(hash))
}

func TestNewHasher(t *testing.T) {
	assert.IsType(t, MD5Hasher{}, NewHasher(&config.Config{Auth: config.AuthConfig{PasswordScheme: config.PasswordSchemeMD5}}))
	assert.IsType(t, BcryptHasher{}, NewHasher(&config.Config{}))
}

func TestTokenIssuer(t *testing.T) {
	_, err := NewTokenIssuer(&config.Config{})
	require.ErrorIs(t, err, ErrEmptyJWTSecret)

	issuer, err := NewTokenIssuer(&config.Config{Auth: config.AuthConfig{JWTSecret: "k", TokenTTL: time.Hour, AdminRoleID: 1}})
	require.NoError(t, err)
	tok, exp, err := issuer.Issue(5, 2)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	actor, err := issuer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, Actor{UserID: 5, RoleID: 2}, actor)

	other, err := NewTokenIssuer(&config.Config{Auth: config.AuthConfig{JWTSecret: "other", TokenTTL: time.Hour}})
	require.NoError(t, err)
	_, err = other.Parse(tok)
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = issuer.Parse("garbage")
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)

	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := issuer.Issue(5, 2)
	require.NoError(t, err)
	_, err = issuer.Parse(expired)
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
}
