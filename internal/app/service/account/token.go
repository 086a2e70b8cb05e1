package account

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/fatflowers/backoffice/internal/apperr"
	"github.com/fatflowers/backoffice/pkg/config"
)

const jwtIssuer = "backoffice"

var ErrEmptyJWTSecret = errors.New("jwt secret cannot be empty")

type actorClaims struct {
	RoleID int64 `json:"role_id"`
	jwt.StandardClaims
}

// TokenIssuer signs and parses HS256 actor tokens.
type TokenIssuer struct {
	secret      []byte
	ttl         time.Duration
	adminRoleID int64
	now         func() time.Time
}

func NewTokenIssuer(cfg *config.Config) (*TokenIssuer, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, ErrEmptyJWTSecret
	}
	return &TokenIssuer{
		secret:      []byte(cfg.Auth.JWTSecret),
		ttl:         cfg.Auth.TokenTTL,
		adminRoleID: cfg.Auth.AdminRoleID,
		now:         time.Now,
	}, nil
}

func (t *TokenIssuer) Issue(userID, roleID int64) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := &actorClaims{
		RoleID: roleID,
		StandardClaims: jwt.StandardClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    jwtIssuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: exp.Unix(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates the token and returns the actor it names.
func (t *TokenIssuer) Parse(token string) (Actor, error) {
	claims := &actorClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}
	if claims.Issuer != jwtIssuer {
		return Actor{}, fmt.Errorf("%w: unexpected issuer", apperr.ErrUnauthenticated)
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return Actor{}, fmt.Errorf("%w: bad subject", apperr.ErrUnauthenticated)
	}
	return NewActor(id, claims.RoleID, t.adminRoleID), nil
}
