// Package token issues and verifies the signed, expiring JWTs that
// authenticate API callers. Tokens are stateless: validity is purely a
// function of signature and expiry, nothing is recorded server side and
// nothing can be revoked before it expires.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskman/models"
)

// ErrInvalidToken covers every verification failure: malformed input,
// bad signature, wrong secret, expired token. Callers get no more
// detail than that.
var ErrInvalidToken = errors.New("invalid or expired token")

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

type claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Config for a Service. AccessSecret and RefreshSecret must differ;
// access tokens and refresh tokens are signed with separate keys so
// one cannot stand in for the other. Now is overridable for tests.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func New(cfg Config) *Service {
	s := &Service{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           cfg.Now,
	}
	if s.accessTTL == 0 {
		s.accessTTL = defaultAccessTTL
	}
	if s.refreshTTL == 0 {
		s.refreshTTL = defaultRefreshTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// IssuePair mints a fresh access/refresh token pair for userID.
func (s *Service) IssuePair(userID uuid.UUID) (models.TokenPair, error) {
	access, err := s.sign(userID, s.accessSecret, s.accessTTL)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.sign(userID, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess returns the user id carried by a valid access token.
func (s *Service) VerifyAccess(tokenString string) (uuid.UUID, error) {
	return s.verify(tokenString, s.accessSecret)
}

// VerifyRefresh returns the user id carried by a valid refresh token.
func (s *Service) VerifyRefresh(tokenString string) (uuid.UUID, error) {
	return s.verify(tokenString, s.refreshSecret)
}

// RefreshAccess verifies a refresh token and issues a new access token
// for the same user. The refresh token is not rotated; it stays valid
// until its own expiry.
func (s *Service) RefreshAccess(refreshToken string) (string, error) {
	userID, err := s.VerifyRefresh(refreshToken)
	if err != nil {
		return "", err
	}
	access, err := s.sign(userID, s.accessSecret, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return access, nil
}

func (s *Service) sign(userID uuid.UUID, secret []byte, ttl time.Duration) (string, error) {
	now := s.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return t.SignedString(secret)
}

func (s *Service) verify(tokenString string, secret []byte) (uuid.UUID, error) {
	var c claims
	t, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !t.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}
