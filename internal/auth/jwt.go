package auth

import (
	"errors"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"truckFleetManagement/internal/apperr"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenPair is the response of the token obtain endpoint.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type claims struct {
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// IssueTokenPair signs an access/refresh pair for the user.
// The refresh token carries a jti so it can be told apart in logs.
func IssueTokenPair(secret string, userID int64, username string, accessTTL, refreshTTL time.Duration) (*TokenPair, error) {
	access, err := sign(secret, userID, username, tokenTypeAccess, accessTTL, "")
	if err != nil {
		return nil, err
	}
	refresh, err := sign(secret, userID, username, tokenTypeRefresh, refreshTTL, uuid.NewString())
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess signs a fresh access token (used by the refresh endpoint).
func IssueAccess(secret string, userID int64, username string, ttl time.Duration) (string, error) {
	return sign(secret, userID, username, tokenTypeAccess, ttl, "")
}

func sign(secret string, userID int64, username, tokenType string, ttl time.Duration, jti string) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	now := time.Now()
	c := claims{
		Username:  username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// Principal represents the authenticated caller extracted from an access token.
// It identifies the user only; the role binding is resolved against the store.
type Principal struct {
	UserID   int64
	Username string
}

// ParseAccess validates an access token and returns its principal.
func ParseAccess(tokenStr, secret string) (*Principal, error) {
	c, err := parse(tokenStr, secret)
	if err != nil {
		return nil, err
	}
	if c.TokenType != tokenTypeAccess {
		return nil, apperr.New(apperr.KindUnauthorized, "access token required")
	}
	uid, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || c.Username == "" {
		return nil, apperr.New(apperr.KindUnauthorized, "invalid claims")
	}
	return &Principal{UserID: uid, Username: c.Username}, nil
}

// ParseRefresh validates a refresh token and returns the user it was issued to.
func ParseRefresh(tokenStr, secret string) (*Principal, error) {
	c, err := parse(tokenStr, secret)
	if err != nil {
		return nil, err
	}
	if c.TokenType != tokenTypeRefresh {
		return nil, apperr.New(apperr.KindUnauthorized, "refresh token required")
	}
	uid, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || c.Username == "" {
		return nil, apperr.New(apperr.KindUnauthorized, "invalid claims")
	}
	return &Principal{UserID: uid, Username: c.Username}, nil
}

func parse(tokenStr, secret string) (*claims, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	tok, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, apperr.New(apperr.KindUnauthorized, "invalid or expired token")
	}
	c, ok := tok.Claims.(*claims)
	if !ok || c == nil {
		return nil, apperr.New(apperr.KindUnauthorized, "invalid claims")
	}
	return c, nil
}
