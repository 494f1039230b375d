package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domain "seacomms/internal/domain/session"
)

// Issuer is the "iss" claim on every token.
const Issuer = "seacomms"

// ErrInvalidToken covers malformed tokens and bad signatures.
var ErrInvalidToken = errors.New("invalid session token")

// Claims is the token payload. Subject is the account id and ID the session id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

// NewTokens creates a signer for secret.
// PRE: len(secret) >= 32
func NewTokens(secret []byte, now func() time.Time) *Tokens {
	if now == nil {
		now = time.Now
	}
	return &Tokens{secret: secret, now: now}
}

// Sign issues a token for s.
// PRE: s.ID, s.AccountID are set and s.ExpiresAt is after s.CreatedAt
// POST: Parse(token) returns claims with ID == s.ID until s.ExpiresAt
func (t *Tokens) Sign(s domain.Session) (string, error) {
	claims := &Claims{
		Email: s.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   s.AccountID,
			ID:        s.ID,
			IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(t.secret)
}

// Parse verifies raw and returns its claims.
// An expired but otherwise valid token returns its claims together with domain.ErrExpired,
// so the caller can still identify the session.
func (t *Tokens) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return claims, domain.ErrExpired
	case err != nil:
		return nil, ErrInvalidToken
	case !token.Valid || claims.ID == "" || claims.Subject == "":
		return nil, ErrInvalidToken
	}
	return claims, nil
}
