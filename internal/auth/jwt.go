package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues short-lived HS256 bearer tokens. The signing secret is an
// explicit dependency; nothing in here reads ambient process configuration.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// IssueRegistrationToken signs a token whose claims carry only the email.
func (m *Manager) IssueRegistrationToken(email string) (string, error) {
	return m.sign(Claims{
		Email:            email,
		RegisteredClaims: m.registered(),
	})
}

// IssueLoginToken signs a token carrying email plus first name.
func (m *Manager) IssueLoginToken(email, firstName string) (string, error) {
	return m.sign(Claims{
		Email:            email,
		FirstName:        firstName,
		RegisteredClaims: m.registered(),
	})
}

func (m *Manager) registered() jwt.RegisteredClaims {
	now := time.Now().UTC()

	return jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
}

func (m *Manager) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.secret)
}

// Parse validates signature and expiry and returns the embedded claims.
// No route consumes tokens yet, this exists for clients and tests.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256

		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
