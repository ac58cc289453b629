// Package identity issues and verifies the agent tokens presented to the
// quotation API. The agent ID is opaque to the engine.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "quotego"

var (
	// ErrMissingSecret is returned when no signing secret is configured
	ErrMissingSecret = errors.New("jwt secret is required")
	// ErrInvalidToken wraps every verification failure
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the registered claims plus the agent's display name
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// Agent is the authenticated caller
type Agent struct {
	ID   string
	Name string
}

// Issuer signs agent tokens with HS256
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer; ttl <= 0 issues tokens without expiry
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token whose subject is the agent ID
func (i *Issuer) Issue(agentID, name string) (string, error) {
	if agentID == "" {
		return "", fmt.Errorf("agent id is required")
	}
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  agentID,
			Issuer:   issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Name: name,
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}
	return signed, nil
}

// Verifier checks tokens signed by an Issuer with the same secret
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier creates a verifier for the shared secret
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Verifier{secret: []byte(secret), now: time.Now}, nil
}

// Verify parses the token and returns the agent it names
func (v *Verifier) Verify(tokenString string) (Agent, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Agent{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Agent{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Agent{ID: claims.Subject, Name: claims.Name}, nil
}
