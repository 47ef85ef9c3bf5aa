// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/mafiastats/internal/models"
)

var (
	// ErrInvalidToken indicates a token that failed verification or carries malformed claims.
	ErrInvalidToken = errors.New("invalid token")
)

// Sessions signs and verifies actor tokens with an ed25519 key pair.
type Sessions struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// ttl of issued tokens; zero issues tokens without exp.
	ttl time.Duration
	now func() time.Time
}

// NewSessions derives the key pair from secret, so every instance sharing the
// secret accepts the same tokens. An empty secret generates a fresh pair.
func NewSessions(secret string, ttl time.Duration) (*Sessions, error) {
	s := &Sessions{ttl: ttl, now: time.Now}
	if secret == "" {
		pub, priv, err := ed25519.GenerateKey(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
		}
		s.privateKey, s.publicKey = priv, pub
		return s, nil
	}
	seed := sha256.Sum256([]byte(secret))
	s.privateKey = ed25519.NewKeyFromSeed(seed[:])
	s.publicKey = s.privateKey.Public().(ed25519.PublicKey)
	return s, nil
}

// CreateJWT creates a signed token with "sub" = actor id and "role" = actor role.
func (s *Sessions) CreateJWT(actor models.Actor) (string, error) {
	claims := jwt.MapClaims{
		"sub":  actor.ID.String(),
		"role": string(actor.Role),
		"iat":  s.now().Unix(),
	}
	if s.ttl > 0 {
		claims["exp"] = s.now().Add(s.ttl).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(s.privateKey)
}

// AuthenticateJWT verifies a token string and returns the actor it names.
func (s *Sessions) AuthenticateJWT(tokenString string) (models.Actor, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.publicKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !t.Valid {
		return models.Actor{}, ErrInvalidToken
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return models.Actor{}, fmt.Errorf("%w: invalid jwt claims", ErrInvalidToken)
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return models.Actor{}, fmt.Errorf("%w: missing sub in jwt", ErrInvalidToken)
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: sub is not a uuid", ErrInvalidToken)
	}

	role, _ := claims["role"].(string)
	ur := models.UserRole(role)
	switch ur {
	case models.UserOrganizer, models.UserGM, models.UserPlayer:
	default:
		return models.Actor{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, role)
	}
	return models.Actor{ID: id, Role: ur}, nil
}

// Can reports whether role may perform a mutation reserved to any of allowed.
// Organizers may do everything.
func Can(role models.UserRole, allowed ...models.UserRole) bool {
	if role == models.UserOrganizer {
		return true
	}
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
