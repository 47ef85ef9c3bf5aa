package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionsRoundTrip(t *testing.T) {
	s, err := NewSessions("secret", time.Hour)
	require.NoError(t, err)

	actor := models.Actor{ID: uuid.New(), Role: models.UserGM}
	token, err := s.CreateJWT(actor)
	require.NoError(t, err)

	got, err := s.AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestSessionsSharedSecret(t *testing.T) {
	a, err := NewSessions("secret", 0)
	require.NoError(t, err)
	b, err := NewSessions("secret", 0)
	require.NoError(t, err)
	other, err := NewSessions("other", 0)
	require.NoError(t, err)

	token, err := a.CreateJWT(models.Actor{ID: uuid.New(), Role: models.UserOrganizer})
	require.NoError(t, err)

	_, err = b.AuthenticateJWT(token)
	assert.NoError(t, err)
	_, err = other.AuthenticateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionsExpired(t *testing.T) {
	s, err := NewSessions("secret", time.Minute)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := s.CreateJWT(models.Actor{ID: uuid.New(), Role: models.UserGM})
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.AuthenticateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionsRejectsBadClaims(t *testing.T) {
	s, err := NewSessions("secret", 0)
	require.NoError(t, err)

	sign := func(claims jwt.MapClaims) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(s.privateKey)
		require.NoError(t, err)
		return tok
	}

	_, err = s.AuthenticateJWT(sign(jwt.MapClaims{"sub": "not-a-uuid", "role": "gm"}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.AuthenticateJWT(sign(jwt.MapClaims{"sub": uuid.NewString(), "role": "admin"}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.AuthenticateJWT("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCan(t *testing.T) {
	assert.True(t, Can(models.UserOrganizer))
	assert.True(t, Can(models.UserGM, models.UserGM))
	assert.False(t, Can(models.UserPlayer, models.UserGM))
	assert.False(t, Can(models.UserGM))
}
