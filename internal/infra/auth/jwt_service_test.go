package auth

import (
	"testing"
	"time"

	"chatty/config"
	domainerrors "chatty/internal/domain/errors"
	"chatty/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionSecret = "test_session_secret_key_very_long_for_testing"

func newTestJWTService(t *testing.T) *jwtService {
	t.Helper()

	cfg := &config.Config{}
	cfg.SecretKey.Session = testSessionSecret

	svc, err := NewJWTService(cfg)
	require.NoError(t, err)

	return svc.(*jwtService)
}

func TestJWTService_IssueAndValidate(t *testing.T) {
	svc := newTestJWTService(t)
	userID := uuid.New()

	session, err := svc.Issue(userID)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, userID, session.UserID)
	assert.Equal(t, 7*24*time.Hour, session.ExpiresAt.Sub(session.IssuedAt))

	claims, err := svc.Validate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, service.SessionTokenType, claims.Type)
}

func TestJWTService_ConfiguredTTL(t *testing.T) {
	cfg := &config.Config{Auth: &config.AuthConfig{SessionTTL: time.Hour}}
	cfg.SecretKey.Session = testSessionSecret

	svc, err := NewJWTService(cfg)
	require.NoError(t, err)

	assert.Equal(t, time.Hour, svc.SessionTTL())
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := newTestJWTService(t)
	issuedAt := time.Now().Add(-8 * 24 * time.Hour)
	svc.now = func() time.Time { return issuedAt }

	session, err := svc.Issue(uuid.New())
	require.NoError(t, err)

	svc.now = time.Now
	claims, err := svc.Validate(session.Token)
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, domainerrors.ErrUnauthenticated))
}

func TestJWTService_RejectsMalformedTokens(t *testing.T) {
	svc := newTestJWTService(t)

	other := newTestJWTService(t)
	other.secret = []byte("another_secret")
	foreign, err := other.Issue(uuid.New())
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"exp":  time.Now().Add(time.Hour).Unix(),
		"type": service.SessionTokenType,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	wrongType, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"exp":  time.Now().Add(time.Hour).Unix(),
		"type": "refresh",
	}).SignedString([]byte(testSessionSecret))
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "not-a-uuid",
		"exp":  time.Now().Add(time.Hour).Unix(),
		"type": service.SessionTokenType,
	}).SignedString([]byte(testSessionSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"type": service.SessionTokenType,
	}).SignedString([]byte(testSessionSecret))
	require.NoError(t, err)

	tokens := map[string]string{
		"garbage":        "clearly-not-a-jwt-token-format",
		"empty":          "",
		"foreign secret": foreign.Token,
		"unsigned":       unsigned,
		"wrong type":     wrongType,
		"bad subject":    badSubject,
		"no expiry":      noExpiry,
	}

	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			claims, err := svc.Validate(token)
			assert.Nil(t, claims)
			assert.True(t, errors.Is(err, domainerrors.ErrUnauthenticated))
		})
	}
}

func TestJWTService_EmptySecret(t *testing.T) {
	svc, err := NewJWTService(&config.Config{})
	assert.Error(t, err)
	assert.Nil(t, svc)
	assert.Contains(t, err.Error(), "jwt session secret must be provided")
}
