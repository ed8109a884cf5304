package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService("", 24)
	assert.Error(t, err, "Пустой секрет недопустим")

	svc, err := NewJWTService("test-secret", 0)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestJWTService_GenerateAndParse(t *testing.T) {
	// Arrange
	svc, err := NewJWTService("test-secret", 24)
	require.NoError(t, err)

	// Act
	token, err := svc.GenerateToken(42, "teacher@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ParseToken(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "teacher@example.com", claims.Email)
}

func TestJWTService_ParseToken_WrongSecret(t *testing.T) {
	svc1, err := NewJWTService("secret-one", 24)
	require.NoError(t, err)
	svc2, err := NewJWTService("secret-two", 24)
	require.NoError(t, err)

	token, err := svc1.GenerateToken(1, "user@example.com")
	require.NoError(t, err)

	// Токен, подписанный другим секретом, отклоняется
	_, err = svc2.ParseToken(token)
	assert.Error(t, err)
}

func TestJWTService_ParseToken_Expired(t *testing.T) {
	svc, err := NewJWTService("test-secret", 24)
	require.NoError(t, err)

	// Токен с истекшим сроком подписываем тем же секретом вручную
	claims := &JWTCustomClaims{
		UserID: 7,
		Email:  "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.ParseToken(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_ParseToken_Malformed(t *testing.T) {
	svc, err := NewJWTService("test-secret", 24)
	require.NoError(t, err)

	_, err = svc.ParseToken("not-a-jwt")
	assert.Error(t, err)
}
