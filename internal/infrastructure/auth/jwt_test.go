package auth

import (
	"testing"
	"time"

	"github.com/dpnk/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "dpnk-test",
		MaxRefreshCount:        2,
	})
}

func newTestInput() GenerateTokenInput {
	return GenerateTokenInput{
		UserID:              uuid.New(),
		Email:               "rider@example.cz",
		AdministratedCities: []uuid.UUID{uuid.New()},
	}
}

func TestNewJWTService_UsesSecretForRefreshIfNotProvided(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "test-secret"})

	assert.Equal(t, []byte("test-secret"), svc.keys[TokenTypeRefresh].secret)
}

func TestGenerateTokenPair(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt))

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, input.Email, claims.Email)
	assert.False(t, claims.IsStaff)
	assert.True(t, claims.AdministratesCity(input.AdministratedCities[0]))
	assert.True(t, claims.IsAdmin())
	assert.NotEmpty(t, claims.GetJTI())

	refresh, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Empty(t, refresh.Email)
	assert.Empty(t, refresh.AdministratedCities)
}

func TestValidateToken_Errors(t *testing.T) {
	svc := newTestJWTService()
	pair, err := svc.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	expired := NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  -time.Minute,
		RefreshTokenExpiration: time.Hour,
	})
	expiredPair, err := expired.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-at-least-32-ch", AccessTokenExpiration: time.Minute})
	otherPair, err := other.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	tests := []struct {
		name     string
		validate func(string) (*Claims, error)
		token    string
		want     error
	}{
		{"garbage", svc.ValidateAccessToken, "not-a-token", ErrInvalidToken},
		{"expired", svc.ValidateAccessToken, expiredPair.AccessToken, ErrExpiredToken},
		{"refresh used as access", svc.ValidateAccessToken, pair.RefreshToken, ErrInvalidToken},
		{"access used as refresh", svc.ValidateRefreshToken, pair.AccessToken, ErrInvalidToken},
		{"different secret", svc.ValidateAccessToken, otherPair.AccessToken, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.validate(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateToken_WrongTokenType(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{
		RegisteredClaims: svc.registered("u", time.Now(), time.Minute),
		UserID:           uuid.New().String(),
		TokenType:        TokenTypeRefresh,
	}
	token, err := sign(claims, svc.keys[TokenTypeAccess].secret)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestValidateToken_MissingUserID(t *testing.T) {
	svc := newTestJWTService()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: svc.registered("", time.Now(), time.Minute),
		TokenType:        TokenTypeAccess,
	})
	signed, err := token.SignedString(svc.keys[TokenTypeAccess].secret)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestValidateToken_IssuerAndAudience(t *testing.T) {
	svc := newTestJWTService()
	foreign := NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: time.Minute,
		Issuer:                "someone-else",
	})
	pair, err := foreign.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_NotYetValid(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{
		RegisteredClaims: svc.registered("u", time.Now().Add(time.Hour), time.Hour),
		UserID:           uuid.New().String(),
		TokenType:        TokenTypeAccess,
	}
	token, err := sign(claims, svc.keys[TokenTypeAccess].secret)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestRefreshTokenPair(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()
	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)

	t.Run("reloads profile and counts refreshes", func(t *testing.T) {
		profile := input
		profile.IsStaff = true

		next, err := svc.RefreshTokenPair(pair.RefreshToken, profile)
		require.NoError(t, err)

		access, err := svc.ValidateAccessToken(next.AccessToken)
		require.NoError(t, err)
		assert.True(t, access.IsStaff)
		refresh, err := svc.ValidateRefreshToken(next.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, 1, refresh.RefreshCount)
	})

	t.Run("max refresh count", func(t *testing.T) {
		token := pair.RefreshToken
		for range 2 {
			next, err := svc.RefreshTokenPair(token, input)
			require.NoError(t, err)
			token = next.RefreshToken
		}
		_, err := svc.RefreshTokenPair(token, input)
		assert.ErrorIs(t, err, ErrMaxRefreshExceeded)
	})

	t.Run("other user", func(t *testing.T) {
		_, err := svc.RefreshTokenPair(pair.RefreshToken, newTestInput())
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})
}

func TestClaims_Times(t *testing.T) {
	svc := newTestJWTService()
	pair, err := svc.GenerateTokenPair(newTestInput())
	require.NoError(t, err)
	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now(), claims.GetIssuedAtTime(), 2*time.Second)
	assert.InDelta(t, (15 * time.Minute).Seconds(), claims.GetRemainingTTL().Seconds(), 2)
	assert.Equal(t, time.Duration(0), (&Claims{}).GetRemainingTTL())
}
