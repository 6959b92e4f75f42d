package handler

import (
	"net/http"
	"testing"

	"github.com/dpnk/backend/internal/application/identity"
	"github.com/dpnk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Login(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.f.AddUser(t, "jan@example.org")

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"wrong password", gin.H{"email": "jan@example.org", "password": "Password999"}, http.StatusUnauthorized, dto.ErrCodeInvalidCredentials},
		{"unknown account", gin.H{"email": "nikdo@example.org", "password": "Password123"}, http.StatusUnauthorized, dto.ErrCodeInvalidCredentials},
		{"not an e-mail", gin.H{"email": "jan", "password": "Password123"}, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"malformed body", "{", http.StatusBadRequest, dto.ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.serve(t, env.auth.Login, request{method: http.MethodPost, target: "/auth/login", body: tt.body, noCampaign: true})

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}

	t.Run("valid credentials", func(t *testing.T) {
		w := env.serve(t, env.auth.Login, request{
			method:     http.MethodPost,
			target:     "/auth/login",
			body:       gin.H{"email": "jan@example.org", "password": "Password123"},
			noCampaign: true,
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		result := dataAs[identity.LoginResult](t, w)
		assert.Equal(t, user.ID, result.User.ID)
		assert.NotEmpty(t, result.Tokens.AccessToken)
		assert.NotEmpty(t, result.Tokens.RefreshToken)

		claims, err := env.jwt.ValidateAccessToken(result.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID)

		t.Run("refresh", func(t *testing.T) {
			w := env.serve(t, env.auth.RefreshToken, request{
				method:     http.MethodPost,
				target:     "/auth/refresh",
				body:       gin.H{"refresh_token": result.Tokens.RefreshToken},
				noCampaign: true,
			})

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.NotEmpty(t, dataAs[identity.TokenResult](t, w).AccessToken)
		})
	})
}

func TestAuthHandler_RefreshTokenRejectsGarbage(t *testing.T) {
	env := newTestEnv(t)

	w := env.serve(t, env.auth.RefreshToken, request{
		method:     http.MethodPost,
		target:     "/auth/refresh",
		body:       gin.H{"refresh_token": "not-a-jwt"},
		noCampaign: true,
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		body       gin.H
		noCampaign bool
		code       string
	}{
		{"short password", gin.H{"email": "nova@example.org", "password": "krat", "first_name": "Eva", "last_name": "Nová"}, false, dto.ErrCodeValidation},
		{"missing name", gin.H{"email": "nova@example.org", "password": "Password123"}, false, dto.ErrCodeValidation},
		{"invalid e-mail", gin.H{"email": "nova", "password": "Password123", "first_name": "Eva", "last_name": "Nová"}, false, dto.ErrCodeValidation},
		{"no campaign", gin.H{"email": "nova@example.org", "password": "Password123", "first_name": "Eva", "last_name": "Nová"}, true, dto.ErrCodeCampaignRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.serve(t, env.auth.Register, request{
				method:     http.MethodPost,
				target:     "/auth/register",
				body:       tt.body,
				noCampaign: tt.noCampaign,
			})

			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestAuthHandler_LogoutRequiresClaims(t *testing.T) {
	env := newTestEnv(t)

	w := env.serve(t, env.auth.Logout, request{method: http.MethodPost, target: "/auth/logout", user: uuid.New()})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, errorCode(t, w))
}

func TestAccountHandler_Me(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.f.AddUser(t, "jan@example.org")

	t.Run("registered participant", func(t *testing.T) {
		w := env.serve(t, env.account.Me, request{target: "/me", user: user.ID})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		me := dataAs[identity.MeResult](t, w)
		assert.Equal(t, "jan@example.org", me.User.Email)
		assert.Equal(t, "Jan", me.User.FirstName)
		assert.NotNil(t, me.Attendance)
	})

	t.Run("anonymous", func(t *testing.T) {
		w := env.serve(t, env.account.Me, request{target: "/me"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAccountHandler_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.f.AddUser(t, "jan@example.org")

	profile := func() gin.H {
		return gin.H{"first_name": "Jan", "last_name": "Dvořák", "nickname": "Honza", "sex": "male", "language": "cs"}
	}

	t.Run("updated", func(t *testing.T) {
		w := env.serve(t, env.account.UpdateProfile, request{method: http.MethodPut, target: "/me/profile", body: profile(), user: user.ID})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		info := dataAs[identity.UserInfo](t, w)
		assert.Equal(t, "Dvořák", info.LastName)
		assert.Equal(t, "Honza", info.Nickname)
	})

	tests := []struct {
		name   string
		mutate func(gin.H)
	}{
		{"unknown sex", func(b gin.H) { b["sex"] = "robot" }},
		{"unsupported language", func(b gin.H) { b["language"] = "de" }},
		{"missing last name", func(b gin.H) { delete(b, "last_name") }},
		{"implausible age group", func(b gin.H) { b["age_group"] = 1800 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := profile()
			tt.mutate(body)

			w := env.serve(t, env.account.UpdateProfile, request{method: http.MethodPut, target: "/me/profile", body: body, user: user.ID})

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))
		})
	}
}

func TestAccountHandler_ChooseTShirtValidation(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.f.AddUser(t, "jan@example.org")

	w := env.serve(t, env.account.ChooseTShirt, request{
		method: http.MethodPut,
		target: "/me/tshirt",
		body:   gin.H{"tshirt_size_id": "XL"},
		user:   user.ID,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))
}

func TestAccountHandler_AssignVoucherUnknownType(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.f.AddUser(t, "jan@example.org")

	w := env.serve(t, env.account.AssignVoucher, request{
		method: http.MethodPost,
		route:  "/me/vouchers/:type",
		target: "/me/vouchers/lottery",
		user:   user.ID,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
