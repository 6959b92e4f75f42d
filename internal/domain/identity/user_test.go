package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validUpdate() ProfileUpdate {
	return ProfileUpdate{
		FirstName: "Jana",
		LastName:  "Nováková",
		Sex:       SexFemale,
		Telephone: "+420 777 123 456",
		Language:  LanguageCS,
		AgeGroup:  1985,
	}
}

func TestNewUser(t *testing.T) {
	t.Run("creates active user", func(t *testing.T) {
		user, err := NewUser("  Jana@Example.CZ ", "Password123", "Jana", "Nováková")
		require.NoError(t, err)

		assert.Equal(t, "jana@example.cz", user.Email)
		assert.Equal(t, UserStatusActive, user.Status)
		assert.Equal(t, SexUnknown, user.Profile.Sex)
		assert.Equal(t, LanguageCS, user.Profile.Language)
		assert.NotEqual(t, "Password123", user.PasswordHash)

		events := user.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeUserRegistered, events[0].EventType())
	})

	t.Run("fails with invalid email", func(t *testing.T) {
		_, err := NewUser("not-an-email", "Password123", "", "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid email")
	})

	t.Run("fails with weak password", func(t *testing.T) {
		_, err := NewUser("a@b.cz", "password", "", "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "letter and one number")
	})

	t.Run("fails with short password", func(t *testing.T) {
		_, err := NewUser("a@b.cz", "abc1", "", "")
		assert.Error(t, err)
	})
}

func TestUser_Names(t *testing.T) {
	user, err := NewUser("jana@example.cz", "Password123", "Jana", "Nováková")
	require.NoError(t, err)

	assert.Equal(t, "Jana Nováková", user.FullName())
	assert.Equal(t, "Jana Nováková", user.DisplayName())

	user.Profile.Nickname = "Janička"
	assert.Equal(t, "Janička", user.DisplayName())

	anonymous, err := NewUser("x@example.cz", "Password123", "", "")
	require.NoError(t, err)
	assert.Equal(t, "x@example.cz", anonymous.FullName())
}

func TestUser_UpdateProfile(t *testing.T) {
	user, err := NewUser("jana@example.cz", "Password123", "", "")
	require.NoError(t, err)
	assert.False(t, user.ProfileComplete())
	user.ClearDomainEvents()

	require.NoError(t, user.UpdateProfile(validUpdate()))
	assert.True(t, user.ProfileComplete())
	assert.Equal(t, 1985, user.Profile.AgeGroup)
	require.Len(t, user.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeUserProfileUpdated, user.GetDomainEvents()[0].EventType())

	tests := []struct {
		name   string
		mutate func(p *ProfileUpdate)
	}{
		{"missing last name", func(p *ProfileUpdate) { p.LastName = "" }},
		{"unknown sex", func(p *ProfileUpdate) { p.Sex = Sex("x") }},
		{"unknown language", func(p *ProfileUpdate) { p.Language = Language("de") }},
		{"bad telephone", func(p *ProfileUpdate) { p.Telephone = "call me" }},
		{"bad age group", func(p *ProfileUpdate) { p.AgeGroup = 12 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validUpdate()
			tt.mutate(&p)
			assert.Error(t, user.UpdateProfile(p))
		})
	}
}

func TestUser_Passwords(t *testing.T) {
	user, err := NewUser("jana@example.cz", "Password123", "", "")
	require.NoError(t, err)

	assert.True(t, user.VerifyPassword("Password123"))
	assert.False(t, user.VerifyPassword("Password124"))

	assert.Error(t, user.ChangePassword("wrong", "NewPassword1"))
	require.NoError(t, user.ChangePassword("Password123", "NewPassword1"))
	assert.True(t, user.VerifyPassword("NewPassword1"))
}

func TestUser_LoginLock(t *testing.T) {
	user, err := NewUser("jana@example.cz", "Password123", "", "")
	require.NoError(t, err)

	assert.False(t, user.RecordLoginFailure(3, time.Minute))
	assert.False(t, user.RecordLoginFailure(3, time.Minute))
	assert.True(t, user.RecordLoginFailure(3, time.Minute))
	assert.True(t, user.IsLocked())
	assert.False(t, user.CanLogin())

	user.RecordLoginSuccess()
	assert.True(t, user.CanLogin())
	assert.Equal(t, 0, user.FailedAttempts)

	user.Deactivate()
	assert.False(t, user.CanLogin())
}

func TestUser_AdministratesCity(t *testing.T) {
	user, err := NewUser("jana@example.cz", "Password123", "", "")
	require.NoError(t, err)
	cityID := uuid.New()

	assert.False(t, user.AdministratesCity(cityID))
	user.Profile.AdministratedCityIDs = []uuid.UUID{cityID}
	assert.True(t, user.AdministratesCity(cityID))
}
