package identity

import (
	"time"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Email    string
	Password string
}

// TokenResult carries an issued token pair
type TokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Tokens TokenResult `json:"tokens"`
	User   UserInfo    `json:"user"`
}

// UserInfo contains the account data returned to its owner
type UserInfo struct {
	ID          uuid.UUID         `json:"id"`
	Email       string            `json:"email"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	DisplayName string            `json:"display_name"`
	Nickname    string            `json:"nickname,omitempty"`
	Sex         identity.Sex      `json:"sex"`
	Telephone   string            `json:"telephone,omitempty"`
	Language    identity.Language `json:"language"`
	Occupation  string            `json:"occupation,omitempty"`
	AgeGroup    int               `json:"age_group,omitempty"`
	IsStaff     bool              `json:"is_staff"`
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	UserID       uuid.UUID
	TokenJTI     string
	RemainingTTL time.Duration
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// RegisterInput contains the input for a new registration
type RegisterInput struct {
	Email             string
	Password          string
	FirstName         string
	LastName          string
	PersonalDataOptIn bool
}

// RegisterResult is the new account, its attendance and a token pair
type RegisterResult struct {
	User             UserInfo    `json:"user"`
	UserAttendanceID uuid.UUID   `json:"user_attendance_id"`
	Tokens           TokenResult `json:"tokens"`
}

// AttendanceInfo is the participant's view of their attendance
type AttendanceInfo struct {
	ID              uuid.UUID                        `json:"id"`
	TeamID          *uuid.UUID                       `json:"team_id,omitempty"`
	ApprovedForTeam string                           `json:"approved_for_team"`
	TShirtSizeID    *uuid.UUID                       `json:"tshirt_size_id,omitempty"`
	PaymentStatus   attendance.PaymentState          `json:"payment_status"`
	EntryFee        decimal.Decimal                  `json:"entry_fee"`
	TripLengthTotal decimal.Decimal                  `json:"trip_length_total"`
	Frequency       decimal.Decimal                  `json:"frequency"`
	Rides           int                              `json:"rides"`
	Checklist       attendance.RegistrationChecklist `json:"checklist"`
	Complete        bool                             `json:"complete"`
}

// MeResult is returned by GET /me
type MeResult struct {
	User       UserInfo        `json:"user"`
	Attendance *AttendanceInfo `json:"attendance,omitempty"`
}

func tokensFrom(pair *auth.TokenPair) TokenResult {
	return TokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}
}

func userInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DisplayName: u.DisplayName(),
		Nickname:    u.Profile.Nickname,
		Sex:         u.Profile.Sex,
		Telephone:   u.Profile.Telephone,
		Language:    u.Profile.Language,
		Occupation:  u.Profile.Occupation,
		AgeGroup:    u.Profile.AgeGroup,
		IsStaff:     u.IsStaff,
	}
}
