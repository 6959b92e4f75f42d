package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus represents the status of a user account
type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusLocked      UserStatus = "locked"
	UserStatusDeactivated UserStatus = "deactivated"
)

// Sex is used by competitions that are limited to men or women
type Sex string

const (
	SexUnknown Sex = "unknown"
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
)

// Language of the mails and the mailing list segment
type Language string

const (
	LanguageCS Language = "cs"
	LanguageEN Language = "en"
)

// Password cost for bcrypt
const bcryptCost = 12

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	telephoneRegex = regexp.MustCompile(`^\+?[0-9 ]{9,16}$`)
	hasLetter      = regexp.MustCompile(`[a-zA-Z]`)
	hasNumber      = regexp.MustCompile(`[0-9]`)
)

var errPasswordHash = shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")

// User is a registered person. The account outlives campaigns; the yearly
// participation is an attendance.UserAttendance.
type User struct {
	shared.BaseAggregateRoot
	Email          string
	PasswordHash   string
	FirstName      string
	LastName       string
	Status         UserStatus
	IsStaff        bool
	LastLoginAt    *time.Time
	FailedAttempts int
	LockedUntil    *time.Time
	Profile        Profile
}

// Profile holds the personal data used across campaigns
type Profile struct {
	Nickname             string
	Sex                  Sex
	Telephone            string
	Language             Language
	Occupation           string
	AgeGroup             int
	MailingID            string
	MailingHash          string
	AdministratedCityIDs []uuid.UUID
}

// NewUser creates an active user identified by email
func NewUser(email, password, firstName, lastName string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, errPasswordHash.Wrap(err)
	}

	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		PasswordHash:      passwordHash,
		FirstName:         strings.TrimSpace(firstName),
		LastName:          strings.TrimSpace(lastName),
		Status:            UserStatusActive,
		Profile: Profile{
			Sex:      SexUnknown,
			Language: LanguageCS,
		},
	}
	user.AddDomainEvent(NewUserRegisteredEvent(user))
	return user, nil
}

// FullName returns "first last", falling back to the nickname and email
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Profile.Nickname != "" {
		return u.Profile.Nickname
	}
	return u.Email
}

// DisplayName is the name shown in public results
func (u *User) DisplayName() string {
	if u.Profile.Nickname != "" {
		return u.Profile.Nickname
	}
	return u.FullName()
}

// ProfileUpdate carries the editable profile fields
type ProfileUpdate struct {
	FirstName  string
	LastName   string
	Nickname   string
	Sex        Sex
	Telephone  string
	Language   Language
	Occupation string
	AgeGroup   int
}

// UpdateProfile validates and applies the profile fields
func (u *User) UpdateProfile(p ProfileUpdate) error {
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return shared.NewDomainError("INVALID_INPUT", "first and last name are required")
	}
	switch p.Sex {
	case SexMale, SexFemale, SexUnknown:
	default:
		return shared.NewDomainError("INVALID_INPUT", "unknown sex")
	}
	switch p.Language {
	case LanguageCS, LanguageEN:
	default:
		return shared.NewDomainError("INVALID_INPUT", "unsupported language")
	}
	telephone := strings.TrimSpace(p.Telephone)
	if telephone != "" && !telephoneRegex.MatchString(telephone) {
		return shared.NewDomainError("INVALID_INPUT", "invalid telephone number")
	}
	if p.AgeGroup != 0 && (p.AgeGroup < 1900 || p.AgeGroup > time.Now().Year()) {
		return shared.NewDomainError("INVALID_INPUT", "age group must be a birth year")
	}

	u.FirstName = strings.TrimSpace(p.FirstName)
	u.LastName = strings.TrimSpace(p.LastName)
	u.Profile.Nickname = strings.TrimSpace(p.Nickname)
	u.Profile.Sex = p.Sex
	u.Profile.Telephone = telephone
	u.Profile.Language = p.Language
	u.Profile.Occupation = strings.TrimSpace(p.Occupation)
	u.Profile.AgeGroup = p.AgeGroup
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	u.AddDomainEvent(NewUserProfileUpdatedEvent(u))
	return nil
}

// ProfileComplete reports whether the data needed to compete is filled in
func (u *User) ProfileComplete() bool {
	return u.FirstName != "" && u.LastName != "" && u.Profile.Sex != SexUnknown
}

// RecordMailingSync stores the subscriber id and the hash of the synced data
func (u *User) RecordMailingSync(mailingID, hash string) {
	u.Profile.MailingID = mailingID
	u.Profile.MailingHash = hash
}

// AdministratesCity reports whether the user is a city admin of cityID
func (u *User) AdministratesCity(cityID uuid.UUID) bool {
	for _, id := range u.Profile.AdministratedCityIDs {
		if id == cityID {
			return true
		}
	}
	return false
}

// ChangePassword changes the user's password
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	return u.SetPassword(newPassword)
}

// SetPassword sets a new password without checking the old one
func (u *User) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return errPasswordHash.Wrap(err)
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// RecordLoginSuccess records a successful login
func (u *User) RecordLoginSuccess() {
	now := time.Now()
	u.LastLoginAt = &now
	u.FailedAttempts = 0
	if u.Status == UserStatusLocked {
		u.Status = UserStatusActive
		u.LockedUntil = nil
	}
	u.UpdatedAt = now
}

// RecordLoginFailure counts a failed login and locks the account after
// maxAttempts. Returns true if the account got locked.
func (u *User) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	u.FailedAttempts++
	u.UpdatedAt = time.Now()
	if u.FailedAttempts >= maxAttempts {
		until := time.Now().Add(lockDuration)
		u.Status = UserStatusLocked
		u.LockedUntil = &until
		return true
	}
	return false
}

// Deactivate disables the account
func (u *User) Deactivate() {
	u.Status = UserStatusDeactivated
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// IsLocked returns true if the lock has not expired yet
func (u *User) IsLocked() bool {
	if u.Status != UserStatusLocked {
		return false
	}
	return u.LockedUntil == nil || time.Now().Before(*u.LockedUntil)
}

// CanLogin returns true if user can login
func (u *User) CanLogin() bool {
	return u.Status != UserStatusDeactivated && !u.IsLocked()
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 128 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 128 characters")
	}
	if !hasLetter.MatchString(password) || !hasNumber.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
