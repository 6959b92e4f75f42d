package handler

// =====================
// Auth Request DTOs
// =====================

// RegisterRequest represents the request body for a new registration
type RegisterRequest struct {
	Email             string `json:"email" binding:"required,email,max=254"`
	Password          string `json:"password" binding:"required,min=8,max=128"`
	FirstName         string `json:"first_name" binding:"required,max=30"`
	LastName          string `json:"last_name" binding:"required,max=150"`
	PersonalDataOptIn bool   `json:"personal_data_opt_in"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=128"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest represents the request body for password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// =====================
// Account Request DTOs
// =====================

// UpdateProfileRequest represents the editable profile fields
type UpdateProfileRequest struct {
	FirstName  string `json:"first_name" binding:"required,max=30"`
	LastName   string `json:"last_name" binding:"required,max=150"`
	Nickname   string `json:"nickname" binding:"max=60"`
	Sex        string `json:"sex" binding:"required,oneof=unknown male female"`
	Telephone  string `json:"telephone" binding:"max=30"`
	Language   string `json:"language" binding:"required,oneof=cs en"`
	Occupation string `json:"occupation" binding:"max=100"`
	AgeGroup   int    `json:"age_group" binding:"omitempty,min=1900,max=2100"`
}

// ChooseTShirtRequest selects the ordered t-shirt size
type ChooseTShirtRequest struct {
	SizeID string `json:"tshirt_size_id" binding:"required,uuid"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message" example:"Logged out successfully"`
}
