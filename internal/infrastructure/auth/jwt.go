package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/dpnk/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType tells access and refresh tokens apart; each is signed with its
// own secret
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// clockSkew is tolerated between API replicas when checking exp, nbf and iat
const clockSkew = 5 * time.Second

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidTokenType   = errors.New("invalid token type")
	ErrInvalidClaims      = errors.New("invalid token claims")
	ErrTokenNotYetValid   = errors.New("token is not yet valid")
	ErrMissingUserID      = errors.New("missing user_id in claims")
	ErrMaxRefreshExceeded = errors.New("maximum refresh count exceeded")
	ErrTokenBlacklisted   = errors.New("token has been revoked")
)

// Claims carry the user and the roles checked by the admin endpoints. The
// campaign is not part of the token; one login works on every campaign
// subdomain.
type Claims struct {
	jwt.RegisteredClaims
	UserID              string    `json:"user_id"`
	Email               string    `json:"email,omitempty"`
	IsStaff             bool      `json:"is_staff,omitempty"`
	AdministratedCities []string  `json:"cities,omitempty"`
	TokenType           TokenType `json:"token_type"`
	RefreshCount        int       `json:"refresh_count,omitempty"`
}

type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

type signingKey struct {
	secret []byte
	ttl    time.Duration
}

// JWTService issues and verifies HS256 token pairs
type JWTService struct {
	keys            map[TokenType]signingKey
	issuer          string
	maxRefreshCount int
	parser          *jwt.Parser
}

// NewJWTService signs refresh tokens with the access secret when no refresh
// secret is configured
func NewJWTService(cfg config.JWTConfig) *JWTService {
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Secret
	}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(clockSkew),
		jwt.WithIssuedAt(),
	}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer), jwt.WithAudience(cfg.Issuer))
	}

	return &JWTService{
		keys: map[TokenType]signingKey{
			TokenTypeAccess:  {secret: []byte(cfg.Secret), ttl: cfg.AccessTokenExpiration},
			TokenTypeRefresh: {secret: []byte(refreshSecret), ttl: cfg.RefreshTokenExpiration},
		},
		issuer:          cfg.Issuer,
		maxRefreshCount: cfg.MaxRefreshCount,
		parser:          jwt.NewParser(parserOpts...),
	}
}

// GenerateTokenInput is the profile copied into the access token
type GenerateTokenInput struct {
	UserID              uuid.UUID
	Email               string
	IsStaff             bool
	AdministratedCities []uuid.UUID
}

func (in GenerateTokenInput) claims() Claims {
	cities := make([]string, len(in.AdministratedCities))
	for i, id := range in.AdministratedCities {
		cities[i] = id.String()
	}
	return Claims{
		UserID:              in.UserID.String(),
		Email:               in.Email,
		IsStaff:             in.IsStaff,
		AdministratedCities: cities,
	}
}

func (s *JWTService) GenerateTokenPair(input GenerateTokenInput) (*TokenPair, error) {
	return s.issuePair(input.claims(), 0)
}

// issuePair signs an access token with the profile and a refresh token that
// only names the user
func (s *JWTService) issuePair(profile Claims, refreshCount int) (*TokenPair, error) {
	now := time.Now()

	access := profile
	access.TokenType = TokenTypeAccess
	access.RefreshCount = 0
	accessToken, accessExp, err := s.issue(access, now)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshExp, err := s.issue(Claims{
		UserID:       profile.UserID,
		TokenType:    TokenTypeRefresh,
		RefreshCount: refreshCount,
	}, now)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
		TokenType:             "Bearer",
	}, nil
}

// issue fills the registered claims for claims.TokenType and signs them
func (s *JWTService) issue(claims Claims, now time.Time) (string, time.Time, error) {
	key := s.keys[claims.TokenType]
	claims.RegisteredClaims = s.registered(claims.UserID, now, key.ttl)
	signed, err := sign(&claims, key.secret)
	return signed, claims.ExpiresAt.Time, err
}

func (s *JWTService) registered(subject string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	rc := jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Issuer:    s.issuer,
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	if s.issuer != "" {
		rc.Audience = jwt.ClaimStrings{s.issuer}
	}
	return rc
}

func sign(claims *Claims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.verify(tokenString, TokenTypeAccess)
}

func (s *JWTService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.verify(tokenString, TokenTypeRefresh)
}

func (s *JWTService) verify(tokenString string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.keys[want].secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return nil, ErrTokenNotYetValid
	case err != nil:
		return nil, ErrInvalidToken
	}

	if claims.TokenType != want {
		return nil, ErrInvalidTokenType
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	return claims, nil
}

// RefreshTokenPair issues a new pair from a valid refresh token. The caller
// reloads the profile since a refresh token does not carry it.
func (s *JWTService) RefreshTokenPair(refreshToken string, profile GenerateTokenInput) (*TokenPair, error) {
	claims, err := s.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.RefreshCount >= s.maxRefreshCount {
		return nil, ErrMaxRefreshExceeded
	}
	if userID, err := claims.GetUserUUID(); err != nil || userID != profile.UserID {
		return nil, ErrInvalidClaims
	}
	return s.issuePair(profile.claims(), claims.RefreshCount+1)
}

func (c *Claims) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// AdministratesCity reports whether the user is a city admin of cityID
func (c *Claims) AdministratesCity(cityID uuid.UUID) bool {
	return slices.Contains(c.AdministratedCities, cityID.String())
}

// IsAdmin reports whether the user may use the admin endpoints
func (c *Claims) IsAdmin() bool {
	return c.IsStaff || len(c.AdministratedCities) > 0
}

func (c *Claims) GetIssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// GetJTI returns the token id that revocations are keyed by
func (c *Claims) GetJTI() string {
	return c.ID
}

// GetRemainingTTL is how long a revocation of this token has to be kept
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}
