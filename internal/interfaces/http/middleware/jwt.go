package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dpnk/backend/internal/infrastructure/auth"
	"github.com/dpnk/backend/internal/infrastructure/logger"
	"github.com/dpnk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Keys under which the authenticated identity is stored in gin.Context
const (
	JWTClaimsKey = "jwt_claims"
	JWTUserIDKey = "jwt_user_id"
	JWTStaffKey  = "jwt_is_staff"
)

const bearerScheme = "Bearer"

var errMissingToken = errors.New("missing bearer token")

// tokenRejections maps token failures to the API error returned for them
var tokenRejections = []struct {
	err     error
	code    string
	message string
}{
	{auth.ErrExpiredToken, dto.ErrCodeTokenExpired, "Token has expired"},
	{auth.ErrTokenBlacklisted, dto.ErrCodeTokenRevoked, "Token has been revoked"},
	{auth.ErrInvalidTokenType, dto.ErrCodeTokenInvalid, "Invalid token type"},
	{auth.ErrTokenNotYetValid, dto.ErrCodeTokenInvalid, "Token is not yet valid"},
	{auth.ErrInvalidToken, dto.ErrCodeTokenInvalid, "Invalid token"},
	{errMissingToken, dto.ErrCodeTokenInvalid, "Missing bearer token"},
}

// Authenticator validates access tokens. Route groups pick Required or
// Optional; public routes simply do not mount it.
type Authenticator struct {
	tokens  *auth.JWTService
	revoked auth.TokenBlacklist
	logger  *zap.Logger
}

// NewAuthenticator creates an authenticator. revoked may be nil, in which
// case logout and password changes do not invalidate issued tokens.
func NewAuthenticator(tokens *auth.JWTService, revoked auth.TokenBlacklist, log *zap.Logger) *Authenticator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Authenticator{tokens: tokens, revoked: revoked, logger: log}
}

// Required rejects the request unless it carries a valid, unrevoked token
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.authenticate(c)
		if err != nil {
			a.reject(c, err)
			return
		}
		bindClaims(c, claims)
		c.Next()
	}
}

// Optional binds the identity when a valid token is present and lets
// anonymous requests through otherwise
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := a.authenticate(c); err == nil {
			bindClaims(c, claims)
		}
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context) (*auth.Claims, error) {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		return nil, errMissingToken
	}
	claims, err := a.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	if err := a.checkRevoked(c.Request.Context(), claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// checkRevoked fails open when the revocation store is unreachable
func (a *Authenticator) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	if a.revoked == nil {
		return nil
	}
	if jti := claims.GetJTI(); jti != "" {
		revoked, err := a.revoked.IsBlacklisted(ctx, jti)
		switch {
		case err != nil:
			a.logger.Error("Token revocation lookup failed", zap.String("jti", jti), zap.Error(err))
		case revoked:
			return auth.ErrTokenBlacklisted
		}
	}
	invalidated, err := a.revoked.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
	switch {
	case err != nil:
		a.logger.Error("User session lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
	case invalidated:
		return auth.ErrTokenBlacklisted
	}
	return nil
}

func (a *Authenticator) reject(c *gin.Context, err error) {
	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	for _, r := range tokenRejections {
		if errors.Is(err, r.err) {
			code, message = r.code, r.message
			break
		}
	}
	a.logger.Debug("Request rejected",
		zap.String("path", c.FullPath()),
		zap.String("code", code),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func bindClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTUserIDKey, claims.UserID)
	c.Set(JWTStaffKey, claims.IsStaff)
	logger.BindUser(c, claims.UserID)
}

// RequireStaff admits campaign staff and city administrators; mount it
// after Required
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		switch {
		case claims == nil:
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
		case !claims.IsAdmin():
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Staff access required", GetRequestID(c)))
		default:
			c.Next()
		}
	}
}

// GetJWTClaims returns the bound claims or nil for anonymous requests
func GetJWTClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(JWTClaimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}

// GetJWTUserID returns the authenticated user ID, empty when anonymous
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// IsStaff reports whether the authenticated user is campaign staff
func IsStaff(c *gin.Context) bool {
	return c.GetBool(JWTStaffKey)
}
