package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serveSwagger(cfg SwaggerConfig, jwt gin.HandlerFunc, remoteAddr string) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/swagger/*any", SwaggerProtection(cfg, jwt), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSwaggerProtection(t *testing.T) {
	staff := func(c *gin.Context) {
		c.Set(JWTUserIDKey, "admin")
		c.Set(JWTStaffKey, true)
	}
	participant := func(c *gin.Context) {
		c.Set(JWTUserIDKey, "rider")
	}
	unauthenticated := func(c *gin.Context) {
		c.AbortWithStatus(http.StatusUnauthorized)
	}
	office := []string{"10.20.0.0/16", "192.0.2.7"}

	tests := []struct {
		name     string
		cfg      SwaggerConfig
		jwt      gin.HandlerFunc
		remote   string
		wantCode int
		wantBody string
	}{
		{"disabled", SwaggerConfig{}, nil, "192.0.2.7:4000", http.StatusNotFound, "ERR_NOT_FOUND"},
		{"open", SwaggerConfig{Enabled: true}, nil, "198.51.100.1:4000", http.StatusOK, "docs"},
		{"single address allowed", SwaggerConfig{Enabled: true, AllowedIPs: office}, nil, "192.0.2.7:4000", http.StatusOK, "docs"},
		{"range allowed", SwaggerConfig{Enabled: true, AllowedIPs: office}, nil, "10.20.3.4:4000", http.StatusOK, "docs"},
		{"outside allow-list", SwaggerConfig{Enabled: true, AllowedIPs: office}, nil, "10.21.0.1:4000", http.StatusForbidden, "ERR_FORBIDDEN"},
		{"only malformed entries", SwaggerConfig{Enabled: true, AllowedIPs: []string{"office"}}, nil, "10.20.3.4:4000", http.StatusForbidden, "ERR_FORBIDDEN"},
		{"staff token", SwaggerConfig{Enabled: true, RequireAuth: true}, staff, "198.51.100.1:4000", http.StatusOK, "docs"},
		{"participant token", SwaggerConfig{Enabled: true, RequireAuth: true}, participant, "198.51.100.1:4000", http.StatusForbidden, "Staff access required"},
		{"no token", SwaggerConfig{Enabled: true, RequireAuth: true}, unauthenticated, "198.51.100.1:4000", http.StatusUnauthorized, ""},
		{"allow-list before token", SwaggerConfig{Enabled: true, RequireAuth: true, AllowedIPs: office}, staff, "203.0.113.9:4000", http.StatusForbidden, "restricted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveSwagger(tt.cfg, tt.jwt, tt.remote)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestParseAllowList(t *testing.T) {
	prefixes := parseAllowList([]string{" 10.0.0.0/8 ", "2001:db8::1", "::ffff:192.0.2.1", "10.1.2.3/33", "bogus"})

	assert.Len(t, prefixes, 3)
	assert.True(t, addrAllowed("10.200.1.1", prefixes))
	assert.True(t, addrAllowed("2001:db8::1", prefixes))
	assert.True(t, addrAllowed("192.0.2.1", prefixes), "IPv4-mapped entries match plain IPv4 clients")
	assert.False(t, addrAllowed("2001:db8::2", prefixes))
	assert.False(t, addrAllowed("not-an-ip", prefixes))
}
