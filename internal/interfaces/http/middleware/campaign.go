package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Campaign context keys
const (
	CampaignKey        = "campaign"
	CampaignHeaderKey  = "X-Campaign"
	CampaignQueryParam = "campaign"
)

// CampaignResolver looks a campaign up by its slug
type CampaignResolver interface {
	GetBySlug(ctx context.Context, slug string) (*campaign.Campaign, error)
}

// CampaignMiddlewareConfig holds configuration for campaign middleware
type CampaignMiddlewareConfig struct {
	Resolver CampaignResolver
	// BaseDomain is the domain below which the subdomain names the campaign,
	// e.g. "dopracenakole.cz" resolves "brno.dopracenakole.cz" to "brno"
	BaseDomain string
	// DefaultSlug is used when the request names no campaign
	DefaultSlug string
	// SkipPaths are paths served without a campaign
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultCampaignConfig returns default campaign middleware configuration
func DefaultCampaignConfig(resolver CampaignResolver) CampaignMiddlewareConfig {
	return CampaignMiddlewareConfig{
		Resolver:  resolver,
		SkipPaths: []string{"/health", "/healthz", "/ready", "/metrics", "/api/v1/health", "/api/v1/payu/notify"},
	}
}

// CampaignMiddleware resolves the campaign a request belongs to.
// Extraction order: subdomain > X-Campaign header > campaign query parameter > default.
func CampaignMiddleware(cfg CampaignMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		slug, method := ExtractCampaignSlug(c, cfg.BaseDomain)
		if slug == "" {
			slug, method = cfg.DefaultSlug, "default"
		}
		if slug == "" {
			abortCampaign(c, http.StatusBadRequest, "ERR_CAMPAIGN_REQUIRED", "Campaign identification required")
			return
		}

		camp, err := cfg.Resolver.GetBySlug(c.Request.Context(), slug)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Debug("Campaign not resolved",
					zap.String("slug", slug),
					zap.String("method", method),
					zap.Error(err))
			}
			abortCampaign(c, http.StatusNotFound, "ERR_NOT_FOUND", "Campaign not found")
			return
		}

		c.Set(CampaignKey, camp)
		logger.BindCampaign(c, camp.Slug)
		c.Next()
	}
}

// ExtractCampaignSlug returns the campaign slug named by the request and how it was found
func ExtractCampaignSlug(c *gin.Context, baseDomain string) (string, string) {
	if baseDomain != "" {
		if slug := extractSubdomain(c.Request.Host, baseDomain); slug != "" {
			return slug, "subdomain"
		}
	}
	if slug := strings.TrimSpace(c.GetHeader(CampaignHeaderKey)); slug != "" {
		return slug, "header"
	}
	if slug := strings.TrimSpace(c.Query(CampaignQueryParam)); slug != "" {
		return slug, "query"
	}
	return "", ""
}

// extractSubdomain returns the leftmost label below baseDomain,
// e.g. "brno.dopracenakole.cz" with baseDomain "dopracenakole.cz" returns "brno"
func extractSubdomain(host, baseDomain string) string {
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	if !strings.HasSuffix(host, "."+baseDomain) {
		return ""
	}
	subdomain := strings.TrimSuffix(host, "."+baseDomain)
	if subdomain == "" || subdomain == "www" || subdomain == "api" {
		return ""
	}
	parts := strings.Split(subdomain, ".")
	return parts[0]
}

func abortCampaign(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// GetCampaign retrieves the resolved campaign from gin.Context
func GetCampaign(c *gin.Context) *campaign.Campaign {
	if v, exists := c.Get(CampaignKey); exists {
		if camp, ok := v.(*campaign.Campaign); ok {
			return camp
		}
	}
	return nil
}

// GetCampaignID retrieves the id of the resolved campaign, or uuid.Nil
func GetCampaignID(c *gin.Context) uuid.UUID {
	if camp := GetCampaign(c); camp != nil {
		return camp.ID
	}
	return uuid.Nil
}
