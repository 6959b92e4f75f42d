package middleware

import (
	"context"
	"strings"

	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// probePaths are polled too often to be worth a label set of their own
var probePaths = []string{"/health", "/healthz", "/ready", "/metrics", "/api/v1/health", "/swagger/"}

type profileFilter struct {
	exact    map[string]bool
	prefixes []string
}

// ProfilingOption configures Profiling
type ProfilingOption func(*profileFilter)

// ProfileSkip adds paths that run without labels. A path ending in a slash
// matches everything below it.
func ProfileSkip(paths ...string) ProfilingOption {
	return func(f *profileFilter) {
		for _, p := range paths {
			if strings.HasSuffix(p, "/") {
				f.prefixes = append(f.prefixes, p)
			} else {
				f.exact[p] = true
			}
		}
	}
}

func (f *profileFilter) skips(path string) bool {
	if f.exact[path] {
		return true
	}
	for _, prefix := range f.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Profiling attaches method, route, controller and campaign labels to the
// request so Pyroscope profiles can be split by them. Health probes and the
// swagger UI are skipped. Mount it after CampaignMiddleware.
func Profiling(opts ...ProfilingOption) gin.HandlerFunc {
	filter := &profileFilter{exact: make(map[string]bool)}
	ProfileSkip(probePaths...)(filter)
	for _, opt := range opts {
		opt(filter)
	}

	return func(c *gin.Context) {
		if filter.skips(c.Request.URL.Path) {
			c.Next()
			return
		}
		telemetry.WithProfilingLabels(c.Request.Context(), requestLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func requestLabels(c *gin.Context) map[string]string {
	labels := map[string]string{telemetry.ProfilingLabelMethod: c.Request.Method}
	if route := c.FullPath(); route != "" {
		labels[telemetry.ProfilingLabelRoute] = route
		if controller := controllerFromRoute(route); controller != "" {
			labels[telemetry.ProfilingLabelController] = controller
		}
	}
	if camp, ok := c.Value(CampaignKey).(*campaign.Campaign); ok && camp != nil {
		labels[telemetry.ProfilingLabelCampaign] = camp.Slug
	}
	return labels
}

// controllerFromRoute returns the first resource segment of a route pattern,
// e.g. "/api/v1/trips/:id" gives "trips"
func controllerFromRoute(route string) string {
	for part := range strings.SplitSeq(route, "/") {
		switch {
		case part == "", part == "api", isVersionSegment(part):
		case strings.HasPrefix(part, ":"), strings.HasPrefix(part, "*"):
		default:
			return part
		}
	}
	return ""
}

// isVersionSegment matches v1, v2 and so on
func isVersionSegment(segment string) bool {
	digits, ok := strings.CutPrefix(strings.ToLower(segment), "v")
	if !ok || digits == "" {
		return false
	}
	return strings.Trim(digits, "0123456789") == ""
}
