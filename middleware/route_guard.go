package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GuardDecision is the outcome of the route guard for one request.
type GuardDecision int

const (
	// GuardPass lets the request through unchanged.
	GuardPass GuardDecision = iota
	// GuardRedirectLogin sends the request to the login page.
	GuardRedirectLogin
	// GuardRedirectDashboard sends the request to the dashboard.
	GuardRedirectDashboard
)

const (
	loginPath     = "/login"
	registerPath  = "/register"
	dashboardPath = "/dashboard"
)

// protectedPrefixes gate the authenticated dashboard shell.
var protectedPrefixes = []string{"/dashboard", "/strategy", "/trades", "/analysis"}

// imageExtensions are excluded from guard evaluation alongside static assets.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico"}

// GuardDecide is a pure function of (path, session presence). It never inspects
// anything else, so redirects stay deterministic per request.
func GuardDecide(path string, authenticated bool) GuardDecision {
	if !authenticated {
		for _, prefix := range protectedPrefixes {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return GuardRedirectLogin
			}
		}
		if isMarketplaceMutation(path) {
			return GuardRedirectLogin
		}
		return GuardPass
	}

	if path == loginPath || path == registerPath {
		return GuardRedirectDashboard
	}
	return GuardPass
}

// isMarketplaceMutation matches the marketplace actions that require a
// session: uploading, and purchase/edit/delete under a marketplace item.
func isMarketplaceMutation(path string) bool {
	if path == "/marketplace/upload" {
		return true
	}
	rest, ok := strings.CutPrefix(path, "/marketplace/")
	if !ok {
		return false
	}
	segs := strings.Split(rest, "/")
	if len(segs) != 2 {
		return false
	}
	switch segs[1] {
	case "purchase", "edit", "delete":
		return segs[0] != ""
	}
	return false
}

// IsAssetPath reports whether the guard should skip the path entirely: static
// assets, favicon and common image files.
func IsAssetPath(path string) bool {
	if strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, "/assets/") {
		return true
	}
	if path == "/favicon.ico" {
		return true
	}
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// RouteGuard applies GuardDecide once per request, before page handlers run.
// Session cookie refreshes emitted by SessionResolver ride along on every
// branch, redirects included.
func RouteGuard() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		if IsAssetPath(path) {
			ctx.Next()
			return
		}

		_, authenticated := CurrentUser(ctx)
		switch GuardDecide(path, authenticated) {
		case GuardRedirectLogin:
			ctx.Redirect(http.StatusFound, loginPath)
			ctx.Abort()
		case GuardRedirectDashboard:
			ctx.Redirect(http.StatusFound, dashboardPath)
			ctx.Abort()
		default:
			ctx.Next()
		}
	}
}
