package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tradenote/tradenote/config"
	"github.com/tradenote/tradenote/utils"
)

const (
	// SessionCookieName carries the signed session token.
	SessionCookieName = "tn_session"
	// ContextUserIDKey is the key used to store the authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextEmailKey stores the authenticated user's email inside Gin context.
	ContextEmailKey = "email"
	// ContextTokenKey stores the raw session token for logout revocation.
	ContextTokenKey = "session_token"
)

// SessionResolver resolves the session cookie on every request. A missing or
// invalid cookie is not an error, the request just stays anonymous. When the
// token has passed half its lifetime a fresh cookie is emitted as a side
// effect, so this must run before any middleware that may redirect.
func SessionResolver() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(SessionCookieName)
		if err != nil || token == "" {
			ctx.Next()
			return
		}

		if utils.IsSessionRevoked(token) {
			ctx.Next()
			return
		}

		claims, err := utils.ParseSessionToken(token)
		if err != nil {
			ctx.Next()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextEmailKey, claims.Email)
		ctx.Set(ContextTokenKey, token)

		if utils.SessionNeedsRefresh(claims) {
			IssueSessionCookie(ctx, claims.UserID, claims.Email)
		}

		ctx.Next()
	}
}

// IssueSessionCookie signs a fresh session token for the identity and attaches
// it to the response.
func IssueSessionCookie(ctx *gin.Context, userID uint, email string) {
	cfg := config.Get()
	ttl := time.Duration(cfg.SessionTTLHours) * time.Hour
	token, err := utils.GenerateSessionToken(userID, email, ttl)
	if err != nil {
		utils.Sugar.Errorf("failed to issue session token for user %d: %v", userID, err)
		return
	}
	ctx.SetCookie(SessionCookieName, token, int(ttl.Seconds()), "/", "", false, true)
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(ctx *gin.Context) {
	ctx.SetCookie(SessionCookieName, "", -1, "/", "", false, true)
}

// CurrentUser returns the authenticated user id resolved by SessionResolver,
// or false when the request is anonymous.
func CurrentUser(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}
