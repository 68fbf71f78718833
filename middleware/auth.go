package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradenote/tradenote/utils"
)

// AuthRequired rejects anonymous requests. It relies on SessionResolver having
// already populated the context.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := CurrentUser(ctx); !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "unauthorized")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
