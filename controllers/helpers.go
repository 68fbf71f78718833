package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tradenote/tradenote/middleware"
	"github.com/tradenote/tradenote/models"
	"github.com/tradenote/tradenote/utils"
)

// getUserID returns the authenticated user id from the request context.
func getUserID(ctx *gin.Context) (uint, bool) {
	return middleware.CurrentUser(ctx)
}

// getUserEmail returns the authenticated user's email from the request context.
func getUserEmail(ctx *gin.Context) string {
	value, exists := ctx.Get(middleware.ContextEmailKey)
	if !exists {
		return ""
	}
	email, _ := value.(string)
	return email
}

// parseLimit parses a limit query value, falling back to def and capping at max.
func parseLimit(raw string, def, max int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// parseOffset parses an offset query value, falling back to zero.
func parseOffset(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// profileBriefsByID loads the profiles for the given user ids into a map for
// attach passes. Lookup failures degrade to an empty map: callers render null
// profiles rather than failing the request.
func profileBriefsByID(db *gorm.DB, ids []uint) map[uint]models.ProfileBrief {
	briefs := make(map[uint]models.ProfileBrief)
	if len(ids) == 0 {
		return briefs
	}
	var profiles []models.Profile
	if err := db.Find(&profiles, utils.UniqueUint(ids)).Error; err != nil {
		utils.Sugar.Warnf("profile batch lookup failed: %v", err)
		return briefs
	}
	for _, profile := range profiles {
		briefs[profile.ID] = profile.Brief()
	}
	return briefs
}
