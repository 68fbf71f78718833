package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tradenote/tradenote/models"
	"github.com/tradenote/tradenote/utils"
)

// ProfileController serves public community profile cards.
type ProfileController struct {
	db *gorm.DB
}

// NewProfileController creates a new ProfileController instance.
func NewProfileController(db *gorm.DB) *ProfileController {
	return &ProfileController{db: db}
}

// GetProfile returns a profile with its follower and following counts.
func (p *ProfileController) GetProfile(ctx *gin.Context) {
	var profile models.Profile
	if err := p.db.First(&profile, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40405, "profile not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50060, err.Error())
		return
	}

	var followers, following int64
	if err := p.db.Model(&models.Follow{}).Where("followee_id = ?", profile.ID).Count(&followers).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, err.Error())
		return
	}
	if err := p.db.Model(&models.Follow{}).Where("follower_id = ?", profile.ID).Count(&following).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50062, err.Error())
		return
	}

	utils.Success(ctx, gin.H{
		"profile":   profile,
		"followers": followers,
		"following": following,
	})
}

// UpdateProfile lets the authenticated user change their avatar and trading
// style tags. Username changes are not offered.
func (p *ProfileController) UpdateProfile(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40140, "unauthorized")
		return
	}

	var req struct {
		AvatarURL     *string `json:"avatar_url"`
		TradingStyles *string `json:"trading_styles"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}

	var profile models.Profile
	if err := p.db.First(&profile, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40406, "profile not provisioned yet")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50063, err.Error())
		return
	}

	if req.AvatarURL != nil {
		profile.AvatarURL = *req.AvatarURL
	}
	if req.TradingStyles != nil {
		profile.TradingStyles = utils.Sanitize(*req.TradingStyles)
	}

	if err := p.db.Save(&profile).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50064, err.Error())
		return
	}

	utils.Success(ctx, gin.H{"profile": profile})
}
