package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tradenote/tradenote/models"
	"github.com/tradenote/tradenote/realtime"
	"github.com/tradenote/tradenote/utils"
)

// FollowController manages the directed follow relation between users.
type FollowController struct {
	db          *gorm.DB
	hub         *realtime.Hub
	provisioner *ProfileProvisioner
}

// NewFollowController creates a new FollowController instance.
func NewFollowController(db *gorm.DB, hub *realtime.Hub) *FollowController {
	return &FollowController{db: db, hub: hub, provisioner: NewProfileProvisioner(db)}
}

// Follow creates a follow from the caller to the target user and notifies the
// target. Repeating an existing follow is a no-op success.
func (f *FollowController) Follow(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return
	}

	targetID, ok := parseTargetUser(ctx)
	if !ok {
		return
	}
	if targetID == userID {
		utils.Error(ctx, http.StatusBadRequest, 40050, "cannot follow yourself")
		return
	}

	var target models.User
	if err := f.db.First(&target, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40404, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50050, err.Error())
		return
	}

	if _, err := f.provisioner.Ensure(userID, getUserEmail(ctx)); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, fmt.Sprintf("failed to provision profile: %v", err))
		return
	}

	follow := models.Follow{FollowerID: userID, FolloweeID: targetID}
	if err := f.db.Create(&follow).Error; err != nil {
		if !isUniqueViolation(err) {
			utils.Error(ctx, http.StatusInternalServerError, 50052, err.Error())
			return
		}
		// Already following; keep the endpoint idempotent.
		utils.Success(ctx, gin.H{"following": true})
		return
	}

	// Best effort: a failed notification insert never fails the follow.
	notification := models.Notification{
		RecipientID:   targetID,
		Type:          models.NotificationTypeFollow,
		RelatedUserID: &follow.FollowerID,
	}
	if err := f.db.Create(&notification).Error; err != nil {
		utils.Sugar.Warnf("failed to create follow notification for user %d: %v", targetID, err)
	} else {
		f.hub.Publish(ctx.Request.Context(), realtime.KindNotifications, strconv.Itoa(int(targetID)))
	}

	utils.Created(ctx, gin.H{"following": true})
}

// Unfollow removes the caller's follow on the target user. Removing a follow
// that does not exist is a no-op success.
func (f *FollowController) Unfollow(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40131, "unauthorized")
		return
	}

	targetID, ok := parseTargetUser(ctx)
	if !ok {
		return
	}

	if err := f.db.Where("follower_id = ? AND followee_id = ?", userID, targetID).
		Delete(&models.Follow{}).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50053, err.Error())
		return
	}

	utils.Success(ctx, gin.H{"following": false})
}

// FollowStatus reports whether the caller follows the target user; it backs
// the follow button state.
func (f *FollowController) FollowStatus(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40132, "unauthorized")
		return
	}

	targetID, ok := parseTargetUser(ctx)
	if !ok {
		return
	}

	var count int64
	if err := f.db.Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", userID, targetID).
		Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50054, err.Error())
		return
	}

	utils.Success(ctx, gin.H{"following": count > 0})
}

func parseTargetUser(ctx *gin.Context) (uint, bool) {
	raw := ctx.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40051, "invalid user id")
		return 0, false
	}
	return uint(id), true
}
