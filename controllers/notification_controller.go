package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tradenote/tradenote/models"
	"github.com/tradenote/tradenote/realtime"
	"github.com/tradenote/tradenote/utils"
)

// NotificationController reads and flags the requesting user's notifications.
// Notification rows themselves are created by other endpoints (comments,
// follows); this controller never inserts.
type NotificationController struct {
	db  *gorm.DB
	hub *realtime.Hub
}

// NewNotificationController creates a new NotificationController instance.
func NewNotificationController(db *gorm.DB, hub *realtime.Hub) *NotificationController {
	return &NotificationController{db: db, hub: hub}
}

// ListNotifications returns the caller's notifications newest first, expanded
// with related user and post data, plus the caller's unread count.
func (n *NotificationController) ListNotifications(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	limit := parseLimit(ctx.Query("limit"), 50, 200)
	unreadOnly := ctx.Query("unread_only") == "true"

	query := n.db.Where("recipient_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, err.Error())
		return
	}

	n.attachRelated(notifications)

	var unreadCount int64
	if err := n.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&unreadCount).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, err.Error())
		return
	}

	utils.Success(ctx, gin.H{
		"notifications": notifications,
		"unread_count":  unreadCount,
	})
}

// attachRelated expands related users and posts with two batched lookups.
// Dangling references degrade to nil fields, never errors.
func (n *NotificationController) attachRelated(notifications []models.Notification) {
	if len(notifications) == 0 {
		return
	}

	userIDs := make([]uint, 0, len(notifications))
	postIDs := make([]uint, 0, len(notifications))
	for _, notification := range notifications {
		if notification.RelatedUserID != nil {
			userIDs = append(userIDs, *notification.RelatedUserID)
		}
		if notification.RelatedPostID != nil {
			postIDs = append(postIDs, *notification.RelatedPostID)
		}
	}

	briefs := profileBriefsByID(n.db, userIDs)

	postBriefs := make(map[uint]models.PostBrief)
	if len(postIDs) > 0 {
		var posts []models.Post
		if err := n.db.Select("id", "title").Find(&posts, utils.UniqueUint(postIDs)).Error; err != nil {
			utils.Sugar.Warnf("post batch lookup failed: %v", err)
		} else {
			for _, post := range posts {
				postBriefs[post.ID] = models.PostBrief{ID: post.ID, Title: post.Title}
			}
		}
	}

	for i := range notifications {
		if id := notifications[i].RelatedUserID; id != nil {
			if brief, ok := briefs[*id]; ok {
				b := brief
				notifications[i].RelatedUser = &b
			}
		}
		if id := notifications[i].RelatedPostID; id != nil {
			if brief, ok := postBriefs[*id]; ok {
				b := brief
				notifications[i].RelatedPost = &b
			}
		}
	}
}

// UpdateNotifications marks a single notification or all of the caller's
// unread notifications as read. Exactly one of notification_id and
// mark_all_read must be supplied. The single-id update is scoped to the
// caller, so other users' rows cannot be touched by guessing ids.
func (n *NotificationController) UpdateNotifications(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40121, "unauthorized")
		return
	}

	var req struct {
		NotificationID *uint `json:"notification_id"`
		MarkAllRead    bool  `json:"mark_all_read"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	switch {
	case req.NotificationID != nil:
		err := n.db.Model(&models.Notification{}).
			Where("id = ? AND recipient_id = ?", *req.NotificationID, userID).
			Update("is_read", true).Error
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50042, err.Error())
			return
		}
	case req.MarkAllRead:
		err := n.db.Model(&models.Notification{}).
			Where("recipient_id = ? AND is_read = ?", userID, false).
			Update("is_read", true).Error
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50043, err.Error())
			return
		}
	default:
		utils.Error(ctx, http.StatusBadRequest, 40041, "either notification_id or mark_all_read is required")
		return
	}

	n.hub.Publish(ctx.Request.Context(), realtime.KindNotifications, strconv.Itoa(int(userID)))

	utils.Success(ctx, gin.H{"success": true})
}
