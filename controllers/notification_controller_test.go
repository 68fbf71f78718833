package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tradenote/tradenote/models"
)

func newNotificationRouter(db *gorm.DB, authUser uint) *gin.Engine {
	r := gin.New()
	if authUser != 0 {
		r.Use(asUser(authUser, "user@example.com"))
	}
	nc := NewNotificationController(db, newTestHub())
	r.GET("/api/v1/notifications", nc.ListNotifications)
	r.PUT("/api/v1/notifications", nc.UpdateNotifications)
	return r
}

func seedNotification(t *testing.T, db *gorm.DB, recipient uint, read bool, createdAt time.Time) models.Notification {
	t.Helper()
	actor := uint(99)
	n := models.Notification{
		RecipientID:   recipient,
		Type:          models.NotificationTypeFollow,
		IsRead:        read,
		RelatedUserID: &actor,
		CreatedAt:     createdAt,
	}
	mustCreate(t, db, &n)
	return n
}

type notificationListData struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unread_count"`
}

func TestListNotificationsScopedToRecipient(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	seedNotification(t, db, 1, false, base)
	seedNotification(t, db, 1, true, base.Add(time.Hour))
	seedNotification(t, db, 2, false, base)

	r := newNotificationRouter(db, 1)
	w, env := doJSON(t, r, http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data notificationListData
	decodeData(t, env, &data)
	require.Len(t, data.Notifications, 2)
	for _, n := range data.Notifications {
		assert.Equal(t, uint(1), n.RecipientID)
	}
	assert.Equal(t, int64(1), data.UnreadCount)
	// Newest first.
	assert.True(t, data.Notifications[0].IsRead)
	assert.False(t, data.Notifications[1].IsRead)
}

func TestListNotificationsUnreadOnly(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	seedNotification(t, db, 1, false, now)
	seedNotification(t, db, 1, true, now)

	r := newNotificationRouter(db, 1)
	w, env := doJSON(t, r, http.MethodGet, "/api/v1/notifications?unread_only=true", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data notificationListData
	decodeData(t, env, &data)
	require.Len(t, data.Notifications, 1)
	assert.False(t, data.Notifications[0].IsRead)
}

func TestListNotificationsExpandsRelatedData(t *testing.T) {
	db := newTestDB(t)
	mustCreate(t, db, &models.Profile{ID: 5, Username: "carol"})
	post := models.Post{UserID: 5, Category: "general", Title: "A setup", Content: "x"}
	mustCreate(t, db, &post)

	actor := uint(5)
	mustCreate(t, db, &models.Notification{
		RecipientID:   1,
		Type:          models.NotificationTypeComment,
		RelatedUserID: &actor,
		RelatedPostID: &post.ID,
	})
	// Dangling actor reference stays nil, never an error.
	ghost := uint(77)
	mustCreate(t, db, &models.Notification{
		RecipientID:   1,
		Type:          models.NotificationTypeFollow,
		RelatedUserID: &ghost,
	})

	r := newNotificationRouter(db, 1)
	w, env := doJSON(t, r, http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data notificationListData
	decodeData(t, env, &data)
	require.Len(t, data.Notifications, 2)

	for _, n := range data.Notifications {
		switch n.Type {
		case models.NotificationTypeComment:
			require.NotNil(t, n.RelatedUser)
			assert.Equal(t, "carol", n.RelatedUser.Username)
			require.NotNil(t, n.RelatedPost)
			assert.Equal(t, "A setup", n.RelatedPost.Title)
		case models.NotificationTypeFollow:
			assert.Nil(t, n.RelatedUser)
			assert.Nil(t, n.RelatedPost)
		}
	}
}

func TestListNotificationsRequiresAuth(t *testing.T) {
	db := newTestDB(t)
	r := newNotificationRouter(db, 0)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/notifications", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40120, env.Code)
}

func TestMarkSingleNotificationRead(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	mine := seedNotification(t, db, 1, false, now)
	other := seedNotification(t, db, 1, false, now)

	r := newNotificationRouter(db, 1)
	w, _ := doJSON(t, r, http.MethodPut, "/api/v1/notifications", gin.H{"notification_id": mine.ID})
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Notification
	require.NoError(t, db.First(&reloaded, mine.ID).Error)
	assert.True(t, reloaded.IsRead)
	reloaded = models.Notification{}
	require.NoError(t, db.First(&reloaded, other.ID).Error)
	assert.False(t, reloaded.IsRead, "only the named notification flips")
}

func TestMarkSingleNotificationCannotCrossUsers(t *testing.T) {
	db := newTestDB(t)
	foreign := seedNotification(t, db, 2, false, time.Now())

	r := newNotificationRouter(db, 1)
	w, _ := doJSON(t, r, http.MethodPut, "/api/v1/notifications", gin.H{"notification_id": foreign.ID})
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Notification
	require.NoError(t, db.First(&reloaded, foreign.ID).Error)
	assert.False(t, reloaded.IsRead, "another user's notification must stay unread")
}

func TestMarkAllReadIsScoped(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	seedNotification(t, db, 1, false, now)
	seedNotification(t, db, 1, false, now)
	foreign := seedNotification(t, db, 2, false, now)

	r := newNotificationRouter(db, 1)
	w, _ := doJSON(t, r, http.MethodPut, "/api/v1/notifications", gin.H{"mark_all_read": true})
	require.Equal(t, http.StatusOK, w.Code)

	var unreadMine, unreadForeign int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", 1, false).Count(&unreadMine).Error)
	require.NoError(t, db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", 2, false).Count(&unreadForeign).Error)
	assert.Zero(t, unreadMine)
	assert.Equal(t, int64(1), unreadForeign)

	var reloaded models.Notification
	require.NoError(t, db.First(&reloaded, foreign.ID).Error)
	assert.False(t, reloaded.IsRead)
}

func TestUpdateNotificationsRequiresOneField(t *testing.T) {
	db := newTestDB(t)
	r := newNotificationRouter(db, 1)

	w, env := doJSON(t, r, http.MethodPut, "/api/v1/notifications", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40041, env.Code)
}
