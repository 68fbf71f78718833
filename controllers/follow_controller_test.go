package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tradenote/tradenote/models"
)

func newFollowRouter(db *gorm.DB, authUser uint) *gin.Engine {
	r := gin.New()
	if authUser != 0 {
		r.Use(asUser(authUser, "follower@example.com"))
	}
	fc := NewFollowController(db, newTestHub())
	r.POST("/api/v1/users/:id/follow", fc.Follow)
	r.DELETE("/api/v1/users/:id/follow", fc.Unfollow)
	r.GET("/api/v1/users/:id/follow", fc.FollowStatus)
	return r
}

func TestFollowCreatesRelationAndNotification(t *testing.T) {
	db := newTestDB(t)
	mustCreate(t, db, &models.User{ID: 2, Email: "target@example.com"})
	r := newFollowRouter(db, 1)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/users/2/follow", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var data struct {
		Following bool `json:"following"`
	}
	decodeData(t, env, &data)
	assert.True(t, data.Following)

	var follows []models.Follow
	require.NoError(t, db.Find(&follows).Error)
	require.Len(t, follows, 1)
	assert.Equal(t, uint(1), follows[0].FollowerID)
	assert.Equal(t, uint(2), follows[0].FolloweeID)

	var notifications []models.Notification
	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, uint(2), notifications[0].RecipientID)
	assert.Equal(t, models.NotificationTypeFollow, notifications[0].Type)
	require.NotNil(t, notifications[0].RelatedUserID)
	assert.Equal(t, uint(1), *notifications[0].RelatedUserID)

	// The follower's profile was provisioned on the way.
	var profile models.Profile
	require.NoError(t, db.First(&profile, 1).Error)
	assert.Equal(t, "follower", profile.Username)
}

func TestFollowIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	mustCreate(t, db, &models.User{ID: 2, Email: "target@example.com"})
	r := newFollowRouter(db, 1)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/users/2/follow", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/users/2/follow", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Following bool `json:"following"`
	}
	decodeData(t, env, &data)
	assert.True(t, data.Following)

	var follows, notifications int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&follows).Error)
	require.NoError(t, db.Model(&models.Notification{}).Count(&notifications).Error)
	assert.Equal(t, int64(1), follows, "no duplicate relation")
	assert.Equal(t, int64(1), notifications, "no duplicate notification")
}

func TestFollowSelfRejected(t *testing.T) {
	db := newTestDB(t)
	r := newFollowRouter(db, 1)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/users/1/follow", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40050, env.Code)
}

func TestFollowMissingTarget(t *testing.T) {
	db := newTestDB(t)
	r := newFollowRouter(db, 1)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/users/5/follow", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40404, env.Code)
}

func TestFollowInvalidTargetID(t *testing.T) {
	db := newTestDB(t)
	r := newFollowRouter(db, 1)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/users/abc/follow", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40051, env.Code)
}

func TestUnfollowRemovesRelation(t *testing.T) {
	db := newTestDB(t)
	mustCreate(t, db, &models.User{ID: 2, Email: "target@example.com"})
	mustCreate(t, db, &models.Follow{FollowerID: 1, FolloweeID: 2})
	r := newFollowRouter(db, 1)

	w, _ := doJSON(t, r, http.MethodDelete, "/api/v1/users/2/follow", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	assert.Zero(t, count)

	// Unfollowing again stays a success.
	w, env := doJSON(t, r, http.MethodDelete, "/api/v1/users/2/follow", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Following bool `json:"following"`
	}
	decodeData(t, env, &data)
	assert.False(t, data.Following)
}

func TestFollowStatus(t *testing.T) {
	db := newTestDB(t)
	mustCreate(t, db, &models.Follow{FollowerID: 1, FolloweeID: 2})
	r := newFollowRouter(db, 1)

	var data struct {
		Following bool `json:"following"`
	}

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/users/2/follow", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, env, &data)
	assert.True(t, data.Following)

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/users/3/follow", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, env, &data)
	assert.False(t, data.Following)
}

func TestFollowEndpointsRequireAuth(t *testing.T) {
	db := newTestDB(t)
	r := newFollowRouter(db, 0)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/users/2/follow", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40130, env.Code)
}
