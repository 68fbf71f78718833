package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tradenote/tradenote/models"
)

func newPageViewRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PageView{}))

	r := gin.New()
	r.Use(PageViewRecorder(db))
	ok := func(ctx *gin.Context) { ctx.String(http.StatusOK, "ok") }
	r.GET("/", ok)
	r.GET("/community", ok)
	r.GET("/health", ok)
	r.GET("/api/v1/posts", ok)
	r.GET("/missing-page", func(ctx *gin.Context) { ctx.String(http.StatusNotFound, "nope") })
	r.POST("/community", ok)
	return r, db
}

func hit(r *gin.Engine, method, path string) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
}

func pageViewCount(t *testing.T, db *gorm.DB, path string) int64 {
	t.Helper()
	var pv models.PageView
	err := db.Where("path = ?", path).First(&pv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0
	}
	require.NoError(t, err)
	return pv.Count
}

func TestPageViewRecorderAggregatesPerPath(t *testing.T) {
	r, db := newPageViewRouter(t)

	hit(r, http.MethodGet, "/")
	hit(r, http.MethodGet, "/community")
	hit(r, http.MethodGet, "/community")

	assert.Equal(t, int64(1), pageViewCount(t, db, "/"))
	assert.Equal(t, int64(2), pageViewCount(t, db, "/community"), "same day and path share one row")

	var rows int64
	require.NoError(t, db.Model(&models.PageView{}).Count(&rows).Error)
	assert.Equal(t, int64(2), rows)
}

func TestPageViewRecorderSkipsNonPageTraffic(t *testing.T) {
	r, db := newPageViewRouter(t)

	hit(r, http.MethodGet, "/health")
	hit(r, http.MethodGet, "/api/v1/posts")
	hit(r, http.MethodPost, "/community")
	hit(r, http.MethodGet, "/missing-page")

	var rows int64
	require.NoError(t, db.Model(&models.PageView{}).Count(&rows).Error)
	assert.Zero(t, rows)
}
