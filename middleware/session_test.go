package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradenote/tradenote/config"
	"github.com/tradenote/tradenote/utils"
)

func newSessionRouter() *gin.Engine {
	r := gin.New()
	r.Use(SessionResolver())
	r.GET("/whoami", func(ctx *gin.Context) {
		if id, ok := CurrentUser(ctx); ok {
			ctx.JSON(http.StatusOK, gin.H{"user_id": id})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"user_id": 0})
	})
	return r
}

func getWhoami(t *testing.T, r *gin.Engine, cookieValue string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if cookieValue != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookieValue})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// signSessionToken builds a token with explicit issue and expiry times, which
// GenerateSessionToken does not expose.
func signSessionToken(t *testing.T, userID uint, issuedAt, expiresAt time.Time) string {
	t.Helper()
	claims := utils.SessionClaims{
		UserID: userID,
		Email:  "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(config.Get().SessionSecret))
	require.NoError(t, err)
	return token
}

func TestSessionResolverResolvesValidToken(t *testing.T) {
	r := newSessionRouter()
	token, err := utils.GenerateSessionToken(7, "user@example.com", time.Hour)
	require.NoError(t, err)

	w := getWhoami(t, r, token)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
	assert.Nil(t, responseSessionCookie(w), "a fresh token is not re-issued")
}

func TestSessionResolverAnonymousWithoutCookie(t *testing.T) {
	r := newSessionRouter()
	w := getWhoami(t, r, "")
	assert.Contains(t, w.Body.String(), `"user_id":0`)
}

func TestSessionResolverIgnoresGarbageToken(t *testing.T) {
	r := newSessionRouter()
	w := getWhoami(t, r, "not-a-jwt")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":0`)
}

func TestSessionResolverIgnoresExpiredToken(t *testing.T) {
	r := newSessionRouter()
	token := signSessionToken(t, 7, time.Now().Add(-2*time.Hour), time.Now().Add(-time.Hour))
	w := getWhoami(t, r, token)
	assert.Contains(t, w.Body.String(), `"user_id":0`)
}

func TestSessionResolverIgnoresRevokedToken(t *testing.T) {
	r := newSessionRouter()
	token, err := utils.GenerateSessionToken(7, "user@example.com", time.Hour)
	require.NoError(t, err)
	utils.RevokeSession(token, time.Now().Add(time.Hour))

	w := getWhoami(t, r, token)
	assert.Contains(t, w.Body.String(), `"user_id":0`)
}

func TestSessionResolverRefreshesPastHalfLife(t *testing.T) {
	r := newSessionRouter()
	// Issued 3h ago with a 4h lifetime: past the half-way point.
	token := signSessionToken(t, 7, time.Now().Add(-3*time.Hour), time.Now().Add(time.Hour))

	w := getWhoami(t, r, token)
	assert.Contains(t, w.Body.String(), `"user_id":7`)

	refreshed := responseSessionCookie(w)
	require.NotNil(t, refreshed, "a half-spent token is re-issued")
	assert.NotEqual(t, token, refreshed.Value)

	claims, err := utils.ParseSessionToken(refreshed.Value)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.False(t, utils.SessionNeedsRefresh(claims))
}

func responseSessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func TestSessionNeedsRefresh(t *testing.T) {
	fresh := utils.SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	assert.False(t, utils.SessionNeedsRefresh(&fresh))

	spent := utils.SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-45 * time.Minute)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
	}}
	assert.True(t, utils.SessionNeedsRefresh(&spent))

	missing := utils.SessionClaims{}
	assert.False(t, utils.SessionNeedsRefresh(&missing))
}
