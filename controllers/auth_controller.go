package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tradenote/tradenote/middleware"
	"github.com/tradenote/tradenote/models"
	"github.com/tradenote/tradenote/utils"
)

// AuthController implements the session-issuing collaborator: registration,
// login, logout and the current-user lookup. Sessions are signed cookies;
// logout revokes the token until its natural expiry.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Register creates a user and issues a session cookie.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "email and password are required")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(email, "@") {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid email address")
		return
	}
	if len(req.Password) < 8 {
		utils.Error(ctx, http.StatusBadRequest, 40012, "password must be at least 8 characters")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to hash password")
		return
	}

	user := models.User{Email: email, PasswordHash: hash}
	if err := a.db.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			utils.Error(ctx, http.StatusBadRequest, 40013, "email already registered")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50011, err.Error())
		return
	}

	middleware.IssueSessionCookie(ctx, user.ID, user.Email)
	utils.Created(ctx, gin.H{"user": gin.H{"id": user.ID, "email": user.Email}})
}

// Login verifies credentials and issues a session cookie.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40014, "email and password are required")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid credentials")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, err.Error())
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid credentials")
		return
	}

	middleware.IssueSessionCookie(ctx, user.ID, user.Email)
	utils.Success(ctx, gin.H{"user": gin.H{"id": user.ID, "email": user.Email}})
}

// Logout revokes the current session token and clears the cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	if raw, exists := ctx.Get(middleware.ContextTokenKey); exists {
		if token, ok := raw.(string); ok && token != "" {
			if claims, err := utils.ParseSessionToken(token); err == nil && claims.ExpiresAt != nil {
				utils.RevokeSession(token, claims.ExpiresAt.Time)
			}
		}
	}
	middleware.ClearSessionCookie(ctx)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user and their profile when provisioned.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40103, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40407, "user not found")
		return
	}

	var profile *models.Profile
	var p models.Profile
	if err := a.db.First(&p, userID).Error; err == nil {
		profile = &p
	}

	utils.Success(ctx, gin.H{
		"user":    gin.H{"id": user.ID, "email": user.Email, "created_at": user.CreatedAt},
		"profile": profile,
	})
}
