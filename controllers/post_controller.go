package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tradenote/tradenote/models"
	"github.com/tradenote/tradenote/realtime"
	"github.com/tradenote/tradenote/utils"
)

// PostController manages community posts and their comments.
type PostController struct {
	db          *gorm.DB
	hub         *realtime.Hub
	provisioner *ProfileProvisioner
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, hub *realtime.Hub) *PostController {
	return &PostController{db: db, hub: hub, provisioner: NewProfileProvisioner(db)}
}

var validCategories = []string{"general", "strategies", "analysis", "psychology", "education"}

func isValidCategory(category string) bool {
	for _, c := range validCategories {
		if category == c {
			return true
		}
	}
	return false
}

// ListPosts returns a page of posts, pinned first then newest first, each with
// its author profile attached by a follow-up batched lookup. Public endpoint.
func (p *PostController) ListPosts(ctx *gin.Context) {
	category := strings.TrimSpace(ctx.Query("category"))
	limit := parseLimit(ctx.Query("limit"), 20, 100)
	offset := parseOffset(ctx.Query("offset"))

	query := p.db.Order("pinned DESC, created_at DESC")
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var posts []models.Post
	if err := query.Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, err.Error())
		return
	}

	p.attachAuthorProfiles(posts)

	utils.Success(ctx, gin.H{
		"posts":  posts,
		"limit":  limit,
		"offset": offset,
	})
}

// attachAuthorProfiles joins author profiles onto posts in one batched lookup.
// Posts whose author has no profile row keep a nil profile.
func (p *PostController) attachAuthorProfiles(posts []models.Post) {
	if len(posts) == 0 {
		return
	}
	ids := make([]uint, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.UserID)
	}
	briefs := profileBriefsByID(p.db, ids)
	for i := range posts {
		if brief, ok := briefs[posts[i].UserID]; ok {
			b := brief
			posts[i].Profile = &b
		}
	}
}

// CreatePost persists a new post for the authenticated user. The author's
// profile is provisioned first and a provisioning failure fails the request;
// profile-ensure, insert and profile re-fetch remain three independent store
// calls with no cross-call transaction.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Category string `json:"category"`
		Title    string `json:"title"`
		Content  string `json:"content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	category := strings.TrimSpace(req.Category)
	title := utils.Sanitize(strings.TrimSpace(req.Title))
	content := utils.Sanitize(req.Content)
	if category == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "category is required")
		return
	}
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "title is required")
		return
	}
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "content is required")
		return
	}
	if !isValidCategory(category) {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid category")
		return
	}

	if _, err := p.provisioner.Ensure(userID, getUserEmail(ctx)); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, fmt.Sprintf("failed to provision profile: %v", err))
		return
	}

	post := models.Post{
		UserID:   userID,
		Category: category,
		Title:    title,
		Content:  content,
	}
	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, err.Error())
		return
	}

	// Re-fetch rather than reuse the provisioned struct; a missing row here
	// is tolerated as a nil profile.
	var author models.Profile
	if err := p.db.First(&author, userID).Error; err == nil {
		brief := author.Brief()
		post.Profile = &brief
	}

	p.hub.Publish(ctx.Request.Context(), realtime.KindPosts, "")
	p.hub.Publish(ctx.Request.Context(), realtime.KindPosts, post.Category)

	utils.Created(ctx, gin.H{"post": post})
}

// GetPost returns a single post with its comments, author profiles attached.
// Public endpoint.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID := ctx.Param("id")

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, err.Error())
		return
	}

	comments, err := p.loadComments(post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, err.Error())
		return
	}

	briefs := profileBriefsByID(p.db, []uint{post.UserID})
	if brief, ok := briefs[post.UserID]; ok {
		post.Profile = &brief
	}

	utils.Success(ctx, gin.H{"post": post, "comments": comments})
}

// ListComments returns a post's comments oldest first. Public endpoint.
func (p *PostController) ListComments(ctx *gin.Context) {
	postID := ctx.Param("id")

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50025, err.Error())
		return
	}

	comments, err := p.loadComments(post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, err.Error())
		return
	}

	utils.Success(ctx, gin.H{"comments": comments})
}

func (p *PostController) loadComments(postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	if err := p.db.Where("post_id = ?", postID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(comments))
	for _, comment := range comments {
		ids = append(ids, comment.UserID)
	}
	briefs := profileBriefsByID(p.db, ids)
	for i := range comments {
		if brief, ok := briefs[comments[i].UserID]; ok {
			b := brief
			comments[i].Profile = &b
		}
	}
	return comments, nil
}

// CreateComment adds a comment to a post and notifies the post author.
func (p *PostController) CreateComment(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40025, "invalid request payload")
		return
	}

	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40026, "content is required")
		return
	}

	var post models.Post
	if err := p.db.First(&post, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50027, err.Error())
		return
	}

	if _, err := p.provisioner.Ensure(userID, getUserEmail(ctx)); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, fmt.Sprintf("failed to provision profile: %v", err))
		return
	}

	comment := models.Comment{
		PostID:  post.ID,
		UserID:  userID,
		Content: content,
	}
	if err := p.db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50029, err.Error())
		return
	}

	briefs := profileBriefsByID(p.db, []uint{userID})
	if brief, ok := briefs[userID]; ok {
		comment.Profile = &brief
	}

	reqCtx := ctx.Request.Context()
	p.hub.Publish(reqCtx, realtime.KindComments, strconv.Itoa(int(post.ID)))

	// Best effort: a failed notification insert never fails the comment.
	if post.UserID != userID {
		notification := models.Notification{
			RecipientID:   post.UserID,
			Type:          models.NotificationTypeComment,
			RelatedUserID: &comment.UserID,
			RelatedPostID: &post.ID,
		}
		if err := p.db.Create(&notification).Error; err != nil {
			utils.Sugar.Warnf("failed to create comment notification for user %d: %v", post.UserID, err)
		} else {
			p.hub.Publish(reqCtx, realtime.KindNotifications, strconv.Itoa(int(post.UserID)))
		}
	}

	utils.Created(ctx, gin.H{"comment": comment})
}
