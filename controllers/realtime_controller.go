package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tradenote/tradenote/realtime"
	"github.com/tradenote/tradenote/utils"
)

// RealtimeController exposes change streams over SSE. One subscription per
// request; the hub entry is released when the client disconnects, so channel
// lifetime matches view lifetime.
type RealtimeController struct {
	hub *realtime.Hub
}

// NewRealtimeController creates a new RealtimeController instance.
func NewRealtimeController(hub *realtime.Hub) *RealtimeController {
	return &RealtimeController{hub: hub}
}

// StreamPosts streams change pings for posts, optionally scoped to a category.
func (r *RealtimeController) StreamPosts(ctx *gin.Context) {
	r.stream(ctx, realtime.KindPosts, strings.TrimSpace(ctx.Query("category")))
}

// StreamComments streams change pings for one post's comments.
func (r *RealtimeController) StreamComments(ctx *gin.Context) {
	r.stream(ctx, realtime.KindComments, ctx.Param("id"))
}

// StreamNotifications streams change pings for the caller's notifications.
// There is no anonymous variant: without a user there is nothing to scope to.
func (r *RealtimeController) StreamNotifications(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40150, "unauthorized")
		return
	}
	r.stream(ctx, realtime.KindNotifications, strconv.Itoa(int(userID)))
}

func (r *RealtimeController) stream(ctx *gin.Context, kind realtime.Kind, scope string) {
	sub := r.hub.Subscribe(kind, scope)
	defer sub.Close()

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")
	ctx.Writer.Flush()

	// Heartbeat keeps intermediaries from closing an idle stream.
	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	clientGone := ctx.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case <-heartbeat.C:
			ctx.SSEvent("ping", time.Now().Unix())
			ctx.Writer.Flush()
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			ctx.SSEvent("change", ev)
			ctx.Writer.Flush()
		}
	}
}
