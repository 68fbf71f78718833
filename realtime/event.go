package realtime

import "time"

// Kind identifies the table a change stream covers.
type Kind string

const (
	// KindPosts streams change events on posts, optionally scoped to a category.
	KindPosts Kind = "posts"
	// KindComments streams change events on one post's comments, scoped by post id.
	KindComments Kind = "comments"
	// KindNotifications streams change events on one user's notifications, scoped by user id.
	KindNotifications Kind = "notifications"
)

// Event is an uninspected change ping. Consumers refetch; the payload carries
// no row data on purpose.
type Event struct {
	Kind  Kind      `json:"kind"`
	Scope string    `json:"scope,omitempty"`
	At    time.Time `json:"at"`
}

// ChannelName builds the pub/sub channel name for a (kind, scope) pair.
func ChannelName(kind Kind, scope string) string {
	if scope == "" {
		return "rt:" + string(kind)
	}
	return "rt:" + string(kind) + ":" + scope
}
