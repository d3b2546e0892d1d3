// Package remote describes the hosted backend the client core talks to:
// credential exchange, row storage, object storage and a table change
// stream. The transport behind it is not this package's concern.
package remote

import (
	"context"
	"time"
)

const PostsTable = "posts"

type AuthSession struct {
	UserID      string    `json:"user_id"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ProfileRow struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// PostRow is a posts row joined with the author's display fields.
type PostRow struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Caption         *string   `json:"caption"`
	ImageURL        *string   `json:"image_url"`
	CreatedAt       time.Time `json:"created_at"`
	AuthorName      string    `json:"author_name"`
	AuthorAvatarURL string    `json:"author_avatar_url"`
}

// NewPost is a row to insert. A non-empty ID makes the insert idempotent:
// repeating it returns the row already stored under that id.
type NewPost struct {
	ID       string
	UserID   string
	Caption  *string
	ImageURL *string
}

type SortOrder int

const (
	NewestFirst SortOrder = iota
	OldestFirst
)

// PostQuery filters posts by author when AuthorID is set.
type PostQuery struct {
	AuthorID string
	Order    SortOrder
}

// InsertEvent is delivered for every row inserted into a subscribed table.
// Record may be partial and carries no joined fields.
type InsertEvent struct {
	Table  string         `json:"table"`
	ID     string         `json:"id"`
	Record map[string]any `json:"record,omitempty"`
}

type Subscription interface {
	Close() error
}

type Auth interface {
	Authenticate(ctx context.Context, email, password string) (AuthSession, error)
	Register(ctx context.Context, email, password, fullName string) (AuthSession, error)
	RevokeSession(ctx context.Context, accessToken string) error
	VerifySession(ctx context.Context, accessToken string) (string, error)
}

type Rows interface {
	FetchProfile(ctx context.Context, userID string) (ProfileRow, error)
	QueryPosts(ctx context.Context, q PostQuery) ([]PostRow, error)
	InsertPost(ctx context.Context, p NewPost) (PostRow, error)
}

type Objects interface {
	UploadObject(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

type Changes interface {
	SubscribeTableInserts(ctx context.Context, table string, onEvent func(InsertEvent)) (Subscription, error)
}

// Client is the full capability set of the backend.
type Client interface {
	Auth
	Rows
	Objects
	Changes
}
