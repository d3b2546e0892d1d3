// Package post holds the client-side Post model and the feed ordering
// invariant: newest first, ties broken by id descending, ids unique.
package post

import (
	"sort"
	"time"

	"github.com/Vixs101/Framez/internal/remote"
)

const MaxCaptionLen = 500

type Author struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Caption   string    `json:"caption,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Author    Author    `json:"author"`
}

func FromRow(r remote.PostRow) Post {
	p := Post{
		ID:        r.ID,
		AuthorID:  r.UserID,
		CreatedAt: r.CreatedAt,
		Author: Author{
			ID:        r.UserID,
			Name:      r.AuthorName,
			AvatarURL: r.AuthorAvatarURL,
		},
	}
	if r.Caption != nil {
		p.Caption = *r.Caption
	}
	if r.ImageURL != nil {
		p.ImageURL = *r.ImageURL
	}
	return p
}

func FromRows(rows []remote.PostRow) []Post {
	posts := make([]Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, FromRow(r))
	}
	return posts
}

// Before reports whether a sorts ahead of b in a feed.
func Before(a, b Post) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// Normalize dedupes by id, keeping the last occurrence, and sorts the
// result into feed order. The input slice is not modified.
func Normalize(posts []Post) []Post {
	byID := make(map[string]int, len(posts))
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if i, ok := byID[p.ID]; ok {
			out[i] = p
			continue
		}
		byID[p.ID] = len(out)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return Before(out[i], out[j]) })
	return out
}
