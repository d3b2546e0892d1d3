package backend

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Vixs101/Framez/internal/apperr"
	"github.com/Vixs101/Framez/internal/remote"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const selectPosts = `
	SELECT p.id, p.user_id, p.caption, p.image_url, p.created_at, COALESCE(u.full_name, ''), COALESCE(u.avatar_url, '')
	FROM posts p
	LEFT JOIN users u ON u.id = p.user_id`

func (b *Backend) FetchProfile(ctx context.Context, userID string) (remote.ProfileRow, error) {
	if err := b.ready(); err != nil {
		return remote.ProfileRow{}, err
	}
	var p remote.ProfileRow
	row := b.db.QueryRow(ctx, `
		SELECT id, full_name, avatar_url, email, created_at
		FROM users WHERE id = $1
	`, userID)
	if err := row.Scan(&p.ID, &p.FullName, &p.AvatarURL, &p.Email, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return remote.ProfileRow{}, &apperr.NotFoundError{Resource: "profile", ID: userID}
		}
		return remote.ProfileRow{}, fmt.Errorf("fetch profile: %w", err)
	}
	return p, nil
}

func (b *Backend) QueryPosts(ctx context.Context, q remote.PostQuery) ([]remote.PostRow, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}

	sql := selectPosts
	var args []any
	if q.AuthorID != "" {
		sql += "\n\tWHERE p.user_id = $1"
		args = append(args, q.AuthorID)
	}
	if q.Order == remote.OldestFirst {
		sql += "\n\tORDER BY p.created_at ASC, p.id ASC"
	} else {
		sql += "\n\tORDER BY p.created_at DESC, p.id DESC"
	}

	rows, err := b.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []remote.PostRow
	for rows.Next() {
		var p remote.PostRow
		if err := rows.Scan(&p.ID, &p.UserID, &p.Caption, &p.ImageURL, &p.CreatedAt, &p.AuthorName, &p.AuthorAvatarURL); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	return posts, nil
}

// InsertPost stores the row and then announces it on the change channel.
// A failed announcement does not fail the insert. Inserting an id that
// already exists returns the stored row instead of a second post.
func (b *Backend) InsertPost(ctx context.Context, input remote.NewPost) (remote.PostRow, error) {
	if err := b.ready(); err != nil {
		return remote.PostRow{}, err
	}

	id := input.ID
	if id == "" {
		id = uuid.NewString()
	}

	var p remote.PostRow
	row := b.db.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO posts (id, user_id, caption, image_url)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (id) DO NOTHING
			RETURNING id, user_id, caption, image_url, created_at
		), stored AS (
			SELECT id, user_id, caption, image_url, created_at FROM inserted
			UNION ALL
			SELECT id, user_id, caption, image_url, created_at FROM posts
			WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM inserted)
		)
		SELECT s.id, s.user_id, s.caption, s.image_url, s.created_at, COALESCE(u.full_name, ''), COALESCE(u.avatar_url, '')
		FROM stored s
		LEFT JOIN users u ON u.id = s.user_id
	`, id, input.UserID, input.Caption, input.ImageURL)
	if err := row.Scan(&p.ID, &p.UserID, &p.Caption, &p.ImageURL, &p.CreatedAt, &p.AuthorName, &p.AuthorAvatarURL); err != nil {
		return remote.PostRow{}, fmt.Errorf("insert post: %w", err)
	}

	if err := b.publishInsert(ctx, remote.InsertEvent{
		Table: remote.PostsTable,
		ID:    p.ID,
		Record: map[string]any{
			"id":         p.ID,
			"user_id":    p.UserID,
			"caption":    p.Caption,
			"image_url":  p.ImageURL,
			"created_at": p.CreatedAt,
		},
	}); err != nil {
		log.Printf("publish post %s insert: %v", p.ID, err)
	}
	return p, nil
}
