package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Vixs101/Framez/internal/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var errObjectExists = errors.New("object already exists")

// UploadObject never overwrites: a second upload under the same key fails.
func (b *Backend) UploadObject(ctx context.Context, key string, data []byte, contentType string) error {
	if err := b.ready(); err != nil {
		return err
	}
	if key == "" {
		return errors.New("object key required")
	}
	_, err := b.db.Exec(ctx, `
		INSERT INTO storage_objects (bucket, key, content_type, size, data)
		VALUES ($1,$2,$3,$4,$5)
	`, b.bucket, key, contentType, int64(len(data)), data)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return errObjectExists
		}
		return fmt.Errorf("store object: %w", err)
	}
	return nil
}

// PublicURL is a pure function of the key.
func (b *Backend) PublicURL(key string) string {
	return strings.TrimRight(b.publicURL, "/") + "/" + url.PathEscape(b.bucket) + "/" + url.PathEscape(key)
}

// OpenObject returns the stored payload and its content type.
func (b *Backend) OpenObject(ctx context.Context, bucket, key string) ([]byte, string, error) {
	if err := b.ready(); err != nil {
		return nil, "", err
	}
	var data []byte
	var contentType string
	row := b.db.QueryRow(ctx, `
		SELECT content_type, data FROM storage_objects
		WHERE bucket = $1 AND key = $2
	`, bucket, key)
	if err := row.Scan(&contentType, &data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", &apperr.NotFoundError{Resource: "object", ID: bucket + "/" + key}
		}
		return nil, "", fmt.Errorf("open object: %w", err)
	}
	return data, contentType, nil
}
