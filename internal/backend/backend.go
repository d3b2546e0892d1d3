// Package backend implements remote.Client directly against the Postgres
// row store and the Redis change channel.
package backend

import (
	"errors"

	"github.com/Vixs101/Framez/internal/db"
	"github.com/Vixs101/Framez/internal/remote"

	"github.com/redis/go-redis/v9"
)

var (
	errDatabaseUnavailable = errors.New("backend: database unavailable")
	errRealtimeUnavailable = errors.New("backend: realtime unavailable")
)

type Options struct {
	JWTSecret string
	Bucket    string
	PublicURL string
}

type Backend struct {
	db        db.Querier
	redis     *redis.Client
	secret    []byte
	bucket    string
	publicURL string
}

var _ remote.Client = (*Backend)(nil)

// New accepts a nil querier or redis client; the affected calls then fail
// instead of panicking.
func New(q db.Querier, redisClient *redis.Client, opts Options) *Backend {
	bucket := opts.Bucket
	if bucket == "" {
		bucket = "post-images"
	}
	return &Backend{
		db:        q,
		redis:     redisClient,
		secret:    []byte(opts.JWTSecret),
		bucket:    bucket,
		publicURL: opts.PublicURL,
	}
}

func (b *Backend) Bucket() string { return b.bucket }

func (b *Backend) ready() error {
	if b.db == nil {
		return errDatabaseUnavailable
	}
	return nil
}
