// Package upload turns a caption and an optional image into exactly one
// stored post: the image is uploaded first, then the row is inserted with
// the image's public URL.
package upload

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Vixs101/Framez/internal/apperr"
	"github.com/Vixs101/Framez/internal/observe"
	"github.com/Vixs101/Framez/internal/post"
	"github.com/Vixs101/Framez/internal/remote"
)

type Status string

const (
	StatusIdle           Status = "idle"
	StatusUploadingImage Status = "uploading_image"
	StatusInsertingRow   Status = "inserting_row"
	StatusDone           Status = "done"
	StatusFailed         Status = "failed"
)

const defaultExt = "jpg"

type Image struct {
	Data []byte
	Ext  string
}

// ImageFromFile takes the extension from a file name the way a picker
// reports it, defaulting to jpg.
func ImageFromFile(name string, data []byte) *Image {
	return &Image{Data: data, Ext: path.Ext(name)}
}

func (img *Image) ext() string {
	ext := strings.ToLower(strings.TrimPrefix(img.Ext, "."))
	if ext == "" {
		return defaultExt
	}
	return ext
}

func (img *Image) ContentType() string { return "image/" + img.ext() }

// Pending tracks one post through the pipeline. Once Key and ImageURL are
// set the object exists remotely and is never uploaded again, and the image
// bytes are released. ID is also the id of the created post. Read a Pending
// that may be running through Pipeline.Snapshot.
type Pending struct {
	ID       string     `json:"id"`
	AuthorID string     `json:"author_id"`
	Caption  string     `json:"caption,omitempty"`
	Image    *Image     `json:"-"`
	Status   Status     `json:"status"`
	Key      string     `json:"key,omitempty"`
	ImageURL string     `json:"image_url,omitempty"`
	Post     *post.Post `json:"post,omitempty"`
	Err      error      `json:"-"`
}

type Remote interface {
	remote.Objects
	InsertPost(ctx context.Context, p remote.NewPost) (remote.PostRow, error)
}

type Pipeline struct {
	remote Remote
	now    func() time.Time

	// mu guards running, version and every Pending field the pipeline writes
	mu      sync.Mutex
	running map[string]bool
	version uint64

	listeners observe.Listeners[Pending]
}

type Option func(*Pipeline)

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func New(r Remote, opts ...Option) *Pipeline {
	p := &Pipeline{
		remote:  r,
		now:     time.Now,
		running: map[string]bool{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Watch receives a copy of a pending upload on every status change.
func (p *Pipeline) Watch(fn func(Pending)) func() {
	return p.listeners.Add(fn)
}

// CreatePost validates the input before any network call and runs the
// pipeline to completion. The returned Pending is non-nil whenever
// validation passed, so a failed run can be handed to Resume.
func (p *Pipeline) CreatePost(ctx context.Context, authorID, caption string, img *Image) (*Pending, error) {
	caption = strings.TrimSpace(caption)
	if img != nil && len(img.Data) == 0 {
		img = nil
	}
	if caption == "" && img == nil {
		return nil, &apperr.EmptyPostError{}
	}
	if utf8.RuneCountInString(caption) > post.MaxCaptionLen {
		return nil, apperr.Validation("caption", fmt.Sprintf("Caption must be %d characters or less", post.MaxCaptionLen))
	}
	if authorID == "" {
		return nil, apperr.Validation("author", "You must be signed in to create a post")
	}

	pending := &Pending{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Caption:  caption,
		Image:    img,
		Status:   StatusIdle,
	}
	return pending, p.run(ctx, pending)
}

// Resume continues a failed upload. After an insert failure only the insert
// is retried, reusing the uploaded image. After an upload failure a new key
// is derived. A finished upload is left alone.
func (p *Pipeline) Resume(ctx context.Context, pending *Pending) error {
	if pending == nil {
		return apperr.Validation("pending", "nothing to resume")
	}
	return p.run(ctx, pending)
}

func (p *Pipeline) run(ctx context.Context, pending *Pending) error {
	p.mu.Lock()
	if p.running[pending.ID] {
		p.mu.Unlock()
		return &apperr.BusyError{Op: "upload", State: "running"}
	}
	if pending.Status == StatusDone {
		p.mu.Unlock()
		return nil
	}
	p.running[pending.ID] = true
	img, imageURL := pending.Image, pending.ImageURL
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.running, pending.ID)
		p.mu.Unlock()
	}()

	if img != nil && imageURL == "" {
		key := p.objectKey(pending.AuthorID, img.ext())
		p.set(pending, func(pe *Pending) {
			pe.Key = key
			pe.Status = StatusUploadingImage
			pe.Err = nil
		})

		if err := p.remote.UploadObject(ctx, key, img.Data, img.ContentType()); err != nil {
			uploadErr := &apperr.UploadError{Key: key, Err: err}
			p.set(pending, func(pe *Pending) {
				pe.Status = StatusFailed
				pe.Err = uploadErr
			})
			return uploadErr
		}
		imageURL = p.remote.PublicURL(key)
		// the object is stored, only the extension is still needed
		uploaded := &Image{Ext: img.Ext}
		p.set(pending, func(pe *Pending) {
			pe.ImageURL = imageURL
			pe.Image = uploaded
			pe.Status = StatusInsertingRow
			pe.Err = nil
		})
	} else {
		p.set(pending, func(pe *Pending) {
			pe.Status = StatusInsertingRow
			pe.Err = nil
		})
	}

	// the pending id doubles as the post id so a retried insert whose first
	// attempt did commit returns that row instead of adding a second one
	row, err := p.remote.InsertPost(ctx, remote.NewPost{
		ID:       pending.ID,
		UserID:   pending.AuthorID,
		Caption:  nullable(pending.Caption),
		ImageURL: nullable(imageURL),
	})
	if err != nil {
		insertErr := &apperr.InsertError{ImageURL: imageURL, Err: err}
		p.set(pending, func(pe *Pending) {
			pe.Status = StatusFailed
			pe.Err = insertErr
		})
		return insertErr
	}

	created := post.FromRow(row)
	p.set(pending, func(pe *Pending) {
		pe.Post = &created
		pe.Status = StatusDone
		pe.Err = nil
	})
	return nil
}

// Snapshot copies a pending upload while the pipeline may be running it.
func (p *Pipeline) Snapshot(pending *Pending) Pending {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *pending
}

func (p *Pipeline) objectKey(authorID, ext string) string {
	return fmt.Sprintf("%s-%d.%s", authorID, p.now().UnixNano(), ext)
}

// set applies fn under the pipeline lock and publishes the result.
func (p *Pipeline) set(pending *Pending, fn func(*Pending)) {
	p.mu.Lock()
	fn(pending)
	p.version++
	seq, snap := p.version, *pending
	p.mu.Unlock()
	p.listeners.Publish(seq, snap)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
