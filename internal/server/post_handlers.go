package server

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/valyala/fasthttp"

	"github.com/Vixs101/Framez/internal/apperr"
	"github.com/Vixs101/Framez/internal/upload"
)

const maxImageBytes = 10 << 20

func registerPostRoutes(r fiber.Router, uploads *upload.Pipeline, pending *pendingUploads, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		img, err := formImage(c)
		if err != nil {
			return err
		}

		p, err := uploads.CreatePost(c.Context(), userID(c), utils.CopyString(c.FormValue("caption")), img)
		if p == nil {
			return err
		}
		if err != nil {
			pending.put(p)
			return c.Status(statusFor(apperr.KindOf(err))).JSON(fiber.Map{
				"error":   newErrorBody(err),
				"pending": newPendingView(uploads.Snapshot(p)),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(newPendingView(uploads.Snapshot(p)))
	})

	r.Post("/pending/:id/retry", authMiddleware, func(c *fiber.Ctx) error {
		id := c.Params("id")
		p, ok := pending.get(id)
		if !ok || p.AuthorID != userID(c) {
			return &apperr.NotFoundError{Resource: "pending upload", ID: id}
		}

		if err := uploads.Resume(c.Context(), p); err != nil {
			return c.Status(statusFor(apperr.KindOf(err))).JSON(fiber.Map{
				"error":   newErrorBody(err),
				"pending": newPendingView(uploads.Snapshot(p)),
			})
		}
		pending.remove(id)
		return c.JSON(newPendingView(uploads.Snapshot(p)))
	})
}

// formImage reads the optional multipart "image" field. A missing field or
// a body that is not multipart means no image; a body that fails to parse
// is rejected.
func formImage(c *fiber.Ctx) (*upload.Image, error) {
	fh, err := c.FormFile("image")
	switch {
	case errors.Is(err, fasthttp.ErrMissingFile), errors.Is(err, fasthttp.ErrNoMultipartForm):
		return nil, nil
	case err != nil:
		return nil, apperr.Validation("image", "Malformed upload")
	case fh == nil:
		return nil, nil
	}
	if fh.Size > maxImageBytes {
		return nil, apperr.Validation("image", "Image must be 10MB or smaller")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "unreadable image")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "unreadable image")
	}
	return upload.ImageFromFile(utils.CopyString(fh.Filename), data), nil
}
