package server

import (
	"github.com/gofiber/fiber/v2"
)

func registerStorageRoutes(r fiber.Router, objects ObjectReader) {
	r.Get("/public/:bucket/:key", func(c *fiber.Ctx) error {
		data, contentType, err := objects.OpenObject(c.Context(), c.Params("bucket"), c.Params("key"))
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, contentType)
		c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
		return c.Send(data)
	})
}
