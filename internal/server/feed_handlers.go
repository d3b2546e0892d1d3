package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/Vixs101/Framez/internal/feed"
)

func registerFeedRoutes(r fiber.Router, feeds *feed.Registry) {
	r.Get("/", func(c *fiber.Ctx) error {
		return readFeed(c, feeds.Global())
	})
	r.Post("/refresh", func(c *fiber.Ctx) error {
		return refreshFeed(c, feeds.Global())
	})
	r.Get("/authors/:id", func(c *fiber.Ctx) error {
		return readFeed(c, authorFeed(c, feeds))
	})
	r.Post("/authors/:id/refresh", func(c *fiber.Ctx) error {
		return refreshFeed(c, authorFeed(c, feeds))
	})
}

// authorFeed copies the id param since the registry keeps the scope.
func authorFeed(c *fiber.Ctx, feeds *feed.Registry) *feed.Synchronizer {
	return feeds.Get(feed.ByAuthor(utils.CopyString(c.Params("id"))))
}

// readFeed loads a feed the first time it is read and serves the current
// snapshot afterwards.
func readFeed(c *fiber.Ctx, synchronizer *feed.Synchronizer) error {
	if !synchronizer.State().Loaded {
		if err := synchronizer.Load(c.Context()); err != nil {
			return err
		}
	}
	return c.JSON(newFeedView(synchronizer.State()))
}

func refreshFeed(c *fiber.Ctx, synchronizer *feed.Synchronizer) error {
	if err := synchronizer.Load(c.Context()); err != nil {
		return err
	}
	return c.JSON(newFeedView(synchronizer.State()))
}
