package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Vixs101/Framez/internal/prefs"
)

func registerPrefsRoutes(r fiber.Router, store prefs.Store) {
	r.Get("/theme", func(c *fiber.Ctx) error {
		theme, err := prefs.LoadTheme(c.Context(), store)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"theme": theme,
			"dark":  theme.Dark(c.QueryBool("system_dark")),
		})
	})

	r.Put("/theme", func(c *fiber.Ctx) error {
		var body struct {
			Theme prefs.Theme `json:"theme"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if err := prefs.SaveTheme(c.Context(), store, body.Theme); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"theme": body.Theme})
	})
}
