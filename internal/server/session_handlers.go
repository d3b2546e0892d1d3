package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Vixs101/Framez/internal/session"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FullName        string `json:"full_name"`
}

func registerSessionRoutes(r fiber.Router, sessions *session.Manager) {
	r.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(newSessionView(sessions.Current()))
	})

	r.Post("/sign-in", func(c *fiber.Ctx) error {
		var req signInRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if err := sessions.SignIn(c.Context(), req.Email, req.Password); err != nil {
			return err
		}
		return c.JSON(newSessionView(sessions.Current()))
	})

	r.Post("/sign-up", func(c *fiber.Ctx) error {
		var req signUpRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if err := sessions.SignUp(c.Context(), req.Email, req.Password, req.ConfirmPassword, req.FullName); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(newSessionView(sessions.Current()))
	})

	r.Post("/sign-out", func(c *fiber.Ctx) error {
		if err := sessions.SignOut(c.Context()); err != nil {
			return err
		}
		return c.JSON(newSessionView(sessions.Current()))
	})

	r.Post("/profile/refresh", func(c *fiber.Ctx) error {
		if err := sessions.RefreshProfile(c.Context()); err != nil {
			return err
		}
		return c.JSON(newSessionView(sessions.Current()))
	})
}
