package server

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/Vixs101/Framez/internal/apperr"
)

type errorBody struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
	Field   string      `json:"field,omitempty"`
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindEmptyPost, apperr.KindSignup:
		return fiber.StatusBadRequest
	case apperr.KindCredential, apperr.KindAuth:
		return fiber.StatusUnauthorized
	case apperr.KindBusy:
		return fiber.StatusConflict
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindFetch, apperr.KindUpload, apperr.KindInsert:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func newErrorBody(err error) *errorBody {
	if err == nil {
		return nil
	}
	body := &errorBody{Kind: apperr.KindOf(err), Message: err.Error()}
	var validation *apperr.ValidationError
	if errors.As(err, &validation) {
		body.Field = validation.Field
		body.Message = validation.Message
	}
	return body
}

// errorHandler renders core errors as {"error": {...}} with a status
// derived from their kind. fiber errors keep their own code.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": errorBody{Kind: kindForStatus(fe.Code), Message: fe.Message}})
	}

	body := newErrorBody(err)
	status := statusFor(body.Kind)
	if status >= fiber.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{"error": body})
}

func kindForStatus(code int) apperr.Kind {
	switch code {
	case fiber.StatusBadRequest:
		return apperr.KindValidation
	case fiber.StatusUnauthorized:
		return apperr.KindAuth
	case fiber.StatusNotFound:
		return apperr.KindNotFound
	case fiber.StatusConflict:
		return apperr.KindBusy
	}
	return apperr.KindInternal
}
