package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// StatusCoder is implemented by domain errors that know their HTTP status
type StatusCoder interface {
	StatusCode() int
}

// ErrorHandlerMiddleware turns any error returned further down the chain
// into a BaseResponse with a matching status code.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

func WriteError(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	var fiberErr *fiber.Error
	var coder StatusCoder
	fieldErrs := FieldErrors(err)

	switch {
	case errors.As(err, &coder):
		code = coder.StatusCode()
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	case fieldErrs != nil:
		code = fiber.StatusBadRequest
		message = "validation failed"
	}

	return ctx.Status(code).JSON(ErrorResponse(code, message, fieldErrs))
}
