package serverutils

import (
	"errors"

	"notevault/pkg/fault"

	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Reason  string      `json:"reason,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) *Response {
	return &Response{
		Success: true,
		Code:    fiber.StatusOK,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) *Response {
	return &Response{
		Success: false,
		Code:    code,
		Message: message,
	}
}

// ErrorHandlerMiddleware renders errors returned by handlers further down
// the chain.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		status, reason := Classify(err)
		res := ErrorResponse(status, err.Error())
		res.Reason = reason
		return ctx.Status(status).JSON(res)
	}
}

// Classify maps an error onto an HTTP status and a stable reason string.
func Classify(err error) (int, string) {
	if kind, ok := fault.ValidationKindOf(err); ok {
		return fiber.StatusUnprocessableEntity, kind.String()
	}

	var fe *fiber.Error
	switch {
	case errors.Is(err, fault.ErrUnauthorized):
		return fiber.StatusForbidden, "Unauthorized"
	case errors.Is(err, fault.ErrNotFound):
		return fiber.StatusNotFound, "NotFound"
	case errors.Is(err, fault.ErrAddressCollision):
		return fiber.StatusConflict, "AddressCollision"
	case errors.Is(err, fault.ErrBusy):
		return fiber.StatusConflict, "Busy"
	case errors.Is(err, fault.ErrInvalidState):
		return fiber.StatusConflict, "InvalidState"
	case errors.Is(err, fault.ErrTransportFailed):
		return fiber.StatusBadGateway, "TransportFailed"
	case errors.Is(err, fault.ErrDecodeFailed):
		return fiber.StatusBadGateway, "DecodeFailed"
	case errors.As(err, &fe):
		return fe.Code, ""
	}
	return fiber.StatusInternalServerError, ""
}
