package shared

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Error     string      `json:"error"`
	Message   string      `json:"message"`
	Code      string      `json:"code"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp string      `json:"timestamp"`
	RequestID string      `json:"requestId,omitempty"`
}

// JSONAPI is the sonic configuration used by the HTTP server and analytics payloads.
var JSONAPI = sonic.Config{
	UseNumber:            true,
	EscapeHTML:           false,
	SortMapKeys:          false,
	CompactMarshaler:     true,
	NoQuoteTextMarshaler: true,
	NoNullSliceOrMap:     true,
}.Froze()

func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func ResponseJSON(c *fiber.Ctx, httpCode int, message string, data interface{}) error {
	return c.Status(httpCode).JSON(Response{
		Success: httpCode < 400,
		Code:    httpCode,
		Message: message,
		Data:    data,
	})
}

func ResponseOK(c *fiber.Ctx, data interface{}) error {
	return ResponseJSON(c, fiber.StatusOK, "Success", data)
}

func ResponseCreated(c *fiber.Ctx, data interface{}) error {
	return ResponseJSON(c, fiber.StatusCreated, "Created", data)
}

func ResponseMessage(c *fiber.Ctx, message string) error {
	return ResponseJSON(c, fiber.StatusOK, message, nil)
}
