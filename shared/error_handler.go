package shared

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

var statusCodes = map[int]string{
	http.StatusBadRequest:          ErrCodeValidation,
	http.StatusUnauthorized:        ErrCodeAuthentication,
	http.StatusForbidden:           ErrCodeAuthorization,
	http.StatusNotFound:            ErrCodeNotFound,
	http.StatusMethodNotAllowed:    ErrCodeNotFound,
	http.StatusConflict:            ErrCodeConflict,
	http.StatusTooManyRequests:     ErrCodeRateLimit,
	http.StatusInternalServerError: ErrCodeInternal,
}

// ErrorHandler translates every error returned by a handler into the JSON error envelope.
// Unexpected errors are logged in full and only described to the caller outside production.
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID, _ := c.Locals(RequestID).(string)

		resp := ErrorResponse{
			Timestamp: Timestamp(),
			RequestID: requestID,
		}
		status := http.StatusInternalServerError

		var fiberErr *fiber.Error
		if appErr, ok := GetAppError(err); ok {
			status = appErr.StatusCode
			resp.Code = appErr.Code
			resp.Message = appErr.Message
			resp.Details = appErr.Details

			if status >= http.StatusInternalServerError {
				logUnexpected(c, requestID, err)
				if production {
					resp.Details = nil
				} else if appErr.Err != nil {
					resp.Details = appErr.Err.Error()
				}
			}
		} else if errors.As(err, &fiberErr) {
			status = fiberErr.Code
			resp.Message = fiberErr.Message
			resp.Code = codeForStatus(status)
		} else {
			logUnexpected(c, requestID, err)
			resp.Code = ErrCodeInternal
			resp.Message = "Internal Server Error"
			if !production {
				resp.Details = err.Error()
			}
		}

		resp.Error = http.StatusText(status)
		return c.Status(status).JSON(resp)
	}
}

func codeForStatus(status int) string {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	if status >= http.StatusInternalServerError {
		return ErrCodeInternal
	}
	return ErrCodeValidation
}

func logUnexpected(c *fiber.Ctx, requestID string, err error) {
	log.Error().
		Err(err).
		Str("request_id", requestID).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("Unhandled error")
}
