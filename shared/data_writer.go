package shared

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// ErrorBody is the wire shape of every failed response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

var jsonAPI = sonic.Config{
	UseNumber:            true,
	EscapeHTML:           false,
	SortMapKeys:          false,
	CompactMarshaler:     true,
	NoQuoteTextMarshaler: true,
	NoNullSliceOrMap:     true,
}.Froze()

var internalErrorResponse = mustMarshal(ErrorBody{Error: "Internal Server Error", Code: CodeInternal})

func mustMarshal(v interface{}) []byte {
	b, _ := jsonAPI.Marshal(v)
	return b
}

// Marshal and Unmarshal are plugged into fiber as its JSON codec.
func Marshal(v interface{}) ([]byte, error) {
	return jsonAPI.Marshal(v)
}

func Unmarshal(data []byte, v interface{}) error {
	return jsonAPI.Unmarshal(data, v)
}

func ResponseJSON(c *fiber.Ctx, httpCode int, body interface{}) error {
	b, err := jsonAPI.Marshal(body)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(httpCode).Send(b)
}

func ResponseOK(c *fiber.Ctx, body interface{}) error {
	return ResponseJSON(c, http.StatusOK, body)
}

func ResponseError(c *fiber.Ctx, appErr *AppError) error {
	if appErr.StatusCode == http.StatusTooManyRequests {
		c.Set(fiber.HeaderRetryAfter, appErr.RetryAfterHeader())
	}
	return ResponseJSON(c, appErr.StatusCode, ErrorBody{Error: appErr.Message, Code: appErr.Code})
}

func ResponseInternalError(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(http.StatusInternalServerError).Send(internalErrorResponse)
}

// ErrorHandler renders errors returned from handlers. Anything that is not an
// AppError is logged and reported as a bare 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := GetAppError(err); ok {
		if appErr.StatusCode >= http.StatusInternalServerError {
			log.WithFields(log.Fields{
				"path":   c.Path(),
				"status": appErr.StatusCode,
				"code":   appErr.Code,
			}).WithError(err).Error("Request failed")
		}
		return ResponseError(c, appErr)
	}

	if fiberErr, ok := err.(*fiber.Error); ok {
		return ResponseJSON(c, fiberErr.Code, ErrorBody{Error: fiberErr.Message})
	}

	log.WithField("path", c.Path()).WithError(err).Error("Unhandled request error")
	return ResponseInternalError(c)
}
