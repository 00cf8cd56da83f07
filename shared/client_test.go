package shared

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identify(t *testing.T, headers map[string]string) string {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(ClientIdentifier(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestClientIdentifier(t *testing.T) {
	longUA := strings.Repeat("x", 80)

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "cloudflare header wins",
			headers: map[string]string{"CF-Connecting-IP": "198.51.100.1", "X-Forwarded-For": "10.0.0.1", "User-Agent": "ua"},
			want:    "198.51.100.1_ua",
		},
		{
			name:    "first forwarded hop",
			headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2", "User-Agent": "ua"},
			want:    "10.0.0.1_ua",
		},
		{
			name:    "real ip",
			headers: map[string]string{"X-Real-IP": "10.1.1.1"},
			want:    "10.1.1.1_unknown",
		},
		{
			name:    "multi-byte user agent cut on a character boundary",
			headers: map[string]string{"X-Real-IP": "10.1.1.1", "User-Agent": strings.Repeat("é", 60)},
			want:    "10.1.1.1_" + strings.Repeat("é", 50),
		},
		{
			name:    "user agent truncated",
			headers: map[string]string{"X-Real-IP": "10.1.1.1", "User-Agent": longUA},
			want:    "10.1.1.1_" + longUA[:50],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, identify(t, tt.headers))
		})
	}
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/limited", func(c *fiber.Ctx) error { return ErrRateLimited("Slow down.", 0) })
	app.Get("/boom", func(c *fiber.Ctx) error { return io.ErrUnexpectedEOF })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/limited", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"Slow down.","code":"RATE_LIMIT_EXCEEDED"}`, string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body, _ = io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"Internal Server Error","code":"INTERNAL_ERROR"}`, string(body))
}
