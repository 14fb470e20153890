package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"llm-chat-be/internal/dto"
	"llm-chat-be/internal/pkg/apperror"
	"llm-chat-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger.NewNopLogger())})
	app.Get("/whoami", JwtMiddleware(testSecret), func(ctx *fiber.Ctx) error {
		return ctx.SendString(Owner(ctx))
	})
	return app
}

func TestJwtMiddleware(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantOwner  string
	}{
		{
			name:       "email claim",
			header:     "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"email": "ada@example.com", "sub": "42", "exp": exp}),
			wantStatus: http.StatusOK,
			wantOwner:  "ada@example.com",
		},
		{
			name:       "sub fallback",
			header:     "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "user-42", "exp": exp}),
			wantStatus: http.StatusOK,
			wantOwner:  "user-42",
		},
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			header:     "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"email": "ada@example.com"}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired",
			header:     "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"email": "ada@example.com", "exp": time.Now().Add(-time.Hour).Unix()}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no identity",
			header:     "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"exp": exp}),
			wantStatus: http.StatusUnauthorized,
		},
	}

	app := newApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantOwner, string(body))
				return
			}

			var errBody dto.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &errBody))
			assert.Equal(t, string(apperror.CodeUnauthorized), errBody.Error)
			assert.False(t, errBody.Success)
		})
	}
}

func TestErrorHandlerHidesCauses(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger.NewNopLogger())})
	app.Get("/store", func(ctx *fiber.Ctx) error {
		return apperror.Store(errors.New("pq: password authentication failed"))
	})
	app.Get("/mismatch", func(ctx *fiber.Ctx) error {
		return apperror.ErrSessionOwnerMismatch
	})
	app.Get("/plain", func(ctx *fiber.Ctx) error {
		return errors.New("boom")
	})

	tests := []struct {
		path       string
		wantStatus int
		wantCode   string
		retryable  bool
	}{
		{"/store", http.StatusServiceUnavailable, "STORE_UNAVAILABLE", true},
		{"/mismatch", http.StatusNotFound, "SESSION_NOT_FOUND", false},
		{"/plain", http.StatusInternalServerError, "INTERNAL_ERROR", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			var errBody dto.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &errBody))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCode, errBody.Error)
			assert.Equal(t, tt.retryable, errBody.Retryable)
			assert.NotContains(t, string(body), "password")
			assert.NotContains(t, string(body), "boom")
		})
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     dto.GenerateRequest
		wantErr bool
	}{
		{"message only", dto.GenerateRequest{SessionId: "s1", Message: "hi"}, false},
		{"code only", dto.GenerateRequest{SessionId: "s1", Code: "let x"}, false},
		{"missing session", dto.GenerateRequest{Message: "hi"}, true},
		{"no content", dto.GenerateRequest{SessionId: "s1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperror.ErrInvalidRequest)
		})
	}
}
