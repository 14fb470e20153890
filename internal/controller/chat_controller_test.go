package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"llm-chat-be/internal/dto"
	"llm-chat-be/internal/entity"
	"llm-chat-be/internal/pkg/apperror"
	"llm-chat-be/internal/pkg/logger"
	"llm-chat-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "controller-secret"

type fakeChatService struct {
	owner  string
	req    *dto.GenerateRequest
	result *dto.CompletionResult
	err    error
}

func (f *fakeChatService) Complete(ctx context.Context, owner, sessionId, message string) (*dto.CompletionResult, error) {
	return f.result, f.err
}

func (f *fakeChatService) Generate(ctx context.Context, owner string, req *dto.GenerateRequest) (*dto.CompletionResult, error) {
	f.owner, f.req = owner, req
	return f.result, f.err
}

type fakeAdmissionService struct {
	endOwner string
	endId    string
	err      error
}

func (f *fakeAdmissionService) Admit(ctx context.Context, owner, sessionId string) (*entity.ChatSession, error) {
	return nil, nil
}

func (f *fakeAdmissionService) End(ctx context.Context, owner, sessionId string) error {
	f.endOwner, f.endId = owner, sessionId
	return f.err
}

type fakeReclaimerService struct {
	threshold time.Duration
	result    *dto.SweepResult
}

func (f *fakeReclaimerService) Sweep(ctx context.Context, threshold time.Duration) (*dto.SweepResult, error) {
	f.threshold = threshold
	return f.result, nil
}

type harness struct {
	app       *fiber.App
	chat      *fakeChatService
	admission *fakeAdmissionService
	reclaimer *fakeReclaimerService
}

func newHarness(operatorToken string) *harness {
	h := &harness{
		chat:      &fakeChatService{},
		admission: &fakeAdmissionService{},
		reclaimer: &fakeReclaimerService{result: &dto.SweepResult{Scanned: 3, Ended: []string{"s-1"}, Anomalies: []string{}}},
	}
	h.app = fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler(logger.NewNopLogger())})

	c := NewChatController(h.chat, h.admission, h.reclaimer, 2*time.Minute, operatorToken)
	c.RegisterRoutes(h.app.Group("/api"), serverutils.JwtMiddleware(secret))
	c.RegisterOperatorRoutes(h.app)
	return h
}

func bearer(t *testing.T, email string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func generateRequest(t *testing.T, auth string, payload interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/chat/v1/generate", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req
}

func TestGenerate(t *testing.T) {
	h := newHarness("")
	h.chat.result = &dto.CompletionResult{Reply: "```js\nx\n```", Codes: []string{"x\n"}}

	status, body := do(t, h.app, generateRequest(t, bearer(t, "ada@example.com"), map[string]string{
		"session_id": "s-1",
		"message":    "hi",
	}))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "```js\nx\n```", body["raw"])
	assert.Equal(t, []interface{}{"x\n"}, body["codes"])
	assert.Equal(t, "ada@example.com", h.chat.owner)
	assert.Equal(t, "s-1", h.chat.req.SessionId)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name       string
		auth       bool
		payload    map[string]string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{name: "no token", payload: map[string]string{"session_id": "s-1", "message": "hi"}, wantStatus: 401, wantCode: "UNAUTHORIZED"},
		{name: "missing session id", auth: true, payload: map[string]string{"message": "hi"}, wantStatus: 400, wantCode: "INVALID_REQUEST"},
		{name: "limit", auth: true, payload: map[string]string{"session_id": "s-2", "message": "hi"}, serviceErr: apperror.ErrSessionLimitExceeded, wantStatus: 409, wantCode: "SESSION_LIMIT_EXCEEDED"},
		{name: "foreign session", auth: true, payload: map[string]string{"session_id": "s-1", "message": "hi"}, serviceErr: apperror.ErrSessionOwnerMismatch, wantStatus: 404, wantCode: "SESSION_NOT_FOUND"},
		{name: "provider", auth: true, payload: map[string]string{"session_id": "s-1", "message": "hi"}, serviceErr: apperror.ErrProviderFailure, wantStatus: 502, wantCode: "PROVIDER_FAILURE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness("")
			h.chat.err = tt.serviceErr

			auth := ""
			if tt.auth {
				auth = bearer(t, "ada@example.com")
			}
			status, body := do(t, h.app, generateRequest(t, auth, tt.payload))

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantCode, body["error"])
		})
	}
}

func TestEndSession(t *testing.T) {
	h := newHarness("")
	req := httptest.NewRequest(http.MethodPost, "/api/chat/v1/sessions/s-1/end", nil)
	req.Header.Set("Authorization", bearer(t, "ada@example.com"))

	status, body := do(t, h.app, req)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ada@example.com", h.admission.endOwner)
	assert.Equal(t, "s-1", h.admission.endId)
}

func TestOperatorEndSession(t *testing.T) {
	t.Run("ends without owner check", func(t *testing.T) {
		h := newHarness("")
		status, body := do(t, h.app, httptest.NewRequest(http.MethodGet, "/end-session?session_id=s-1", nil))

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "", h.admission.endOwner)
	})

	t.Run("unknown session", func(t *testing.T) {
		h := newHarness("")
		h.admission.err = apperror.ErrSessionNotFound
		status, body := do(t, h.app, httptest.NewRequest(http.MethodGet, "/end-session?session_id=nope", nil))

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, false, body["success"])
	})
}

func TestEndStaleSessions(t *testing.T) {
	t.Run("open when no token configured", func(t *testing.T) {
		h := newHarness("")
		status, body := do(t, h.app, httptest.NewRequest(http.MethodGet, "/end-stale-sessions", nil))

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, float64(3), body["scanned"])
		assert.Equal(t, []interface{}{"s-1"}, body["ended"])
		assert.Equal(t, 2*time.Minute, h.reclaimer.threshold)
	})

	t.Run("token required", func(t *testing.T) {
		h := newHarness("s3cret")

		status, _ := do(t, h.app, httptest.NewRequest(http.MethodGet, "/end-stale-sessions", nil))
		assert.Equal(t, http.StatusUnauthorized, status)

		req := httptest.NewRequest(http.MethodGet, "/end-stale-sessions", nil)
		req.Header.Set(ReclaimerTokenHeader, "s3cret")
		status, _ = do(t, h.app, req)
		assert.Equal(t, http.StatusOK, status)
	})
}
