// internal/telegram/client_test.go
package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealwatch/internal/common/errors"
)

// ==========================
// Test Helper Functions
// ==========================

func newBotServer(t *testing.T, handler func(method string, body map[string]interface{}) (int, string)) (*httptest.Server, *Client) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]interface{}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		// Path shape is /bot<token>/<method>.
		require.Contains(t, r.URL.Path, "/bottest-token/")
		method := r.URL.Path[len("/bottest-token/"):]

		status, resp := handler(method, body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))

	client := NewClientWithBaseURL("test-token", srv.URL, 5*time.Second)
	return srv, client
}

// ==========================
// SendMessage Tests
// ==========================

func TestClient_SendMessage_Success(t *testing.T) {
	var gotBody map[string]interface{}
	srv, client := newBotServer(t, func(method string, body map[string]interface{}) (int, string) {
		require.Equal(t, "sendMessage", method)
		gotBody = body
		return http.StatusOK, `{"ok":true,"result":{"message_id":1}}`
	})
	defer srv.Close()

	err := client.SendMessage(context.Background(), SendMessageRequest{
		ChatID:                "-100123",
		Text:                  "<b>deal</b>",
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "-100123", gotBody["chat_id"])
	assert.Equal(t, "<b>deal</b>", gotBody["text"])
	assert.Equal(t, "HTML", gotBody["parse_mode"])
	assert.Equal(t, true, gotBody["disable_web_page_preview"])
}

func TestClient_SendMessage_APIError(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		response      string
		wantRetryable bool
	}{
		{
			name:          "chat not found is not retryable",
			status:        http.StatusBadRequest,
			response:      `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`,
			wantRetryable: false,
		},
		{
			name:          "unauthorized is not retryable",
			status:        http.StatusUnauthorized,
			response:      `{"ok":false,"error_code":401,"description":"Unauthorized"}`,
			wantRetryable: false,
		},
		{
			name:          "flood control is retryable",
			status:        http.StatusTooManyRequests,
			response:      `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 5"}`,
			wantRetryable: true,
		},
		{
			name:          "server error is retryable",
			status:        http.StatusInternalServerError,
			response:      `{"ok":false,"error_code":500,"description":"Internal Server Error"}`,
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, client := newBotServer(t, func(method string, body map[string]interface{}) (int, string) {
				return tt.status, tt.response
			})
			defer srv.Close()

			err := client.SendMessage(context.Background(), SendMessageRequest{ChatID: "-100123", Text: "hi"})
			require.Error(t, err)

			stdErr := errors.Normalize(err)
			assert.Equal(t, errors.ErrCodeNotificationSendFailed, stdErr.Code)
			assert.Equal(t, tt.wantRetryable, stdErr.Retryable)
		})
	}
}

func TestClient_SendMessage_MalformedResponse(t *testing.T) {
	srv, client := newBotServer(t, func(method string, body map[string]interface{}) (int, string) {
		return http.StatusOK, `<html>gateway error</html>`
	})
	defer srv.Close()

	err := client.SendMessage(context.Background(), SendMessageRequest{ChatID: "-100123", Text: "hi"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, errors.Normalize(err).Code)
}

func TestClient_SendMessage_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("test-token", srv.URL, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := client.SendMessage(ctx, SendMessageRequest{ChatID: "-100123", Text: "hi"})
	require.Error(t, err)

	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeTimeout, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

// ==========================
// GetMe Tests
// ==========================

func TestClient_GetMe_Success(t *testing.T) {
	srv, client := newBotServer(t, func(method string, body map[string]interface{}) (int, string) {
		require.Equal(t, "getMe", method)
		return http.StatusOK, `{"ok":true,"result":{"id":42,"is_bot":true,"username":"dealwatch_bot"}}`
	})
	defer srv.Close()

	info, err := client.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), info.ID)
	assert.True(t, info.IsBot)
	assert.Equal(t, "dealwatch_bot", info.Username)
}

func TestClient_GetMe_InvalidToken(t *testing.T) {
	srv, client := newBotServer(t, func(method string, body map[string]interface{}) (int, string) {
		return http.StatusUnauthorized, `{"ok":false,"error_code":401,"description":"Unauthorized"}`
	})
	defer srv.Close()

	_, err := client.GetMe(context.Background())
	require.Error(t, err)

	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}
