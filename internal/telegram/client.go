// Package telegram is a minimal Telegram Bot API client covering the
// send-message and identity calls used by the notification service.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"dealwatch/internal/common/errors"
)

type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// SendMessageRequest mirrors the Bot API sendMessage payload.
type SendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// BotInfo is the subset of getMe we report in connectivity checks.
type BotInfo struct {
	ID       int64  `json:"id"`
	IsBot    bool   `json:"is_bot"`
	Username string `json:"username"`
}

func NewClient(token string, timeout time.Duration) *Client {
	return &Client{
		token:   token,
		baseURL: "https://api.telegram.org",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientWithBaseURL points the client at a custom API host (tests).
func NewClientWithBaseURL(token, baseURL string, timeout time.Duration) *Client {
	c := NewClient(token, timeout)
	c.baseURL = baseURL
	return c
}

// SendMessage delivers one message to one chat destination.
func (c *Client) SendMessage(ctx context.Context, msg SendMessageRequest) error {
	_, err := c.call(ctx, "sendMessage", msg)
	return err
}

// GetMe calls the identity endpoint, used for connectivity self-tests.
func (c *Client) GetMe(ctx context.Context) (*BotInfo, error) {
	result, err := c.call(ctx, "getMe", nil)
	if err != nil {
		return nil, err
	}

	var info BotInfo
	if err := json.Unmarshal(result, &info); err != nil {
		return nil, errors.NewNotificationSendFailedError("telegram", 0,
			fmt.Errorf("decode getMe result: %w", err))
	}
	return &info, nil
}

func (c *Client) call(ctx context.Context, method string, payload interface{}) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", method, err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, errors.NewNotificationSendFailedError("telegram", 0, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewTimeoutError("telegram "+method, err)
		}
		return nil, errors.NewNotificationSendFailedError("telegram", 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNotificationSendFailedError("telegram", resp.StatusCode, err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, errors.NewNotificationSendFailedError("telegram", resp.StatusCode,
			fmt.Errorf("decode %s response: %w", method, err))
	}

	if !apiResp.OK {
		statusCode := apiResp.ErrorCode
		if statusCode == 0 {
			statusCode = resp.StatusCode
		}
		return nil, errors.NewNotificationSendFailedError("telegram", statusCode,
			fmt.Errorf("%s failed (%d): %s", method, statusCode, apiResp.Description))
	}

	return apiResp.Result, nil
}
