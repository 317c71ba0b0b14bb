// Package fal talks to the fal.ai queue API: submit a request, poll its
// status with logs, then fetch the result.
package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chromir-be/internal/pkg/logger"
)

const DefaultQueueURL = "https://queue.fal.run"

type Config struct {
	Key          string
	QueueURL     string
	PollInterval time.Duration
}

type Client struct {
	key          string
	queueURL     string
	pollInterval time.Duration
	http         *http.Client
	logger       logger.ILogger
}

func NewClient(cfg Config, log logger.ILogger) *Client {
	if cfg.QueueURL == "" {
		cfg.QueueURL = DefaultQueueURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &Client{
		key:          cfg.Key,
		queueURL:     strings.TrimRight(cfg.QueueURL, "/"),
		pollInterval: cfg.PollInterval,
		http: &http.Client{
			Timeout:   60 * time.Second,
			Transport: &loggingTransport{next: http.DefaultTransport, logger: log},
		},
		logger: log,
	}
}

// Submit enqueues input for app.
func (c *Client) Submit(ctx context.Context, app string, input any) (*QueueHandle, error) {
	var handle QueueHandle
	if err := c.do(ctx, http.MethodPost, c.queueURL+"/"+app, input, &handle); err != nil {
		return nil, err
	}
	if handle.RequestID == "" || handle.StatusURL == "" || handle.ResponseURL == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "queue response missing request handle"}
	}
	return &handle, nil
}

func (c *Client) Status(ctx context.Context, handle *QueueHandle, withLogs bool) (*QueueStatus, error) {
	target := handle.StatusURL
	if withLogs {
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("parse status url: %w", err)
		}
		q := u.Query()
		q.Set("logs", "1")
		u.RawQuery = q.Encode()
		target = u.String()
	}

	var status QueueStatus
	if err := c.do(ctx, http.MethodGet, target, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) Result(ctx context.Context, handle *QueueHandle, out any) error {
	return c.do(ctx, http.MethodGet, handle.ResponseURL, nil, out)
}

// Run submits input, waits for completion and decodes the result into out.
// onLog, when set, receives each provider log line once, in order.
func (c *Client) Run(ctx context.Context, app string, input any, onLog func(string), out any) (string, error) {
	handle, err := c.Submit(ctx, app, input)
	if err != nil {
		return "", err
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	seen := 0
	for {
		status, err := c.Status(ctx, handle, onLog != nil)
		if err != nil {
			return handle.RequestID, err
		}

		// The status endpoint returns all logs so far; forward only new ones
		// while the job runs.
		if onLog != nil && status.Status == StatusInProgress && len(status.Logs) > seen {
			for _, entry := range status.Logs[seen:] {
				onLog(entry.Message)
			}
			seen = len(status.Logs)
		}

		switch status.Status {
		case StatusCompleted:
			if status.Error != "" {
				return handle.RequestID, &APIError{StatusCode: http.StatusOK, Message: status.Error}
			}
			return handle.RequestID, c.Result(ctx, handle, out)
		case StatusInQueue, StatusInProgress:
		default:
			return handle.RequestID, &APIError{StatusCode: http.StatusOK, Message: fmt.Sprintf("unexpected queue status %q", status.Status)}
		}

		select {
		case <-ctx.Done():
			return handle.RequestID, fmt.Errorf("waiting for %s: %w", handle.RequestID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) Train(ctx context.Context, input TrainingInput, onLog func(string)) (*TrainingOutput, string, error) {
	var out TrainingOutput
	id, err := c.Run(ctx, AppFluxLoraFastTraining, input, onLog, &out)
	if err != nil {
		return nil, id, err
	}
	return &out, id, nil
}

func (c *Client) Infer(ctx context.Context, input InferenceInput) (*InferenceOutput, string, error) {
	var out InferenceOutput
	id, err := c.Run(ctx, AppFluxLora, input, nil, &out)
	if err != nil {
		return nil, id, err
	}
	return &out, id, nil
}

func (c *Client) Caption(ctx context.Context, input VisionInput) (string, error) {
	var out VisionOutput
	if _, err := c.Run(ctx, AppAnyLLMVision, input, nil, &out); err != nil {
		return "", err
	}
	return out.Text(), nil
}

func (c *Client) do(ctx context.Context, method, target string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.key != "" {
		req.Header.Set("Authorization", "Key "+c.key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage pulls "detail" out of an error body, falling back to the raw text.
func errorMessage(raw []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Detail) > 0 {
		var s string
		if err := json.Unmarshal(body.Detail, &s); err == nil {
			return s
		}
		return string(body.Detail)
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > maxLoggedBody {
		msg = msg[:maxLoggedBody]
	}
	if msg == "" {
		msg = "empty response"
	}
	return msg
}
