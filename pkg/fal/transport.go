package fal

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"chromir-be/internal/pkg/logger"
)

const maxLoggedBody = 2000

// loggingTransport records every provider round trip. The key header is never logged.
type loggingTransport struct {
	next   http.RoundTripper
	logger logger.ILogger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		t.logger.Warn("FAL", "Request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"duration": duration.String(),
			"error":    err.Error(),
		})
		return nil, err
	}

	body := "empty"
	if resp.Body != nil {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(raw))
		if len(raw) > maxLoggedBody {
			body = string(raw[:maxLoggedBody]) + "...(truncated)"
		} else if len(raw) > 0 {
			body = string(raw)
		}
	}

	t.logger.Debug("FAL", "Response", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration.String(),
		"body":     body,
	})
	return resp, nil
}
