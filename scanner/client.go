// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPError is a non-2xx response from the scanner service.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// HTTPClient talks to the scanner service over its JSON API. It implements
// Client, HardwareClient and the export source used at polls close.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

const maxErrorBody = 4 << 10

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) GetStatus(ctx context.Context) (StatusReport, error) {
	var report StatusReport
	err := c.doJSON(ctx, http.MethodGet, "/scanner/status", &report)
	return report, err
}

func (c *HTTPClient) Scan(ctx context.Context) (Sheet, error) {
	var sheet Sheet
	err := c.doJSON(ctx, http.MethodPost, "/scanner/scan", &sheet)
	return sheet, err
}

func (c *HTTPClient) Accept(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/scanner/accept", nil)
}

func (c *HTTPClient) Return(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/scanner/return", nil)
}

func (c *HTTPClient) Calibrate(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/scanner/calibrate", nil)
}

func (c *HTTPClient) GetBattery(ctx context.Context) (BatteryInfo, error) {
	var info BatteryInfo
	err := c.doJSON(ctx, http.MethodGet, "/hardware/battery", &info)
	return info, err
}

// Export returns the newline-delimited cast vote record export. The caller
// must close the returned reader.
func (c *HTTPClient) Export(ctx context.Context) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodPost, "/scanner/export")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, out any) error {
	resp, err := c.do(ctx, method, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string) (*http.Response, error) {
	var body io.Reader
	if method != http.MethodGet {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}
	return resp, nil
}
