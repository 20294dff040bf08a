package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// ============================================================
// HTTP helpers for GET, POST, DELETE
// ============================================================

// doRequest executes an authenticated request without a body. A 204 answer
// yields a nil body.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")
	return c.send(req, path)
}

// doPost inserts one row into table and returns the stored representation.
func (c *Client) doPost(ctx context.Context, table string, row any) ([]byte, error) {
	jsonBody, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encode %s row: %w", table, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, table, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")
	return c.send(req, table)
}

// doDelete removes the rows matched by path and returns them.
func (c *Client) doDelete(ctx context.Context, path string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")
	return c.send(req, path)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) send(req *http.Request, path string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", req.Method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", req.Method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, &statusError{Method: req.Method, Path: path, Status: resp.StatusCode, Body: string(body)}
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", req.Method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return body, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
