// Package tools provides typed clients for the external analysis tools the
// pipeline calls over HTTP: ingest, clause linking, classification and
// summarization. Every tool speaks JSON and exposes a GET /health probe.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
)

// maxErrorBodyLength bounds how much of an error response gets attached to
// the returned ToolError.
const maxErrorBodyLength = 512

// postJSON sends a JSON request body and decodes a JSON response body,
// translating every failure mode into a *ToolError.
func postJSON(ctx context.Context, client *http.Client, tool, endpoint string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return &ToolError{Tool: tool, Kind: ErrKindMalformed, Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &ToolError{Tool: tool, Kind: ErrKindUnreachable, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return &ToolError{Tool: tool, Kind: classifyTransportError(err), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ToolError{Tool: tool, Kind: classifyTransportError(err), Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := respBody
		if len(snippet) > maxErrorBodyLength {
			snippet = snippet[:maxErrorBodyLength]
		}
		return &ToolError{
			Tool:   tool,
			Kind:   ErrKindBadStatus,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected response: %s", string(snippet)),
		}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &ToolError{Tool: tool, Kind: ErrKindMalformed, Err: fmt.Errorf("failed to parse response: %w", err)}
		}
	}

	return nil
}

// checkHealth probes GET <base>/health.
func checkHealth(ctx context.Context, client *http.Client, tool, baseURL string) error {
	endpoint, err := joinURL(baseURL, "health")
	if err != nil {
		return &ToolError{Tool: tool, Kind: ErrKindUnreachable, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &ToolError{Tool: tool, Kind: ErrKindUnreachable, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return &ToolError{Tool: tool, Kind: classifyTransportError(err), Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &ToolError{Tool: tool, Kind: ErrKindBadStatus, Status: resp.StatusCode, Err: errors.New("health probe failed")}
	}

	return nil
}

func classifyTransportError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrKindTimeout
	}
	return ErrKindUnreachable
}

// joinURL appends path segments to a base URL.
func joinURL(baseURL string, segments ...string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	u.Path = path.Join(append([]string{u.Path}, segments...)...)
	return u.String(), nil
}
