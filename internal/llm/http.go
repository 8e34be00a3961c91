package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of an error response is echoed back.
const maxErrorBody = 512

// postJSON sends in as JSON and decodes the response into out. Non-2xx
// responses are still decoded when possible so provider error envelopes
// can be inspected; the raw body is returned truncated for messages.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, in, out any) (int, string, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return 0, "", fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("reading response: %w", err)
	}

	snippet := string(respBody)
	if len(snippet) > maxErrorBody {
		snippet = snippet[:maxErrorBody] + "..."
	}

	if err := json.Unmarshal(respBody, out); err != nil && resp.StatusCode == http.StatusOK {
		return resp.StatusCode, snippet, fmt.Errorf("decoding response: %w", err)
	}
	return resp.StatusCode, snippet, nil
}
