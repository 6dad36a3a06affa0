package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	completionTimeout = 25 * time.Second
	maxResponseBytes  = 64 * 1024
)

// completionEnvelope is the OpenAI-style response shape both backends share.
type completionEnvelope struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// completion posts an OpenAI-style chat payload to url and returns the first
// choice, cleaned and sanity-checked. label prefixes every error so the logs
// name the backend that failed.
func completion(client *http.Client, label, url string, payload map[string]any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%s marshal: %w", label, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%s request: %w", label, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", label, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%s status=%d body=%s", label, resp.StatusCode, snippet(body))
	}

	var parsed completionEnvelope
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%s unmarshal: %w body=%s", label, err, snippet(body))
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s empty choices", label)
	}

	reply := cleanReply(parsed.Choices[0].Message.Content)
	if isGarbageResponse(reply) {
		return "", fmt.Errorf("%s returned garbage", label)
	}
	return reply, nil
}
