package ai

import (
	"net/http"
)

const pollinationsURL = "https://text.pollinations.ai/openai"

// PollinationsProvider talks to the pollinations.ai OpenAI-compatible
// endpoint. The model name is fixed server-side; only sampling knobs travel
// in the payload.
type PollinationsProvider struct {
	client *http.Client
}

func NewPollinationsProvider() *PollinationsProvider {
	return &PollinationsProvider{client: &http.Client{}}
}

func (p *PollinationsProvider) Generate(messages []Message) (string, error) {
	return completion(p.client, "pollinations", pollinationsURL, map[string]any{
		"model":       "openai",
		"messages":    messages,
		"temperature": 1,
		"private":     true,
	})
}
