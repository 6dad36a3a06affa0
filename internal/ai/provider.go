package ai

import "strings"

// Message is one turn of a chat-completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is a chat-completion backend.
type Provider interface {
	Generate(messages []Message) (string, error)
}

// NewProvider builds a provider from an engine string, e.g.
//
//	g4f:gpt-oss-120b
//	g4f:groq/qwen/qwen3-32b
//	pollinations
func NewProvider(engine string) Provider {
	switch {
	case engine == "pollinations":
		return NewPollinationsProvider()
	case strings.HasPrefix(engine, "g4f"), engine == "":
		return NewG4FProvider(engine)
	default:
		// Unrecognized engines fall back to the default backend rather
		// than taking the process down over a typo.
		return NewG4FProvider("")
	}
}
