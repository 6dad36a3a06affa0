package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"scriptbot/pkg/retrylimit"
)

// Client wraps a Provider with bounded retries, caller-supplied acceptance
// predicates and adaptive rate limiting. Failures never escape RequestChat;
// they degrade into visible "Error: ..." content, which is what ends up in
// the message the user is looking at.
type Client struct {
	provider Provider
	limiter  *retrylimit.AdaptiveLimiter
}

func NewClient(provider Provider) *Client {
	return &Client{
		provider: provider,
		limiter:  retrylimit.NewAdaptiveLimiter(2, 1, 5, 1, 0.5),
	}
}

// RequestChat asks the backend for a reply, retrying up to retries times
// until accept is satisfied. When every attempt is rejected the last result
// is returned anyway; when every attempt errors the error text is returned
// as content.
func (c *Client) RequestChat(ctx context.Context, history []Message, retries int, accept func(string) bool) string {
	if retries < 1 {
		retries = 1
	}

	var last string
	var lastErr error

	for attempt := 1; attempt <= retries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}

		reply, err := c.provider.Generate(history)
		if err != nil {
			log.Printf("[WARN] AI attempt %d/%d failed: %v", attempt, retries, err)
			lastErr = err
			c.limiter.RateLimited()
			continue
		}
		c.limiter.Success()

		last, lastErr = reply, nil
		if accept == nil || accept(reply) {
			return reply
		}
		log.Printf("[WARN] AI attempt %d/%d rejected by acceptance predicate", attempt, retries)
	}

	if last == "" && lastErr != nil {
		return fmt.Sprintf("Error: %v", lastErr)
	}
	return last
}

// RequestJSON asks for a reply shaped like out, retrying until the reply
// decodes and accept (when given) approves the raw document. After the
// bound it returns an error wrapping the last failure; it never panics
// through the call boundary.
func (c *Client) RequestJSON(ctx context.Context, history []Message, out any, retries int, accept func(doc json.RawMessage) bool) error {
	if retries < 1 {
		retries = 1
	}

	var lastErr error

	for attempt := 1; attempt <= retries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}

		reply, err := c.provider.Generate(history)
		if err != nil {
			log.Printf("[WARN] AI JSON attempt %d/%d failed: %v", attempt, retries, err)
			lastErr = err
			c.limiter.RateLimited()
			continue
		}
		c.limiter.Success()

		doc := json.RawMessage(extractJSON(reply))
		if !json.Valid(doc) {
			lastErr = fmt.Errorf("reply is not valid JSON: %s", snippet(doc))
			continue
		}
		if accept != nil && !accept(doc) {
			lastErr = fmt.Errorf("reply rejected by acceptance predicate")
			continue
		}
		if err := json.Unmarshal(doc, out); err != nil {
			lastErr = fmt.Errorf("reply does not match expected shape: %w", err)
			continue
		}
		return nil
	}

	return fmt.Errorf("no acceptable JSON reply after %d attempts: %w", retries, lastErr)
}

// RequestStream generates a reply and delivers it as a finite sequence of
// growing partials, at least minPeriod apart, chunkSize runes at a time.
// The sequence is not restartable; onChunk returning an error stops it.
func (c *Client) RequestStream(ctx context.Context, history []Message, chunkSize int, minPeriod time.Duration, onChunk func(partial string) error) error {
	if chunkSize < 1 {
		chunkSize = 1
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	reply, err := c.provider.Generate(history)
	if err != nil {
		c.limiter.RateLimited()
		return err
	}
	c.limiter.Success()

	runes := []rune(reply)
	lastEmit := time.Time{}

	for end := chunkSize; ; end += chunkSize {
		if end > len(runes) {
			end = len(runes)
		}

		if wait := minPeriod - time.Since(lastEmit); !lastEmit.IsZero() && wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		lastEmit = time.Now()

		if err := onChunk(string(runes[:end])); err != nil {
			return err
		}
		if end == len(runes) {
			return nil
		}
	}
}
