package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeProvider struct {
	calls   int
	replies []string
	err     error
}

func (f *fakeProvider) Generate(messages []Message) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	idx := f.calls - 1
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	return f.replies[idx], nil
}

func TestRequestChatRetriesExactlyRetryCountTimes(t *testing.T) {
	provider := &fakeProvider{replies: []string{"one", "two", "three"}}
	client := NewClient(provider)

	reject := func(string) bool { return false }
	got := client.RequestChat(context.Background(), nil, 3, reject)

	if provider.calls != 3 {
		t.Errorf("provider called %d times, want exactly 3", provider.calls)
	}
	// All attempts rejected: the last result is surfaced.
	if got != "three" {
		t.Errorf("got %q, want last reply", got)
	}
}

func TestRequestChatAcceptsEarly(t *testing.T) {
	provider := &fakeProvider{replies: []string{"bad", "good"}}
	client := NewClient(provider)

	got := client.RequestChat(context.Background(), nil, 5, func(s string) bool { return s == "good" })
	if got != "good" {
		t.Errorf("got %q", got)
	}
	if provider.calls != 2 {
		t.Errorf("provider called %d times, want 2", provider.calls)
	}
}

func TestRequestChatSurfacesErrorAsContent(t *testing.T) {
	provider := &fakeProvider{err: errors.New("backend down")}
	client := NewClient(provider)

	got := client.RequestChat(context.Background(), nil, 2, nil)
	if !strings.HasPrefix(got, "Error:") || !strings.Contains(got, "backend down") {
		t.Errorf("got %q, want visible error content", got)
	}
	if provider.calls != 2 {
		t.Errorf("provider called %d times, want 2", provider.calls)
	}
}

func TestRequestJSONRejectedAttemptsReturnError(t *testing.T) {
	provider := &fakeProvider{replies: []string{`{"ok":true}`}}
	client := NewClient(provider)

	var out map[string]bool
	err := client.RequestJSON(context.Background(), nil, &out, 3, func(json.RawMessage) bool { return false })
	if err == nil {
		t.Fatal("expected error after all attempts rejected")
	}
	if provider.calls != 3 {
		t.Errorf("provider called %d times, want exactly 3", provider.calls)
	}
}

func TestRequestJSONDecodesFencedReply(t *testing.T) {
	provider := &fakeProvider{replies: []string{"Here you go:\n```json\n{\"name\":\"zed\"}\n```"}}
	client := NewClient(provider)

	var out struct {
		Name string `json:"name"`
	}
	if err := client.RequestJSON(context.Background(), nil, &out, 1, nil); err != nil {
		t.Fatalf("RequestJSON: %v", err)
	}
	if out.Name != "zed" {
		t.Errorf("decoded name = %q", out.Name)
	}
}

func TestRequestStreamDeliversGrowingPartialsPaced(t *testing.T) {
	provider := &fakeProvider{replies: []string{"abcdefgh"}}
	client := NewClient(provider)

	var partials []string
	var stamps []time.Time
	minPeriod := 20 * time.Millisecond

	err := client.RequestStream(context.Background(), nil, 3, minPeriod, func(partial string) error {
		partials = append(partials, partial)
		stamps = append(stamps, time.Now())
		return nil
	})
	if err != nil {
		t.Fatalf("RequestStream: %v", err)
	}

	want := []string{"abc", "abcdef", "abcdefgh"}
	if len(partials) != len(want) {
		t.Fatalf("partials = %v", partials)
	}
	for i := range want {
		if partials[i] != want[i] {
			t.Errorf("partial[%d] = %q, want %q", i, partials[i], want[i])
		}
	}
	for i := 1; i < len(stamps); i++ {
		if gap := stamps[i].Sub(stamps[i-1]); gap < minPeriod {
			t.Errorf("delivery gap %v below minimum %v", gap, minPeriod)
		}
	}
}

func TestRequestStreamStopsOnChunkError(t *testing.T) {
	provider := &fakeProvider{replies: []string{"abcdef"}}
	client := NewClient(provider)

	calls := 0
	err := client.RequestStream(context.Background(), nil, 2, 0, func(string) error {
		calls++
		return errors.New("message gone")
	})
	if err == nil {
		t.Fatal("expected error from onChunk")
	}
	if calls != 1 {
		t.Errorf("onChunk called %d times after failing, want 1", calls)
	}
}
