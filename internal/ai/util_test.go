package ai

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCleanReplyStripsThinkBlocksAndQuotes(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"<think>internal monologue</think>the answer", "the answer"},
		{`"quoted answer"`, "quoted answer"},
		{"“smart quoted”", "smart quoted"},
		{"plain", "plain"},
	}
	for _, c := range cases {
		if got := cleanReply(c.in); got != c.want {
			t.Errorf("cleanReply(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCleanReplyTruncatesLongReplies(t *testing.T) {
	got := cleanReply(strings.Repeat("a", maxReplyRunes+100))
	if !strings.HasSuffix(got, "[truncated]") {
		t.Fatalf("expected truncation marker, got tail %q", got[len(got)-20:])
	}
	if len([]rune(got)) > maxReplyRunes+20 {
		t.Fatalf("reply not cut to size: %d runes", len([]rune(got)))
	}
}

func TestIsGarbageResponse(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"<HTML><body>502</body>", true},
		{"This request is Not Allowed here", true},
		{"  hi  ", true},
		{"a perfectly fine answer", false},
	}
	for _, c := range cases {
		if got := isGarbageResponse(c.in); got != c.want {
			t.Errorf("isGarbageResponse(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestCompletionParsesFirstChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"  \"hello there\"  "}}]}`))
	}))
	defer srv.Close()

	got, err := completion(srv.Client(), "test", srv.URL, map[string]any{"model": "m"})
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if got != "hello there" {
		t.Fatalf("expected cleaned reply, got %q", got)
	}
}

func TestCompletionErrorsCarryBackendLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := completion(srv.Client(), "pollinations", srv.URL, map[string]any{"model": "m"})
	if err == nil {
		t.Fatal("expected error on 503")
	}
	if !strings.Contains(err.Error(), "pollinations") {
		t.Fatalf("expected backend label in error, got %v", err)
	}
}

func TestCompletionRejectsEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := completion(srv.Client(), "test", srv.URL, map[string]any{"model": "m"})
	if err == nil || !strings.Contains(err.Error(), "empty choices") {
		t.Fatalf("expected empty-choices error, got %v", err)
	}
}
