package ai

import (
	"regexp"
	"strings"
)

const maxReplyRunes = 2800

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// matched quote pairs a model sometimes wraps a whole reply in
var quotePairs = [][2]string{
	{`"`, `"`},
	{`'`, `'`},
	{"“", "”"},
	{"‘", "’"},
}

// cleanReply normalizes a raw model reply: reasoning blocks and wrapping
// quotes are stripped, and overlong replies are cut to fit a platform
// message.
func cleanReply(reply string) string {
	reply = thinkBlock.ReplaceAllString(reply, "")
	reply = stripWrappingQuotes(strings.TrimSpace(reply))

	if runes := []rune(reply); len(runes) > maxReplyRunes {
		reply = string(runes[:maxReplyRunes]) + "\n\n[truncated]"
	}
	return reply
}

func stripWrappingQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	for _, q := range quotePairs {
		if strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, q[0]), q[1]))
		}
	}
	return s
}

// isGarbageResponse flags replies that are clearly not an answer: error
// pages served as HTML, refusal boilerplate, or near-empty output.
func isGarbageResponse(s string) bool {
	if len(strings.TrimSpace(s)) < 5 {
		return true
	}
	lower := strings.ToLower(s)
	for _, marker := range []string{"<html", "not allowed"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// snippet trims a response body for inclusion in an error message.
func snippet(b []byte) string {
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}

// extractJSON pulls the first JSON object or array out of a model reply,
// tolerating markdown code fences and prose around it.
func extractJSON(reply string) string {
	reply = strings.TrimSpace(reply)

	if strings.HasPrefix(reply, "```") {
		reply = strings.TrimPrefix(reply, "```json")
		reply = strings.TrimPrefix(reply, "```")
		if i := strings.LastIndex(reply, "```"); i >= 0 {
			reply = reply[:i]
		}
		reply = strings.TrimSpace(reply)
	}

	start := strings.IndexAny(reply, "{[")
	if start < 0 {
		return reply
	}
	open := reply[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}
	end := strings.LastIndexByte(reply, close)
	if end <= start {
		return reply
	}
	return reply[start : end+1]
}
