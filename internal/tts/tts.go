// Package tts turns text into speech by piping it through an external
// synthesizer process. The command is configured, not discovered; the bot
// ships no audio code of its own.
package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("tts: no synthesizer command configured")

const synthTimeout = 60 * time.Second

// Synth shells out to a command that reads text on stdin and writes audio
// to stdout, e.g. "espeak-ng --stdout" or a piper invocation.
type Synth struct {
	command string
}

func New(command string) *Synth {
	return &Synth{command: command}
}

func (t *Synth) Configured() bool {
	return strings.TrimSpace(t.command) != ""
}

// Send synthesizes text and returns the raw audio bytes.
func (t *Synth) Send(ctx context.Context, text string) ([]byte, error) {
	if !t.Configured() {
		return nil, ErrNotConfigured
	}

	parts := strings.Fields(t.command)
	ctx, cancel := context.WithTimeout(ctx, synthTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Stdin = strings.NewReader(text)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tts command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("tts command produced no audio")
	}
	return out.Bytes(), nil
}
