package apex

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// ReplaySource replays a captured feed. The capture holds one message per
// block, blocks being separated by a blank line.
type ReplaySource struct {
	name     string
	messages []string
	interval time.Duration
	loop     bool
	handler  Handler
}

// NewReplaySource creates a replay of the given messages
func NewReplaySource(name string, messages []string, interval time.Duration, loop bool, handler Handler) *ReplaySource {
	return &ReplaySource{name: name, messages: messages, interval: interval, loop: loop, handler: handler}
}

// LoadReplayFile reads a capture file into a replay source
func LoadReplayFile(path string, interval time.Duration, loop bool, handler Handler) (*ReplaySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay file: %w", err)
	}
	messages := SplitCapture(string(data))
	if len(messages) == 0 {
		return nil, fmt.Errorf("replay file %s holds no message", path)
	}
	return NewReplaySource("replay:"+path, messages, interval, loop, handler), nil
}

// SplitCapture splits a capture into its messages
func SplitCapture(capture string) []string {
	capture = strings.ReplaceAll(capture, "\r\n", "\n")
	var messages []string
	for _, block := range strings.Split(capture, "\n\n") {
		if block = strings.Trim(block, "\n"); block != "" {
			messages = append(messages, block)
		}
	}
	return messages
}

// Name returns the name of the replay
func (r *ReplaySource) Name() string {
	return r.name
}

// Run delivers the messages one interval apart. Without looping it returns
// nil once every message was delivered.
func (r *ReplaySource) Run(ctx context.Context) error {
	for {
		for _, msg := range r.messages {
			if err := ctx.Err(); err != nil {
				return err
			}
			r.handler(msg)
			if r.interval <= 0 {
				continue
			}
			timer := time.NewTimer(r.interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if !r.loop {
			return nil
		}
	}
}
