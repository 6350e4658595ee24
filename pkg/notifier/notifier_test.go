package notifier

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jumpstart/jumpstart/pkg/logger"
)

type captured struct {
	titles   []string
	messages []string
	beeps    int
}

func newCapturing(config Config) (*RunNotifier, *captured) {
	c := &captured{}
	n := New(config, logger.NewNopLogger())
	n.send = func(title, message string) error {
		c.titles = append(c.titles, title)
		c.messages = append(c.messages, message)
		return nil
	}
	n.beep = func() error {
		c.beeps++
		return nil
	}
	return n, c
}

func TestNotifier_Disabled(t *testing.T) {
	n, c := newCapturing(Config{Enabled: false, Sound: true})

	n.NotifyRunSuccess("/tmp/blog")
	n.NotifyRunFailure("/tmp/blog", errors.New("bundle install failed"))

	if len(c.titles) != 0 || c.beeps != 0 {
		t.Errorf("expected no notifications, got %v and %d beeps", c.titles, c.beeps)
	}
}

func TestNotifier_Success(t *testing.T) {
	n, c := newCapturing(Config{Enabled: true})

	n.NotifyRunSuccess("/home/me/blog")

	if len(c.messages) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(c.messages))
	}
	if !strings.HasPrefix(c.messages[0], "blog is ready") {
		t.Errorf("unexpected message %q", c.messages[0])
	}
}

func TestNotifier_FailureWithSound(t *testing.T) {
	n, c := newCapturing(Config{Enabled: true, Sound: true})

	n.NotifyRunFailure("blog", errors.New("exit status 1"))

	if len(c.messages) != 1 || c.messages[0] != "blog: exit status 1" {
		t.Errorf("unexpected messages %v", c.messages)
	}
	if c.beeps != 1 {
		t.Errorf("expected 1 beep, got %d", c.beeps)
	}
}

func TestNotifier_SendErrorIsSwallowed(t *testing.T) {
	n := New(Config{Enabled: true}, nil)
	n.send = func(string, string) error { return errors.New("no dbus") }

	n.NotifyRunSuccess("blog")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{95 * time.Second, "1m35s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
