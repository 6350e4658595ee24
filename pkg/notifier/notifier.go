// Package notifier sends desktop notifications when a run ends
package notifier

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/jumpstart/jumpstart/pkg/logger"
)

// Notifier is told how a run ended
type Notifier interface {
	NotifyRunSuccess(project string)
	NotifyRunFailure(project string, err error)
}

// Config represents notification configuration
type Config struct {
	Enabled bool
	// Sound beeps after a failure notification.
	Sound bool
}

// RunNotifier delivers notifications through beeep
type RunNotifier struct {
	enabled bool
	sound   bool
	started time.Time
	logger  logger.Logger
	send    func(title, message string) error
	beep    func() error
}

// New creates a notifier; a disabled one only logs at debug level
func New(config Config, log logger.Logger) *RunNotifier {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &RunNotifier{
		enabled: config.Enabled,
		sound:   config.Sound,
		started: time.Now(),
		logger:  log,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		beep: func() error {
			return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
		},
	}
}

// NotifyRunSuccess reports a finished project
func (n *RunNotifier) NotifyRunSuccess(project string) {
	n.notify("✅ Jumpstart finished",
		fmt.Sprintf("%s is ready (%s)", filepath.Base(project), formatDuration(time.Since(n.started))))
}

// NotifyRunFailure reports a failed run
func (n *RunNotifier) NotifyRunFailure(project string, err error) {
	n.notify("❌ Jumpstart failed", fmt.Sprintf("%s: %v", filepath.Base(project), err))
	if n.enabled && n.sound {
		if err := n.beep(); err != nil {
			n.logger.Debug("Failed to play sound", logger.WithField("error", err))
		}
	}
}

func (n *RunNotifier) notify(title, message string) {
	if !n.enabled {
		n.logger.Debug("Notification suppressed", logger.WithField("title", title))
		return
	}
	if err := n.send(title, message); err != nil {
		n.logger.Debug("Failed to send notification", logger.WithField("error", err))
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
