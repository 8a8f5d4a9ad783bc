package telemetry

import "github.com/posthog/posthog-go"

var _ posthog.Logger = logger{}

// logger drops everything PostHog would log. Writing to stderr would
// corrupt the TUI, and delivery failures are not the user's concern.
type logger struct{}

func (logger) Debugf(format string, args ...any) {}
func (logger) Logf(format string, args ...any)   {}
func (logger) Warnf(format string, args ...any)  {}
func (logger) Errorf(format string, args ...any) {}
