// Package telemetry sends anonymous usage events to PostHog.
//
// Telemetry is opt-in: nothing is sent unless CARGO_RUNNER_POSTHOG_KEY is set.
// CARGO_RUNNER_TELEMETRY_DISABLED or DO_NOT_TRACK turn it off again.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"

	"github.com/cargo-runner/cargo-runner/internal/logging"
	"github.com/cargo-runner/cargo-runner/internal/version"
	"github.com/posthog/posthog-go"
)

const defaultEndpoint = "https://eu.i.posthog.com"

var (
	client     posthog.Client
	distinctId string

	baseProps = posthog.NewProperties().
			Set("goos", runtime.GOOS).
			Set("goarch", runtime.GOARCH).
			Set("term", os.Getenv("TERM")).
			Set("shell", filepath.Base(os.Getenv("SHELL"))).
			Set("version", version.Version).
			Set("go_version", runtime.Version())
)

func Init() {
	key := os.Getenv("CARGO_RUNNER_POSTHOG_KEY")
	if key == "" || isDisabled() {
		return
	}

	endpoint := os.Getenv("CARGO_RUNNER_POSTHOG_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	c, err := posthog.NewWithConfig(key, posthog.Config{
		Endpoint: endpoint,
		Logger:   logger{},
	})
	if err != nil {
		logging.Logger.Error("failed to initialize PostHog client", "error", err)
		return
	}
	client = c
	distinctId = getDistinctId()
}

// Enabled reports whether events are being sent
func Enabled() bool {
	return client != nil
}

func isDisabled() bool {
	if v, _ := strconv.ParseBool(os.Getenv("CARGO_RUNNER_TELEMETRY_DISABLED")); v {
		return true
	}
	if v, _ := strconv.ParseBool(os.Getenv("DO_NOT_TRACK")); v {
		return true
	}
	return false
}

func send(event string, props ...any) {
	if client == nil {
		return
	}
	err := client.Enqueue(posthog.Capture{
		DistinctId: distinctId,
		Event:      event,
		Properties: pairsToProps(props...).Merge(baseProps),
	})
	if err != nil {
		logging.Logger.Error("failed to enqueue PostHog event", "event", event, "error", err)
	}
}

// Error reports an unexpected failure
func Error(err any, props ...any) {
	if client == nil {
		return
	}
	props = append(
		[]any{
			"$exception_list",
			[]map[string]string{
				{"type": reflect.TypeOf(err).String(), "value": fmt.Sprintf("%v", err)},
			},
		},
		props...,
	)
	send("$exception", props...)
}

// Flush sends pending events and closes the client
func Flush() {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		logging.Logger.Error("failed to flush PostHog events", "error", err)
	}
	client = nil
}

func pairsToProps(props ...any) posthog.Properties {
	p := posthog.NewProperties()

	if len(props)%2 != 0 {
		logging.Logger.Error("event properties must be key-value pairs", "props", props)
		return p
	}

	for i := 0; i < len(props); i += 2 {
		key, ok := props[i].(string)
		if !ok {
			continue
		}
		p = p.Set(key, props[i+1])
	}
	return p
}
