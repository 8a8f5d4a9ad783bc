package job

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cargo-runner/cargo-runner/internal/args"
	"github.com/cargo-runner/cargo-runner/internal/catalog"
)

const (
	// ReleaseFlag is appended when release mode applies to a job
	ReleaseFlag = "--release"
	// Separator precedes program-level arguments
	Separator = "--"
)

var (
	ErrEmptyCustomCommand = errors.New("custom command needs a subcommand")
	ErrNoCommandSelected  = errors.New("no command selected")
	ErrEmptyQueue         = errors.New("no commands selected")
)

// ArgsError reports malformed quoting in one of the free-form text inputs
type ArgsError struct {
	Field string // "cargo args", "program args" or "custom command"
	Err   error
}

func (e *ArgsError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ArgsError) Unwrap() error {
	return e.Err
}

// Job is one queued invocation of the external tool
type Job struct {
	DisplayName        string
	Fragments          []string
	SupportsRelease    bool
	AllowsTrailingArgs bool
}

// Queue is the ordered list of jobs for one run request
type Queue []Job

// Options are the global flags read when a run starts
type Options struct {
	Release     bool
	CargoArgs   []string
	ProgramArgs []string
}

// FromDescriptor builds a job for a catalog entry
func FromDescriptor(d catalog.Descriptor) Job {
	return Job{
		DisplayName:        d.Subcommand,
		Fragments:          []string{d.Subcommand},
		SupportsRelease:    d.SupportsRelease,
		AllowsTrailingArgs: d.AllowsTrailingArgs,
	}
}

// Custom builds a job from free-form text. A leading token naming the tool
// itself is dropped, so "build" and "cargo build" are equivalent.
// Custom jobs never support release mode and always accept trailing args.
func Custom(text, tool string) (Job, error) {
	parts, err := args.Split(text)
	if err != nil {
		return Job{}, &ArgsError{Field: "custom command", Err: err}
	}

	if len(parts) > 0 && isToolName(parts[0], tool) {
		parts = parts[1:]
	}

	if len(parts) == 0 {
		return Job{}, ErrEmptyCustomCommand
	}

	return Job{
		DisplayName:        strings.Join(parts, " "),
		Fragments:          parts,
		SupportsRelease:    false,
		AllowsTrailingArgs: true,
	}, nil
}

func isToolName(token, tool string) bool {
	if tool == "" {
		return false
	}
	return token == tool || token == filepath.Base(tool)
}

// BuildQueue turns a selection or custom text into a queue.
//
// A non-empty selection wins and the custom text is ignored. Otherwise
// non-blank custom text becomes a single job. When both are empty the
// catalog's default action is queued. Stale selection refs are skipped.
func BuildQueue(c *catalog.Catalog, selection []catalog.Ref, customText, tool string) (Queue, error) {
	var queue Queue

	if len(selection) == 0 && strings.TrimSpace(customText) != "" {
		custom, err := Custom(customText, tool)
		if err != nil {
			return nil, err
		}
		queue = append(queue, custom)
	}

	for _, ref := range selection {
		d, ok := c.Lookup(ref)
		if !ok {
			continue
		}
		queue = append(queue, FromDescriptor(d))
	}

	if len(queue) == 0 {
		d, ok := c.Default()
		if !ok {
			return nil, ErrNoCommandSelected
		}
		queue = append(queue, FromDescriptor(d))
	}

	return queue, nil
}

// IgnoresRelease reports whether release mode was requested for a job
// that cannot take it. This is informational, never an error.
func (j Job) IgnoresRelease(opts Options) bool {
	return opts.Release && !j.SupportsRelease
}

// CommandLine assembles the final argument vector (without the tool name)
func (j Job) CommandLine(opts Options) []string {
	argv := append([]string(nil), j.Fragments...)

	if opts.Release && j.SupportsRelease {
		argv = append(argv, ReleaseFlag)
	}

	argv = append(argv, opts.CargoArgs...)

	if j.AllowsTrailingArgs && len(opts.ProgramArgs) > 0 {
		argv = append(argv, Separator)
		argv = append(argv, opts.ProgramArgs...)
	}

	return argv
}

// ParseOptions tokenizes the free-form cargo and program argument inputs
func ParseOptions(release bool, cargoArgsText, programArgsText string) (Options, error) {
	cargoArgs, err := args.Split(cargoArgsText)
	if err != nil {
		return Options{}, &ArgsError{Field: "cargo args", Err: err}
	}

	programArgs, err := args.Split(programArgsText)
	if err != nil {
		return Options{}, &ArgsError{Field: "program args", Err: err}
	}

	return Options{
		Release:     release,
		CargoArgs:   cargoArgs,
		ProgramArgs: programArgs,
	}, nil
}
