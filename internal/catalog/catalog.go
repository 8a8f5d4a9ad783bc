// Package catalog holds the static registry of build-tool subcommands.
package catalog

import (
	"fmt"
	"strings"
)

// Group is a row of commands in the picker
type Group int

const (
	Primary Group = iota
	Secondary
)

func (g Group) String() string {
	switch g {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// ParseGroup parses "primary" or "secondary" (case-insensitive)
func ParseGroup(s string) (Group, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary":
		return Primary, nil
	case "secondary", "":
		return Secondary, nil
	default:
		return 0, fmt.Errorf("unknown command group: %q", s)
	}
}

// Descriptor describes one subcommand of the external tool
type Descriptor struct {
	Label              string
	Subcommand         string
	SupportsRelease    bool
	AllowsTrailingArgs bool
}

// Ref identifies a catalog entry by group and position
type Ref struct {
	Group Group
	Index int
}

// Catalog is built once at startup and never mutated afterwards
type Catalog struct {
	primary       []Descriptor
	secondary     []Descriptor
	defaultAction string
}

// DefaultAction is the subcommand run when nothing is selected
const DefaultAction = "run"

// New creates a catalog. defaultAction names the subcommand used when nothing
// is selected; empty means no default.
func New(primary, secondary []Descriptor, defaultAction string) *Catalog {
	return &Catalog{
		primary:       append([]Descriptor(nil), primary...),
		secondary:     append([]Descriptor(nil), secondary...),
		defaultAction: defaultAction,
	}
}

// Builtin returns the built-in cargo catalog
func Builtin() *Catalog {
	return New(BuiltinPrimary(), BuiltinSecondary(), DefaultAction)
}

// BuiltinPrimary returns the large buttons
func BuiltinPrimary() []Descriptor {
	return []Descriptor{
		{Label: "Build", Subcommand: "build", SupportsRelease: true},
		{Label: "Run", Subcommand: "run", SupportsRelease: true, AllowsTrailingArgs: true},
	}
}

// BuiltinSecondary returns the compact buttons
func BuiltinSecondary() []Descriptor {
	return []Descriptor{
		{Label: "Check", Subcommand: "check", SupportsRelease: true},
		{Label: "Test", Subcommand: "test", SupportsRelease: true, AllowsTrailingArgs: true},
		{Label: "Fmt", Subcommand: "fmt"},
		{Label: "Clean", Subcommand: "clean"},
		{Label: "Doc", Subcommand: "doc", SupportsRelease: true},
		{Label: "Clippy", Subcommand: "clippy", SupportsRelease: true},
		{Label: "Update", Subcommand: "update"},
	}
}

// Lookup returns the descriptor at ref. A stale ref is reported as absent.
func (c *Catalog) Lookup(ref Ref) (Descriptor, bool) {
	entries := c.Group(ref.Group)
	if ref.Index < 0 || ref.Index >= len(entries) {
		return Descriptor{}, false
	}
	return entries[ref.Index], true
}

// Group returns a copy of the entries in g
func (c *Catalog) Group(g Group) []Descriptor {
	switch g {
	case Primary:
		return append([]Descriptor(nil), c.primary...)
	case Secondary:
		return append([]Descriptor(nil), c.secondary...)
	default:
		return nil
	}
}

// Len returns the number of entries in g
func (c *Catalog) Len(g Group) int {
	switch g {
	case Primary:
		return len(c.primary)
	case Secondary:
		return len(c.secondary)
	default:
		return 0
	}
}

// Refs returns every entry reference, primary group first
func (c *Catalog) Refs() []Ref {
	refs := make([]Ref, 0, len(c.primary)+len(c.secondary))
	for i := range c.primary {
		refs = append(refs, Ref{Group: Primary, Index: i})
	}
	for i := range c.secondary {
		refs = append(refs, Ref{Group: Secondary, Index: i})
	}
	return refs
}

// Default returns the designated default action, if it exists in the catalog
func (c *Catalog) Default() (Descriptor, bool) {
	if c.defaultAction == "" {
		return Descriptor{}, false
	}
	for _, ref := range c.Refs() {
		d, _ := c.Lookup(ref)
		if d.Subcommand == c.defaultAction {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Find resolves a name typed by a user (subcommand or label, case-insensitive)
func (c *Catalog) Find(name string) (Ref, bool) {
	for _, ref := range c.Refs() {
		d, _ := c.Lookup(ref)
		if strings.EqualFold(d.Subcommand, name) || strings.EqualFold(d.Label, name) {
			return ref, true
		}
	}
	return Ref{}, false
}

// Names returns all subcommands in catalog order
func (c *Catalog) Names() []string {
	var names []string
	for _, ref := range c.Refs() {
		d, _ := c.Lookup(ref)
		names = append(names, d.Subcommand)
	}
	return names
}
