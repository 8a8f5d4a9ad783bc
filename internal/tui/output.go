package tui

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// maxOutputLines bounds the output panel; the oldest lines go first
const maxOutputLines = 10_000

// outputBuffer holds the output of the current run. It keeps some slack
// past maxOutputLines so that trimming is not a copy on every line.
type outputBuffer struct {
	lines []string
}

func (b *outputBuffer) Append(line string) {
	b.lines = append(b.lines, cleanLine(line))
	if len(b.lines) > maxOutputLines+maxOutputLines/4 {
		b.lines = append([]string(nil), b.lines[len(b.lines)-maxOutputLines:]...)
	}
}

func (b *outputBuffer) Reset() {
	b.lines = nil
}

// Lines returns at most maxOutputLines most recent lines
func (b *outputBuffer) Lines() []string {
	if len(b.lines) > maxOutputLines {
		return b.lines[len(b.lines)-maxOutputLines:]
	}
	return b.lines
}

func (b *outputBuffer) Len() int {
	return len(b.Lines())
}

func (b *outputBuffer) Text() string {
	return strings.Join(b.Lines(), "\n")
}

// cursorSequenceRegex matches ANSI cursor movement and screen control
// sequences. Colour (SGR) sequences are not matched.
var cursorSequenceRegex = regexp.MustCompile(
	`\x1b\[` +
		`(?:` +
		`\d*[ABCDEFGH]` + // cursor movement
		`|\d*;\d*[Hf]` + // cursor position (row;col)
		`|[suKJ]` + // save/restore cursor, erase
		`|\d*[KJ]` + // erase with count
		`|\?(?:25[hl]|\d+[hl])` + // private modes, cursor visibility
		`)`,
)

// StripCursorSequences removes cursor movement and erase sequences while
// keeping colours. Progress bars redraw in place with them, which breaks
// a viewport.
func StripCursorSequences(s string) string {
	return cursorSequenceRegex.ReplaceAllString(s, "")
}

// cleanLine makes one output line safe to render. A line redrawn with
// carriage returns keeps only its last state.
func cleanLine(s string) string {
	s = StripCursorSequences(s)
	s = strings.TrimRight(s, "\r")
	if i := strings.LastIndexByte(s, '\r'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// fitWidth pads or truncates s to exactly width cells, ANSI-aware. tail
// marks truncation and counts towards width.
func fitWidth(s string, width int, tail string) string {
	if width <= 0 {
		return ""
	}

	w := lipgloss.Width(s)
	switch {
	case w > width:
		if lipgloss.Width(tail) >= width {
			return ansi.Truncate(tail, width, "")
		}
		return ansi.Truncate(s, width, tail)
	case w < width:
		return s + strings.Repeat(" ", width-w)
	default:
		return s
	}
}

// styleOutputLine colours the markers the runner puts on its own lines
func styleOutputLine(line string) string {
	switch {
	case strings.HasPrefix(line, stderrPrefix):
		return stderrPrefixStyle.Render(strings.TrimSpace(stderrPrefix)) + " " + strings.TrimPrefix(line, stderrPrefix)
	case strings.HasPrefix(line, "✔ "):
		return successStyle.Render(line)
	case strings.HasPrefix(line, "✖ "), strings.HasPrefix(line, "⚠ "):
		return errorStyle.Render(line)
	case strings.HasPrefix(line, "ℹ "):
		return noticeStyle.Render(line)
	default:
		return line
	}
}

const stderrPrefix = "[stderr] "
