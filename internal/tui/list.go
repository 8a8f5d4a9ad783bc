package tui

import "github.com/cargo-runner/cargo-runner/internal/catalog"

// commandList is the cursor over the catalog rows of the commands panel.
// Rows are primary commands first, then secondary ones.
type commandList struct {
	refs   []catalog.Ref
	cursor int
	offset int // first visible row
	height int // visible rows; 0 means unbounded
}

func newCommandList(c *catalog.Catalog) commandList {
	return commandList{refs: c.Refs()}
}

func (l *commandList) Len() int {
	return len(l.refs)
}

// Current returns the ref under the cursor
func (l *commandList) Current() (catalog.Ref, bool) {
	if l.cursor < 0 || l.cursor >= len(l.refs) {
		return catalog.Ref{}, false
	}
	return l.refs[l.cursor], true
}

// Up moves the cursor up. Returns false at the top.
func (l *commandList) Up() bool {
	if l.cursor <= 0 {
		return false
	}
	l.cursor--
	l.reveal()
	return true
}

// Down moves the cursor down. Returns false at the bottom.
func (l *commandList) Down() bool {
	if l.cursor >= len(l.refs)-1 {
		return false
	}
	l.cursor++
	l.reveal()
	return true
}

func (l *commandList) First() {
	l.cursor = 0
	l.offset = 0
}

func (l *commandList) Last() {
	if len(l.refs) == 0 {
		return
	}
	l.cursor = len(l.refs) - 1
	l.reveal()
}

// MoveTo puts the cursor on row i
func (l *commandList) MoveTo(i int) bool {
	if i < 0 || i >= len(l.refs) {
		return false
	}
	l.cursor = i
	l.reveal()
	return true
}

// SetHeight sets the number of visible rows and keeps the cursor in view
func (l *commandList) SetHeight(h int) {
	if h < 1 {
		h = 1
	}
	l.height = h
	if l.offset+l.height > len(l.refs) {
		l.offset = max(0, len(l.refs)-l.height)
	}
	l.reveal()
}

// Visible returns the [start, end) rows to render
func (l *commandList) Visible() (start, end int) {
	start = l.offset
	end = len(l.refs)
	if l.height > 0 && start+l.height < end {
		end = start + l.height
	}
	if start > end {
		start = end
	}
	return start, end
}

// RowAt maps a visible line (0 = first visible row) to a row index
func (l *commandList) RowAt(line int) (int, bool) {
	start, end := l.Visible()
	i := start + line
	if line < 0 || i >= end {
		return 0, false
	}
	return i, true
}

func (l *commandList) reveal() {
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.height > 0 && l.cursor >= l.offset+l.height {
		l.offset = l.cursor - l.height + 1
	}
}
