package tui

import (
	"testing"

	"github.com/cargo-runner/cargo-runner/internal/catalog"
)

// listOf builds a list of n secondary refs
func listOf(n, height int) commandList {
	l := commandList{height: height}
	for i := 0; i < n; i++ {
		l.refs = append(l.refs, catalog.Ref{Group: catalog.Secondary, Index: i})
	}
	return l
}

func TestCommandList_Up(t *testing.T) {
	tests := []struct {
		name        string
		cursor      int
		offset      int
		wantChanged bool
		wantCursor  int
		wantOffset  int
	}{
		{"move up from middle", 5, 0, true, 4, 0},
		{"at top, cannot move up", 0, 0, false, 0, 0},
		{"move up scrolls offset", 5, 5, true, 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := listOf(20, 10)
			l.cursor, l.offset = tt.cursor, tt.offset

			if changed := l.Up(); changed != tt.wantChanged {
				t.Errorf("Up() changed = %v, want %v", changed, tt.wantChanged)
			}
			if l.cursor != tt.wantCursor || l.offset != tt.wantOffset {
				t.Errorf("Up() cursor/offset = %d/%d, want %d/%d", l.cursor, l.offset, tt.wantCursor, tt.wantOffset)
			}
		})
	}
}

func TestCommandList_Down(t *testing.T) {
	tests := []struct {
		name        string
		count       int
		cursor      int
		wantChanged bool
		wantCursor  int
		wantOffset  int
	}{
		{"move down from middle", 20, 5, true, 6, 0},
		{"at bottom, cannot move down", 10, 9, false, 9, 0},
		{"move down scrolls offset", 20, 9, true, 10, 1},
		{"empty list", 0, 0, false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := listOf(tt.count, 10)
			l.cursor = tt.cursor

			if changed := l.Down(); changed != tt.wantChanged {
				t.Errorf("Down() changed = %v, want %v", changed, tt.wantChanged)
			}
			if l.cursor != tt.wantCursor || l.offset != tt.wantOffset {
				t.Errorf("Down() cursor/offset = %d/%d, want %d/%d", l.cursor, l.offset, tt.wantCursor, tt.wantOffset)
			}
		})
	}
}

func TestCommandList_FirstLast(t *testing.T) {
	l := listOf(20, 10)
	l.Last()
	if l.cursor != 19 || l.offset != 10 {
		t.Errorf("Last() cursor/offset = %d/%d, want 19/10", l.cursor, l.offset)
	}

	l.First()
	if l.cursor != 0 || l.offset != 0 {
		t.Errorf("First() cursor/offset = %d/%d, want 0/0", l.cursor, l.offset)
	}

	empty := listOf(0, 10)
	empty.Last()
	if _, ok := empty.Current(); ok {
		t.Error("empty list has no current row")
	}
}

func TestCommandList_Visible(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		height    int
		offset    int
		wantStart int
		wantEnd   int
	}{
		{"normal range", 20, 10, 0, 0, 10},
		{"scrolled down", 20, 10, 10, 10, 20},
		{"fewer rows than height", 5, 10, 0, 0, 5},
		{"unbounded height", 5, 0, 0, 0, 5},
		{"empty list", 0, 10, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := listOf(tt.count, tt.height)
			l.offset = tt.offset

			start, end := l.Visible()
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("Visible() = %d,%d, want %d,%d", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestCommandList_SetHeightKeepsCursorVisible(t *testing.T) {
	l := listOf(20, 10)
	l.MoveTo(15)
	l.SetHeight(4)

	start, end := l.Visible()
	if l.cursor < start || l.cursor >= end {
		t.Errorf("cursor %d outside visible range %d-%d", l.cursor, start, end)
	}

	l.SetHeight(50)
	if start, end := l.Visible(); start != 0 || end != 20 {
		t.Errorf("Visible() after grow = %d,%d, want 0,20", start, end)
	}
}

func TestCommandList_RowAt(t *testing.T) {
	l := listOf(20, 5)
	l.MoveTo(12)

	start, _ := l.Visible()
	if i, ok := l.RowAt(0); !ok || i != start {
		t.Errorf("RowAt(0) = %d,%v, want %d,true", i, ok, start)
	}
	if _, ok := l.RowAt(5); ok {
		t.Error("RowAt past the visible rows should fail")
	}
	if _, ok := l.RowAt(-1); ok {
		t.Error("RowAt(-1) should fail")
	}
}

func TestNewCommandList_Builtin(t *testing.T) {
	c := catalog.Builtin()
	l := newCommandList(c)

	if l.Len() != len(catalog.BuiltinPrimary())+len(catalog.BuiltinSecondary()) {
		t.Fatalf("Len() = %d", l.Len())
	}
	ref, ok := l.Current()
	if !ok || ref != (catalog.Ref{Group: catalog.Primary, Index: 0}) {
		t.Errorf("Current() = %v,%v", ref, ok)
	}
}
