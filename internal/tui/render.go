package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cargo-runner/cargo-runner/internal/catalog"
	"github.com/cargo-runner/cargo-runner/internal/version"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// labelWidth is the width of the option labels
const labelWidth = 9

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var s strings.Builder

	// Main panels
	s.WriteString(m.renderPanels())

	// Status bar
	s.WriteString("\n")
	s.WriteString(m.renderStatusBar())

	// Modal overlay
	if m.modal != modalNone {
		return m.renderModal(s.String())
	}

	return s.String()
}

func (m Model) renderPanels() string {
	leftW := m.leftWidth()
	rightW := m.width - leftW
	totalH := m.bodyHeight()

	info := m.renderInfoPanel("⚙ cargo-runner", m.shortenPath(m.workspace), version.Version, leftW)
	commands := m.renderPanel(1, "Commands", m.renderCommandList(leftW-4),
		leftW, m.commandsPanelHeight(), m.activePanel == panelCommands)
	options := m.renderPanel(2, "Options", m.renderOptions(leftW-4),
		leftW, optionsPanelHeight, m.activePanel == panelOptions)

	outputTitle := "Output"
	if m.followOutput {
		outputTitle += " (follow)"
	}
	if m.wrapLines {
		outputTitle += " (wrap)"
	}
	output := m.renderPanel(3, outputTitle, m.outputView.View(),
		rightW, totalH, m.activePanel == panelOutput)

	left := lipgloss.JoinVertical(lipgloss.Left, info, commands, options)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, output)
}

func (m Model) renderInfoPanel(logo, dir, ver string, width int) string {
	// Border characters
	tl, tr, bl, br := "╭", "╮", "╰", "╯"
	h, v := "─", "│"

	border := lipgloss.NewStyle().Foreground(borderColor)
	topLine := border.Render(tl + strings.Repeat(h, width-2) + tr)
	bottomLine := border.Render(bl + strings.Repeat(h, width-2) + br)
	vBorder := border.Render(v)

	// Logo and workspace left-aligned, version right-aligned
	contentWidth := width - 4
	styledLogo := lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render(logo)
	styledVer := mutedStyle.Render(ver)

	dirWidth := contentWidth - lipgloss.Width(logo) - 2 - lipgloss.Width(ver) - 1
	dir = fitWidth(dir, max(dirWidth, 0), "…")
	line := styledLogo + "  " + dir + " " + styledVer

	contentLine := vBorder + " " + fitWidth(line, contentWidth, "…") + " " + vBorder
	return topLine + "\n" + contentLine + "\n" + bottomLine
}

// renderPanel draws a bordered panel titled ╭─[num]─title───╮
func (m Model) renderPanel(num int, title, content string, width, height int, active bool) string {
	color := borderColor
	if active {
		color = primaryColor
	}
	border := lipgloss.NewStyle().Foreground(color)
	titleStyle := lipgloss.NewStyle().Foreground(color).Bold(active)

	tl, tr, bl, br := "╭", "╮", "╰", "╯"
	h, v := "─", "│"

	numText := fmt.Sprintf("[%d]", num)
	rest := width - 2 - lipgloss.Width(numText) - 1 - lipgloss.Width(title) - 1
	if rest < 0 {
		rest = 0
	}
	topLine := border.Render(tl+h) +
		titleStyle.Render(numText) +
		border.Render(h) +
		titleStyle.Render(title) +
		border.Render(strings.Repeat(h, rest)+tr)
	topLine = fitWidth(topLine, width, "")

	bottomLine := border.Render(bl + strings.Repeat(h, max(width-2, 0)) + br)
	vBorder := border.Render(v)

	contentWidth := width - 4
	contentLines := strings.Split(content, "\n")
	lines := make([]string, 0, height)
	for i := 0; i < height-2; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines, vBorder+" "+fitWidth(line, contentWidth, "…")+" "+vBorder)
	}

	return topLine + "\n" + strings.Join(lines, "\n") + "\n" + bottomLine
}

// renderCommandList draws one row per catalog entry:
//
//	 2 Test      cargo test        rel args
//
// The number is the pick order; runs follow it.
func (m Model) renderCommandList(width int) string {
	start, end := m.list.Visible()
	focused := m.activePanel == panelCommands

	var lines []string
	for i := start; i < end; i++ {
		ref := m.list.refs[i]
		d, _ := m.catalog.Lookup(ref)
		atCursor := focused && i == m.list.cursor
		lines = append(lines, m.formatCommandRow(ref, d, atCursor, width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) formatCommandRow(ref catalog.Ref, d catalog.Descriptor, atCursor bool, width int) string {
	nameStyle, textStyle, flags := lipgloss.NewStyle(), lipgloss.NewStyle(), flagStyle
	if ref.Group == catalog.Primary {
		nameStyle = primaryCommandStyle
	}
	if atCursor {
		nameStyle = cursorBgStyle.Inherit(nameStyle)
		if ref.Group == catalog.Primary {
			nameStyle = primaryCommandCursorStyle
		}
		textStyle = cursorBgStyle
		flags = flagCursorStyle
	}

	marker := textStyle.Render("  ")
	if pos := m.selection.Position(ref); pos > 0 {
		style := pickedStyle
		if atCursor {
			style = pickedCursorStyle
		}
		marker = style.Render(fmt.Sprintf("%2d", pos))
		nameStyle = style
	}

	var tags []string
	if d.SupportsRelease {
		tags = append(tags, "rel")
	}
	if d.AllowsTrailingArgs {
		tags = append(tags, "args")
	}
	tagText := strings.Join(tags, " ")

	cmdText := m.controller.Tool() + " " + d.Subcommand
	nameW := 10
	cmdW := width - 2 - 1 - nameW - 1 - len("rel args") - 1
	if cmdW < 0 {
		cmdW = 0
	}

	row := marker +
		textStyle.Render(" ") +
		nameStyle.Render(fitWidth(d.Label, nameW, "…")) +
		textStyle.Render(" ") +
		mutedStyle.Inherit(textStyle).Render(fitWidth(cmdText, cmdW, "…")) +
		textStyle.Render(" ") +
		flags.Render(fitWidth(tagText, len("rel args"), ""))

	// Fill the rest of the cursor row
	return row + textStyle.Render(strings.Repeat(" ", max(width-lipgloss.Width(row), 0)))
}

// renderOptions draws the release toggle, the argument inputs and a preview
// of what enter would run
func (m Model) renderOptions(width int) string {
	focused := m.activePanel == panelOptions
	label := func(row int, text string) string {
		style := labelStyle
		if focused && m.optionRow == row {
			style = activeLabelStyle
		}
		return style.Render(fitWidth(text, labelWidth, ""))
	}

	check := "[ ]"
	if m.release {
		check = "[x]"
	}
	releaseText := check + " --release"
	if !m.selection.ReleaseAllowed(m.catalog) {
		releaseText = disabledStyle.Render(releaseText)
	}

	lines := []string{
		label(rowRelease, "release") + " " + releaseText,
		label(rowCargoArgs, "cargo") + " " + m.inputs[inputCargoArgs].View(),
		label(rowProgramArgs, "program") + " " + m.inputs[inputProgramArgs].View(),
		label(rowCustom, "custom") + " " + m.inputs[inputCustom].View(),
		"",
		m.renderPreview(width),
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderPreview(width int) string {
	lines, err := m.commandLines()
	if err != nil {
		return errorStyle.Render(fitWidth(err.Error(), width, "…"))
	}
	if len(lines) == 0 {
		return ""
	}
	text := "$ " + lines[0]
	if len(lines) > 1 {
		text += fmt.Sprintf(" (+%d)", len(lines)-1)
	}
	return previewStyle.Render(fitWidth(text, width, "…"))
}

func (m Model) renderStatusBar() string {
	// Run status on the left, always visible
	status := " " + m.renderRunStatus() + " "
	rest := m.width - lipgloss.Width(status)

	var content string
	if m.message != "" && time.Since(m.messageTime) < 3*time.Second {
		if m.isError {
			content = errorStyle.Render(m.message)
		} else {
			content = successStyle.Render(m.message)
		}
	} else {
		var parts []string
		switch m.activePanel {
		case panelCommands:
			parts = append(parts,
				m.renderKey("↑↓", "navigate"),
				m.renderKey("space", "pick"),
				m.renderKey("a", "add"),
				m.renderKey("enter", "run"),
				m.renderKey("s", "stop"),
				m.renderKey("r", "release"),
			)
		case panelOptions:
			parts = append(parts,
				m.renderKey("↑↓", "field"),
				m.renderKey("enter", "run"),
				m.renderKey("esc", "back"),
			)
		case panelOutput:
			parts = append(parts,
				m.renderKey("↑↓", "scroll"),
				m.renderKey("h/l", "left/right"),
				m.renderKey("g/G", "top/bottom"),
				m.renderKey("f", "follow"),
				m.renderKey("w", "wrap"),
				m.renderKey("c", "copy"),
			)
		}
		parts = append(parts, m.renderKey("?", "help"), m.renderKey("q", "quit"))
		content = strings.Join(parts, " ")
	}

	return statusBarStyle.Render(status + fitWidth(content, max(rest, 0), "…"))
}

func (m Model) renderRunStatus() string {
	switch {
	case m.running:
		text := m.status
		if !m.runStarted.IsZero() {
			text += " " + formatDuration(time.Since(m.runStarted))
		}
		return m.spinner.View() + " " + statusRunningStyle.Render(text)
	case strings.HasPrefix(m.status, "Failed"):
		return statusFailedStyle.Render("✖ " + m.status)
	default:
		return mutedStyle.Render("○ " + m.status)
	}
}

func (m Model) renderKey(key, desc string) string {
	return helpKeyStyle.Render(key) + " " + helpDescStyle.Render(desc)
}

func (m Model) renderModal(background string) string {
	content := m.renderHelpModal()

	modalWidth := lipgloss.Width(content)
	modalHeight := lipgloss.Height(content)
	x := (m.width - modalWidth) / 2
	y := (m.height - modalHeight) / 2

	return placeOverlay(x, y, content, background)
}

func (m Model) renderHelpModal() string {
	title := dialogTitleStyle.Render("Keyboard Shortcuts")
	body := m.help.FullHelpView(keys.FullHelp())
	footer := helpDescStyle.Render("press esc or ? to close")

	return dialogStyle.Render(title + "\n\n" + body + "\n\n" + footer)
}

// placeOverlay places fg on top of bg at column x, row y
func placeOverlay(x, y int, fg, bg string) string {
	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")
	x = max(x, 0)

	for i, fgLine := range fgLines {
		bgY := y + i
		if bgY < 0 || bgY >= len(bgLines) {
			continue
		}

		bgLine := bgLines[bgY]
		var line strings.Builder

		left := ansi.Truncate(bgLine, x, "")
		line.WriteString(left)
		if w := ansi.StringWidth(left); w < x {
			line.WriteString(strings.Repeat(" ", x-w))
		}

		line.WriteString(fgLine)

		rightStart := x + ansi.StringWidth(fgLine)
		if rightStart < ansi.StringWidth(bgLine) {
			line.WriteString(ansi.TruncateLeft(bgLine, rightStart, ""))
		}

		bgLines[bgY] = line.String()
	}

	return strings.Join(bgLines, "\n")
}

// Helpers

func (m Model) shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == home || strings.HasPrefix(path, home+string(os.PathSeparator)) {
		return "~" + path[len(home):]
	}
	return path
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
