package tui

import "github.com/charmbracelet/lipgloss"

// Terminal theme colors (ANSI 0-15) so the UI follows the user's scheme
var (
	colorBlack       = lipgloss.Color("0")
	colorRed         = lipgloss.Color("1")
	colorGreen       = lipgloss.Color("2")
	colorYellow      = lipgloss.Color("3")
	colorBlue        = lipgloss.Color("4")
	colorMagenta     = lipgloss.Color("5")
	colorCyan        = lipgloss.Color("6")
	colorWhite       = lipgloss.Color("7")
	colorBrightBlack = lipgloss.Color("8")

	// Semantic aliases
	primaryColor   = colorYellow
	successColor   = colorGreen
	dangerColor    = colorRed
	warningColor   = colorYellow
	highlightColor = colorMagenta
	fgColor        = colorWhite
	borderColor    = colorBlue

	statusBarStyle = lipgloss.NewStyle().
			Foreground(fgColor)

	statusRunningStyle = lipgloss.NewStyle().
				Foreground(successColor).
				Bold(true)

	statusFailedStyle = lipgloss.NewStyle().
				Foreground(dangerColor).
				Bold(true)

	// Command rows - the cursor row uses bright black background
	selectionBg = colorBrightBlack

	cursorBgStyle = lipgloss.NewStyle().
			Background(selectionBg)

	pickedStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true)

	pickedCursorStyle = lipgloss.NewStyle().
				Foreground(highlightColor).
				Background(selectionBg).
				Bold(true)

	primaryCommandStyle = lipgloss.NewStyle().
				Bold(true)

	primaryCommandCursorStyle = lipgloss.NewStyle().
					Background(selectionBg).
					Bold(true)

	flagStyle = lipgloss.NewStyle().
			Foreground(colorCyan)

	flagCursorStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Background(selectionBg)

	// Options panel
	labelStyle = lipgloss.NewStyle().
			Foreground(colorBrightBlack)

	activeLabelStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)

	disabledStyle = lipgloss.NewStyle().
			Foreground(colorBrightBlack).
			Strikethrough(true)

	previewStyle = lipgloss.NewStyle().
			Foreground(colorCyan)

	// Output lines
	stderrPrefixStyle = lipgloss.NewStyle().
				Foreground(warningColor)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorBrightBlack).
			Italic(true)

	// Modal/dialog styles
	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2)

	dialogTitleStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)

	// Error/success messages
	errorStyle = lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorBrightBlack)

	// Help key style
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(primaryColor)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(fgColor)
)
