package tui

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/cargo-runner/cargo-runner/internal/args"
	"github.com/cargo-runner/cargo-runner/internal/catalog"
	"github.com/cargo-runner/cargo-runner/internal/job"
	"github.com/cargo-runner/cargo-runner/internal/runner"
	"github.com/cargo-runner/cargo-runner/internal/telemetry"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// Panel focus
type panel int

const (
	panelCommands panel = iota
	panelOptions
	panelOutput
	panelCount
)

// Modal mode
type modalMode int

const (
	modalNone modalMode = iota
	modalHelp
)

// Rows of the options panel
const (
	rowRelease = iota
	rowCargoArgs
	rowProgramArgs
	rowCustom
	optionRowCount
)

// Text inputs, indexed by option row - 1
const (
	inputCargoArgs = iota
	inputProgramArgs
	inputCustom
	inputCount
)

// Fixed panel heights
const (
	infoPanelHeight    = 3
	optionsPanelHeight = 8 // border (2) + 4 rows + blank + preview
)

// maxEventBatch bounds how many queued runner events one Update applies
const maxEventBatch = 512

// runnerEventsMsg carries events from the run worker
type runnerEventsMsg struct {
	events []runner.Event
}

// observerClosedMsg is sent when the event channel closes
type observerClosedMsg struct{}

// actionResultMsg is sent after an action completes
type actionResultMsg struct {
	message string
	isError bool
}

// Options seeds the form
type Options struct {
	Workspace   string
	Release     bool
	CargoArgs   string
	ProgramArgs string
}

// Model is the main TUI model. It is the observer of the runs it starts.
type Model struct {
	controller *runner.Controller
	catalog    *catalog.Catalog
	sink       *runner.ChannelSink
	workspace  string

	// State
	activePanel panel
	modal       modalMode
	width       int
	height      int
	ready       bool
	message     string
	messageTime time.Time
	isError     bool

	// Form
	list      commandList
	selection Selection
	release   bool
	inputs    [inputCount]textinput.Model
	optionRow int

	// Output
	help         help.Model
	outputView   viewport.Model
	output       outputBuffer
	followOutput bool
	wrapLines    bool

	// Run state as reported by the worker
	spinner    spinner.Model
	running    bool
	status     string
	runStarted time.Time
}

// New creates a new TUI model. Runs started from it report to sink.
func New(controller *runner.Controller, sink *runner.ChannelSink, opts Options) Model {
	placeholders := [inputCount]string{
		inputCargoArgs:   "--features serde --quiet",
		inputProgramArgs: "--nocapture",
		inputCustom:      "cargo bench --no-run",
	}
	values := [inputCount]string{
		inputCargoArgs:   opts.CargoArgs,
		inputProgramArgs: opts.ProgramArgs,
	}

	var inputs [inputCount]textinput.Model
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 512
		ti.Prompt = ""
		ti.SetValue(values[i])
		inputs[i] = ti
	}

	h := help.New()
	h.ShowAll = true

	c := controller.Catalog()
	return Model{
		controller:   controller,
		catalog:      c,
		sink:         sink,
		workspace:    opts.Workspace,
		activePanel:  panelCommands,
		modal:        modalNone,
		list:         newCommandList(c),
		release:      opts.Release,
		inputs:       inputs,
		help:         h,
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(statusRunningStyle)),
		followOutput: true,
		status:       runner.StatusIdle,
	}
}

// Init starts listening for runner events
func (m Model) Init() tea.Cmd {
	return waitForEvents(m.sink.Events())
}

// waitForEvents blocks for one event, then takes whatever else is already
// queued so a chatty build does not cost one render per line
func waitForEvents(events <-chan runner.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return observerClosedMsg{}
		}

		batch := []runner.Event{event}
		for len(batch) < maxEventBatch {
			select {
			case event, ok := <-events:
				if !ok {
					return runnerEventsMsg{events: batch}
				}
				batch = append(batch, event)
			default:
				return runnerEventsMsg{events: batch}
			}
		}
		return runnerEventsMsg{events: batch}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.layout()

	case runnerEventsMsg:
		wasRunning := m.running
		for _, event := range msg.events {
			m.handleRunnerEvent(event)
		}
		m.refreshOutput()
		if m.running && !wasRunning {
			return m, tea.Batch(waitForEvents(m.sink.Events()), m.spinner.Tick)
		}
		return m, waitForEvents(m.sink.Events())

	case spinner.TickMsg:
		// Ticking stops once the run is over
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case observerClosedMsg:
		return m, nil

	case actionResultMsg:
		m.setMessage(msg.message, msg.isError)

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		// Clear old messages
		if time.Since(m.messageTime) > 3*time.Second {
			m.message = ""
		}

		if m.modal != modalNone {
			return m.updateModal(msg)
		}
		return m.updateMain(msg)
	}

	return m, nil
}

// handleRunnerEvent applies one worker event to the model
func (m *Model) handleRunnerEvent(event runner.Event) {
	switch event.Type {
	case runner.EventTypeRunStarted:
		m.output.Reset()
		m.running = true
		m.status = event.Status
		m.runStarted = time.Now()
		m.followOutput = true
		telemetry.RunStarted("tui", event.Total, m.release)

	case runner.EventTypeOutput:
		m.output.Append(event.Line)

	case runner.EventTypeStatus:
		m.status = event.Status

	case runner.EventTypeRunFinished:
		m.running = false
		m.status = event.Status
		telemetry.RunFinished("tui", string(event.Outcome), time.Since(m.runStarted))
	}
}

func (m *Model) setMessage(message string, isError bool) {
	m.message = message
	m.isError = isError
	m.messageTime = time.Now()
}

func (m Model) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m.quit()
	case key.Matches(msg, keys.Escape), key.Matches(msg, keys.Help), key.Matches(msg, keys.Quit):
		m.modal = modalNone
	}
	return m, nil
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A focused text input gets every key except the ones that leave it
	if m.editing() {
		return m.updateInput(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()

	case key.Matches(msg, keys.Help):
		m.modal = modalHelp
		return m, nil

	case key.Matches(msg, keys.Tab):
		return m, m.setPanel((m.activePanel + 1) % panelCount)

	case key.Matches(msg, keys.ShiftTab):
		return m, m.setPanel((m.activePanel + panelCount - 1) % panelCount)

	case msg.String() == "1", msg.String() == "2", msg.String() == "3":
		return m, m.setPanel(panel(msg.String()[0] - '1'))

	case key.Matches(msg, keys.Run):
		m.submit()
		return m, nil

	case key.Matches(msg, keys.Stop):
		m.stop()
		return m, nil

	case key.Matches(msg, keys.Release):
		m.toggleRelease()
		return m, nil

	case key.Matches(msg, keys.Clear):
		m.selection.Clear()
		telemetry.TUIActionExecute("clear_selection")
		return m, nil

	case key.Matches(msg, keys.Edit):
		m.optionRow = rowCargoArgs
		return m, m.setPanel(panelOptions)

	case key.Matches(msg, keys.Copy):
		telemetry.TUIActionExecute("copy_output")
		return m, copyToClipboard(m.output.Text(), "output")

	case key.Matches(msg, keys.CopyCommand):
		lines, err := m.commandLines()
		if err != nil {
			m.setMessage(err.Error(), true)
			return m, nil
		}
		telemetry.TUIActionExecute("copy_command")
		return m, copyToClipboard(strings.Join(lines, "\n"), "command line")
	}

	switch m.activePanel {
	case panelCommands:
		return m.updateCommandsPanel(msg)
	case panelOptions:
		return m.updateOptionsPanel(msg)
	default:
		return m.updateOutputPanel(msg)
	}
}

func (m Model) updateCommandsPanel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		m.list.Up()
	case key.Matches(msg, keys.Down):
		m.list.Down()
	case key.Matches(msg, keys.First):
		m.list.First()
	case key.Matches(msg, keys.Last):
		m.list.Last()
	case key.Matches(msg, keys.Select):
		m.pick(false)
	case key.Matches(msg, keys.Extend):
		m.pick(true)
	}
	return m, nil
}

func (m Model) updateOptionsPanel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		return m, m.moveOptionRow(-1)
	case key.Matches(msg, keys.Down):
		return m, m.moveOptionRow(1)
	case key.Matches(msg, keys.Select):
		m.toggleRelease()
	}
	return m, nil
}

// updateInput handles keys while a text input has focus
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m.quit()
	case key.Matches(msg, keys.Escape):
		return m, m.setPanel(panelCommands)
	case key.Matches(msg, keys.Tab):
		return m, m.setPanel(panelOutput)
	case key.Matches(msg, keys.ShiftTab):
		return m, m.setPanel(panelCommands)
	case msg.Type == tea.KeyUp:
		return m, m.moveOptionRow(-1)
	case msg.Type == tea.KeyDown:
		return m, m.moveOptionRow(1)
	case key.Matches(msg, keys.Run):
		m.submit()
		return m, nil
	}

	i := m.optionRow - 1
	var cmd tea.Cmd
	m.inputs[i], cmd = m.inputs[i].Update(msg)
	return m, cmd
}

func (m Model) updateOutputPanel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		m.outputView.LineUp(1)
		m.followOutput = false
		return m, nil

	case key.Matches(msg, keys.Down):
		m.outputView.LineDown(1)
		m.followOutput = m.outputView.AtBottom()
		return m, nil

	case key.Matches(msg, keys.First):
		m.outputView.GotoTop()
		m.followOutput = false
		return m, nil

	case key.Matches(msg, keys.Last):
		m.outputView.GotoBottom()
		m.followOutput = true
		return m, nil

	case key.Matches(msg, keys.Follow):
		m.followOutput = !m.followOutput
		telemetry.TUIActionExecute("toggle_follow")
		if m.followOutput {
			m.outputView.GotoBottom()
		}
		return m, nil

	case key.Matches(msg, keys.Wrap):
		m.wrapLines = !m.wrapLines
		telemetry.TUIActionExecute("toggle_wrap")
		m.outputView.SetXOffset(0)
		m.refreshOutput()
		return m, nil

	case msg.String() == "left", msg.String() == "h":
		m.outputView.ScrollLeft(4)
		return m, nil

	case msg.String() == "right", msg.String() == "l":
		m.outputView.ScrollRight(4)
		return m, nil
	}

	var cmd tea.Cmd
	m.outputView, cmd = m.outputView.Update(msg)
	if m.outputView.AtBottom() {
		m.followOutput = true
	}
	return m, cmd
}

func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.ready {
		return m, nil
	}

	if msg.X >= m.leftWidth() {
		var cmd tea.Cmd
		m.outputView, cmd = m.outputView.Update(msg)
		switch {
		case msg.Button == tea.MouseButtonWheelUp:
			m.followOutput = false
		case m.outputView.AtBottom():
			m.followOutput = true
		}
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.activePanel = panelOutput
		}
		return m, cmd
	}

	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	// Command rows start below the info panel and the commands panel border
	line := msg.Y - infoPanelHeight - 1
	if line >= m.commandsPanelHeight()-2 {
		return m, nil
	}
	if i, ok := m.list.RowAt(line); ok {
		m.activePanel = panelCommands
		m.list.MoveTo(i)
		m.pick(msg.Shift || msg.Ctrl)
	}
	return m, nil
}

// editing reports whether a text input has focus
func (m Model) editing() bool {
	return m.activePanel == panelOptions && m.optionRow != rowRelease
}

// setPanel moves focus, focusing the text input of the current option row
// when entering the options panel
func (m *Model) setPanel(p panel) tea.Cmd {
	m.activePanel = p
	telemetry.TUIActionExecute("switch_panel")
	return m.syncFocus()
}

func (m *Model) moveOptionRow(delta int) tea.Cmd {
	row := m.optionRow + delta
	if row < 0 || row >= optionRowCount {
		return nil
	}
	m.optionRow = row
	return m.syncFocus()
}

func (m *Model) syncFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.inputs {
		if m.activePanel == panelOptions && m.optionRow == i+1 {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

// pick selects the command under the cursor
func (m *Model) pick(extend bool) {
	ref, ok := m.list.Current()
	if !ok {
		return
	}
	m.selection.Select(ref, extend)
	if !m.selection.ReleaseAllowed(m.catalog) {
		m.release = false
	}
	telemetry.TUIActionExecute("select_command")
}

func (m *Model) toggleRelease() {
	if !m.selection.ReleaseAllowed(m.catalog) {
		m.release = false
		m.setMessage("--release is not supported by every selected command", true)
		return
	}
	m.release = !m.release
	telemetry.TUIActionExecute("toggle_release")
}

// submit asks the controller to run the current form. Every outcome,
// including rejection, comes back as runner events.
func (m *Model) submit() {
	telemetry.TUIActionExecute("run")
	_ = m.controller.Submit(m.request(), m.sink)
}

func (m Model) request() runner.Request {
	return runner.Request{
		Selection:       m.selection.Refs(),
		Custom:          m.inputs[inputCustom].Value(),
		CargoArgsText:   m.inputs[inputCargoArgs].Value(),
		ProgramArgsText: m.inputs[inputProgramArgs].Value(),
		Release:         m.release && m.selection.ReleaseAllowed(m.catalog),
	}
}

func (m *Model) stop() {
	if m.controller.Stop() {
		telemetry.TUIActionExecute("stop")
		m.setMessage("Stopping…", false)
		return
	}
	m.setMessage("Nothing is running", true)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.controller.Stop()
	return m, tea.Quit
}

// commandLines renders the command lines the current form would run
func (m Model) commandLines() ([]string, error) {
	req := m.request()

	opts, err := job.ParseOptions(req.Release, req.CargoArgsText, req.ProgramArgsText)
	if err != nil {
		return nil, err
	}
	queue, err := job.BuildQueue(m.catalog, req.Selection, req.Custom, m.controller.Tool())
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(queue))
	for _, j := range queue {
		argv := append([]string{m.controller.Tool()}, j.CommandLine(opts)...)
		lines = append(lines, args.Join(argv))
	}
	return lines, nil
}

func copyToClipboard(text, what string) tea.Cmd {
	return func() tea.Msg {
		if text == "" {
			return actionResultMsg{message: "Nothing to copy", isError: true}
		}
		if err := clipboard.WriteAll(text); err != nil {
			return actionResultMsg{message: "Copy failed: " + err.Error(), isError: true}
		}
		return actionResultMsg{message: "Copied " + what}
	}
}

// Layout

func (m Model) leftWidth() int {
	// 40% of screen, between 36 and 56 chars
	w := m.width * 40 / 100
	if w < 36 {
		w = 36
	}
	if w > 56 {
		w = 56
	}
	return w
}

func (m Model) bodyHeight() int {
	h := m.height - 1 // status bar
	if h < infoPanelHeight+optionsPanelHeight+4 {
		h = infoPanelHeight + optionsPanelHeight + 4
	}
	return h
}

func (m Model) commandsPanelHeight() int {
	return m.bodyHeight() - infoPanelHeight - optionsPanelHeight
}

func (m *Model) layout() {
	m.list.SetHeight(m.commandsPanelHeight() - 2)

	outputW := m.width - m.leftWidth()
	m.outputView = viewport.New(outputW-4, m.bodyHeight()-2)
	m.outputView.SetHorizontalStep(4)

	for i := range m.inputs {
		m.inputs[i].Width = m.leftWidth() - 4 - labelWidth - 1
	}
	m.refreshOutput()
}

func (m *Model) refreshOutput() {
	m.outputView.SetContent(m.formatOutput())
	if m.followOutput {
		m.outputView.GotoBottom()
	}
}

func (m Model) formatOutput() string {
	if m.output.Len() == 0 {
		return mutedStyle.Render("No output yet. Pick commands and press enter.")
	}

	lines := m.output.Lines()
	styled := make([]string, len(lines))
	for i, line := range lines {
		styled[i] = styleOutputLine(line)
		if m.wrapLines && m.outputView.Width > 0 {
			styled[i] = ansi.Wrap(styled[i], m.outputView.Width, " ")
		}
	}
	return strings.Join(styled, "\n")
}

// Start runs the TUI until the user quits. A run still active at that
// point is stopped and waited for.
func Start(controller *runner.Controller, opts Options) error {
	telemetry.TUISessionStart()
	defer telemetry.TUISessionEnd()

	sink := runner.NewChannelSink()
	defer sink.Close()

	// Kill the running job on SIGHUP (tmux kill) as well
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	done := make(chan struct{})
	defer close(done)
	go stopOnSignal(controller, sigChan, done, os.Exit)

	p := tea.NewProgram(New(controller, sink, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()

	controller.Stop()
	controller.Wait()

	return err
}

// stopOnSignal stops the active run and exits when a signal arrives, and
// returns without doing anything once done is closed
func stopOnSignal(controller *runner.Controller, signals <-chan os.Signal, done <-chan struct{}, exit func(int)) {
	select {
	case <-signals:
		controller.Stop()
		controller.Wait()
		exit(0)
	case <-done:
	}
}
