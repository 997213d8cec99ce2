package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/five82/relaydash/internal/gateway"
	"github.com/five82/relaydash/internal/logtail"
	"github.com/five82/relaydash/internal/prefs"
	"github.com/five82/relaydash/internal/realtime"
	"github.com/five82/relaydash/internal/relay"
	"github.com/five82/relaydash/internal/state"
)

// Tab is the active content pane.
type Tab int

const (
	TabDevices Tab = iota
	TabSchedules
	TabLogs
	TabDiagnostics
)

var tabNames = [...]string{"devices", "schedules", "logs", "diagnostics"}

func (t Tab) String() string {
	if t < 0 || int(t) >= len(tabNames) {
		return tabNames[0]
	}
	return tabNames[t]
}

// ParseTab maps a tab name to a Tab, defaulting to devices.
func ParseTab(name string) Tab {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range tabNames {
		if n == name {
			return Tab(i)
		}
	}
	return TabDevices
}

// Gateway is the intent surface the dashboard drives. *gateway.Gateway
// satisfies it.
type Gateway interface {
	Refresh(ctx context.Context) error
	ControlDevice(ctx context.Context, deviceID string, state relay.RelayState) error
	AddDevice(ctx context.Context, in relay.NewDevice) error
	UpdateDevice(ctx context.Context, id string, in relay.DeviceUpdate) error
	DeleteDevice(ctx context.Context, id string) error
	AddSchedule(ctx context.Context, in relay.NewSchedule) error
	UpdateSchedule(ctx context.Context, id string, in relay.NewSchedule) error
	ToggleSchedule(ctx context.Context, id string) error
	DeleteSchedule(ctx context.Context, id string) error
}

// Source yields store snapshots. *state.Store satisfies it.
type Source interface {
	Snapshot() state.Snapshot
}

// Reconnector drops the push connection. *realtime.Channel satisfies it.
type Reconnector interface {
	Disconnect() bool
	State() realtime.State
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Gateway   Gateway
	Store     Source
	Channel   Reconnector
	LogFile   string // client log shown on the diagnostics tab
	PollTick  time.Duration
	ThemeName string
	StartTab  string
	PrefsPath string
	Logger    logrus.FieldLogger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	gateway   Gateway
	store     Source
	channel   Reconnector
	prefsPath string
	pollTick  time.Duration
	log       logrus.FieldLogger

	// UI state
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	theme    Theme
	tab      Tab
	width    int
	height   int
	ready    bool
	showHelp bool

	// Data state
	snapshot state.Snapshot
	pending  int
	notice   string

	devices   table.Model
	schedules table.Model
	logView   viewport.Model

	follower  *logtail.Follower
	diagLevel logrus.Level
	diagView  viewport.Model
	diagErr   string

	form    *form
	confirm *confirmDialog
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	theme := GetTheme(opts.ThemeName)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:       ctx,
		gateway:   opts.Gateway,
		store:     opts.Store,
		channel:   opts.Channel,
		prefsPath: prefsPath,
		pollTick:  pollTick,
		log:       logger.WithField("component", "ui"),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		theme:     theme,
		tab:       ParseTab(opts.StartTab),
		diagLevel: logrus.InfoLevel,
		devices:   table.New(table.WithFocused(true)),
		schedules: table.New(table.WithFocused(true)),
		logView:   viewport.New(0, 0),
		diagView:  viewport.New(0, 0),
	}
	if opts.LogFile != "" {
		m.follower = logtail.NewFollower(opts.LogFile, DiagnosticsLines, logtail.Filter{MinLevel: m.diagLevel})
	}
	m.applyTheme()
	return m
}

type tickMsg time.Time

type snapshotMsg state.Snapshot

type intentResultMsg struct {
	op  gateway.Op
	err error
}

type diagMsg struct {
	lines []string
	err   error
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func snapshotCmd(store Source) tea.Cmd {
	return func() tea.Msg { return snapshotMsg(store.Snapshot()) }
}

func pollDiagCmd(f *logtail.Follower) tea.Cmd {
	return func() tea.Msg {
		lines, err := f.Poll()
		return diagMsg{lines: lines, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick), m.spinner.Tick}
	if m.store != nil {
		cmds = append(cmds, snapshotCmd(m.store))
	}
	if m.follower != nil {
		cmds = append(cmds, pollDiagCmd(m.follower))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(m.pollTick)}
		if m.store != nil {
			cmds = append(cmds, snapshotCmd(m.store))
		}
		if m.follower != nil && m.tab == TabDiagnostics {
			cmds = append(cmds, pollDiagCmd(m.follower))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil

	case intentResultMsg:
		return m.handleIntentResult(msg)

	case diagMsg:
		m.applyDiagnostics(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.confirm != nil {
		return m.handleConfirmKey(msg)
	}
	if m.form != nil {
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyTheme()
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.NextTab):
		return m.switchTab((m.tab + 1) % Tab(len(tabNames)))
	case key.Matches(msg, m.keys.PrevTab):
		return m.switchTab((m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames)))
	case key.Matches(msg, m.keys.Refresh):
		gw := m.gateway
		cmd := m.intent(gateway.OpRefresh, func(ctx context.Context) error {
			return gw.Refresh(ctx)
		})
		return m, cmd
	case key.Matches(msg, m.keys.Reconnect):
		m.reconnect()
		return m, nil
	}

	switch msg.String() {
	case "1", "2", "3", "4":
		return m.switchTab(Tab(msg.String()[0] - '1'))
	}

	switch m.tab {
	case TabDevices:
		return m.handleDevicesKey(msg)
	case TabSchedules:
		return m.handleSchedulesKey(msg)
	case TabLogs:
		var cmd tea.Cmd
		m.logView, cmd = m.logView.Update(msg)
		return m, cmd
	case TabDiagnostics:
		return m.handleDiagnosticsKey(msg)
	}
	return m, nil
}

func (m Model) switchTab(t Tab) (tea.Model, tea.Cmd) {
	m.tab = t
	m.notice = ""
	if t == TabDiagnostics && m.follower != nil {
		return m, pollDiagCmd(m.follower)
	}
	return m, nil
}

// intent runs fn off the update loop and reports back with intentResultMsg.
// Callers must keep the returned model so the pending counter sticks.
func (m *Model) intent(op gateway.Op, fn func(context.Context) error) tea.Cmd {
	if m.gateway == nil {
		return nil
	}
	m.pending++
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, IntentTimeout)
		defer cancel()
		return intentResultMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) handleIntentResult(msg intentResultMsg) (tea.Model, tea.Cmd) {
	if m.pending > 0 {
		m.pending--
	}
	if m.form != nil && m.form.op() == msg.op {
		if msg.err == nil {
			m.form = nil
		} else {
			m.form.busy = false
			m.form.err = errorText(msg.err)
		}
	}
	if msg.err != nil {
		m.log.WithError(msg.err).WithField("op", string(msg.op)).Debug("intent reported failure")
		m.notice = ""
	} else if msg.op != gateway.OpRefresh {
		m.notice = successNotice(msg.op)
	}
	if m.store == nil {
		return m, nil
	}
	return m, snapshotCmd(m.store)
}

func (m *Model) reconnect() {
	if m.channel == nil {
		return
	}
	if m.channel.Disconnect() {
		m.notice = "Push channel dropped; reconnecting"
		m.log.Info("push channel reset by user")
		return
	}
	switch m.channel.State() {
	case realtime.Connecting:
		m.notice = "Push channel connect attempt in progress"
	default:
		m.notice = "Push channel offline; reconnect scheduled"
	}
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, StartTab: m.tab.String()}); err != nil {
		m.log.WithError(err).Warn("save preferences")
	}
}

func (m *Model) applyTheme() {
	styles := m.theme.TableStyles()
	m.devices.SetStyles(styles)
	m.schedules.SetStyles(styles)
	m.spinner.Style = m.theme.Styles().AccentText
}

func (m *Model) resize() {
	bodyHeight := m.height - chromeHeight
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	m.devices.SetColumns(deviceColumns(m.width))
	m.devices.SetHeight(bodyHeight)
	m.devices.SetWidth(m.width)
	m.schedules.SetColumns(scheduleColumns(m.width))
	m.schedules.SetHeight(bodyHeight)
	m.schedules.SetWidth(m.width)
	m.logView.Width = m.width
	m.logView.Height = bodyHeight
	m.diagView.Width = m.width
	m.diagView.Height = bodyHeight - 1
	m.help.Width = m.width
	m.refreshViews()
}

func (m *Model) applySnapshot(snap state.Snapshot) {
	m.snapshot = snap
	m.refreshViews()
}

func (m *Model) refreshViews() {
	now := time.Now()
	compact := m.width > 0 && m.width < LayoutCompactWidth
	wide := m.width >= LayoutWideWidth

	m.devices.SetRows(deviceRows(m.snapshot.Devices, now, compact, wide))
	clampCursor(&m.devices)
	m.schedules.SetRows(scheduleRows(m.snapshot, compact))
	clampCursor(&m.schedules)

	// Entries arrive newest first; stay pinned to the top unless scrolled.
	atTop := m.logView.AtTop()
	m.logView.SetContent(renderLogLines(m.snapshot, m.theme))
	if atTop {
		m.logView.GotoTop()
	}
}

func clampCursor(t *table.Model) {
	n := len(t.Rows())
	switch {
	case n == 0:
		t.SetCursor(0)
	case t.Cursor() >= n:
		t.SetCursor(n - 1)
	case t.Cursor() < 0:
		t.SetCursor(0)
	}
}

func successNotice(op gateway.Op) string {
	switch op {
	case gateway.OpControlDevice:
		return "Command sent"
	case gateway.OpAddDevice:
		return "Device added"
	case gateway.OpUpdateDevice:
		return "Device updated"
	case gateway.OpDeleteDevice:
		return "Device deleted"
	case gateway.OpAddSchedule:
		return "Schedule added"
	case gateway.OpUpdateSchedule:
		return "Schedule updated"
	case gateway.OpToggleSchedule:
		return "Schedule toggled"
	case gateway.OpDeleteSchedule:
		return "Schedule deleted"
	}
	return ""
}

// errorText strips the op prefix MutationError adds; the form title already
// names the operation.
func errorText(err error) string {
	var mutErr *gateway.MutationError
	if errors.As(err, &mutErr) {
		return mutErr.Err.Error()
	}
	return err.Error()
}
