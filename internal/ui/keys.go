package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	Refresh    key.Binding
	Reconnect  key.Binding

	// Devices
	TurnOn      key.Binding
	TurnOff     key.Binding
	ToggleRelay key.Binding

	// Devices and schedules
	Add    key.Binding
	Edit   key.Binding
	Delete key.Binding

	// Schedules
	ToggleSchedule key.Binding

	// Diagnostics
	CycleLevel key.Binding

	// Navigation
	Up   key.Binding
	Down key.Binding

	// Forms and dialogs
	Confirm   key.Binding
	Cancel    key.Binding
	NextField key.Binding
	PrevField key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?", "h"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "Next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "left"),
			key.WithHelp("shift+tab", "Previous tab"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh"),
		),
		Reconnect: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Reconnect push channel"),
		),

		TurnOn: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Relay on"),
		),
		TurnOff: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Relay off"),
		),
		ToggleRelay: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Toggle relay"),
		),

		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "Delete"),
		),

		ToggleSchedule: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Toggle schedule"),
		),

		CycleLevel: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Cycle log level"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns key bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.Up, k.Down},
		{k.TurnOn, k.TurnOff, k.ToggleRelay},
		{k.Add, k.Edit, k.Delete, k.ToggleSchedule},
		{k.Refresh, k.Reconnect, k.CycleLevel},
		{k.CycleTheme, k.Help, k.Quit},
	}
}

// tabKeys returns the bindings relevant to the active tab for the footer.
func (k keyMap) tabKeys(t Tab) []key.Binding {
	switch t {
	case TabDevices:
		return []key.Binding{k.TurnOn, k.TurnOff, k.ToggleRelay, k.Add, k.Edit, k.Delete}
	case TabSchedules:
		return []key.Binding{k.Add, k.Edit, k.ToggleSchedule, k.Delete}
	case TabDiagnostics:
		return []key.Binding{k.CycleLevel, k.Reconnect}
	default:
		return nil
	}
}
