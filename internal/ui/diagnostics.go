package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/five82/relaydash/internal/logtail"
)

// diagLevels is the cycle for the diagnostics level filter.
var diagLevels = []logrus.Level{logrus.DebugLevel, logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel}

func nextDiagLevel(current logrus.Level) logrus.Level {
	for i, l := range diagLevels {
		if l == current {
			return diagLevels[(i+1)%len(diagLevels)]
		}
	}
	return logrus.InfoLevel
}

func (m *Model) applyDiagnostics(msg diagMsg) {
	if msg.err != nil {
		m.diagErr = msg.err.Error()
		return
	}
	m.diagErr = ""
	if msg.lines == nil {
		return
	}
	atBottom := m.diagView.AtBottom()
	m.diagView.SetContent(strings.Join(msg.lines, "\n"))
	if atBottom {
		m.diagView.GotoBottom()
	}
}

func (m Model) handleDiagnosticsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.CycleLevel) {
		m.diagLevel = nextDiagLevel(m.diagLevel)
		if m.follower == nil {
			return m, nil
		}
		m.follower.SetFilter(logtail.Filter{MinLevel: m.diagLevel})
		m.diagView.GotoBottom()
		return m, pollDiagCmd(m.follower)
	}
	var cmd tea.Cmd
	m.diagView, cmd = m.diagView.Update(msg)
	return m, cmd
}
