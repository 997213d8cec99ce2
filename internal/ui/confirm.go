package ui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/relaydash/internal/gateway"
)

// confirmDialog guards destructive intents.
type confirmDialog struct {
	op     gateway.Op
	prompt string
	run    func(ctx context.Context, g Gateway) error
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		c := m.confirm
		m.confirm = nil
		gw := m.gateway
		cmd := m.intent(c.op, func(ctx context.Context) error {
			return c.run(ctx, gw)
		})
		return m, cmd
	case "n", "esc", "q":
		m.confirm = nil
	}
	return m, nil
}

func (m Model) renderConfirm() string {
	styles := m.theme.Styles()
	body := styles.WarningText.Bold(true).Render(m.confirm.prompt) + "\n\n" +
		styles.FaintText.Render("y confirm · n cancel")
	return styles.Dialog.Render(body)
}
