package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// SETTINGS
func (m *model) updateSettings(msg tea.Msg) tea.Cmd {
	switch m.state {
	case stateSettingsEditEndpoint, stateSettingsEditName, stateSettingsEditTimezone:
		return m.updateSettingsEdit(msg)
	}

	var cmds []tea.Cmd
	if focus := m.ensureMenuInput("1=接続先  2=表示名  3=タイムゾーン  4=戻る", 48); focus != nil {
		cmds = append(cmds, focus)
	}
	var cmd tea.Cmd
	m.menuInput, cmd = m.menuInput.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok || key.Type != tea.KeyEnter {
		if ok && key.Type == tea.KeyEsc {
			cmds = append(cmds, m.goHome())
		}
		return batchCmds(cmds)
	}

	choice := strings.TrimSpace(strings.ToLower(m.menuInput.Value()))
	m.menuInput.SetValue("")
	switch {
	case isExitCommand(choice) || isBackCommand(choice) || choice == "4":
		cmds = append(cmds, m.goHome())
	case choice == "1":
		cmds = append(cmds, m.beginSettingsEdit(stateSettingsEditEndpoint, m.cfg.Config.Endpoint))
	case choice == "2":
		cmds = append(cmds, m.beginSettingsEdit(stateSettingsEditName, m.cfg.Config.Name))
	case choice == "3":
		cmds = append(cmds, m.beginSettingsEdit(stateSettingsEditTimezone, m.cfg.Config.Timezone))
	case choice == "":
	default:
		m.errMessage = "1〜4 を選択してください"
	}
	return batchCmds(cmds)
}

func (m *model) beginSettingsEdit(next viewState, current string) tea.Cmd {
	m.resetMessages()
	m.settings.err = ""
	m.settings.input.SetValue(current)
	m.settings.input.CursorEnd()
	m.pushState(next)
	if !m.settings.input.Focused() {
		return m.settings.input.Focus()
	}
	return nil
}

func (m *model) updateSettingsEdit(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.settings.input, cmd = m.settings.input.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return batchCmds(cmds)
	}
	switch key.Type {
	case tea.KeyEsc:
		m.settings.input.Blur()
		m.popState()
		if focus := m.setMenuInput("1=接続先  2=表示名  3=タイムゾーン  4=戻る", 48); focus != nil {
			cmds = append(cmds, focus)
		}
	case tea.KeyEnter:
		value := strings.TrimSpace(m.settings.input.Value())
		if err := m.applySetting(value); err != "" {
			m.settings.err = err
			return batchCmds(cmds)
		}
		m.settings.err = ""
		m.settings.input.Blur()
		m.popState()
		if focus := m.setMenuInput("1=接続先  2=表示名  3=タイムゾーン  4=戻る", 48); focus != nil {
			cmds = append(cmds, focus)
		}
	}
	return batchCmds(cmds)
}

// applySetting validates and persists one edited value, returning a user
// message on rejection.
func (m *model) applySetting(value string) string {
	switch m.state {
	case stateSettingsEditEndpoint:
		if value == "" {
			return "接続先URLを入力してください"
		}
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return "http:// または https:// で始まるURLを入力してください"
		}
		m.cfg.Config.Endpoint = value
		m.store.SetEndpoint(value)
	case stateSettingsEditName:
		if value == "" {
			return "表示名を入力してください"
		}
		m.cfg.Config.Name = value
	case stateSettingsEditTimezone:
		loc, err := time.LoadLocation(value)
		if err != nil {
			return "タイムゾーン名が不正です（例: Asia/Tokyo）"
		}
		m.cfg.Config.Timezone = value
		m.sess.SetClock(ledgerClock(loc))
	}
	if err := m.cfg.Save(); err != nil {
		m.log.Error().Err(err).Msg("save config")
		return "設定の保存に失敗しました"
	}
	m.log.Info().Str("endpoint", m.cfg.Config.Endpoint).
		Str("timezone", m.cfg.Config.Timezone).Msg("config updated")
	m.infoMessage = "設定を保存しました"
	return ""
}

func (m *model) viewSettings() string {
	switch m.state {
	case stateSettingsEditEndpoint:
		return m.viewSettingsEdit("接続先URL")
	case stateSettingsEditName:
		return m.viewSettingsEdit("表示名")
	case stateSettingsEditTimezone:
		return m.viewSettingsEdit("タイムゾーン")
	}

	lines := []string{
		m.theme.Title.Render("設定"),
		"",
		m.theme.Secondary.Render("1. 接続先URL: ") + m.theme.Primary.Render(m.cfg.Config.Endpoint),
		m.theme.Secondary.Render("2. 表示名: ") + m.theme.Primary.Render(m.cfg.Config.Name),
		m.theme.Secondary.Render("3. タイムゾーン: ") + m.theme.Primary.Render(m.cfg.Config.Timezone),
		m.theme.Faint.Render("4. 戻る"),
		"",
		m.theme.Accent.Render("> ") + m.menuInput.View(),
	}
	if m.infoMessage != "" {
		lines = append(lines, "", m.theme.Success.Render(m.infoMessage))
	}
	if m.errMessage != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.errMessage))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *model) viewSettingsEdit(label string) string {
	lines := []string{
		m.theme.Title.Render("設定：" + label),
		m.theme.Faint.Render("Enterで保存、Escで取消"),
		"",
		m.theme.Accent.Render(label+"> ") + m.settings.input.View(),
	}
	if m.settings.err != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.settings.err))
	}
	return strings.Join(lines, "\n") + "\n"
}
