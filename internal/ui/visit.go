package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"visitledger/internal/store"
)

// VISIT ENTRY: CUSTOMER PICKER
// Only the customer selection happens here; the form fields stay untouched
// until the mode is chosen on the next screen.
func (m *model) updateVisitCustomerPick(msg tea.Msg) tea.Cmd {
	if m.loadErr != "" {
		return m.updateLoadErr(msg)
	}
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	filtered := store.FilterCustomers(m.dataset.ActiveCustomers(), m.searchInput.Value())
	m.pickerOpts = store.CustomerOptions(filtered, m.dataset.VisitCounts())

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc:
			m.searchInput.SetValue("")
			cmds = append(cmds, m.goHome())
		case tea.KeyEnter:
			value := strings.TrimSpace(m.searchInput.Value())
			if isExitCommand(value) || isBackCommand(value) {
				m.searchInput.SetValue("")
				cmds = append(cmds, m.goHome())
				return batchCmds(cmds)
			}
			if cid, ok := pickFromOptions(m.pickerOpts, value); ok {
				m.searchInput.SetValue("")
				m.resetMessages()
				if m.sess.CurrentCustomerID != cid {
					m.sess.ResetVisitSelection()
				}
				m.sess.CurrentCustomerID = cid
				if focus := m.setMenuInput("1=新規来店  2=既存来店履歴を編集  /=戻る", 32); focus != nil {
					cmds = append(cmds, focus)
				}
				m.pushState(stateVisitMode)
			}
		}
	}
	return batchCmds(cmds)
}

func (m *model) viewVisitCustomerPick() string {
	if m.loadErr != "" {
		return m.viewLoadErr("来店情報入力")
	}
	lines := []string{
		m.theme.Title.Render("来店情報入力：顧客の選択"),
		m.theme.Faint.Render("検索して番号または表示名で選択、/ で戻る"),
		"",
	}
	for i, label := range m.pickerOpts.Labels {
		style := m.theme.Primary
		if i == 0 {
			style = m.theme.Faint
		}
		lines = append(lines, style.Render(fmt.Sprintf("%d. %s", i, label)))
	}
	lines = append(lines, "")
	lines = append(lines, m.theme.Accent.Render("find> ")+m.searchInput.View())
	if m.infoMessage != "" {
		lines = append(lines, "", m.theme.Success.Render(m.infoMessage))
	}
	if m.errMessage != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.errMessage))
	}
	return strings.Join(lines, "\n") + "\n"
}

// VISIT ENTRY: MODE CHOICE
func (m *model) updateVisitMode(msg tea.Msg) tea.Cmd {
	if m.loadErr != "" {
		return m.updateLoadErr(msg)
	}
	var cmds []tea.Cmd
	if focus := m.ensureMenuInput("1=新規来店  2=既存来店履歴を編集  /=戻る", 32); focus != nil {
		cmds = append(cmds, focus)
	}
	var cmd tea.Cmd
	m.menuInput, cmd = m.menuInput.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok || key.Type != tea.KeyEnter {
		return batchCmds(cmds)
	}

	choice := strings.TrimSpace(strings.ToLower(m.menuInput.Value()))
	m.menuInput.SetValue("")
	switch {
	case isExitCommand(choice):
		cmds = append(cmds, m.goHome())
	case isBackCommand(choice):
		m.popState()
		if focus := m.restoreStateInput(); focus != nil {
			cmds = append(cmds, focus)
		}
	case choice == "1" || choice == "新規来店":
		m.resetMessages()
		m.sess.Clear(m.visitFields())
		m.sess.ResetVisitSelection()
		m.sess.Init(m.visitFields(), nil)
		m.newRecord = true
		m.previewID = store.NextID(m.dataset.VisitIDs(), store.VisitIDPrefix)
		m.form = newRecordForm(m.visitFields(), m.sess)
		m.pushState(stateVisitForm)
	case choice == "2" || choice == "既存来店履歴を編集":
		m.resetMessages()
		visits := m.dataset.AllVisitsByCustomer(m.sess.CurrentCustomerID)
		if len(visits) == 0 {
			m.errMessage = "編集できる来店履歴がありません"
			return batchCmds(cmds)
		}
		m.visitOpts = store.VisitOptions(visits)
		m.sess.Clear(m.visitFields())
		m.sess.ResetVisitSelection()
		m.searchInput.SetValue("")
		if focus := m.searchInput.Focus(); focus != nil {
			cmds = append(cmds, focus)
		}
		m.pushState(stateVisitPick)
	case choice == "":
	default:
		m.errMessage = "1 か 2 を選択してください"
	}
	return batchCmds(cmds)
}

func (m *model) viewVisitMode() string {
	if m.loadErr != "" {
		return m.viewLoadErr("来店情報入力")
	}
	title := "来店情報入力"
	if c, ok := m.currentCustomer(); ok {
		title = fmt.Sprintf("来店情報入力：%s（%s）", c.Name, c.Nickname)
	}
	lines := []string{
		m.theme.Title.Render(title),
		m.theme.Secondary.Render("1. 新規来店"),
		m.theme.Secondary.Render("2. 既存来店履歴を編集"),
		m.theme.Faint.Render("/. 戻る"),
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

// VISIT ENTRY: VISIT PICKER
func (m *model) updateVisitPick(msg tea.Msg) tea.Cmd {
	if m.loadErr != "" {
		return m.updateLoadErr(msg)
	}
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc:
			m.searchInput.SetValue("")
			m.popState()
			if focus := m.restoreStateInput(); focus != nil {
				cmds = append(cmds, focus)
			}
		case tea.KeyEnter:
			value := strings.TrimSpace(m.searchInput.Value())
			if isExitCommand(value) {
				m.searchInput.SetValue("")
				cmds = append(cmds, m.goHome())
				return batchCmds(cmds)
			}
			if isBackCommand(value) {
				m.searchInput.SetValue("")
				m.popState()
				if focus := m.restoreStateInput(); focus != nil {
					cmds = append(cmds, focus)
				}
				return batchCmds(cmds)
			}
			if vid, ok := pickFromOptions(m.visitOpts, value); ok {
				m.searchInput.SetValue("")
				m.selectVisit(vid)
				if focus := m.visitActionsPrompt(); focus != nil {
					cmds = append(cmds, focus)
				}
				m.pushState(stateVisitActions)
			}
		}
	}
	return batchCmds(cmds)
}

func (m *model) selectVisit(vid string) {
	v, ok := m.dataset.VisitByID(vid)
	if !ok {
		m.errMessage = "来店履歴が見つかりません"
		return
	}
	m.resetMessages()
	m.sess.HydrateVisit(m.visitFields(), v.Row(), vid)
	m.newRecord = false
	m.previewID = ""
}

func (m *model) viewVisitPick() string {
	if m.loadErr != "" {
		return m.viewLoadErr("来店情報入力")
	}
	lines := []string{
		m.theme.Title.Render("来店履歴の選択"),
		m.theme.Faint.Render("番号または表示名で選択、/ で戻る"),
		"",
	}
	for i, label := range m.visitOpts.Labels {
		style := m.theme.Primary
		if i == 0 {
			style = m.theme.Faint
		}
		lines = append(lines, style.Render(fmt.Sprintf("%d. %s", i, label)))
	}
	lines = append(lines, "")
	lines = append(lines, m.theme.Accent.Render("> ")+m.searchInput.View())
	if m.errMessage != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.errMessage))
	}
	return strings.Join(lines, "\n") + "\n"
}

// VISIT ENTRY: ACTIONS
func (m *model) visitActionsPrompt() tea.Cmd {
	if v, ok := m.currentVisit(); ok && v.IsDeleted() {
		return m.setMenuInput("1=復元  2=戻る", 32)
	}
	return m.setMenuInput("1=編集  2=削除  3=戻る", 32)
}

func (m *model) currentVisit() (store.Visit, bool) {
	if m.dataset == nil || m.sess.SelectedVisitID == "" {
		return store.Visit{}, false
	}
	return m.dataset.VisitByID(m.sess.SelectedVisitID)
}

func (m *model) updateVisitActions(msg tea.Msg) tea.Cmd {
	if m.loadErr != "" {
		return m.updateLoadErr(msg)
	}
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.menuInput, cmd = m.menuInput.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return batchCmds(cmds)
	}
	if key.Type == tea.KeyEsc {
		m.popState()
		if focus := m.restoreStateInput(); focus != nil {
			cmds = append(cmds, focus)
		}
		return batchCmds(cmds)
	}
	if key.Type != tea.KeyEnter {
		return batchCmds(cmds)
	}

	choice := strings.TrimSpace(strings.ToLower(m.menuInput.Value()))
	m.menuInput.SetValue("")
	if isExitCommand(choice) {
		cmds = append(cmds, m.goHome())
		return batchCmds(cmds)
	}
	if isBackCommand(choice) {
		m.popState()
		if focus := m.restoreStateInput(); focus != nil {
			cmds = append(cmds, focus)
		}
		return batchCmds(cmds)
	}

	v, found := m.currentVisit()
	if !found {
		m.errMessage = "編集する来店履歴が特定できません"
		return batchCmds(cmds)
	}

	if v.IsDeleted() {
		switch choice {
		case "1", "restore", "復元":
			m.restoreVisit(v.ID)
			if focus := m.visitActionsPrompt(); focus != nil {
				cmds = append(cmds, focus)
			}
		case "2":
			m.popState()
			if focus := m.restoreStateInput(); focus != nil {
				cmds = append(cmds, focus)
			}
		case "":
		default:
			m.errMessage = "削除済みの来店履歴は復元のみ可能です"
		}
		return batchCmds(cmds)
	}

	switch choice {
	case "1", "edit", "編集":
		m.resetMessages()
		m.newRecord = false
		m.previewID = ""
		m.form = newRecordForm(m.visitFields(), m.sess)
		m.pushState(stateVisitForm)
	case "2", "delete", "削除":
		m.deleteVisit(v.ID)
		if focus := m.visitActionsPrompt(); focus != nil {
			cmds = append(cmds, focus)
		}
	case "3":
		m.popState()
		if focus := m.restoreStateInput(); focus != nil {
			cmds = append(cmds, focus)
		}
	case "":
	default:
		m.errMessage = "操作を選択してください"
	}
	return batchCmds(cmds)
}

func (m *model) deleteVisit(vid string) {
	if err := m.store.Submit(context.Background(), store.VisitFlagPayload(vid, true)); err != nil {
		m.errMessage = err.Error()
		return
	}
	m.log.Info().Str("visit_id", vid).Msg("visit soft-deleted")
	m.refreshDataset()
	m.infoMessage = "来店履歴を削除しました（復元できます）"
	m.errMessage = ""
}

func (m *model) restoreVisit(vid string) {
	if err := m.store.Submit(context.Background(), store.VisitFlagPayload(vid, false)); err != nil {
		m.errMessage = err.Error()
		return
	}
	m.log.Info().Str("visit_id", vid).Msg("visit restored")
	m.refreshDataset()
	m.infoMessage = "来店履歴を復元しました"
	m.errMessage = ""
}

func (m *model) viewVisitActions() string {
	if m.loadErr != "" {
		return m.viewLoadErr("来店情報入力")
	}
	v, found := m.currentVisit()
	if !found {
		return m.theme.Danger.Render("来店履歴が選択されていません") + "\n"
	}
	title := v.ID
	if d := store.FormatDate(v.Date); d != "" {
		title = fmt.Sprintf("%s｜%s", v.ID, d)
	}
	lines := []string{m.theme.Title.Render(title)}
	meta := []string{}
	if v.Staff != "" {
		meta = append(meta, "担当: "+v.Staff)
	}
	if v.Sales > 0 {
		meta = append(meta, fmt.Sprintf("売上: %d円", v.Sales))
	}
	if len(meta) > 0 {
		lines = append(lines, m.theme.Secondary.Render(strings.Join(meta, "  ")))
	}
	lines = append(lines, "")

	if v.IsDeleted() {
		lines = append(lines, m.theme.Warning.Render("このレコードは削除済みです。編集はできません。"))
		lines = append(lines, m.theme.Secondary.Render("1. 復元"))
		lines = append(lines, m.theme.Faint.Render("2. 戻る"))
	} else {
		lines = append(lines, m.theme.Secondary.Render("1. 編集"))
		lines = append(lines, m.theme.Secondary.Render("2. 削除"))
		lines = append(lines, m.theme.Faint.Render("3. 戻る"))
	}
	lines = append(lines, "")
	lines = append(lines, m.theme.Accent.Render("> ")+m.menuInput.View())
	if m.infoMessage != "" {
		lines = append(lines, "", m.theme.Success.Render(m.infoMessage))
	}
	if m.errMessage != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.errMessage))
	}
	return strings.Join(lines, "\n") + "\n"
}
