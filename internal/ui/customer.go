package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"visitledger/internal/session"
	"visitledger/internal/store"
)

// pickFromOptions maps entered text (a list number or an exact label) to a
// record identifier. Number 0 and the sentinel label resolve to no
// selection.
func pickFromOptions(opts store.Options, value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	if n, err := strconv.Atoi(value); err == nil {
		if n >= 0 && n < len(opts.Labels) {
			return opts.Resolve(opts.Labels[n])
		}
		return "", false
	}
	return opts.Resolve(value)
}

// CUSTOMER ENTRY: MODE CHOICE
func (m *model) updateCustomerMode(msg tea.Msg) tea.Cmd {
	if m.loadErr != "" {
		return m.updateLoadErr(msg)
	}
	var cmds []tea.Cmd
	if focus := m.ensureMenuInput("1=新規顧客  2=既存顧客  /=戻る", 32); focus != nil {
		cmds = append(cmds, focus)
	}
	var cmd tea.Cmd
	m.menuInput, cmd = m.menuInput.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		choice := strings.TrimSpace(strings.ToLower(m.menuInput.Value()))
		m.menuInput.SetValue("")
		switch {
		case isExitCommand(choice) || isBackCommand(choice):
			cmds = append(cmds, m.goHome())
		case choice == "1" || choice == "新規顧客":
			// Leaving the edit mode clears its fields before the new-record
			// defaults apply.
			m.resetMessages()
			m.sess.Clear(session.CustomerFields())
			m.sess.ResetCustomerSelection()
			m.sess.Init(session.CustomerFields(), nil)
			m.newRecord = true
			m.previewID = store.NextID(m.dataset.CustomerIDs(), store.CustomerIDPrefix)
			m.form = newRecordForm(session.CustomerFields(), m.sess)
			m.pushState(stateCustomerForm)
		case choice == "2" || choice == "既存顧客":
			m.resetMessages()
			if len(m.dataset.ActiveCustomers()) == 0 {
				m.errMessage = "先に新規顧客を登録してください"
				return batchCmds(cmds)
			}
			m.sess.Clear(session.CustomerFields())
			m.sess.ResetCustomerSelection()
			m.searchInput.SetValue("")
			if focus := m.searchInput.Focus(); focus != nil {
				cmds = append(cmds, focus)
			}
			m.pushState(stateCustomerPick)
		case choice == "":
		default:
			m.errMessage = "1 か 2 を選択してください"
		}
	}
	return batchCmds(cmds)
}

func (m *model) viewCustomerMode() string {
	if m.loadErr != "" {
		return m.viewLoadErr("顧客情報入力")
	}
	lines := []string{
		m.theme.Title.Render("顧客情報入力"),
		m.theme.Secondary.Render("1. 新規顧客"),
		m.theme.Secondary.Render("2. 既存顧客"),
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

// CUSTOMER ENTRY: PICKER
func (m *model) updateCustomerPick(msg tea.Msg) tea.Cmd {
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
	m.pickerOpts = store.CustomerOptions(filtered, nil)

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
			if cid, ok := pickFromOptions(m.pickerOpts, value); ok {
				m.searchInput.SetValue("")
				m.selectCustomer(cid)
				if focus := m.customerActionsPrompt(); focus != nil {
					cmds = append(cmds, focus)
				}
				m.pushState(stateCustomerActions)
			}
		}
	}
	return batchCmds(cmds)
}

// selectCustomer hydrates the form fields from the chosen record, exactly
// once per selection. Picking the same customer again leaves in-progress
// edits alone.
func (m *model) selectCustomer(cid string) {
	c, ok := m.dataset.CustomerByID(cid)
	if !ok {
		m.errMessage = "顧客が見つかりません"
		return
	}
	m.resetMessages()
	m.sess.HydrateCustomer(session.CustomerFields(), c.Row(), cid)
	m.newRecord = false
	m.previewID = ""
}

func (m *model) viewCustomerPick() string {
	if m.loadErr != "" {
		return m.viewLoadErr("顧客情報入力")
	}
	lines := []string{
		m.theme.Title.Render("既存顧客の選択"),
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
	if m.errMessage != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.errMessage))
	}
	return strings.Join(lines, "\n") + "\n"
}

// CUSTOMER ENTRY: ACTIONS
func (m *model) customerActionsPrompt() tea.Cmd {
	if c, ok := m.currentCustomer(); ok && c.IsDeleted() {
		return m.setMenuInput("1=復元  2=戻る", 32)
	}
	return m.setMenuInput("1=編集  2=削除  3=戻る", 32)
}

func (m *model) currentCustomer() (store.Customer, bool) {
	if m.dataset == nil || m.sess.CurrentCustomerID == "" {
		return store.Customer{}, false
	}
	return m.dataset.CustomerByID(m.sess.CurrentCustomerID)
}

func (m *model) updateCustomerActions(msg tea.Msg) tea.Cmd {
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

	c, found := m.currentCustomer()
	if !found {
		m.errMessage = "編集する顧客が特定できません"
		return batchCmds(cmds)
	}

	// A deleted record is uneditable: restore is the only live action.
	if c.IsDeleted() {
		switch choice {
		case "1", "restore", "復元":
			m.restoreCustomer(c.ID)
			if focus := m.customerActionsPrompt(); focus != nil {
				cmds = append(cmds, focus)
			}
		case "2":
			m.popState()
			if focus := m.restoreStateInput(); focus != nil {
				cmds = append(cmds, focus)
			}
		case "":
		default:
			m.errMessage = "削除済み顧客は復元のみ可能です"
		}
		return batchCmds(cmds)
	}

	switch choice {
	case "1", "edit", "編集":
		m.resetMessages()
		m.newRecord = false
		m.previewID = ""
		m.form = newRecordForm(session.CustomerFields(), m.sess)
		m.pushState(stateCustomerForm)
	case "2", "delete", "削除":
		m.deleteCustomer(c.ID)
		if focus := m.customerActionsPrompt(); focus != nil {
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

func (m *model) deleteCustomer(cid string) {
	if err := m.store.Submit(context.Background(), store.CustomerFlagPayload(cid, true)); err != nil {
		m.errMessage = err.Error()
		return
	}
	m.log.Info().Str("customer_id", cid).Msg("customer soft-deleted")
	m.refreshDataset()
	m.infoMessage = "顧客を削除しました（復元できます）"
	m.errMessage = ""
}

func (m *model) restoreCustomer(cid string) {
	if err := m.store.Submit(context.Background(), store.CustomerFlagPayload(cid, false)); err != nil {
		m.errMessage = err.Error()
		return
	}
	m.log.Info().Str("customer_id", cid).Msg("customer restored")
	m.refreshDataset()
	m.infoMessage = "顧客を復元しました"
	m.errMessage = ""
}

func (m *model) viewCustomerActions() string {
	if m.loadErr != "" {
		return m.viewLoadErr("顧客情報入力")
	}
	c, found := m.currentCustomer()
	if !found {
		return m.theme.Danger.Render("顧客が選択されていません") + "\n"
	}
	lines := []string{m.theme.Title.Render(fmt.Sprintf("%s（%s）", c.Name, c.Nickname))}
	meta := []string{"ID: " + c.ID}
	if c.Phone != "" {
		meta = append(meta, "電話: "+c.Phone)
	}
	if c.Workplace != "" {
		meta = append(meta, "勤務先: "+c.Workplace)
	}
	lines = append(lines, m.theme.Secondary.Render(strings.Join(meta, "  ")))
	if c.Address != "" {
		lines = append(lines, m.theme.Faint.Render(c.Address))
	}
	if d := store.FormatDate(c.FirstVisit); d != "" {
		lines = append(lines, m.theme.Faint.Render("初回来店日: "+d))
	}
	lines = append(lines, "")

	if c.IsDeleted() {
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
