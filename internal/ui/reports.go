package ui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"visitledger/internal/store"
)

// HISTORY: CUSTOMER PICKER
func (m *model) updateHistoryPick(msg tea.Msg) tea.Cmd {
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
				m.historyCustomerID = cid
				m.historyRows = store.CustomerHistory(m.dataset, cid)
				if focus := m.setMenuInput("/=戻る", 16); focus != nil {
					cmds = append(cmds, focus)
				}
				m.pushState(stateHistoryView)
			}
		}
	}
	return batchCmds(cmds)
}

func (m *model) viewHistoryPick() string {
	if m.loadErr != "" {
		return m.viewLoadErr("顧客別来店履歴")
	}
	lines := []string{
		m.theme.Title.Render("顧客別来店履歴：顧客の選択"),
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
	return strings.Join(lines, "\n") + "\n"
}

// HISTORY: TABLE
func (m *model) updateHistoryView(msg tea.Msg) tea.Cmd {
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
	if key.Type == tea.KeyEnter {
		choice := strings.TrimSpace(strings.ToLower(m.menuInput.Value()))
		m.menuInput.SetValue("")
		if isExitCommand(choice) {
			cmds = append(cmds, m.goHome())
		} else if isBackCommand(choice) || choice == "" {
			m.popState()
			if focus := m.restoreStateInput(); focus != nil {
				cmds = append(cmds, focus)
			}
		}
	}
	return batchCmds(cmds)
}

func (m *model) viewHistoryView() string {
	if m.loadErr != "" {
		return m.viewLoadErr("顧客別来店履歴")
	}
	title := "来店履歴"
	if c, ok := m.dataset.CustomerByID(m.historyCustomerID); ok {
		title = fmt.Sprintf("来店履歴：%s（%s）", c.Name, c.Nickname)
	}
	lines := []string{m.theme.Title.Render(title)}
	if len(m.historyRows) == 0 {
		lines = append(lines, "", m.theme.Faint.Render("来店履歴がありません"))
	} else {
		lines = append(lines, m.theme.Subtitle.Render(
			fmt.Sprintf("%-4s %-12s %-4s %-8s %-6s %8s", "No", "来店日", "曜日", "担当", "延長", "売上")))
		for _, r := range m.historyRows {
			v := r.Visit
			lines = append(lines, m.theme.Primary.Render(fmt.Sprintf(
				"%-4d %-12s %-4s %-8s %-6d %8d",
				r.No, store.FormatDate(v.Date), v.Weekday, v.Staff, v.Extensions, v.Sales)))
			if v.Memo != "" {
				lines = append(lines, m.theme.Faint.Render("     メモ: "+v.Memo))
			}
		}
	}
	lines = append(lines, "", m.theme.Accent.Render("> ")+m.menuInput.View())
	return strings.Join(lines, "\n") + "\n"
}

// DATE LIST
func (m *model) updateDateList(msg tea.Msg) tea.Cmd {
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
	if !ok || key.Type != tea.KeyEnter {
		if ok && key.Type == tea.KeyEsc {
			cmds = append(cmds, m.goHome())
		}
		return batchCmds(cmds)
	}

	choice := strings.TrimSpace(strings.ToLower(m.menuInput.Value()))
	m.menuInput.SetValue("")
	switch {
	case isExitCommand(choice) || isBackCommand(choice):
		cmds = append(cmds, m.goHome())
	case choice == "":
	default:
		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(m.dateChoices) {
			m.errMessage = "一覧の番号を入力してください"
			return batchCmds(cmds)
		}
		m.resetMessages()
		day := m.dateChoices[n-1].Date
		m.selectedDay = store.FormatDate(&day)
		m.dayRows = store.VisitsOn(m.dataset, day)
		if focus := m.setMenuInput("/=戻る", 16); focus != nil {
			cmds = append(cmds, focus)
		}
		m.pushState(stateDateView)
	}
	return batchCmds(cmds)
}

func (m *model) viewDateList() string {
	if m.loadErr != "" {
		return m.viewLoadErr("日付別来店一覧")
	}
	lines := []string{
		m.theme.Title.Render("日付別来店一覧"),
		m.theme.Faint.Render("番号で日付を選択、/ で戻る"),
		"",
	}
	if len(m.dateChoices) == 0 {
		lines = append(lines, m.theme.Faint.Render("来店履歴がありません"))
	}
	for i, d := range m.dateChoices {
		day := d.Date
		lines = append(lines, m.theme.Primary.Render(fmt.Sprintf(
			"%d. %s(%s)（%d件）", i+1, store.FormatDate(&day), store.JapaneseWeekday(day), d.Count)))
	}
	lines = append(lines, "")
	lines = append(lines, m.theme.Accent.Render("> ")+m.menuInput.View())
	if m.errMessage != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.errMessage))
	}
	return strings.Join(lines, "\n") + "\n"
}

// DATE VIEW
func (m *model) updateDateView(msg tea.Msg) tea.Cmd {
	return m.updateHistoryView(msg)
}

func (m *model) viewDateView() string {
	if m.loadErr != "" {
		return m.viewLoadErr("日付別来店一覧")
	}
	lines := []string{m.theme.Title.Render("来店一覧：" + m.selectedDay)}
	if len(m.dayRows) == 0 {
		lines = append(lines, "", m.theme.Faint.Render("この日の来店はありません"))
	} else {
		lines = append(lines, m.theme.Subtitle.Render(
			fmt.Sprintf("%-4s %-12s %-12s %-8s %8s", "No", "氏名", "ニックネーム", "担当", "売上")))
		for _, r := range m.dayRows {
			lines = append(lines, m.theme.Primary.Render(fmt.Sprintf(
				"%-4d %-12s %-12s %-8s %8d",
				r.No, r.Name, r.Nickname, r.Visit.Staff, r.Visit.Sales)))
		}
	}
	lines = append(lines, "", m.theme.Accent.Render("> ")+m.menuInput.View())
	return strings.Join(lines, "\n") + "\n"
}

// SALES
func (m *model) updateSales(msg tea.Msg) tea.Cmd {
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
	if !ok || key.Type != tea.KeyEnter {
		if ok && key.Type == tea.KeyEsc {
			cmds = append(cmds, m.goHome())
		}
		return batchCmds(cmds)
	}

	choice := strings.TrimSpace(strings.ToLower(m.menuInput.Value()))
	m.menuInput.SetValue("")
	switch {
	case isExitCommand(choice) || isBackCommand(choice):
		cmds = append(cmds, m.goHome())
	case choice == "1" || choice == "日別":
		m.salesGroup = salesByDay
	case choice == "2" || choice == "月別":
		m.salesGroup = salesByMonth
	case choice == "3" || choice == "担当別":
		m.salesGroup = salesByStaff
	case choice == "":
	default:
		m.errMessage = "1〜3 を選択してください"
	}
	return batchCmds(cmds)
}

func (m *model) salesRows() ([]store.SalesRow, string) {
	switch m.salesGroup {
	case salesByMonth:
		return store.SalesByMonth(m.dataset), "月別"
	case salesByStaff:
		return store.SalesByStaff(m.dataset), "担当別"
	default:
		return store.SalesByDay(m.dataset), "日別"
	}
}

func (m *model) viewSales() string {
	if m.loadErr != "" {
		return m.viewLoadErr("売上集計")
	}
	rows, label := m.salesRows()
	lines := []string{
		m.theme.Title.Render("売上集計（" + label + "）"),
		m.theme.Faint.Render("1=日別  2=月別  3=担当別  /=戻る"),
		"",
	}
	if len(rows) == 0 {
		lines = append(lines, m.theme.Faint.Render("売上データがありません"))
	} else {
		lines = append(lines, m.theme.Subtitle.Render(
			fmt.Sprintf("%-14s %10s %6s", label, "売上", "件数")))
		total := 0
		for _, r := range rows {
			lines = append(lines, m.theme.Primary.Render(
				fmt.Sprintf("%-14s %10d %6d", r.Key, r.Total, r.Count)))
			total += r.Total
		}
		lines = append(lines, m.theme.Highlight.Render(
			fmt.Sprintf("%-14s %10d", "合計", total)))
	}
	lines = append(lines, "", m.theme.Accent.Render("> ")+m.menuInput.View())
	if m.errMessage != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.errMessage))
	}
	return strings.Join(lines, "\n") + "\n"
}

// DELETED RECORDS
func (m *model) updateDeleted(msg tea.Msg) tea.Cmd {
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
	if !ok || key.Type != tea.KeyEnter {
		if ok && key.Type == tea.KeyEsc {
			cmds = append(cmds, m.goHome())
		}
		return batchCmds(cmds)
	}

	choice := strings.TrimSpace(strings.ToLower(m.menuInput.Value()))
	m.menuInput.SetValue("")
	switch {
	case isExitCommand(choice) || isBackCommand(choice):
		cmds = append(cmds, m.goHome())
	case choice == "":
	case strings.HasPrefix(choice, "c"):
		customers := m.dataset.DeletedCustomers()
		n, err := strconv.Atoi(choice[1:])
		if err != nil || n < 1 || n > len(customers) {
			m.errMessage = "c1 のように番号で指定してください"
			return batchCmds(cmds)
		}
		m.restoreCustomer(customers[n-1].ID)
	case strings.HasPrefix(choice, "v"):
		visits := m.dataset.DeletedVisits()
		n, err := strconv.Atoi(choice[1:])
		if err != nil || n < 1 || n > len(visits) {
			m.errMessage = "v1 のように番号で指定してください"
			return batchCmds(cmds)
		}
		m.restoreVisit(visits[n-1].ID)
	default:
		m.errMessage = "c番号 または v番号 で復元します"
	}
	return batchCmds(cmds)
}

func (m *model) viewDeleted() string {
	if m.loadErr != "" {
		return m.viewLoadErr("削除済み一覧")
	}
	customers := m.dataset.DeletedCustomers()
	visits := m.dataset.DeletedVisits()
	lines := []string{
		m.theme.Title.Render("削除済み一覧"),
		m.theme.Faint.Render("c番号 / v番号 で復元、/ で戻る"),
		"",
		m.theme.Subtitle.Render("顧客"),
	}
	if len(customers) == 0 {
		lines = append(lines, m.theme.Faint.Render("（なし）"))
	}
	for i, c := range customers {
		lines = append(lines, m.theme.Primary.Render(
			fmt.Sprintf("c%d. %s｜%s（%s）", i+1, c.ID, c.Name, c.Nickname)))
	}
	lines = append(lines, "", m.theme.Subtitle.Render("来店履歴"))
	if len(visits) == 0 {
		lines = append(lines, m.theme.Faint.Render("（なし）"))
	}
	for i, v := range visits {
		owner := v.CustomerID
		if c, ok := m.dataset.CustomerByID(v.CustomerID); ok {
			owner = fmt.Sprintf("%s（%s）", c.Name, c.Nickname)
		}
		lines = append(lines, m.theme.Primary.Render(
			fmt.Sprintf("v%d. %s｜%s｜%s", i+1, v.ID, store.FormatDate(v.Date), owner)))
	}
	lines = append(lines, "", m.theme.Accent.Render("> ")+m.menuInput.View())
	if m.infoMessage != "" {
		lines = append(lines, "", m.theme.Success.Render(m.infoMessage))
	}
	if m.errMessage != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.errMessage))
	}
	return strings.Join(lines, "\n") + "\n"
}
