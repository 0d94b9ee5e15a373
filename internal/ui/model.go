package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"visitledger/internal/config"
	"visitledger/internal/session"
	"visitledger/internal/store"
	"visitledger/internal/theme"
)

// Program wraps the Bubble Tea program lifecycle.
type Program struct {
	program *tea.Program
}

// NewProgram constructs a new interactive ledger session.
func NewProgram(st *store.Store, cfg *config.Store, log zerolog.Logger) *Program {
	m := newModel(st, cfg, log)
	return &Program{program: tea.NewProgram(m)}
}

// Start launches the Bubble Tea program.
func (p *Program) Start() error {
	if p == nil || p.program == nil {
		return fmt.Errorf("nil program")
	}
	return p.program.Start()
}

type viewState int

const (
	stateMainMenu viewState = iota
	stateCustomerMode
	stateCustomerPick
	stateCustomerActions
	stateCustomerForm
	stateVisitCustomerPick
	stateVisitMode
	stateVisitPick
	stateVisitActions
	stateVisitForm
	stateHistoryPick
	stateHistoryView
	stateDateList
	stateDateView
	stateSales
	stateDeleted
	stateSettings
	stateSettingsEditEndpoint
	stateSettingsEditName
	stateSettingsEditTimezone
)

type salesGrouping int

const (
	salesByDay salesGrouping = iota
	salesByMonth
	salesByStaff
)

type model struct {
	state      viewState
	prevStates []viewState
	store      *store.Store
	cfg        *config.Store
	log        zerolog.Logger
	theme      theme.Theme
	width      int
	height     int

	infoMessage string
	errMessage  string

	dataset *store.Dataset
	loadErr string

	sess *session.Session

	menuInput   textinput.Model
	searchInput textinput.Model

	pickerOpts store.Options

	form      recordForm
	newRecord bool
	previewID string

	visitOpts store.Options

	historyCustomerID string
	historyRows       []store.HistoryRow
	dateChoices       []store.DateSummary
	dayRows           []store.DayRow
	selectedDay       string
	salesGroup        salesGrouping

	settings settingsModel
}

type settingsModel struct {
	input textinput.Model
	err   string
}

type menuOption struct {
	id       string
	keywords []string
	synonyms []string
}

const (
	menuCustomers = "customers"
	menuVisits    = "visits"
	menuHistory   = "history"
	menuDates     = "dates"
	menuSales     = "sales"
	menuDeleted   = "deleted"
	menuSettings  = "settings"
	menuQuit      = "quit"
)

var mainMenuOptions = []menuOption{
	{
		id:       menuCustomers,
		keywords: []string{"customer", "顧客"},
		synonyms: []string{"1", "c", "customer", "customers", "顧客", "顧客情報入力"},
	},
	{
		id:       menuVisits,
		keywords: []string{"visit", "来店"},
		synonyms: []string{"2", "v", "visit", "visits", "来店", "来店情報入力"},
	},
	{
		id:       menuHistory,
		keywords: []string{"history", "履歴"},
		synonyms: []string{"3", "h", "history", "履歴", "顧客別来店履歴"},
	},
	{
		id:       menuDates,
		keywords: []string{"date", "日付"},
		synonyms: []string{"4", "d", "date", "dates", "日付", "日付別来店一覧"},
	},
	{
		id:       menuSales,
		keywords: []string{"sales", "売上"},
		synonyms: []string{"5", "s", "sales", "売上", "売上集計"},
	},
	{
		id:       menuDeleted,
		keywords: []string{"deleted", "削除"},
		synonyms: []string{"6", "x", "deleted", "削除済み", "削除済み一覧"},
	},
	{
		id:       menuSettings,
		keywords: []string{"settings", "設定"},
		synonyms: []string{"7", "settings", "設定"},
	},
	{
		id:       menuQuit,
		keywords: []string{"quit", "exit", "終了"},
		synonyms: []string{"8", "q", "quit", "exit", "exit.", "終了"},
	},
}

func newModel(st *store.Store, cfg *config.Store, log zerolog.Logger) *model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "番号を入力"
	ti.CharLimit = 32
	ti.Focus()

	search := textinput.New()
	search.Prompt = ""
	search.Placeholder = "氏名検索（部分一致）、/ で戻る"
	search.CharLimit = 64

	m := model{
		state:       stateMainMenu,
		store:       st,
		cfg:         cfg,
		log:         log,
		theme:       theme.Default(),
		menuInput:   ti,
		searchInput: search,
		sess:        session.New(),
		newRecord:   true,
	}
	m.sess.SetClock(ledgerClock(cfg.Location()))
	m.settings.input = textinput.New()
	m.settings.input.Prompt = ""
	m.settings.input.CharLimit = 128
	return &m
}

// ledgerClock reads the current moment in the configured timezone, so
// date defaults follow the shop's calendar rather than the host's.
func ledgerClock(loc *time.Location) func() time.Time {
	return func() time.Time { return time.Now().In(loc) }
}

// visitFields is the visit field table with the configured display name
// prefilling 担当_氏名 on new visits.
func (m *model) visitFields() []session.FieldSpec {
	return session.VisitFields(m.cfg.Config.Name)
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	var cmd tea.Cmd
	switch m.state {
	case stateMainMenu:
		cmd = m.updateMainMenu(msg)
	case stateCustomerMode:
		cmd = m.updateCustomerMode(msg)
	case stateCustomerPick:
		cmd = m.updateCustomerPick(msg)
	case stateCustomerActions:
		cmd = m.updateCustomerActions(msg)
	case stateCustomerForm, stateVisitForm:
		cmd = m.updateRecordForm(msg)
	case stateVisitCustomerPick:
		cmd = m.updateVisitCustomerPick(msg)
	case stateVisitMode:
		cmd = m.updateVisitMode(msg)
	case stateVisitPick:
		cmd = m.updateVisitPick(msg)
	case stateVisitActions:
		cmd = m.updateVisitActions(msg)
	case stateHistoryPick:
		cmd = m.updateHistoryPick(msg)
	case stateHistoryView:
		cmd = m.updateHistoryView(msg)
	case stateDateList:
		cmd = m.updateDateList(msg)
	case stateDateView:
		cmd = m.updateDateView(msg)
	case stateSales:
		cmd = m.updateSales(msg)
	case stateDeleted:
		cmd = m.updateDeleted(msg)
	case stateSettings, stateSettingsEditEndpoint, stateSettingsEditName, stateSettingsEditTimezone:
		cmd = m.updateSettings(msg)
	default:
		m.state = stateMainMenu
		cmd = m.updateMainMenu(msg)
	}
	return m, cmd
}

func (m *model) View() string {
	switch m.state {
	case stateMainMenu:
		return m.viewMainMenu()
	case stateCustomerMode:
		return m.viewCustomerMode()
	case stateCustomerPick:
		return m.viewCustomerPick()
	case stateCustomerActions:
		return m.viewCustomerActions()
	case stateCustomerForm, stateVisitForm:
		return m.viewRecordForm()
	case stateVisitCustomerPick:
		return m.viewVisitCustomerPick()
	case stateVisitMode:
		return m.viewVisitMode()
	case stateVisitPick:
		return m.viewVisitPick()
	case stateVisitActions:
		return m.viewVisitActions()
	case stateHistoryPick:
		return m.viewHistoryPick()
	case stateHistoryView:
		return m.viewHistoryView()
	case stateDateList:
		return m.viewDateList()
	case stateDateView:
		return m.viewDateView()
	case stateSales:
		return m.viewSales()
	case stateDeleted:
		return m.viewDeleted()
	case stateSettings, stateSettingsEditEndpoint, stateSettingsEditName, stateSettingsEditTimezone:
		return m.viewSettings()
	default:
		return ""
	}
}

// Navigation helpers
func (m *model) pushState(next viewState) {
	m.prevStates = append(m.prevStates, m.state)
	m.state = next
}

func (m *model) popState() {
	if len(m.prevStates) == 0 {
		m.state = stateMainMenu
		return
	}
	idx := len(m.prevStates) - 1
	m.state = m.prevStates[idx]
	m.prevStates = m.prevStates[:idx]
}

func (m *model) goHome() tea.Cmd {
	m.prevStates = nil
	m.state = stateMainMenu
	return m.setMenuInput("番号を入力", 32)
}

func (m *model) resetMessages() {
	m.errMessage = ""
	m.infoMessage = ""
}

func (m *model) setMenuInput(placeholder string, limit int) tea.Cmd {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = placeholder
	if limit > 0 {
		input.CharLimit = limit
	}
	cmd := input.Focus()
	m.menuInput = input
	return cmd
}

func (m *model) ensureMenuInput(placeholder string, limit int) tea.Cmd {
	if strings.TrimSpace(m.menuInput.Placeholder) == placeholder {
		if limit <= 0 || m.menuInput.CharLimit == limit {
			if !m.menuInput.Focused() {
				return m.menuInput.Focus()
			}
			return nil
		}
	}
	return m.setMenuInput(placeholder, limit)
}

// global command helpers
func isExitCommand(value string) bool {
	v := strings.TrimSpace(strings.ToLower(value))
	return v == "exit." || v == "quit"
}

func isBackCommand(value string) bool {
	v := strings.TrimSpace(strings.ToLower(value))
	return v == "/" || v == "back" || v == "戻る"
}

// refreshDataset loads the cached snapshot, or records the blocking error
// that keeps the current screen from rendering data.
func (m *model) refreshDataset() {
	ds, err := m.store.Dataset(context.Background())
	if err != nil {
		m.dataset = nil
		m.loadErr = err.Error()
		return
	}
	m.dataset = ds
	m.loadErr = ""
}

// enterDataScreen mirrors the menu switch of the sheet UI: drop the cache,
// refetch, forget stale selections and searches.
func (m *model) enterDataScreen() {
	m.store.Invalidate()
	m.refreshDataset()
	m.sess.ResetCustomerSelection()
	m.sess.ResetVisitSelection()
	m.searchInput.SetValue("")
}

// updateLoadErr consumes input while a fetch error blocks the screen.
// Only retry and back are honored; the screen renders no data until the
// fetch succeeds.
func (m *model) updateLoadErr(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if focus := m.ensureMenuInput("r=再試行  /=戻る", 16); focus != nil {
		cmds = append(cmds, focus)
	}
	var cmd tea.Cmd
	m.menuInput, cmd = m.menuInput.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		value := strings.TrimSpace(strings.ToLower(m.menuInput.Value()))
		m.menuInput.SetValue("")
		switch {
		case isBackCommand(value) || isExitCommand(value):
			cmds = append(cmds, m.goHome())
		case value == "r" || value == "retry" || value == "再試行":
			m.store.Invalidate()
			m.refreshDataset()
			if m.loadErr == "" && m.state == stateDateList {
				m.dateChoices = store.VisitDates(m.dataset)
			}
		}
	}
	return batchCmds(cmds)
}

func (m *model) viewLoadErr(title string) string {
	lines := []string{
		m.theme.Title.Render(title),
		"",
		m.theme.Danger.Render("データを取得できませんでした: " + m.loadErr),
		m.theme.Faint.Render("r=再試行  /=戻る"),
		"",
		m.theme.Accent.Render("> ") + m.menuInput.View(),
	}
	return strings.Join(lines, "\n") + "\n"
}

func resolveMainMenuSelection(input string) (string, bool) {
	value := strings.TrimSpace(strings.ToLower(input))
	if value == "" {
		return "", false
	}
	for _, option := range mainMenuOptions {
		for _, syn := range option.synonyms {
			if value == syn {
				return option.id, true
			}
		}
	}

	matches := make(map[string]struct{})
	for _, option := range mainMenuOptions {
		for _, keyword := range option.keywords {
			if strings.HasPrefix(keyword, value) {
				matches[option.id] = struct{}{}
				break
			}
		}
	}
	if len(matches) == 1 {
		for id := range matches {
			return id, true
		}
	}
	return "", false
}

// MAIN MENU
func (m *model) updateMainMenu(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if focus := m.ensureMenuInput("番号を入力", 32); focus != nil {
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
		action, ok := resolveMainMenuSelection(choice)
		if !ok {
			if choice == "" || choice == "0" {
				return batchCmds(cmds)
			}
			m.errMessage = "メニューを選択してください"
			return batchCmds(cmds)
		}
		m.resetMessages()
		switch action {
		case menuCustomers:
			m.enterDataScreen()
			m.pushState(stateCustomerMode)
			if focus := m.setMenuInput("1=新規顧客  2=既存顧客  /=戻る", 32); focus != nil {
				cmds = append(cmds, focus)
			}
		case menuVisits:
			m.enterDataScreen()
			m.pushState(stateVisitCustomerPick)
			if focus := m.searchInput.Focus(); focus != nil {
				cmds = append(cmds, focus)
			}
		case menuHistory:
			m.enterDataScreen()
			m.pushState(stateHistoryPick)
			if focus := m.searchInput.Focus(); focus != nil {
				cmds = append(cmds, focus)
			}
		case menuDates:
			m.enterDataScreen()
			if m.loadErr == "" {
				m.dateChoices = store.VisitDates(m.dataset)
			}
			m.pushState(stateDateList)
			if focus := m.setMenuInput("番号で日付を選択  /=戻る", 32); focus != nil {
				cmds = append(cmds, focus)
			}
		case menuSales:
			m.enterDataScreen()
			m.salesGroup = salesByDay
			m.pushState(stateSales)
			if focus := m.setMenuInput("1=日別  2=月別  3=担当別  /=戻る", 32); focus != nil {
				cmds = append(cmds, focus)
			}
		case menuDeleted:
			m.enterDataScreen()
			m.pushState(stateDeleted)
			if focus := m.setMenuInput("c番号/v番号=復元  /=戻る", 32); focus != nil {
				cmds = append(cmds, focus)
			}
		case menuSettings:
			m.settings.err = ""
			m.pushState(stateSettings)
			if focus := m.setMenuInput("1=接続先  2=表示名  3=タイムゾーン  4=戻る", 48); focus != nil {
				cmds = append(cmds, focus)
			}
		case menuQuit:
			cmds = append(cmds, tea.Quit)
		}
	}

	return batchCmds(cmds)
}

func (m *model) viewMainMenu() string {
	lines := []string{
		m.theme.Title.Render("顧客・来店管理"),
		m.theme.Secondary.Render("スプレッドシート台帳のターミナル入力画面"),
	}
	if m.infoMessage != "" {
		lines = append(lines, m.theme.Success.Render(m.infoMessage))
	}
	if m.errMessage != "" {
		lines = append(lines, m.theme.Danger.Render(m.errMessage))
	}
	menu := []string{
		"1. 顧客情報入力",
		"2. 来店情報入力",
		"3. 顧客別来店履歴",
		"4. 日付別来店一覧",
		"5. 売上集計",
		"6. 削除済み一覧",
		"7. 設定",
		"8. 終了",
	}
	lines = append(lines, "")
	for _, item := range menu {
		lines = append(lines, m.theme.Primary.Render(item))
	}
	lines = append(lines, "")
	lines = append(lines, m.theme.Accent.Render("> ")+m.menuInput.View())
	return strings.Join(lines, "\n") + "\n"
}

func batchCmds(cmds []tea.Cmd) tea.Cmd {
	filtered := cmds[:0]
	for _, c := range cmds {
		if c != nil {
			filtered = append(filtered, c)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	default:
		return tea.Batch(filtered...)
	}
}
