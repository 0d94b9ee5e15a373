package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"visitledger/internal/session"
	"visitledger/internal/store"
)

// recordForm walks one field table with a single text input, the value
// store living in the session so a re-render never loses typed input.
type recordForm struct {
	specs []session.FieldSpec
	index int
	input textinput.Model
	err   string
}

func newRecordForm(specs []session.FieldSpec, sess *session.Session) recordForm {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 128
	ti.Placeholder = specs[0].Label
	ti.SetValue(sess.Get(specs[0].Key))
	ti.Focus()
	return recordForm{specs: specs, input: ti}
}

func (f *recordForm) current() session.FieldSpec {
	return f.specs[f.index]
}

// commit validates and stores the current input value into the session.
func (f *recordForm) commit(sess *session.Session, value string) bool {
	spec := f.current()
	switch spec.Kind {
	case session.KindDate:
		if value != "" && store.ParseDate(value) == nil {
			f.err = "日付は YYYY-MM-DD で入力してください"
			return false
		}
		d := session.SafeDate(value, session.SafeDate(sess.Get(spec.Key), session.Today(sess.Now())))
		sess.Set(spec.Key, d.Format("2006-01-02"))
	case session.KindInt:
		n := session.Clamp(session.SafeInt(value, spec.DefaultInt), spec)
		sess.Set(spec.Key, strconv.Itoa(n))
	default:
		sess.Set(spec.Key, value)
	}
	f.err = ""
	return true
}

func (f *recordForm) load(sess *session.Session) {
	spec := f.current()
	f.input.Placeholder = spec.Label
	f.input.SetValue(sess.Get(spec.Key))
	f.input.CursorEnd()
}

func (m *model) updateRecordForm(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.form.input, cmd = m.form.input.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return batchCmds(cmds)
	}
	switch key.Type {
	case tea.KeyEsc:
		m.popState()
		if focus := m.restoreStateInput(); focus != nil {
			cmds = append(cmds, focus)
		}
		return batchCmds(cmds)
	case tea.KeyEnter:
		value := strings.TrimSpace(m.form.input.Value())
		if isExitCommand(value) {
			cmds = append(cmds, m.goHome())
			return batchCmds(cmds)
		}
		if isBackCommand(value) {
			if m.form.index == 0 {
				m.popState()
				if focus := m.restoreStateInput(); focus != nil {
					cmds = append(cmds, focus)
				}
				return batchCmds(cmds)
			}
			m.form.index--
			m.form.load(m.sess)
			m.form.err = ""
			return batchCmds(cmds)
		}
		if !m.form.commit(m.sess, value) {
			return batchCmds(cmds)
		}
		if m.form.index >= len(m.form.specs)-1 {
			if focus := m.saveCurrentForm(); focus != nil {
				cmds = append(cmds, focus)
			}
			return batchCmds(cmds)
		}
		m.form.index++
		m.form.load(m.sess)
	}
	return batchCmds(cmds)
}

// restoreStateInput refreshes whichever prompt the popped state expects.
func (m *model) restoreStateInput() tea.Cmd {
	switch m.state {
	case stateMainMenu:
		return m.setMenuInput("番号を入力", 32)
	case stateCustomerMode:
		return m.setMenuInput("1=新規顧客  2=既存顧客  /=戻る", 32)
	case stateCustomerActions:
		return m.customerActionsPrompt()
	case stateVisitMode:
		return m.setMenuInput("1=新規来店  2=既存来店履歴を編集  /=戻る", 32)
	case stateVisitActions:
		return m.visitActionsPrompt()
	case stateDateList:
		return m.setMenuInput("番号で日付を選択  /=戻る", 32)
	case stateSales:
		return m.setMenuInput("1=日別  2=月別  3=担当別  /=戻る", 32)
	case stateDeleted:
		return m.setMenuInput("c番号/v番号=復元  /=戻る", 32)
	case stateSettings:
		return m.setMenuInput("1=接続先  2=表示名  3=タイムゾーン  4=戻る", 48)
	case stateCustomerPick, stateVisitCustomerPick, stateVisitPick, stateHistoryPick:
		if !m.searchInput.Focused() {
			return m.searchInput.Focus()
		}
	}
	return nil
}

func (m *model) saveCurrentForm() tea.Cmd {
	switch m.state {
	case stateCustomerForm:
		return m.saveCustomer()
	case stateVisitForm:
		return m.saveVisit()
	}
	return nil
}

func (m *model) viewRecordForm() string {
	title := "顧客情報入力"
	if m.state == stateVisitForm {
		title = "来店情報入力"
	}
	if !m.newRecord {
		title += "（編集）"
	}
	field := m.form.current()
	lines := []string{
		m.theme.Title.Render(title),
		m.theme.Faint.Render("Enterで次へ、/ で前へ、'exit.' で中止"),
	}
	if m.newRecord && m.previewID != "" {
		lines = append(lines, m.theme.Faint.Render("ID（予定）: "+m.previewID))
	} else if id := m.formRecordID(); id != "" {
		lines = append(lines, m.theme.Faint.Render("ID: "+id))
	}
	lines = append(lines,
		"",
		m.theme.Secondary.Render(fmt.Sprintf("%d/%d", m.form.index+1, len(m.form.specs))),
		m.theme.Primary.Render(field.Label+":"),
		m.form.input.View(),
	)
	if m.form.err != "" {
		lines = append(lines, "", m.theme.Danger.Render(m.form.err))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *model) formRecordID() string {
	if m.state == stateVisitForm {
		return m.sess.SelectedVisitID
	}
	return m.sess.CurrentCustomerID
}

// saveCustomer posts the full customer record. New records allocate their
// identifier here, against the freshest dataset the session has, so the
// preview and the assignment agree while the dataset is unchanged.
func (m *model) saveCustomer() tea.Cmd {
	if m.dataset == nil {
		m.form.err = "データ未取得のため保存できません"
		return nil
	}
	var cid string
	if m.newRecord {
		cid = store.NextID(m.dataset.CustomerIDs(), store.CustomerIDPrefix)
		m.sess.CurrentCustomerID = cid
	} else {
		var err error
		cid, err = m.sess.RequireCustomer()
		if err != nil {
			m.form.err = "編集する顧客が特定できません"
			return nil
		}
	}

	c := m.customerFromSession()
	c.ID = cid
	if err := m.store.Submit(context.Background(), store.CustomerPayload(c)); err != nil {
		m.form.err = err.Error()
		return nil
	}
	m.log.Info().Str("customer_id", cid).Bool("new", m.newRecord).Msg("customer saved")
	m.refreshDataset()
	m.infoMessage = "顧客情報を保存しました"
	m.popState()
	return m.restoreStateInput()
}

// saveVisit posts the full visit record, rejecting the save when no
// customer (or, in edit mode, no visit) is resolvable.
func (m *model) saveVisit() tea.Cmd {
	cid, err := m.sess.RequireCustomer()
	if err != nil {
		m.form.err = "顧客が選択されていません"
		return nil
	}
	if m.dataset == nil {
		m.form.err = "データ未取得のため保存できません"
		return nil
	}
	var vid string
	if m.newRecord {
		vid = store.NextID(m.dataset.VisitIDs(), store.VisitIDPrefix)
	} else {
		vid, err = m.sess.RequireVisit()
		if err != nil {
			m.form.err = "編集する来店履歴が特定できません"
			return nil
		}
	}

	v := m.visitFromSession()
	v.ID = vid
	v.CustomerID = cid
	if err := m.store.Submit(context.Background(), store.VisitPayload(v)); err != nil {
		m.form.err = err.Error()
		return nil
	}
	m.log.Info().Str("visit_id", vid).Str("customer_id", cid).Bool("new", m.newRecord).Msg("visit saved")
	m.refreshDataset()
	if m.newRecord {
		m.infoMessage = "来店情報を保存しました"
	} else {
		m.infoMessage = "来店情報を更新しました"
	}

	// After a save the entry screen always returns to new-visit mode.
	m.sess.Clear(m.visitFields())
	m.sess.ResetVisitSelection()
	m.newRecord = true
	m.prevStates = trimTo(m.prevStates, stateVisitMode)
	m.state = stateVisitMode
	return m.setMenuInput("1=新規来店  2=既存来店履歴を編集  /=戻る", 32)
}

// trimTo rewinds the nav stack to just below the given state, so popping
// from there behaves as if the user had walked forward normally.
func trimTo(stack []viewState, target viewState) []viewState {
	for i, s := range stack {
		if s == target {
			return stack[:i]
		}
	}
	return stack
}

func (m *model) customerFromSession() store.Customer {
	get := m.sess.Get
	return store.Customer{
		Name:         get("input_name"),
		Nickname:     get("input_nick"),
		Address:      get("input_addr"),
		Phone:        get("input_tel"),
		BirthDate:    store.ParseDate(get("input_birth")),
		Workplace:    get("input_job"),
		TobaccoBrand: get("input_brand"),
		Likes:        get("input_like"),
		Dislikes:     get("input_dislike"),
		FirstVisit:   store.ParseDate(get("input_first_visit")),
		Referrer:     get("input_intro_name"),
		Memo:         get("input_memo_cus"),
		Deleted:      store.FlagActive,
	}
}

func (m *model) visitFromSession() store.Visit {
	get := m.sess.Get
	return store.Visit{
		Date:         store.ParseDate(get("input_visit_date")),
		Companion:    get("input_accompany"),
		Staff:        get("input_staff"),
		Extensions:   session.SafeInt(get("input_ext"), 0),
		KeepBrand:    get("input_keep"),
		SameTime:     get("input_same"),
		GiftReceived: get("input_preget"),
		GiftGiven:    get("input_pre"),
		EventName:    get("input_event"),
		Sales:        session.SafeInt(get("input_sales"), 0),
		Memo:         get("input_memo_vis"),
		Deleted:      store.FlagActive,
	}
}
