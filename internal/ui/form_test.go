package ui

import (
	"testing"
	"time"

	"visitledger/internal/session"
	"visitledger/internal/store"
)

func testSession() *session.Session {
	s := session.New()
	s.SetClock(func() time.Time {
		return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	})
	return s
}

func TestCommitRejectsBadDate(t *testing.T) {
	sess := testSession()
	sess.Init(session.VisitFields(""), nil)
	f := newRecordForm(session.VisitFields(""), sess)

	if f.commit(sess, "someday") {
		t.Fatalf("unparseable date must not commit")
	}
	if f.err == "" {
		t.Fatalf("expected a field error message")
	}
	// The stored value is untouched.
	if got := sess.Get("input_visit_date"); got != "2026-01-15" {
		t.Fatalf("got %q, want 2026-01-15", got)
	}
}

func TestCommitAcceptsDateAndBlank(t *testing.T) {
	sess := testSession()
	sess.Init(session.VisitFields(""), nil)
	f := newRecordForm(session.VisitFields(""), sess)

	if !f.commit(sess, "2026-02-01") {
		t.Fatalf("valid date rejected: %s", f.err)
	}
	if got := sess.Get("input_visit_date"); got != "2026-02-01" {
		t.Fatalf("got %q, want 2026-02-01", got)
	}

	// Blank keeps the previously stored date.
	if !f.commit(sess, "") {
		t.Fatalf("blank date rejected: %s", f.err)
	}
	if got := sess.Get("input_visit_date"); got != "2026-02-01" {
		t.Fatalf("got %q, want previous value kept", got)
	}
}

func TestCommitClampsIntField(t *testing.T) {
	sess := testSession()
	sess.Init(session.VisitFields(""), nil)
	f := newRecordForm(session.VisitFields(""), sess)
	for f.current().Key != "input_ext" {
		f.index++
	}

	if !f.commit(sess, "25") {
		t.Fatalf("int commit failed: %s", f.err)
	}
	if got := sess.Get("input_ext"); got != "10" {
		t.Fatalf("got %q, want capped 10", got)
	}
	if !f.commit(sess, "-3") {
		t.Fatalf("int commit failed: %s", f.err)
	}
	if got := sess.Get("input_ext"); got != "0" {
		t.Fatalf("got %q, want floored 0", got)
	}
	if !f.commit(sess, "???") {
		t.Fatalf("int commit failed: %s", f.err)
	}
	if got := sess.Get("input_ext"); got != "0" {
		t.Fatalf("got %q, want default for garbage", got)
	}
}

func TestPickFromOptions(t *testing.T) {
	opts := store.CustomerOptions([]store.Customer{
		{ID: "C00001", Name: "田中太郎", Nickname: "タロ"},
	}, nil)

	if _, ok := pickFromOptions(opts, "0"); ok {
		t.Fatalf("0 must mean no selection")
	}
	if id, ok := pickFromOptions(opts, "1"); !ok || id != "C00001" {
		t.Fatalf("got %q, %v", id, ok)
	}
	if _, ok := pickFromOptions(opts, "9"); ok {
		t.Fatalf("out-of-range number resolved")
	}
	if id, ok := pickFromOptions(opts, "田中太郎（タロ）"); !ok || id != "C00001" {
		t.Fatalf("got %q, %v", id, ok)
	}
	if _, ok := pickFromOptions(opts, ""); ok {
		t.Fatalf("blank resolved")
	}
}

func TestTrimTo(t *testing.T) {
	stack := []viewState{stateMainMenu, stateVisitCustomerPick, stateVisitMode, stateVisitPick}
	got := trimTo(stack, stateVisitMode)
	if len(got) != 2 || got[1] != stateVisitCustomerPick {
		t.Fatalf("got %v, want stack cut below stateVisitMode", got)
	}
	// Absent target leaves the stack alone.
	if got := trimTo(stack, stateSales); len(got) != len(stack) {
		t.Fatalf("got %v, want unchanged", got)
	}
}

func TestVisitFromSessionCoercions(t *testing.T) {
	m := &model{sess: testSession()}
	m.sess.Set("input_visit_date", "2026-01-10")
	m.sess.Set("input_staff", "葵")
	m.sess.Set("input_ext", "2")
	m.sess.Set("input_sales", "8000")

	v := m.visitFromSession()
	if store.FormatDate(v.Date) != "2026-01-10" {
		t.Fatalf("got %q", store.FormatDate(v.Date))
	}
	if v.Extensions != 2 || v.Sales != 8000 {
		t.Fatalf("got ext %d sales %d", v.Extensions, v.Sales)
	}
	if v.Staff != "葵" {
		t.Fatalf("got staff %q", v.Staff)
	}
}

func TestCustomerFromSessionAlwaysActive(t *testing.T) {
	m := &model{sess: testSession()}
	m.sess.Set("input_name", "田中太郎")

	c := m.customerFromSession()
	if c.Deleted != store.FlagActive {
		t.Fatalf("full save must post the active flag, got %q", c.Deleted)
	}
	if c.Name != "田中太郎" {
		t.Fatalf("got %q", c.Name)
	}
}
