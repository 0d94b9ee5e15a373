package store

import (
	"testing"
	"time"
)

func TestCustomerFromRowMissingColumns(t *testing.T) {
	c := customerFromRow(map[string]any{ColCustomerID: "C00001"})
	if c.ID != "C00001" {
		t.Fatalf("got %q, want C00001", c.ID)
	}
	if c.Name != "" || c.BirthDate != nil {
		t.Fatalf("missing columns should zero out, got %+v", c)
	}
	if c.Deleted != FlagActive {
		t.Fatalf("got flag %q, want %q", c.Deleted, FlagActive)
	}
}

func TestRowCoercesSheetNumerics(t *testing.T) {
	// Apps Script hands numeric-looking cells back as JSON numbers.
	v := visitFromRow(map[string]any{
		ColVisitID:    "V00001",
		ColExtensions: float64(2),
		ColSales:      float64(12000),
		ColStaff:      float64(42),
	})
	if v.Extensions != 2 || v.Sales != 12000 {
		t.Fatalf("got ext %d sales %d, want 2/12000", v.Extensions, v.Sales)
	}
	if v.Staff != "42" {
		t.Fatalf("got staff %q, want \"42\"", v.Staff)
	}
}

func TestIntFieldBadInput(t *testing.T) {
	v := visitFromRow(map[string]any{ColSales: "abc", ColExtensions: nil})
	if v.Sales != 0 || v.Extensions != 0 {
		t.Fatalf("got sales %d ext %d, want zeros", v.Sales, v.Extensions)
	}
}

func TestNormalizeFlag(t *testing.T) {
	cases := map[string]string{
		"1":   FlagDeleted,
		" 1 ": FlagDeleted,
		"0":   FlagActive,
		"":    FlagActive,
		"2":   FlagActive,
		"yes": FlagActive,
	}
	for in, want := range cases {
		if got := normalizeFlag(in); got != want {
			t.Fatalf("normalizeFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseDateLayouts(t *testing.T) {
	for _, in := range []string{
		"2026-01-15",
		"2026/01/15",
		"2026-01-15 21:30:00",
		"2026-01-15T21:30:00+09:00",
	} {
		d := ParseDate(in)
		if d == nil {
			t.Fatalf("ParseDate(%q) = nil", in)
		}
		if FormatDate(d) != "2026-01-15" {
			t.Fatalf("ParseDate(%q) = %s, want 2026-01-15", in, FormatDate(d))
		}
	}
}

func TestParseDateUnparseable(t *testing.T) {
	for _, in := range []string{"", "someday", "15-01-2026"} {
		if d := ParseDate(in); d != nil {
			t.Fatalf("ParseDate(%q) = %v, want nil", in, d)
		}
	}
}

func TestCustomerRowRoundTrip(t *testing.T) {
	birth := time.Date(1990, 5, 4, 0, 0, 0, 0, time.UTC)
	c := Customer{ID: "C00001", Name: "田中太郎", Nickname: "タロ", BirthDate: &birth}
	row := c.Row()
	if row[ColBirthDate] != "1990-05-04" {
		t.Fatalf("got %q, want 1990-05-04", row[ColBirthDate])
	}
	if row[ColFirstVisit] != "" {
		t.Fatalf("unset date should render empty, got %q", row[ColFirstVisit])
	}
	if row[ColDeleted] != FlagActive {
		t.Fatalf("got flag %q, want %q", row[ColDeleted], FlagActive)
	}
}

func TestJapaneseWeekday(t *testing.T) {
	cases := map[string]string{
		"2026-01-05": "月",
		"2026-01-09": "金",
		"2026-01-10": "土",
		"2026-01-11": "日",
	}
	for in, want := range cases {
		d := ParseDate(in)
		if got := JapaneseWeekday(*d); got != want {
			t.Fatalf("JapaneseWeekday(%s) = %q, want %q", in, got, want)
		}
	}
}
