package store

import "testing"

func pickerCustomers() []Customer {
	return []Customer{
		{ID: "C00001", Name: "田中太郎", Nickname: "タロ"},
		{ID: "C00002", Name: "鈴木花子", Nickname: "ハナ"},
		{ID: "C00003", Name: "佐藤次郎", Nickname: "ジロ"},
	}
}

func TestFilterCustomersEmptyQueryMatchesAll(t *testing.T) {
	got := FilterCustomers(pickerCustomers(), "   ")
	if len(got) != 3 {
		t.Fatalf("got %d customers, want 3", len(got))
	}
}

func TestFilterCustomersMultiTermUnion(t *testing.T) {
	// Terms OR together: either surname matches.
	got := FilterCustomers(pickerCustomers(), "田中 鈴木")
	if len(got) != 2 {
		t.Fatalf("got %d customers, want 2", len(got))
	}
	ids := map[string]bool{}
	for _, c := range got {
		ids[c.ID] = true
	}
	if !ids["C00001"] || !ids["C00002"] {
		t.Fatalf("got %v, want C00001 and C00002", ids)
	}
}

func TestFilterCustomersMatchesNickname(t *testing.T) {
	got := FilterCustomers(pickerCustomers(), "ハナ")
	if len(got) != 1 || got[0].ID != "C00002" {
		t.Fatalf("got %v, want only C00002", got)
	}
}

func TestFilterCustomersCaseInsensitive(t *testing.T) {
	customers := []Customer{{ID: "C00001", Name: "John Smith", Nickname: "JJ"}}
	got := FilterCustomers(customers, "smith")
	if len(got) != 1 {
		t.Fatalf("got %d customers, want 1", len(got))
	}
}

func TestFilterCustomersNoMatch(t *testing.T) {
	got := FilterCustomers(pickerCustomers(), "山本")
	if len(got) != 0 {
		t.Fatalf("got %d customers, want 0", len(got))
	}
}

func TestCustomerOptionsSentinelFirst(t *testing.T) {
	opts := CustomerOptions(pickerCustomers(), nil)
	if opts.Labels[0] != NoSelectionLabel {
		t.Fatalf("got %q at head, want %q", opts.Labels[0], NoSelectionLabel)
	}
	if _, ok := opts.IDs[NoSelectionLabel]; ok {
		t.Fatalf("sentinel must not map to a record")
	}
	if len(opts.Labels) != 4 {
		t.Fatalf("got %d labels, want 4", len(opts.Labels))
	}
}

func TestCustomerOptionsSentinelSurvivesEmptySet(t *testing.T) {
	opts := CustomerOptions(nil, nil)
	if len(opts.Labels) != 1 || opts.Labels[0] != NoSelectionLabel {
		t.Fatalf("got %v, want only the sentinel", opts.Labels)
	}
}

func TestCustomerOptionsLabelFormat(t *testing.T) {
	opts := CustomerOptions([]Customer{{ID: "C00001", Name: "田中太郎", Nickname: "タロ"}}, nil)
	want := "田中太郎（タロ）"
	if opts.Labels[1] != want {
		t.Fatalf("got %q, want %q", opts.Labels[1], want)
	}
	if id, ok := opts.Resolve(want); !ok || id != "C00001" {
		t.Fatalf("Resolve(%q) = %q, %v", want, id, ok)
	}
}

func TestCustomerOptionsVisitCountSuffix(t *testing.T) {
	counts := map[string]int{"C00001": 3}
	opts := CustomerOptions([]Customer{{ID: "C00001", Name: "田中太郎", Nickname: "タロ"}}, counts)
	want := "田中太郎（タロ）（3回）"
	if opts.Labels[1] != want {
		t.Fatalf("got %q, want %q", opts.Labels[1], want)
	}
}

func TestCustomerOptionsSortedByNickname(t *testing.T) {
	opts := CustomerOptions(pickerCustomers(), nil)
	// ジロ < タロ < ハナ in code point order.
	want := []string{
		NoSelectionLabel,
		"佐藤次郎（ジロ）",
		"田中太郎（タロ）",
		"鈴木花子（ハナ）",
	}
	for i, label := range want {
		if opts.Labels[i] != label {
			t.Fatalf("label[%d] = %q, want %q", i, opts.Labels[i], label)
		}
	}
}

func TestVisitOptionsSortedByDate(t *testing.T) {
	visits := []Visit{
		{ID: "V00002", Date: ParseDate("2026-02-01")},
		{ID: "V00001", Date: ParseDate("2026-01-15")},
	}
	opts := VisitOptions(visits)
	want := []string{
		NoSelectionLabel,
		"V00001｜2026-01-15",
		"V00002｜2026-02-01",
	}
	for i, label := range want {
		if opts.Labels[i] != label {
			t.Fatalf("label[%d] = %q, want %q", i, opts.Labels[i], label)
		}
	}
	if id, ok := opts.Resolve("V00002｜2026-02-01"); !ok || id != "V00002" {
		t.Fatalf("Resolve = %q, %v", id, ok)
	}
}

func TestResolveSentinelAndUnknown(t *testing.T) {
	opts := CustomerOptions(pickerCustomers(), nil)
	if _, ok := opts.Resolve(NoSelectionLabel); ok {
		t.Fatalf("sentinel resolved to a record")
	}
	if _, ok := opts.Resolve("存在しない（誰）"); ok {
		t.Fatalf("unknown label resolved to a record")
	}
}
