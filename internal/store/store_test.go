package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

const sheetJSON = `{
	"customer": [
		{"顧客_ID": "C00001", "氏名": "田中太郎", "ニックネーム": "タロ", "削除": "0"},
		{"顧客_ID": "C00002", "氏名": "鈴木花子", "ニックネーム": "ハナ", "削除": "1"}
	],
	"visit": [
		{"来店履歴_ID": "V00001", "顧客_ID": "C00001", "来店日": "2026-01-10", "売上金額": 8000, "削除": "0"},
		{"来店履歴_ID": "V00002", "顧客_ID": "C00001", "来店日": "2026-02-20", "売上金額": "12000"}
	]
}`

func newTestStore(t *testing.T, handler http.HandlerFunc) (*Store, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewStore(NewClient(srv.URL, zerolog.Nop())), srv
}

func TestFetchDatasetDecodesBothSheets(t *testing.T) {
	st, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("got method %s, want GET", r.Method)
		}
		if r.URL.Query().Get("action") != "get" {
			t.Errorf("got query %q, want action=get", r.URL.RawQuery)
		}
		w.Write([]byte(sheetJSON))
	})

	ds, err := st.Dataset(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds.Customers) != 2 || len(ds.Visits) != 2 {
		t.Fatalf("got %d customers %d visits, want 2/2", len(ds.Customers), len(ds.Visits))
	}
	if c, ok := ds.CustomerByID("C00002"); !ok || !c.IsDeleted() {
		t.Fatalf("C00002 should load with the delete flag")
	}
	v, ok := ds.VisitByID("V00002")
	if !ok {
		t.Fatalf("V00002 missing")
	}
	if v.Sales != 12000 {
		t.Fatalf("got sales %d, want 12000", v.Sales)
	}
	if v.Deleted != FlagActive {
		t.Fatalf("missing flag should normalize to %q, got %q", FlagActive, v.Deleted)
	}
}

func TestFetchDatasetEmptySheets(t *testing.T) {
	st, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	ds, err := st.Dataset(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds.Customers) != 0 || len(ds.Visits) != 0 {
		t.Fatalf("got %d/%d, want empty dataset", len(ds.Customers), len(ds.Visits))
	}
}

func TestFetchDatasetServerError(t *testing.T) {
	st, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := st.Dataset(context.Background())
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("got %v, want ErrRemoteUnavailable", err)
	}
}

func TestDatasetCachedUntilInvalidate(t *testing.T) {
	fetches := 0
	st, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write([]byte(sheetJSON))
	})

	ctx := context.Background()
	if _, err := st.Dataset(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := st.Dataset(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetches != 1 {
		t.Fatalf("got %d fetches, want 1", fetches)
	}

	st.Invalidate()
	if _, err := st.Dataset(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetches != 2 {
		t.Fatalf("got %d fetches after invalidate, want 2", fetches)
	}
}

func TestSubmitInvalidatesCacheOnSuccess(t *testing.T) {
	fetches := 0
	st, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fetches++
			w.Write([]byte(sheetJSON))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	})

	ctx := context.Background()
	if _, err := st.Dataset(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.Submit(ctx, CustomerFlagPayload("C00001", true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := st.Dataset(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetches != 2 {
		t.Fatalf("got %d fetches, want refetch after write", fetches)
	}
}

func TestSubmitFailureKeepsCache(t *testing.T) {
	fetches := 0
	st, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fetches++
			w.Write([]byte(sheetJSON))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})

	ctx := context.Background()
	if _, err := st.Dataset(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.Submit(ctx, CustomerFlagPayload("C00001", true)); !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("got %v, want ErrRemoteUnavailable", err)
	}
	if _, err := st.Dataset(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetches != 1 {
		t.Fatalf("got %d fetches, failed write must not drop the cache", fetches)
	}
}

func TestSubmitPostsJSONPayload(t *testing.T) {
	var got map[string]any
	st, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("got content type %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{}`))
	})

	c := Customer{ID: "C00001", Name: "田中太郎", Nickname: "タロ"}
	if err := st.Submit(context.Background(), CustomerPayload(c)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["mode"] != ModeCustomerOnly {
		t.Fatalf("got mode %v, want %s", got["mode"], ModeCustomerOnly)
	}
	if got[ColName] != "田中太郎" {
		t.Fatalf("got name %v", got[ColName])
	}
	if _, ok := got[ColDeleted]; ok {
		t.Fatalf("full upsert must not carry the delete flag")
	}
}

func TestDeleteThenRestoreRoundTrip(t *testing.T) {
	deleted := map[string]string{"C00001": FlagActive}
	st, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			flag := deleted["C00001"]
			body := map[string]any{
				"customer": []map[string]any{
					{ColCustomerID: "C00001", ColName: "田中太郎", ColDeleted: flag},
				},
				"visit": []map[string]any{},
			}
			json.NewEncoder(w).Encode(body)
			return
		}
		var p map[string]any
		json.NewDecoder(r.Body).Decode(&p)
		switch p["mode"] {
		case ModeCustomerDelete, ModeCustomerRestore:
			deleted[p[ColCustomerID].(string)] = p[ColDeleted].(string)
		default:
			t.Errorf("unexpected mode %v", p["mode"])
		}
		w.Write([]byte(`{}`))
	})

	ctx := context.Background()
	if err := st.Submit(ctx, CustomerFlagPayload("C00001", true)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ds, err := st.Dataset(ctx)
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if c, _ := ds.CustomerByID("C00001"); !c.IsDeleted() {
		t.Fatalf("customer still active after delete")
	}

	if err := st.Submit(ctx, CustomerFlagPayload("C00001", false)); err != nil {
		t.Fatalf("restore: %v", err)
	}
	ds, err = st.Dataset(ctx)
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if c, _ := ds.CustomerByID("C00001"); c.IsDeleted() {
		t.Fatalf("customer still deleted after restore")
	}
}

func TestNewVisitAppearsInHistory(t *testing.T) {
	var visits []map[string]any
	st, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			body := map[string]any{
				"customer": []map[string]any{
					{ColCustomerID: "C00001", ColName: "田中", ColDeleted: "0"},
				},
				"visit": visits,
			}
			json.NewEncoder(w).Encode(body)
			return
		}
		var p map[string]any
		json.NewDecoder(r.Body).Decode(&p)
		if p["mode"] != ModeVisitOnly {
			t.Errorf("got mode %v, want %s", p["mode"], ModeVisitOnly)
		}
		visits = append(visits, p)
		w.Write([]byte(`{}`))
	})

	ctx := context.Background()
	ds, err := st.Dataset(ctx)
	if err != nil {
		t.Fatalf("initial fetch: %v", err)
	}

	vid := NextID(ds.VisitIDs(), VisitIDPrefix)
	if vid != "V00001" {
		t.Fatalf("got %q, want V00001", vid)
	}
	v := Visit{ID: vid, CustomerID: "C00001", Date: ParseDate("2026-01-10"), Sales: 8000}
	if err := st.Submit(ctx, VisitPayload(v)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	ds, err = st.Dataset(ctx)
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	rows := CustomerHistory(ds, "C00001")
	if len(rows) != 1 {
		t.Fatalf("got %d history rows, want 1", len(rows))
	}
	if rows[0].No != 1 || rows[0].Visit.ID != "V00001" {
		t.Fatalf("got row %+v, want No 1 / V00001", rows[0])
	}
}

func TestFlagPayloadsAreMinimal(t *testing.T) {
	p := VisitFlagPayload("V00001", true)
	if len(p) != 3 {
		t.Fatalf("got %d keys, want exactly mode, id and flag: %v", len(p), p)
	}
	if p["mode"] != ModeVisitDelete || p[ColVisitID] != "V00001" || p[ColDeleted] != FlagDeleted {
		t.Fatalf("got %v", p)
	}
	p = VisitFlagPayload("V00001", false)
	if p["mode"] != ModeVisitRestore || p[ColDeleted] != FlagActive {
		t.Fatalf("got %v", p)
	}
}

func TestVisitPayloadDerivesWeekday(t *testing.T) {
	v := Visit{ID: "V00001", CustomerID: "C00001", Date: ParseDate("2026-01-10"), Weekday: "月"}
	p := VisitPayload(v)
	if p[ColWeekday] != "土" {
		t.Fatalf("got weekday %v, want 土 derived from the date", p[ColWeekday])
	}
	if p["mode"] != ModeVisitOnly {
		t.Fatalf("got mode %v", p["mode"])
	}
	if _, ok := p[ColDeleted]; ok {
		t.Fatalf("full upsert must not carry the delete flag")
	}
	if p[ColSales] != 0 {
		t.Fatalf("sales should post as a number, got %T", p[ColSales])
	}
}

func TestDatasetPartitionsAndIDLists(t *testing.T) {
	d := &Dataset{
		Customers: []Customer{
			{ID: "C00001"},
			{ID: "C00002", Deleted: FlagDeleted},
		},
		Visits: []Visit{
			{ID: "V00001", CustomerID: "C00001"},
			{ID: "V00002", CustomerID: "C00001", Deleted: FlagDeleted},
		},
	}
	if got := len(d.ActiveCustomers()); got != 1 {
		t.Fatalf("got %d active customers, want 1", got)
	}
	if got := len(d.DeletedCustomers()); got != 1 {
		t.Fatalf("got %d deleted customers, want 1", got)
	}
	if got := len(d.VisitsByCustomer("C00001")); got != 1 {
		t.Fatalf("got %d active visits, want 1", got)
	}
	if got := len(d.AllVisitsByCustomer("C00001")); got != 2 {
		t.Fatalf("got %d visits incl. deleted, want 2", got)
	}
	// Deleted rows still reserve their identifiers.
	if got := len(d.CustomerIDs()); got != 2 {
		t.Fatalf("got %d customer ids, want 2", got)
	}
	if got := NextID(d.VisitIDs(), VisitIDPrefix); got != "V00003" {
		t.Fatalf("got %q, want V00003", got)
	}
}
