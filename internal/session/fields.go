package session

import (
	"time"

	"visitledger/internal/store"
)

// CustomerFields is the customer form's field table: stable key, sheet
// column, label, and default. Order is render order.
func CustomerFields() []FieldSpec {
	return []FieldSpec{
		{Key: "input_name", Column: store.ColName, Label: "氏名", Kind: KindText},
		{Key: "input_nick", Column: store.ColNickname, Label: "ニックネーム", Kind: KindText},
		{Key: "input_addr", Column: store.ColAddress, Label: "住所", Kind: KindText},
		{Key: "input_tel", Column: store.ColPhone, Label: "電話番号", Kind: KindText},
		{Key: "input_birth", Column: store.ColBirthDate, Label: "生年月日", Kind: KindDate,
			DefaultDate: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Key: "input_job", Column: store.ColWorkplace, Label: "勤務先・業種", Kind: KindText},
		{Key: "input_brand", Column: store.ColTobaccoBrand, Label: "タバコ_銘柄", Kind: KindText},
		{Key: "input_like", Column: store.ColLikes, Label: "好き", Kind: KindText},
		{Key: "input_dislike", Column: store.ColDislikes, Label: "苦手", Kind: KindText},
		{Key: "input_first_visit", Column: store.ColFirstVisit, Label: "初回来店日", Kind: KindDate},
		{Key: "input_intro_name", Column: store.ColReferrer, Label: "紹介者_氏名", Kind: KindText},
		{Key: "input_memo_cus", Column: store.ColCustomerMemo, Label: "メモ_顧客", Kind: KindText},
	}
}

// VisitFields is the visit form's field table. The weekday column is
// absent on purpose: it derives from the visit date at save time.
// defaultStaff prefills 担当_氏名 for new visits with the configured
// display name.
func VisitFields(defaultStaff string) []FieldSpec {
	return []FieldSpec{
		{Key: "input_visit_date", Column: store.ColVisitDate, Label: "来店日", Kind: KindDate},
		{Key: "input_accompany", Column: store.ColCompanion, Label: "同伴_氏名", Kind: KindText},
		{Key: "input_staff", Column: store.ColStaff, Label: "担当_氏名", Kind: KindText, DefaultText: defaultStaff},
		{Key: "input_ext", Column: store.ColExtensions, Label: "延長回数", Kind: KindInt, Max: 10},
		{Key: "input_keep", Column: store.ColKeepBrand, Label: "キープ銘柄", Kind: KindText},
		{Key: "input_same", Column: store.ColSameTime, Label: "同時来店_氏名", Kind: KindText},
		{Key: "input_preget", Column: store.ColGiftReceived, Label: "プレゼント_受", Kind: KindText},
		{Key: "input_pre", Column: store.ColGiftGiven, Label: "プレゼント_渡", Kind: KindText},
		{Key: "input_event", Column: store.ColEventName, Label: "イベント名", Kind: KindText},
		{Key: "input_sales", Column: store.ColSales, Label: "売上金額", Kind: KindInt},
		{Key: "input_memo_vis", Column: store.ColVisitMemo, Label: "メモ_来店", Kind: KindText},
	}
}
