package store

import (
	"strconv"
	"strings"
	"time"
)

// Column names as the remote spreadsheet stores them. The sheet schema is
// Japanese; these constants are the single place that spelling lives.
const (
	ColCustomerID   = "顧客_ID"
	ColName         = "氏名"
	ColNickname     = "ニックネーム"
	ColAddress      = "住所"
	ColPhone        = "電話番号"
	ColBirthDate    = "生年月日"
	ColWorkplace    = "勤務先・業種"
	ColTobaccoBrand = "タバコ_銘柄"
	ColLikes        = "好き"
	ColDislikes     = "苦手"
	ColFirstVisit   = "初回来店日"
	ColReferrer     = "紹介者_氏名"
	ColCustomerMemo = "メモ_顧客"
	ColDeleted      = "削除"

	ColVisitID      = "来店履歴_ID"
	ColVisitDate    = "来店日"
	ColWeekday      = "曜日"
	ColCompanion    = "同伴_氏名"
	ColStaff        = "担当_氏名"
	ColExtensions   = "延長回数"
	ColKeepBrand    = "キープ銘柄"
	ColSameTime     = "同時来店_氏名"
	ColGiftReceived = "プレゼント_受"
	ColGiftGiven    = "プレゼント_渡"
	ColEventName    = "イベント名"
	ColVisitMemo    = "メモ_来店"
	ColSales        = "売上金額"
)

// CustomerIDPrefix and VisitIDPrefix head every sequential identifier.
const (
	CustomerIDPrefix = "C"
	VisitIDPrefix    = "V"
)

// Delete flag spellings. Anything other than FlagDeleted normalizes to
// FlagActive on load.
const (
	FlagActive  = "0"
	FlagDeleted = "1"
)

// Customer is one row of the customer sheet.
type Customer struct {
	ID           string
	Name         string
	Nickname     string
	Address      string
	Phone        string
	BirthDate    *time.Time
	Workplace    string
	TobaccoBrand string
	Likes        string
	Dislikes     string
	FirstVisit   *time.Time
	Referrer     string
	Memo         string
	Deleted      string
}

// Visit is one row of the visit sheet. CustomerID references a Customer;
// the sheet itself enforces nothing, this application is the only guard.
type Visit struct {
	ID           string
	CustomerID   string
	Date         *time.Time
	Weekday      string
	Companion    string
	Staff        string
	Extensions   int
	KeepBrand    string
	SameTime     string
	GiftReceived string
	GiftGiven    string
	EventName    string
	Memo         string
	Sales        int
	Deleted      string
}

// IsDeleted reports whether the record carries the delete flag.
func (c Customer) IsDeleted() bool { return c.Deleted == FlagDeleted }

func (v Visit) IsDeleted() bool { return v.Deleted == FlagDeleted }

// Row maps the customer back to spreadsheet columns as display strings,
// dates in YYYY-MM-DD form and unset dates as "".
func (c Customer) Row() map[string]string {
	return map[string]string{
		ColCustomerID:   c.ID,
		ColName:         c.Name,
		ColNickname:     c.Nickname,
		ColAddress:      c.Address,
		ColPhone:        c.Phone,
		ColBirthDate:    FormatDate(c.BirthDate),
		ColWorkplace:    c.Workplace,
		ColTobaccoBrand: c.TobaccoBrand,
		ColLikes:        c.Likes,
		ColDislikes:     c.Dislikes,
		ColFirstVisit:   FormatDate(c.FirstVisit),
		ColReferrer:     c.Referrer,
		ColCustomerMemo: c.Memo,
		ColDeleted:      normalizeFlag(c.Deleted),
	}
}

func (v Visit) Row() map[string]string {
	return map[string]string{
		ColVisitID:      v.ID,
		ColCustomerID:   v.CustomerID,
		ColVisitDate:    FormatDate(v.Date),
		ColWeekday:      v.Weekday,
		ColCompanion:    v.Companion,
		ColStaff:        v.Staff,
		ColExtensions:   strconv.Itoa(v.Extensions),
		ColKeepBrand:    v.KeepBrand,
		ColSameTime:     v.SameTime,
		ColGiftReceived: v.GiftReceived,
		ColGiftGiven:    v.GiftGiven,
		ColEventName:    v.EventName,
		ColVisitMemo:    v.Memo,
		ColSales:        strconv.Itoa(v.Sales),
		ColDeleted:      normalizeFlag(v.Deleted),
	}
}

// customerFromRow builds a Customer from a decoded sheet row. Missing
// columns yield zero values so downstream code never sees a gap.
func customerFromRow(row map[string]any) Customer {
	return Customer{
		ID:           stringField(row, ColCustomerID),
		Name:         stringField(row, ColName),
		Nickname:     stringField(row, ColNickname),
		Address:      stringField(row, ColAddress),
		Phone:        stringField(row, ColPhone),
		BirthDate:    dateField(row, ColBirthDate),
		Workplace:    stringField(row, ColWorkplace),
		TobaccoBrand: stringField(row, ColTobaccoBrand),
		Likes:        stringField(row, ColLikes),
		Dislikes:     stringField(row, ColDislikes),
		FirstVisit:   dateField(row, ColFirstVisit),
		Referrer:     stringField(row, ColReferrer),
		Memo:         stringField(row, ColCustomerMemo),
		Deleted:      flagField(row, ColDeleted),
	}
}

func visitFromRow(row map[string]any) Visit {
	return Visit{
		ID:           stringField(row, ColVisitID),
		CustomerID:   stringField(row, ColCustomerID),
		Date:         dateField(row, ColVisitDate),
		Weekday:      stringField(row, ColWeekday),
		Companion:    stringField(row, ColCompanion),
		Staff:        stringField(row, ColStaff),
		Extensions:   intField(row, ColExtensions),
		KeepBrand:    stringField(row, ColKeepBrand),
		SameTime:     stringField(row, ColSameTime),
		GiftReceived: stringField(row, ColGiftReceived),
		GiftGiven:    stringField(row, ColGiftGiven),
		EventName:    stringField(row, ColEventName),
		Memo:         stringField(row, ColVisitMemo),
		Sales:        intField(row, ColSales),
		Deleted:      flagField(row, ColDeleted),
	}
}

func stringField(row map[string]any, key string) string {
	v, ok := row[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		// Sheets hand back numerics for numeric-looking cells.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func intField(row map[string]any, key string) int {
	v, ok := row[key]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func dateField(row map[string]any, key string) *time.Time {
	raw := stringField(row, key)
	if raw == "" {
		return nil
	}
	return ParseDate(raw)
}

func flagField(row map[string]any, key string) string {
	return normalizeFlag(stringField(row, key))
}

// normalizeFlag coerces the delete flag to exactly "0" or "1".
func normalizeFlag(v string) string {
	if strings.TrimSpace(v) == FlagDeleted {
		return FlagDeleted
	}
	return FlagActive
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate parses a sheet date string, truncating any time component.
// Unparseable input yields nil; the caller decides the fallback.
func ParseDate(v string) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// FormatDate renders a date for the wire, YYYY-MM-DD or "" when unset.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

var jpWeekdays = []string{"月", "火", "水", "木", "金", "土", "日"}

// JapaneseWeekday returns the kanji weekday for a date, Monday first.
func JapaneseWeekday(t time.Time) string {
	return jpWeekdays[(int(t.Weekday())+6)%7]
}
