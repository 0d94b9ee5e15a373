package store

import (
	"sort"
	"time"
)

// HistoryRow is one line of the customer-history view. No reflects
// chronological order even though rows are listed newest first.
type HistoryRow struct {
	No    int
	Visit Visit
}

// CustomerHistory projects all active visits of one customer, numbered
// ascending by visit date and returned in reverse-chronological order.
func CustomerHistory(d *Dataset, customerID string) []HistoryRow {
	visits := d.VisitsByCustomer(customerID)
	sort.SliceStable(visits, func(i, j int) bool {
		return FormatDate(visits[i].Date) < FormatDate(visits[j].Date)
	})
	rows := make([]HistoryRow, 0, len(visits))
	for i, v := range visits {
		rows = append(rows, HistoryRow{No: i + 1, Visit: v})
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows
}

// DayRow is one line of the date-list view, joined with the owning
// customer. A visit whose customer is missing from the customer sheet
// renders empty name cells rather than failing.
type DayRow struct {
	No       int
	Name     string
	Nickname string
	Visit    Visit
}

// VisitsOn lists active visits on one calendar date, numbered ascending by
// customer name.
func VisitsOn(d *Dataset, day time.Time) []DayRow {
	want := day.Format("2006-01-02")
	var rows []DayRow
	for _, v := range d.ActiveVisits() {
		if FormatDate(v.Date) != want {
			continue
		}
		row := DayRow{Visit: v}
		if c, ok := d.CustomerByID(v.CustomerID); ok {
			row.Name = c.Name
			row.Nickname = c.Nickname
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Name < rows[j].Name
	})
	for i := range rows {
		rows[i].No = i + 1
	}
	return rows
}

// DateSummary is one selectable date with its visit count.
type DateSummary struct {
	Date  time.Time
	Count int
}

// VisitDates lists the distinct dates carrying active visits, newest
// first.
func VisitDates(d *Dataset) []DateSummary {
	counts := make(map[string]int)
	for _, v := range d.ActiveVisits() {
		if v.Date == nil {
			continue
		}
		counts[FormatDate(v.Date)]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	out := make([]DateSummary, 0, len(keys))
	for _, k := range keys {
		if t := ParseDate(k); t != nil {
			out = append(out, DateSummary{Date: *t, Count: counts[k]})
		}
	}
	return out
}

// SalesRow is one grouped sum of the sales column.
type SalesRow struct {
	Key   string
	Total int
	Count int
}

// SalesByDay sums active-visit sales per calendar day, newest first.
func SalesByDay(d *Dataset) []SalesRow {
	return groupSales(d, func(v Visit) string {
		return FormatDate(v.Date)
	}, true)
}

// SalesByMonth sums active-visit sales per calendar month, newest first.
func SalesByMonth(d *Dataset) []SalesRow {
	return groupSales(d, func(v Visit) string {
		if v.Date == nil {
			return ""
		}
		return v.Date.Format("2006-01")
	}, true)
}

// SalesByStaff sums active-visit sales per staff member, largest total
// first.
func SalesByStaff(d *Dataset) []SalesRow {
	rows := groupSales(d, func(v Visit) string {
		return v.Staff
	}, false)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

func groupSales(d *Dataset, key func(Visit) string, reverse bool) []SalesRow {
	totals := make(map[string]*SalesRow)
	for _, v := range d.ActiveVisits() {
		k := key(v)
		if k == "" {
			continue
		}
		row, ok := totals[k]
		if !ok {
			row = &SalesRow{Key: k}
			totals[k] = row
		}
		row.Total += v.Sales
		row.Count++
	}
	out := make([]SalesRow, 0, len(totals))
	for _, row := range totals {
		out = append(out, *row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if reverse {
			return out[i].Key > out[j].Key
		}
		return out[i].Key < out[j].Key
	})
	return out
}
