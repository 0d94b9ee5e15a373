package store

import (
	"fmt"
	"sort"
	"strings"
)

// NoSelectionLabel is the reserved picker head. It never maps to a record.
const NoSelectionLabel = "（未選択）"

// FilterCustomers narrows the customer set by a free-text query. The query
// splits on whitespace; a customer matches when ANY term is a
// case-insensitive substring of its name and nickname concatenated. The
// union is deliberate: recall beats precision when staff half-remember a
// name. An empty query matches everything.
func FilterCustomers(customers []Customer, query string) []Customer {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return customers
	}
	var out []Customer
	for _, c := range customers {
		haystack := strings.ToLower(c.Name + c.Nickname)
		for _, term := range terms {
			if strings.Contains(haystack, strings.ToLower(term)) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Options is one render cycle's label list plus the label→identifier map.
// The map never contains the sentinel, which is always Labels[0].
type Options struct {
	Labels []string
	IDs    map[string]string
}

// CustomerOptions builds picker labels "氏名（ニックネーム）" sorted by
// nickname ascending. When counts is non-nil each label carries the visit
// count suffix the history screen shows.
func CustomerOptions(customers []Customer, counts map[string]int) Options {
	sorted := make([]Customer, len(customers))
	copy(sorted, customers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Nickname < sorted[j].Nickname
	})

	opts := Options{
		Labels: []string{NoSelectionLabel},
		IDs:    make(map[string]string, len(sorted)),
	}
	for _, c := range sorted {
		label := fmt.Sprintf("%s（%s）", c.Name, c.Nickname)
		if counts != nil {
			label += fmt.Sprintf("（%d回）", counts[c.ID])
		}
		opts.Labels = append(opts.Labels, label)
		opts.IDs[label] = c.ID
	}
	return opts
}

// VisitOptions builds the edit picker for one customer's visits, labelled
// "来店履歴_ID｜来店日" sorted by date ascending.
func VisitOptions(visits []Visit) Options {
	sorted := make([]Visit, len(visits))
	copy(sorted, visits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return FormatDate(sorted[i].Date) < FormatDate(sorted[j].Date)
	})

	opts := Options{
		Labels: []string{NoSelectionLabel},
		IDs:    make(map[string]string, len(sorted)),
	}
	for _, v := range sorted {
		label := fmt.Sprintf("%s｜%s", v.ID, FormatDate(v.Date))
		opts.Labels = append(opts.Labels, label)
		opts.IDs[label] = v.ID
	}
	return opts
}

// Resolve translates a chosen label back to an identifier. The sentinel
// and unknown labels resolve to no selection.
func (o Options) Resolve(label string) (string, bool) {
	if label == NoSelectionLabel {
		return "", false
	}
	id, ok := o.IDs[label]
	return id, ok
}
