// Package analytics folds the event log into per-user and per-task
// totals. Pure functions over already-loaded events: deterministic, no
// store access, integer arithmetic only (money stays in minor units).
package analytics

import (
	"sort"

	"github.com/bmorrisey/rotaledger/internal/model"
)

// GroupBy selects the aggregation key.
type GroupBy string

const (
	ByUser GroupBy = "user"
	ByTask GroupBy = "task"
)

// Metric selects what is summed per group.
type Metric string

const (
	TotalDuration Metric = "total_duration" // minutes, completions only
	TotalSpend    Metric = "total_spend"    // minor units, purchases only
	TotalQuantity Metric = "total_quantity" // units, purchases only
	Count         Metric = "count"
)

// CompletionTotals folds completions into groupKey -> total. An empty
// input yields an empty, non-nil map.
func CompletionTotals(events []model.ChoreCompletion, groupBy GroupBy, metric Metric) map[string]int64 {
	totals := make(map[string]int64, len(events))
	for _, e := range events {
		key := e.UserID
		if groupBy == ByTask {
			key = e.ChoreID
		}
		switch metric {
		case TotalDuration:
			totals[key] += int64(e.DurationMinutes)
		default:
			totals[key]++
		}
	}
	return totals
}

// PurchaseTotals folds purchase records into groupKey -> total.
func PurchaseTotals(events []model.PurchaseRecord, groupBy GroupBy, metric Metric) map[string]int64 {
	totals := make(map[string]int64, len(events))
	for _, e := range events {
		key := e.UserID
		if groupBy == ByTask {
			key = e.ItemID
		}
		switch metric {
		case TotalSpend:
			totals[key] += e.TotalPriceCents
		case TotalQuantity:
			totals[key] += int64(e.Quantity)
		default:
			totals[key]++
		}
	}
	return totals
}

// Entry is one leaderboard row.
type Entry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Total int64  `json:"total"`
}

// Leaderboard orders totals for display: highest total first, label then
// key as tiebreaks so equal totals render in a stable order. Labels come
// from the supplied name map; unknown keys keep the raw key as label.
func Leaderboard(totals map[string]int64, labels map[string]string) []Entry {
	entries := make([]Entry, 0, len(totals))
	for key, total := range totals {
		label := labels[key]
		if label == "" {
			label = key
		}
		entries = append(entries, Entry{Key: key, Label: label, Total: total})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		if entries[i].Label != entries[j].Label {
			return entries[i].Label < entries[j].Label
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}
