// Package rekap derives filtered bill lists and aggregate paid/unpaid
// totals from an in-memory slice of Tagihan. Everything here is pure so the
// HTTP layer and the report tooling can reuse it; the caller supplies the
// reference time instead of the package reading the clock.
package rekap

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"be04/models"
)

// Period selects which due-date window a filter applies.
type Period string

const (
	PeriodThisMonth Period = "this-month"
	PeriodCustom    Period = "custom"
	PeriodAll       Period = "all"
)

// Filter narrows a bill collection for display.
type Filter struct {
	// Query is matched case-insensitively against bill titles.
	Query string
	// Period is the due-date window; PeriodThisMonth when empty.
	Period Period
	// Month is the YYYY-MM window used when Period is PeriodCustom.
	Month string
	// HidePaid drops paid bills from the list. It never affects Metrics.
	HidePaid bool
}

// Metrics are the aggregate totals for a period.
type Metrics struct {
	UnpaidCount int             `json:"unpaid_count"`
	PaidCount   int             `json:"paid_count"`
	TotalUnpaid decimal.Decimal `json:"total_unpaid"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
}

// inPeriod reports whether a bill's due date falls in the filter's window.
func inPeriod(t models.Tagihan, f Filter, now time.Time) bool {
	switch f.Period {
	case PeriodAll:
		return true
	case PeriodCustom:
		return t.DueDate.Format("2006-01") == f.Month
	default: // PeriodThisMonth
		return t.DueDate.Year() == now.Year() && t.DueDate.Month() == now.Month()
	}
}

// ByPeriod returns the bills due in the filter's window, ignoring the text
// query and the hide-paid toggle.
func ByPeriod(bills []models.Tagihan, f Filter, now time.Time) []models.Tagihan {
	out := make([]models.Tagihan, 0, len(bills))
	for _, b := range bills {
		if inPeriod(b, f, now) {
			out = append(out, b)
		}
	}
	return out
}

// Apply returns the bills matching the full filter: period window, title
// substring, and hide-paid toggle.
func Apply(bills []models.Tagihan, f Filter, now time.Time) []models.Tagihan {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.Tagihan, 0, len(bills))
	for _, b := range bills {
		if !inPeriod(b, f, now) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(b.Title), q) {
			continue
		}
		if f.HidePaid && b.Paid {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Summarize computes counts and amount totals over the period window only.
// Hide-paid is deliberately ignored: the totals describe the period, not
// whatever subset the list happens to be showing.
func Summarize(bills []models.Tagihan, f Filter, now time.Time) Metrics {
	m := Metrics{TotalUnpaid: decimal.Zero, TotalPaid: decimal.Zero}
	for _, b := range bills {
		if !inPeriod(b, f, now) {
			continue
		}
		if b.Paid {
			m.PaidCount++
			m.TotalPaid = m.TotalPaid.Add(b.Amount)
		} else {
			m.UnpaidCount++
			m.TotalUnpaid = m.TotalUnpaid.Add(b.Amount)
		}
	}
	return m
}
