package rekap

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"be04/models"
)

var now = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func bill(title string, due time.Time, amount int64, paid bool) models.Tagihan {
	return models.Tagihan{
		Title:   title,
		DueDate: due,
		Amount:  decimal.NewFromInt(amount),
		Paid:    paid,
	}
}

// 5 bills due in March 2024 (the "current" month), 5 outside it.
func fixture() []models.Tagihan {
	mar := func(d int) time.Time { return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC) }
	return []models.Tagihan{
		bill("Listrik", mar(1), 100, true),
		bill("Air PDAM", mar(5), 50, false),
		bill("Internet", mar(12), 300, false),
		bill("Sewa kos", mar(20), 1200, true),
		bill("Asuransi", mar(28), 75, false),
		bill("Listrik", time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), 90, true),
		bill("Internet", time.Date(2024, time.February, 12, 0, 0, 0, 0, time.UTC), 300, false),
		bill("Pajak motor", time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC), 250, false),
		bill("Sewa kos", time.Date(2024, time.April, 20, 0, 0, 0, 0, time.UTC), 1200, false),
		bill("Langganan", time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC), 40, true),
	}
}

func TestApplyThisMonthKeepsPaidAndUnpaid(t *testing.T) {
	got := Apply(fixture(), Filter{Period: PeriodThisMonth}, now)
	if len(got) != 5 {
		t.Fatalf("expected 5 in-month bills, got %d", len(got))
	}
	for _, b := range got {
		if b.DueDate.Month() != time.March || b.DueDate.Year() != 2024 {
			t.Fatalf("bill %q due %s leaked into this-month filter", b.Title, b.DueDate)
		}
	}
}

func TestApplyHidePaid(t *testing.T) {
	got := Apply(fixture(), Filter{Period: PeriodThisMonth, HidePaid: true}, now)
	if len(got) != 3 {
		t.Fatalf("expected 3 unpaid in-month bills, got %d", len(got))
	}
	for _, b := range got {
		if b.Paid {
			t.Fatalf("paid bill %q survived hide-paid", b.Title)
		}
	}
}

func TestApplyQueryCaseInsensitive(t *testing.T) {
	got := Apply(fixture(), Filter{Period: PeriodAll, Query: "  inTERnet "}, now)
	if len(got) != 2 {
		t.Fatalf("expected 2 internet bills, got %d", len(got))
	}
}

func TestApplyCustomMonth(t *testing.T) {
	got := Apply(fixture(), Filter{Period: PeriodCustom, Month: "2024-04"}, now)
	if len(got) != 2 {
		t.Fatalf("expected 2 bills in 2024-04, got %d", len(got))
	}
	// A March bill from the previous year must not match 2023-03 == 2024-03.
	got = Apply(fixture(), Filter{Period: PeriodCustom, Month: "2023-03"}, now)
	if len(got) != 1 || got[0].Title != "Langganan" {
		t.Fatalf("custom month 2023-03 returned %d bills", len(got))
	}
}

func TestSummarizeIgnoresHidePaid(t *testing.T) {
	f := Filter{Period: PeriodThisMonth, HidePaid: true}
	m := Summarize(fixture(), f, now)
	if m.UnpaidCount != 3 || m.PaidCount != 2 {
		t.Fatalf("counts = %d unpaid / %d paid, want 3/2", m.UnpaidCount, m.PaidCount)
	}
	if !m.TotalUnpaid.Equal(decimal.NewFromInt(425)) { // 50+300+75
		t.Fatalf("TotalUnpaid = %s, want 425", m.TotalUnpaid)
	}
	if !m.TotalPaid.Equal(decimal.NewFromInt(1300)) { // 100+1200
		t.Fatalf("TotalPaid = %s, want 1300", m.TotalPaid)
	}
}

func TestSummarizeAllPeriod(t *testing.T) {
	m := Summarize(fixture(), Filter{Period: PeriodAll}, now)
	if m.UnpaidCount+m.PaidCount != 10 {
		t.Fatalf("all-period summary covered %d bills", m.UnpaidCount+m.PaidCount)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	m := Summarize(nil, Filter{Period: PeriodAll}, now)
	if m.UnpaidCount != 0 || m.PaidCount != 0 || !m.TotalUnpaid.IsZero() || !m.TotalPaid.IsZero() {
		t.Fatalf("empty summary not zero: %+v", m)
	}
}
