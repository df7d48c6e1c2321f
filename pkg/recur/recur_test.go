package recur

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNext(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		freq Frequency
		want time.Time
	}{
		{"daily", date(2024, time.March, 14), Daily, date(2024, time.March, 15)},
		{"daily year rollover", date(2024, time.December, 31), Daily, date(2025, time.January, 1)},
		{"weekly", date(2024, time.March, 14), Weekly, date(2024, time.March, 21)},
		{"weekly month rollover", date(2024, time.March, 28), Weekly, date(2024, time.April, 4)},
		{"monthly", date(2024, time.January, 15), Monthly, date(2024, time.February, 15)},
		// AddDate semantics: Jan 31 + 1 month normalizes past Feb.
		{"monthly overflow leap year", date(2024, time.January, 31), Monthly, date(2024, time.March, 2)},
		{"monthly overflow regular year", date(2023, time.January, 31), Monthly, date(2023, time.March, 3)},
		{"yearly", date(2024, time.June, 1), Yearly, date(2025, time.June, 1)},
		{"yearly leap day", date(2024, time.February, 29), Yearly, date(2025, time.March, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Next(tc.in, tc.freq)
			if !got.Equal(tc.want) {
				t.Fatalf("Next(%s, %s) = %s, want %s",
					tc.in.Format("2006-01-02"), tc.freq,
					got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
			}
		})
	}
}

// Projection must always move forward, whatever the input date.
func TestNextAlwaysAdvances(t *testing.T) {
	freqs := []Frequency{Daily, Weekly, Monthly, Yearly}
	d := date(2020, time.January, 1)
	for i := 0; i < 400; i++ {
		for _, f := range freqs {
			if got := Next(d, f); !got.After(d) {
				t.Fatalf("Next(%s, %s) = %s did not advance", d, f, got)
			}
		}
		d = d.AddDate(0, 0, 1)
	}
}

func TestParse(t *testing.T) {
	for _, s := range []string{"daily", "weekly", "monthly", "yearly"} {
		f, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", s, err)
		}
		if string(f) != s {
			t.Fatalf("Parse(%q) = %q", s, f)
		}
	}
	if _, err := Parse("fortnightly"); err == nil {
		t.Fatal("Parse accepted an unknown frequency")
	}
	if _, err := Parse(""); err == nil {
		t.Fatal("Parse accepted an empty frequency")
	}
}

func TestNextPanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for invalid frequency")
		}
	}()
	Next(date(2024, time.January, 1), Frequency("bogus"))
}
