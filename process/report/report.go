package report

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"be04/models"
	"be04/pkg/billing"
	"be04/pkg/rekap"
)

func mustDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return gdb
}

// RunTagihanReport prints a month-bounded paid/unpaid summary for username
// (month in YYYY-MM) and optionally lists the matching bills.
func RunTagihanReport(username, month string, list bool) {
	gdb := mustDBFromEnv()

	var user models.User
	if err := gdb.Where("username = ?", username).First(&user).Error; err != nil {
		log.Fatalf("user not found: %v", err)
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		log.Fatalf("invalid month format, expected YYYY-MM: %v", err)
	}

	bills, err := billing.NewStore(gdb).List(user.ID)
	if err != nil {
		log.Fatalf("list tagihan failed: %v", err)
	}

	f := rekap.Filter{Period: rekap.PeriodCustom, Month: month}
	now := time.Now().UTC()
	m := rekap.Summarize(bills, f, now)

	fmt.Printf("Tagihan report for user=%s month=%s:\n", user.Username, month)
	fmt.Printf("  unpaid=%d (total %s)  paid=%d (total %s)\n",
		m.UnpaidCount, m.TotalUnpaid.StringFixed(2), m.PaidCount, m.TotalPaid.StringFixed(2))

	if list {
		for _, t := range rekap.Apply(bills, f, now) {
			status := "unpaid"
			if t.Paid {
				status = "paid"
			}
			fmt.Printf("%d|%s|%s|%s|%s\n",
				t.ID, t.Title, t.Amount.StringFixed(2), t.DueDate.Format("2006-01-02"), status)
		}
	}
}
