package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"be04/models"
	"be04/pkg/billing"
	"be04/pkg/recur"
)

// Seeds a spread of demo bills for a user: a few unpaid in the current
// month, a couple recurring, one already paid. Useful for exercising the
// list filters and the rekap endpoint against a fresh database.
func main() {
	username := flag.String("username", "admin", "user to seed bills for")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	var user models.User
	if err := db.Where("username = ?", *username).First(&user).Error; err != nil {
		log.Fatalf("user not found: %v", err)
	}

	store := billing.NewStore(db)
	now := time.Now().UTC()
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	seeds := []billing.CreateInput{
		{Title: "Listrik", Amount: decimal.NewFromInt(150), DueDate: month.AddDate(0, 0, 4)},
		{Title: "Air PDAM", Amount: decimal.NewFromInt(60), DueDate: month.AddDate(0, 0, 9)},
		{Title: "Internet", Amount: decimal.NewFromInt(300), DueDate: month.AddDate(0, 0, 14),
			IsRecurring: true, Frequency: recur.Monthly},
		{Title: "Sewa kos", Amount: decimal.NewFromInt(1200), DueDate: month.AddDate(0, 0, 19),
			IsRecurring: true, Frequency: recur.Monthly, Notes: "transfer sebelum tanggal 25"},
		{Title: "Asuransi", Amount: decimal.NewFromInt(420), DueDate: month.AddDate(0, 1, 2),
			IsRecurring: true, Frequency: recur.Yearly},
	}

	created := 0
	for _, in := range seeds {
		var cnt int64
		db.Model(&models.Tagihan{}).
			Where("user_id = ? AND title = ? AND due_date = ?", user.ID, in.Title, in.DueDate).
			Count(&cnt)
		if cnt > 0 {
			continue
		}
		t, err := store.Create(user.ID, in)
		if err != nil {
			log.Fatalf("seed %q failed: %v", in.Title, err)
		}
		created++
		// Pay the first one so the dashboard shows both states.
		if created == 1 {
			if _, err := store.MarkPaid(user.ID, t.ID, now); err != nil {
				log.Printf("warning: could not mark %q paid: %v", t.Title, err)
			}
		}
	}
	fmt.Printf("seeded %d tagihan for user %s\n", created, user.Username)
}
