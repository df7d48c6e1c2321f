package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tagihan represents a payable bill belonging to a user. Paying a tagihan
// creates a linked CatatanKeuangan expense row; recurring tagihan spawn a
// successor row on payment.
//
// No DeletedAt here: bills are hard-deleted and never resurrected, while any
// ledger rows created by earlier payments stay behind.
type Tagihan struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint            `gorm:"index;not null"`
	Title     string          `gorm:"size:255;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	// DueDate is stored at UTC midnight; the API speaks YYYY-MM-DD.
	DueDate     time.Time `gorm:"not null;index"`
	Description string    `gorm:"size:512"`
	Notes       string    `gorm:"type:text"`
	Paid        bool      `gorm:"default:false;not null;index"`
	PaidDate    *time.Time
	IsRecurring bool `gorm:"default:false;not null"`
	// RecurrenceFrequency is one of daily/weekly/monthly/yearly when
	// IsRecurring is set, empty otherwise.
	RecurrenceFrequency string     `gorm:"size:16"`
	NextDueDate         *time.Time
	// GeneratedFromID records which paid occurrence spawned this row.
	// Audit only; nothing dereferences it and the predecessor may be gone.
	GeneratedFromID *uint `gorm:"index"`
}
