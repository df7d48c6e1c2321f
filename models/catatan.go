package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceTableTagihan tags ledger rows created by paying a bill.
const SourceTableTagihan = "tagihans"

// CatatanKeuangan represents an expense record in a user's ledger.
// Rows created by paying a Tagihan carry a (SourceID, SourceTable) pair so
// the payment can be unwound later; manually entered rows leave both empty.
type CatatanKeuangan struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint            `gorm:"index;not null"`
	Title     string          `gorm:"size:255;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Date      time.Time       `gorm:"not null;index"`
	Note      string          `gorm:"size:512"`
	// At most one linked ledger row per source record. Postgres treats
	// NULLs as distinct so manual rows do not collide on the index.
	SourceID    *uint  `gorm:"uniqueIndex:idx_catatan_source"`
	SourceTable string `gorm:"size:64;uniqueIndex:idx_catatan_source"`
}
