package billing

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"be04/models"
	"be04/pkg/recur"
)

// PaymentResult is what a MarkPaid transition produced.
type PaymentResult struct {
	Tagihan *models.Tagihan
	Catatan *models.CatatanKeuangan
	// Successor is the next occurrence spawned for a recurring bill,
	// nil otherwise.
	Successor *models.Tagihan
}

// MarkPaid transitions an unpaid bill to paid: it inserts the linked ledger
// row, flips the paid flag, and for recurring bills creates the successor
// occurrence. Everything runs in one transaction so a failure at any step
// leaves the bill untouched; a bill is never marked paid without its ledger
// entry.
func (s *Store) MarkPaid(userID, id uint, today time.Time) (*PaymentResult, error) {
	today = dateOnly(today)
	var res PaymentResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var t models.Tagihan
		err := tx.Where("id = ? AND user_id = ?", id, userID).First(&t).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load tagihan: %w", err)
		}
		if t.Paid {
			return ErrAlreadyPaid
		}

		srcID := t.ID
		cat := models.CatatanKeuangan{
			UserID:      userID,
			Title:       t.Title,
			Amount:      t.Amount,
			Date:        today,
			SourceID:    &srcID,
			SourceTable: models.SourceTableTagihan,
		}
		if err := tx.Create(&cat).Error; err != nil {
			return fmt.Errorf("create ledger entry: %w", err)
		}

		// paid = false in the WHERE clause closes the race with a second
		// session paying the same bill: the loser updates zero rows.
		upd := tx.Model(&models.Tagihan{}).
			Where("id = ? AND user_id = ? AND paid = ?", id, userID, false).
			Updates(map[string]interface{}{"paid": true, "paid_date": today})
		if upd.Error != nil {
			return fmt.Errorf("mark paid: %w", upd.Error)
		}
		if upd.RowsAffected == 0 {
			return ErrAlreadyPaid
		}
		t.Paid = true
		t.PaidDate = &today

		if t.IsRecurring && t.NextDueDate != nil {
			freq, err := recur.Parse(t.RecurrenceFrequency)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			nextNext := recur.Next(*t.NextDueDate, freq)
			succ := models.Tagihan{
				UserID:              userID,
				Title:               t.Title,
				Amount:              t.Amount,
				DueDate:             *t.NextDueDate,
				Description:         t.Description,
				Notes:               t.Notes,
				IsRecurring:         true,
				RecurrenceFrequency: t.RecurrenceFrequency,
				NextDueDate:         &nextNext,
				GeneratedFromID:     &srcID,
			}
			if err := tx.Create(&succ).Error; err != nil {
				return fmt.Errorf("create successor tagihan: %w", err)
			}
			res.Successor = &succ
		}

		res.Tagihan = &t
		res.Catatan = &cat
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// MarkUnpaid reverses a payment: the linked ledger row is deleted and the
// paid flag and date reset. Calling it on an unpaid bill just re-asserts the
// unpaid state; it never touches successors spawned by an earlier payment.
func (s *Store) MarkUnpaid(userID, id uint) (*models.Tagihan, error) {
	var out *models.Tagihan

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var t models.Tagihan
		err := tx.Where("id = ? AND user_id = ?", id, userID).First(&t).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load tagihan: %w", err)
		}

		if err := tx.Where("source_id = ? AND source_table = ? AND user_id = ?",
			t.ID, models.SourceTableTagihan, userID).
			Delete(&models.CatatanKeuangan{}).Error; err != nil {
			return fmt.Errorf("delete ledger entry: %w", err)
		}

		if err := tx.Model(&models.Tagihan{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(map[string]interface{}{"paid": false, "paid_date": nil}).Error; err != nil {
			return fmt.Errorf("mark unpaid: %w", err)
		}
		t.Paid = false
		t.PaidDate = nil
		out = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
