// Package billing owns the bill record store and the paid/unpaid state
// machine. Every operation takes the acting user's ID explicitly; nothing in
// here reads identity from ambient state, and all multi-row transitions run
// inside a single database transaction.
package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"be04/models"
	"be04/pkg/recur"
)

// Store wraps a gorm handle with owner-scoped bill operations.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateInput carries the fields a caller may set when creating a bill.
type CreateInput struct {
	Title       string
	Amount      decimal.Decimal
	DueDate     time.Time
	Description string
	Notes       string
	IsRecurring bool
	Frequency   recur.Frequency
	// NextDueDate defaults to DueDate advanced by one frequency unit when
	// the bill is recurring and the caller leaves it unset.
	NextDueDate *time.Time
	// GeneratedFromID is set only by the payment state machine when it
	// spawns a successor occurrence.
	GeneratedFromID *uint
}

// UpdateInput is a partial field merge; nil pointers leave the stored value
// untouched.
type UpdateInput struct {
	Title       *string
	Amount      *decimal.Decimal
	DueDate     *time.Time
	Description *string
	Notes       *string
	IsRecurring *bool
	Frequency   *string
	NextDueDate *time.Time
}

// dateOnly normalizes to UTC midnight; bills carry calendar dates, not
// instants.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func validateRecurrence(isRecurring bool, freq string, nextDue *time.Time) error {
	if !isRecurring {
		return nil
	}
	if _, err := recur.Parse(freq); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if nextDue == nil {
		return fmt.Errorf("%w: recurring tagihan requires next_due_date", ErrValidation)
	}
	return nil
}

// Create validates and persists a new bill owned by userID.
func (s *Store) Create(userID uint, in CreateInput) (*models.Tagihan, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title required", ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if in.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: due_date required", ErrValidation)
	}

	t := models.Tagihan{
		UserID:          userID,
		Title:           in.Title,
		Amount:          in.Amount,
		DueDate:         dateOnly(in.DueDate),
		Description:     in.Description,
		Notes:           in.Notes,
		IsRecurring:     in.IsRecurring,
		GeneratedFromID: in.GeneratedFromID,
	}
	if in.IsRecurring {
		if !in.Frequency.Valid() {
			return nil, fmt.Errorf("%w: unknown recurrence frequency %q", ErrValidation, in.Frequency)
		}
		t.RecurrenceFrequency = string(in.Frequency)
		if in.NextDueDate != nil {
			nd := dateOnly(*in.NextDueDate)
			t.NextDueDate = &nd
		} else {
			nd := recur.Next(t.DueDate, in.Frequency)
			t.NextDueDate = &nd
		}
	}
	if err := s.db.Create(&t).Error; err != nil {
		return nil, fmt.Errorf("create tagihan: %w", err)
	}
	return &t, nil
}

// Get returns the bill if it exists and belongs to userID.
func (s *Store) Get(userID, id uint) (*models.Tagihan, error) {
	var t models.Tagihan
	err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tagihan: %w", err)
	}
	return &t, nil
}

// Update merges the provided fields into the stored bill and re-checks the
// recurrence invariant against the merged state.
func (s *Store) Update(userID, id uint, in UpdateInput) (*models.Tagihan, error) {
	t, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if *in.Title == "" {
			return nil, fmt.Errorf("%w: title required", ErrValidation)
		}
		t.Title = *in.Title
	}
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
		}
		t.Amount = *in.Amount
	}
	if in.DueDate != nil {
		t.DueDate = dateOnly(*in.DueDate)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Notes != nil {
		t.Notes = *in.Notes
	}
	if in.IsRecurring != nil {
		t.IsRecurring = *in.IsRecurring
	}
	if in.Frequency != nil {
		t.RecurrenceFrequency = *in.Frequency
	}
	if in.NextDueDate != nil {
		nd := dateOnly(*in.NextDueDate)
		t.NextDueDate = &nd
	}

	if t.IsRecurring {
		if err := validateRecurrence(true, t.RecurrenceFrequency, t.NextDueDate); err != nil {
			return nil, err
		}
	} else {
		// Frequency and next due are meaningless on non-recurring bills.
		t.RecurrenceFrequency = ""
		t.NextDueDate = nil
	}

	if err := s.db.Save(t).Error; err != nil {
		return nil, fmt.Errorf("update tagihan: %w", err)
	}
	return t, nil
}

// Delete hard-deletes the bill. Ledger rows created by earlier payments are
// deliberately left in place; only MarkUnpaid removes them.
func (s *Store) Delete(userID, id uint) error {
	res := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Tagihan{})
	if res.Error != nil {
		return fmt.Errorf("delete tagihan: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all bills owned by userID, ordered by due date ascending.
func (s *Store) List(userID uint) ([]models.Tagihan, error) {
	var out []models.Tagihan
	if err := s.db.Where("user_id = ?", userID).Order("due_date asc, id asc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list tagihan: %w", err)
	}
	return out, nil
}
