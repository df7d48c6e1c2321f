package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"be04/models"
	"be04/pkg/billing"
	"be04/pkg/recur"
	"be04/pkg/rekap"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// tagihanStore wraps the global gorm handle; handlers pass the caller's user
// ID into every store call, the store never reads session state itself.
func tagihanStore() *billing.Store {
	return billing.NewStore(db)
}

const dateLayout = "2006-01-02"

// tagihanJSON shapes a bill for the API: dates go out as YYYY-MM-DD.
func tagihanJSON(t models.Tagihan) gin.H {
	out := gin.H{
		"id":           t.ID,
		"title":        t.Title,
		"amount":       t.Amount,
		"due_date":     t.DueDate.Format(dateLayout),
		"description":  t.Description,
		"notes":        t.Notes,
		"paid":         t.Paid,
		"is_recurring": t.IsRecurring,
	}
	if t.PaidDate != nil {
		out["paid_date"] = t.PaidDate.Format(dateLayout)
	}
	if t.IsRecurring {
		out["recurrence_frequency"] = t.RecurrenceFrequency
		if t.NextDueDate != nil {
			out["next_due_date"] = t.NextDueDate.Format(dateLayout)
		}
	}
	if t.GeneratedFromID != nil {
		out["generated_from_id"] = *t.GeneratedFromID
	}
	return out
}

// billingError maps pkg/billing sentinels onto HTTP statuses.
func billingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, billing.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, billing.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "tagihan not found"})
	case errors.Is(err, billing.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": "tagihan already paid"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}

func tagihanIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func parseDateField(c *gin.Context, name, value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be YYYY-MM-DD"})
		return nil, false
	}
	return &t, true
}

func createTagihanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Title               string          `json:"title" binding:"required"`
		Amount              decimal.Decimal `json:"amount" binding:"required"`
		DueDate             string          `json:"due_date" binding:"required"`
		Description         string          `json:"description"`
		Notes               string          `json:"notes"`
		IsRecurring         bool            `json:"is_recurring"`
		RecurrenceFrequency string          `json:"recurrence_frequency"`
		NextDueDate         string          `json:"next_due_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	due, ok := parseDateField(c, "due_date", req.DueDate)
	if !ok {
		return
	}
	next, ok := parseDateField(c, "next_due_date", req.NextDueDate)
	if !ok {
		return
	}

	in := billing.CreateInput{
		Title:       req.Title,
		Amount:      req.Amount,
		Description: req.Description,
		Notes:       req.Notes,
		IsRecurring: req.IsRecurring,
		Frequency:   recur.Frequency(req.RecurrenceFrequency),
		NextDueDate: next,
	}
	if due != nil {
		in.DueDate = *due
	}
	t, err := tagihanStore().Create(user.ID, in)
	if err != nil {
		billingError(c, err)
		return
	}
	c.JSON(http.StatusOK, tagihanJSON(*t))
}

// listTagihanHandler lists the caller's bills with the in-memory filter:
// ?q= title substring, ?period= this-month|custom|all (+ ?month=YYYY-MM),
// ?hide_paid=1.
func listTagihanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	bills, err := tagihanStore().List(user.ID)
	if err != nil {
		billingError(c, err)
		return
	}
	f, ok := filterFromQuery(c)
	if !ok {
		return
	}
	filtered := rekap.Apply(bills, f, time.Now().UTC())
	out := make([]gin.H, 0, len(filtered))
	for _, b := range filtered {
		out = append(out, tagihanJSON(b))
	}
	c.JSON(http.StatusOK, out)
}

// rekapTagihanHandler returns paid/unpaid counts and totals for a period.
// The hide_paid toggle is ignored here on purpose: totals describe the
// period, not the currently visible subset.
func rekapTagihanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	bills, err := tagihanStore().List(user.ID)
	if err != nil {
		billingError(c, err)
		return
	}
	f, ok := filterFromQuery(c)
	if !ok {
		return
	}
	m := rekap.Summarize(bills, f, time.Now().UTC())
	c.JSON(http.StatusOK, m)
}

func filterFromQuery(c *gin.Context) (rekap.Filter, bool) {
	f := rekap.Filter{
		Query:    c.Query("q"),
		Month:    c.Query("month"),
		HidePaid: c.Query("hide_paid") == "1" || c.Query("hide_paid") == "true",
	}
	switch c.Query("period") {
	case "all":
		f.Period = rekap.PeriodAll
	case "custom":
		f.Period = rekap.PeriodCustom
		if _, err := time.Parse("2006-01", f.Month); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "period=custom requires month=YYYY-MM"})
			return f, false
		}
	default:
		f.Period = rekap.PeriodThisMonth
	}
	return f, true
}

func getTagihanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, ok := tagihanIDParam(c)
	if !ok {
		return
	}
	t, err := tagihanStore().Get(user.ID, id)
	if err != nil {
		billingError(c, err)
		return
	}
	c.JSON(http.StatusOK, tagihanJSON(*t))
}

func updateTagihanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, ok := tagihanIDParam(c)
	if !ok {
		return
	}
	var req struct {
		Title               *string          `json:"title"`
		Amount              *decimal.Decimal `json:"amount"`
		DueDate             *string          `json:"due_date"`
		Description         *string          `json:"description"`
		Notes               *string          `json:"notes"`
		IsRecurring         *bool            `json:"is_recurring"`
		RecurrenceFrequency *string          `json:"recurrence_frequency"`
		NextDueDate         *string          `json:"next_due_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := billing.UpdateInput{
		Title:       req.Title,
		Amount:      req.Amount,
		Description: req.Description,
		Notes:       req.Notes,
		IsRecurring: req.IsRecurring,
		Frequency:   req.RecurrenceFrequency,
	}
	if req.DueDate != nil {
		d, ok := parseDateField(c, "due_date", *req.DueDate)
		if !ok {
			return
		}
		in.DueDate = d
	}
	if req.NextDueDate != nil {
		d, ok := parseDateField(c, "next_due_date", *req.NextDueDate)
		if !ok {
			return
		}
		in.NextDueDate = d
	}

	t, err := tagihanStore().Update(user.ID, id, in)
	if err != nil {
		billingError(c, err)
		return
	}
	c.JSON(http.StatusOK, tagihanJSON(*t))
}

func deleteTagihanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, ok := tagihanIDParam(c)
	if !ok {
		return
	}
	if err := tagihanStore().Delete(user.ID, id); err != nil {
		billingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "tagihan deleted"})
}

func payTagihanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, ok := tagihanIDParam(c)
	if !ok {
		return
	}
	res, err := tagihanStore().MarkPaid(user.ID, id, time.Now().UTC())
	if err != nil {
		billingError(c, err)
		return
	}
	out := gin.H{
		"tagihan":    tagihanJSON(*res.Tagihan),
		"catatan_id": res.Catatan.ID,
	}
	if res.Successor != nil {
		out["successor"] = tagihanJSON(*res.Successor)
	}
	c.JSON(http.StatusOK, out)
}

func unpayTagihanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, ok := tagihanIDParam(c)
	if !ok {
		return
	}
	t, err := tagihanStore().MarkUnpaid(user.ID, id)
	if err != nil {
		billingError(c, err)
		return
	}
	c.JSON(http.StatusOK, tagihanJSON(*t))
}
