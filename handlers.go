package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gymtrack/models"
	"gymtrack/pkg/ledger"
	"gymtrack/pkg/receipt"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupRoutes(r *gin.Engine) {
	r.POST("/members", createMemberHandler)
	r.GET("/members", listMembersHandler)
	r.GET("/members/:id", getMemberHandler)
	r.DELETE("/members/:id", deleteMemberHandler)
	r.POST("/payments", createPaymentHandler)
	r.POST("/payments/validate", validatePaymentHandler)
	r.GET("/monthly-summary", monthlySummaryHandler)
	r.GET("/history", historyHandler)
	r.POST("/end-of-month", endOfMonthHandler)
}

func createMemberHandler(c *gin.Context) {
	var req struct {
		Name    string `json:"name" binding:"required"`
		Surname string `json:"surname" binding:"required"`
		Contact string `json:"contact"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m := models.Member{Name: req.Name, Surname: req.Surname, Contact: req.Contact}
	if err := svc.CreateMember(c.Request.Context(), &m); err != nil {
		if errors.Is(err, ledger.ErrInvalidMember) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": m.ID, "name": m.Name, "surname": m.Surname, "contact": m.Contact})
}

func listMembersHandler(c *gin.Context) {
	list, err := svc.ListMembers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func getMemberHandler(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	m, err := svc.GetMember(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, m)
}

func deleteMemberHandler(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	removed, err := svc.DeleteMember(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if removed == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member and related payments removed"})
}

func createPaymentHandler(c *gin.Context) {
	var req struct {
		MemberID uint            `json:"member_id" binding:"required"`
		Date     string          `json:"date"`
		Amount   decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}
	p := models.Payment{MemberID: req.MemberID, Date: date, Amount: req.Amount}
	if err := svc.CreatePayment(c.Request.Context(), &p); err != nil {
		if errors.Is(err, ledger.ErrMemberNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": p.ID, "member_id": p.MemberID, "date": p.Date, "amount": p.Amount})
}

// validatePaymentHandler records a payment only after its receipt image
// passes OCR validation. The OCR call runs before any storage write and
// outside any transaction.
func validatePaymentHandler(c *gin.Context) {
	memberID, err := parseID(c.PostForm("member_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member_id"})
		return
	}
	amount, err := decimal.NewFromString(c.PostForm("amount"))
	if err != nil || amount.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	date, err := parseDate(c.PostForm("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}
	file, err := c.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receipt missing"})
		return
	}
	if file.Size > 5*1024*1024 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receipt too large (max 5MB)"})
		return
	}

	dir := filepath.Join(receiptBaseDir(), "member_"+strconv.FormatUint(uint64(memberID), 10))
	if err := os.MkdirAll(dir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	fullPath := filepath.Join(dir, storedReceiptName(file.Filename))
	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	matched, err := receipt.Validate(fullPath, amount)
	if err != nil {
		if errors.Is(err, receipt.ErrNoMatch) || errors.Is(err, receipt.ErrUnreadable) {
			// keep the row for review, drop the file
			rec := models.Receipt{
				FileName:     file.Filename,
				MemberID:     memberID,
				ContentType:  file.Header.Get("Content-Type"),
				Failed:       true,
				FailedReason: err.Error(),
			}
			if dbErr := db.Create(&rec).Error; dbErr != nil {
				log.Printf("failed to record rejected receipt %s: %v", file.Filename, dbErr)
			}
		}
		_ = os.Remove(fullPath)
		status, msg := receiptFailureStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	p := models.Payment{MemberID: memberID, Date: date, Amount: amount}
	if err := svc.CreatePayment(c.Request.Context(), &p); err != nil {
		_ = os.Remove(fullPath)
		if errors.Is(err, ledger.ErrMemberNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		}
		return
	}
	rec := models.Receipt{
		FileName:    file.Filename,
		StorePath:   fullPath,
		MemberID:    memberID,
		PaymentID:   &p.ID,
		ContentType: file.Header.Get("Content-Type"),
		MatchedText: matched,
	}
	if err := db.Create(&rec).Error; err != nil {
		log.Printf("failed to record receipt %s: %v", file.Filename, err)
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":        p.ID,
		"member_id": p.MemberID,
		"date":      p.Date,
		"amount":    p.Amount,
		"receipt":   rec.ID,
		"message":   "payment recorded, receipt validated",
	})
}

func monthlySummaryHandler(c *gin.Context) {
	sum, err := svc.CurrentMonthSummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func historyHandler(c *gin.Context) {
	hist, err := svc.History(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, hist)
}

func endOfMonthHandler(c *gin.Context) {
	snap, err := svc.CloseCurrentMonth(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// fire and forget, after commit
	if err := publisher.PublishMonthClosed(c.Request.Context(), snap); err != nil {
		log.Printf("warning: month.closed publish failed: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "month closed and archived", "snapshot": snap})
}

// receiptFailureStatus maps a validation failure to an HTTP status and
// client message. ErrNoMatch is the only client-side rejection; an engine
// failure (unreadable image or anything else) is a server error.
func receiptFailureStatus(err error) (int, string) {
	switch {
	case errors.Is(err, receipt.ErrNoMatch):
		return http.StatusBadRequest, "receipt invalid: expected amount not found"
	case errors.Is(err, receipt.ErrUnreadable):
		return http.StatusInternalServerError, "receipt unreadable"
	default:
		return http.StatusInternalServerError, "receipt processing failed"
	}
}

// storedReceiptName prefixes the upload's base name with a timestamp so two
// uploads sharing a filename never overwrite each other on disk.
func storedReceiptName(name string) string {
	return fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(name))
}

func parseID(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(v), nil
}

// parseDate accepts plain calendar dates and full RFC3339 timestamps; an
// empty value means today.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
