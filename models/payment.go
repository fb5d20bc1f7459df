package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a single recorded transaction tied to a member and a date.
// Rows are never updated; they disappear either in bulk when a month is
// closed or together with their owning member.
type Payment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	MemberID  uint            `gorm:"index;not null" json:"member_id"`
	Date      time.Time       `gorm:"not null;index" json:"date"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
}
