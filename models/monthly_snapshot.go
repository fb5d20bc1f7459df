package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlySnapshot is the immutable archived aggregate produced by closing a
// month. (month, year) is deliberately not unique: closing the same month
// twice records a second row with the totals of the (by then empty) period.
type MonthlySnapshot struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	Month         int             `gorm:"not null;index:idx_snapshot_period" json:"month"`
	Year          int             `gorm:"not null;index:idx_snapshot_period" json:"year"`
	TotalRevenue  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_revenue"`
	ActiveMembers int64           `gorm:"not null" json:"active_members"`
}
