// Package ledger holds the membership stores and the monthly close engine.
// All operations run against an explicit *gorm.DB handle; "the current
// month" is always derived from the service clock at call time.
package ledger

import (
	"time"

	"gorm.io/gorm"
)

// Service bundles the database handle with the clock used to resolve the
// current calendar month. The clock is injectable so tests can pin a period.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// DateOnly truncates t to UTC midnight of its calendar date. Payments carry
// date granularity only; storing every date at UTC midnight makes the range
// check below equivalent to month/year component equality.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// monthBounds returns the half-open [start, end) range covering the calendar
// month of t. Bounds are anchored at UTC midnight, same as stored dates, so
// the clock's location can never shift a first-of-month payment out of its
// month.
func monthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
