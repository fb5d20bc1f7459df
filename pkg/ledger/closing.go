package ledger

import (
	"context"
	"fmt"
	"time"

	"gymtrack/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MonthlySummary is the aggregate over the current month's payments.
type MonthlySummary struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	ActiveMembers int64           `json:"active_members"`
}

// CurrentMonthSummary computes total revenue and distinct paying members for
// the clock's current calendar month. No side effects; both values are zero
// when no payments fall in the month.
func (s *Service) CurrentMonthSummary(ctx context.Context) (MonthlySummary, error) {
	return monthSummary(s.db.WithContext(ctx), s.now())
}

func monthSummary(db *gorm.DB, at time.Time) (MonthlySummary, error) {
	start, end := monthBounds(at)
	var sum MonthlySummary
	err := db.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0) AS total_revenue, COUNT(DISTINCT member_id) AS active_members").
		Where("date >= ? AND date < ?", start, end).
		Scan(&sum).Error
	if err != nil {
		return MonthlySummary{}, fmt.Errorf("month summary: %w", err)
	}
	return sum, nil
}

// CloseCurrentMonth archives the current month's aggregate as a
// MonthlySnapshot and purges the month's payment rows, as one transaction.
// A failure at any step rolls back both effects. The snapshot's month/year
// are taken from the clock at call time.
func (s *Service) CloseCurrentMonth(ctx context.Context) (*models.MonthlySnapshot, error) {
	at := s.now()
	var snap models.MonthlySnapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// sqlite transactions are serializable by construction; Postgres
		// needs it stated so a payment insert racing the close is either
		// counted-and-purged or lands after commit, never in between.
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE").Error; err != nil {
				return fmt.Errorf("set isolation: %w", err)
			}
		}
		sum, err := monthSummary(tx, at)
		if err != nil {
			return err
		}
		snap = models.MonthlySnapshot{
			Month:         int(at.Month()),
			Year:          at.Year(),
			TotalRevenue:  sum.TotalRevenue,
			ActiveMembers: sum.ActiveMembers,
		}
		if err := tx.Create(&snap).Error; err != nil {
			return fmt.Errorf("archive snapshot: %w", err)
		}
		start, end := monthBounds(at)
		if err := tx.Where("date >= ? AND date < ?", start, end).Delete(&models.Payment{}).Error; err != nil {
			return fmt.Errorf("purge payments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("close month %04d-%02d: %w", at.Year(), int(at.Month()), err)
	}
	return &snap, nil
}

// History returns all archived snapshots, most recent period first. The id
// tie-break keeps the order stable if a month was ever closed twice.
func (s *Service) History(ctx context.Context) ([]models.MonthlySnapshot, error) {
	var out []models.MonthlySnapshot
	err := s.db.WithContext(ctx).
		Order("year DESC, month DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return out, nil
}
