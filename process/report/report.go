package report

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"gymtrack/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func mustDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return gdb
}

// RunReport prints archived monthly snapshots plus the live aggregate for
// month (YYYY-MM) and optionally lists the matching payment rows.
func RunReport(month string, list bool) {
	gdb := mustDBFromEnv()

	var snaps []models.MonthlySnapshot
	if err := gdb.Order("year DESC, month DESC, id DESC").Find(&snaps).Error; err != nil {
		log.Fatalf("fetch snapshots failed: %v", err)
	}
	fmt.Printf("Archived snapshots: %d\n", len(snaps))
	for _, s := range snaps {
		fmt.Printf("  %04d-%02d revenue=%s active_members=%d (closed %s)\n",
			s.Year, s.Month, s.TotalRevenue.StringFixed(2), s.ActiveMembers, s.CreatedAt.Format("2006-01-02"))
	}

	t, err := time.Parse("2006-01", month)
	if err != nil {
		log.Fatalf("invalid month format, expected YYYY-MM: %v", err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var total sql.NullFloat64
	var active int64
	if err := gdb.Raw(`SELECT COALESCE(SUM(amount),0) AS total, COUNT(DISTINCT member_id) AS active FROM payments WHERE date >= ? AND date < ?`, start, end).Row().Scan(&total, &active); err != nil {
		log.Fatalf("query failed: %v", err)
	}
	fmt.Printf("Open period %s (UTC): revenue=%.2f active_members=%d\n", month, total.Float64, active)

	if list {
		var rows []models.Payment
		if err := gdb.Where("date >= ? AND date < ?", start, end).Order("id").Find(&rows).Error; err != nil {
			log.Fatalf("fetch rows failed: %v", err)
		}
		for _, r := range rows {
			fmt.Printf("%d|member=%d|%s|%s\n", r.ID, r.MemberID, r.Amount.StringFixed(2), r.Date.Format("2006-01-02"))
		}
	}
}
