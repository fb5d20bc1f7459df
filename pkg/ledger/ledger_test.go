package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gymtrack/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestService opens a throwaway sqlite database and pins the service
// clock to the given instant.
func newTestService(t *testing.T, at time.Time) *Service {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Member{}, &models.Payment{}, &models.MonthlySnapshot{}, &models.Receipt{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := NewService(db)
	s.now = func() time.Time { return at }
	return s
}

func mustMember(t *testing.T, s *Service, name, surname string) *models.Member {
	t.Helper()
	m := &models.Member{Name: name, Surname: surname, Contact: "+5511999990000"}
	if err := s.CreateMember(context.Background(), m); err != nil {
		t.Fatalf("create member %s: %v", name, err)
	}
	return m
}

func mustPayment(t *testing.T, s *Service, memberID uint, date time.Time, amount string) *models.Payment {
	t.Helper()
	p := &models.Payment{MemberID: memberID, Date: date, Amount: decimal.RequireFromString(amount)}
	if err := s.CreatePayment(context.Background(), p); err != nil {
		t.Fatalf("create payment for member %d: %v", memberID, err)
	}
	return p
}

func amountEqual(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("amount = %s, want %s", got, want)
	}
}
