package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"gymtrack/models"

	"gorm.io/gorm"
)

var march = time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

func TestSummaryIgnoresOtherMonths(t *testing.T) {
	s := newTestService(t, march)
	a := mustMember(t, s, "Ana", "Souza")
	mustPayment(t, s, a.ID, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), "100.00")
	mustPayment(t, s, a.ID, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), "100.00")
	mustPayment(t, s, a.ID, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), "100.00")

	sum, err := s.CurrentMonthSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	amountEqual(t, sum.TotalRevenue, "0")
	if sum.ActiveMembers != 0 {
		t.Fatalf("active members = %d, want 0", sum.ActiveMembers)
	}
}

func TestSummarySameMemberCountedOnce(t *testing.T) {
	s := newTestService(t, march)
	a := mustMember(t, s, "Ana", "Souza")
	mustPayment(t, s, a.ID, march, "100.00")
	mustPayment(t, s, a.ID, march.AddDate(0, 0, 5), "50.00")

	sum, err := s.CurrentMonthSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	amountEqual(t, sum.TotalRevenue, "150.00")
	if sum.ActiveMembers != 1 {
		t.Fatalf("active members = %d, want 1", sum.ActiveMembers)
	}
}

func TestSummaryDistinctMembers(t *testing.T) {
	s := newTestService(t, march)
	a := mustMember(t, s, "Ana", "Souza")
	b := mustMember(t, s, "Bruno", "Lima")
	mustPayment(t, s, a.ID, march, "100.00")
	mustPayment(t, s, b.ID, march, "200.00")

	sum, err := s.CurrentMonthSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	amountEqual(t, sum.TotalRevenue, "300.00")
	if sum.ActiveMembers != 2 {
		t.Fatalf("active members = %d, want 2", sum.ActiveMembers)
	}
}

func TestSummaryClockLocationDoesNotSplitMonth(t *testing.T) {
	// a service clock west of UTC must still count a payment dated the
	// 1st of the month (UTC midnight) as part of that month
	brt := time.FixedZone("BRT", -3*3600)
	s := newTestService(t, time.Date(2026, time.March, 15, 10, 0, 0, 0, brt))
	a := mustMember(t, s, "Ana", "Souza")
	mustPayment(t, s, a.ID, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), "100.00")
	mustPayment(t, s, a.ID, time.Date(2026, time.March, 1, 20, 0, 0, 0, brt), "50.00")

	sum, err := s.CurrentMonthSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	amountEqual(t, sum.TotalRevenue, "150.00")
	if sum.ActiveMembers != 1 {
		t.Fatalf("active members = %d, want 1", sum.ActiveMembers)
	}

	snap, err := s.CloseCurrentMonth(context.Background())
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	amountEqual(t, snap.TotalRevenue, "150.00")
	left, err := s.PaymentsByMember(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("payments by member: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("purge left %d first-of-month payments behind", len(left))
	}
}

func TestCloseArchivesAndPurges(t *testing.T) {
	s := newTestService(t, march)
	a := mustMember(t, s, "Ana", "Souza")
	b := mustMember(t, s, "Bruno", "Lima")
	mustPayment(t, s, a.ID, march, "100.00")
	mustPayment(t, s, b.ID, march.AddDate(0, 0, 3), "200.00")
	// a payment from another month must survive the purge
	keeper := mustPayment(t, s, b.ID, time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC), "75.00")

	before, err := s.CurrentMonthSummary(context.Background())
	if err != nil {
		t.Fatalf("summary before close: %v", err)
	}

	snap, err := s.CloseCurrentMonth(context.Background())
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if snap.Month != 3 || snap.Year != 2026 {
		t.Fatalf("snapshot period = %d/%d, want 3/2026", snap.Month, snap.Year)
	}
	amountEqual(t, snap.TotalRevenue, before.TotalRevenue.String())
	if snap.ActiveMembers != before.ActiveMembers {
		t.Fatalf("snapshot active members = %d, want %d", snap.ActiveMembers, before.ActiveMembers)
	}

	var count int64
	if err := s.db.Model(&models.MonthlySnapshot{}).Count(&count).Error; err != nil {
		t.Fatalf("count snapshots: %v", err)
	}
	if count != 1 {
		t.Fatalf("snapshot count = %d, want 1", count)
	}

	after, err := s.CurrentMonthSummary(context.Background())
	if err != nil {
		t.Fatalf("summary after close: %v", err)
	}
	amountEqual(t, after.TotalRevenue, "0")
	if after.ActiveMembers != 0 {
		t.Fatalf("active members after close = %d, want 0", after.ActiveMembers)
	}

	remaining, err := s.PaymentsByMember(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("payments by member: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != keeper.ID {
		t.Fatalf("expected only the February payment to survive, got %d rows", len(remaining))
	}
}

func TestCloseRollsBackOnPurgeFailure(t *testing.T) {
	s := newTestService(t, march)
	a := mustMember(t, s, "Ana", "Souza")
	mustPayment(t, s, a.ID, march, "100.00")

	failure := errors.New("simulated storage failure")
	cb := s.db.Callback().Delete().Before("gorm:delete")
	if err := cb.Register("ledger_test_fail_delete", func(d *gorm.DB) { d.AddError(failure) }); err != nil {
		t.Fatalf("register callback: %v", err)
	}
	defer func() {
		if err := s.db.Callback().Delete().Remove("ledger_test_fail_delete"); err != nil {
			t.Fatalf("remove callback: %v", err)
		}
	}()

	if _, err := s.CloseCurrentMonth(context.Background()); !errors.Is(err, failure) {
		t.Fatalf("close error = %v, want wrapped %v", err, failure)
	}

	var snaps int64
	if err := s.db.Model(&models.MonthlySnapshot{}).Count(&snaps).Error; err != nil {
		t.Fatalf("count snapshots: %v", err)
	}
	if snaps != 0 {
		t.Fatalf("snapshot count after rollback = %d, want 0", snaps)
	}
	var payments int64
	if err := s.db.Model(&models.Payment{}).Count(&payments).Error; err != nil {
		t.Fatalf("count payments: %v", err)
	}
	if payments != 1 {
		t.Fatalf("payment count after rollback = %d, want 1", payments)
	}
}

func TestCloseTwiceRecordsSecondZeroSnapshot(t *testing.T) {
	s := newTestService(t, march)
	a := mustMember(t, s, "Ana", "Souza")
	mustPayment(t, s, a.ID, march, "100.00")

	if _, err := s.CloseCurrentMonth(context.Background()); err != nil {
		t.Fatalf("first close: %v", err)
	}
	second, err := s.CloseCurrentMonth(context.Background())
	if err != nil {
		t.Fatalf("second close: %v", err)
	}
	amountEqual(t, second.TotalRevenue, "0")
	if second.ActiveMembers != 0 {
		t.Fatalf("second snapshot active members = %d, want 0", second.ActiveMembers)
	}

	hist, err := s.History(context.Background())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("history length = %d, want 2", len(hist))
	}
}

func TestHistoryOrder(t *testing.T) {
	s := newTestService(t, march)
	periods := [][2]int{{2025, 11}, {2026, 2}, {2025, 12}, {2026, 1}}
	for _, p := range periods {
		snap := models.MonthlySnapshot{Year: p[0], Month: p[1], ActiveMembers: 1}
		if err := s.db.Create(&snap).Error; err != nil {
			t.Fatalf("seed snapshot %v: %v", p, err)
		}
	}

	hist, err := s.History(context.Background())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	want := [][2]int{{2026, 2}, {2026, 1}, {2025, 12}, {2025, 11}}
	if len(hist) != len(want) {
		t.Fatalf("history length = %d, want %d", len(hist), len(want))
	}
	for i, w := range want {
		if hist[i].Year != w[0] || hist[i].Month != w[1] {
			t.Fatalf("history[%d] = %d/%d, want %d/%d", i, hist[i].Year, hist[i].Month, w[0], w[1])
		}
	}
}

func TestDeleteMemberExcludesContributions(t *testing.T) {
	s := newTestService(t, march)
	a := mustMember(t, s, "Ana", "Souza")
	b := mustMember(t, s, "Bruno", "Lima")
	mustPayment(t, s, a.ID, march, "100.00")
	mustPayment(t, s, b.ID, march, "200.00")

	removed, err := s.DeleteMember(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("delete member: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := s.GetMember(context.Background(), a.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("get deleted member: err = %v, want gorm.ErrRecordNotFound", err)
	}
	left, err := s.PaymentsByMember(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("payments by deleted member: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("deleted member still has %d payments", len(left))
	}

	sum, err := s.CurrentMonthSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	amountEqual(t, sum.TotalRevenue, "200.00")
	if sum.ActiveMembers != 1 {
		t.Fatalf("active members = %d, want 1", sum.ActiveMembers)
	}
}
