package ledger

import (
	"context"
	"fmt"

	"gymtrack/models"
)

// CreatePayment inserts a payment and returns it with the generated id.
// The owning member must exist at creation time and the amount must not be
// negative. The date is stored at UTC midnight of its calendar day; a zero
// date means today per the service clock.
func (s *Service) CreatePayment(ctx context.Context, p *models.Payment) error {
	if p.Amount.IsNegative() {
		return fmt.Errorf("amount must not be negative")
	}
	if p.Date.IsZero() {
		p.Date = s.now()
	}
	p.Date = DateOnly(p.Date)
	// FK enforces this too; the pre-check turns a driver error into a
	// not-found the caller can map to a 404.
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Member{}).Where("id = ?", p.MemberID).Count(&count).Error; err != nil {
		return fmt.Errorf("check member: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("member %d: %w", p.MemberID, ErrMemberNotFound)
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// PaymentsByMember returns a member's payments ordered by date descending.
func (s *Service) PaymentsByMember(ctx context.Context, memberID uint) ([]models.Payment, error) {
	var out []models.Payment
	err := s.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("date DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("payments by member: %w", err)
	}
	return out, nil
}
