package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gymtrack/models"

	"gorm.io/gorm"
)

// MemberSummary is a member row annotated with the date of their most recent
// payment (nil when they never paid).
type MemberSummary struct {
	ID              uint       `json:"id"`
	Name            string     `json:"name"`
	Surname         string     `json:"surname"`
	Contact         string     `json:"contact"`
	LastPaymentDate *time.Time `json:"last_payment_date"`
}

// CreateMember inserts a new member and returns it with the generated id.
func (s *Service) CreateMember(ctx context.Context, m *models.Member) error {
	m.Name = strings.TrimSpace(m.Name)
	m.Surname = strings.TrimSpace(m.Surname)
	if m.Name == "" || m.Surname == "" {
		return ErrInvalidMember
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

// ListMembers returns all members ordered by id, each with the date of their
// latest payment. The latest payment is resolved with an anti-join over real
// columns rather than a MAX() expression so the drivers' time conversion
// applies (an aggregate column carries no declared type on sqlite).
func (s *Service) ListMembers(ctx context.Context) ([]MemberSummary, error) {
	var members []models.Member
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	var latest []models.Payment
	err := s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Select("payments.member_id, payments.date").
		Joins("LEFT JOIN payments later ON later.member_id = payments.member_id AND (later.date > payments.date OR (later.date = payments.date AND later.id > payments.id))").
		Where("later.id IS NULL").
		Scan(&latest).Error
	if err != nil {
		return nil, fmt.Errorf("list members: latest payments: %w", err)
	}
	lastByMember := make(map[uint]time.Time, len(latest))
	for _, p := range latest {
		lastByMember[p.MemberID] = p.Date
	}

	out := make([]MemberSummary, 0, len(members))
	for _, m := range members {
		summary := MemberSummary{ID: m.ID, Name: m.Name, Surname: m.Surname, Contact: m.Contact}
		if d, ok := lastByMember[m.ID]; ok {
			last := d
			summary.LastPaymentDate = &last
		}
		out = append(out, summary)
	}
	return out, nil
}

// GetMember returns a member with their payments ordered by date descending.
// Returns gorm.ErrRecordNotFound when no such member exists.
func (s *Service) GetMember(ctx context.Context, id uint) (*models.Member, error) {
	var m models.Member
	err := s.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("date DESC")
		}).
		First(&m, id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMember removes a member and all their payments in one transaction.
// It returns the number of member rows removed: 0 when the id is unknown,
// which is not an error.
func (s *Service) DeleteMember(ctx context.Context, id uint) (int64, error) {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("member_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
			return fmt.Errorf("delete payments: %w", err)
		}
		res := tx.Delete(&models.Member{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete member: %w", res.Error)
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
