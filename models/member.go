package models

import "time"

// Member represents a gym member tracked for recurring payments
type Member struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Surname   string    `gorm:"size:255;not null" json:"surname"`
	Contact   string    `gorm:"size:64" json:"contact"`
	// Payments is a one-to-many relation; deleting a member removes them.
	Payments []Payment `gorm:"foreignKey:MemberID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"payments,omitempty"`
}
