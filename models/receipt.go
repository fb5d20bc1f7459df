package models

import "time"

// Receipt records an uploaded payment receipt image and the outcome of its
// OCR validation. Rejected receipts are kept (with Failed set) so an admin
// can review them; the rejected image file itself is not retained.
type Receipt struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	FileName    string    `gorm:"size:255;not null" json:"file_name"`
	StorePath   string    `gorm:"column:store_path;size:512" json:"store_path"`
	ContentType string    `gorm:"size:128" json:"content_type"`
	MemberID    uint      `gorm:"index;not null" json:"member_id"`
	PaymentID   *uint     `gorm:"index" json:"payment_id"` // nil when validation rejected
	// MatchedText is a snippet of the recognized text kept as evidence.
	MatchedText  string `gorm:"size:255" json:"matched_text"`
	Failed       bool   `gorm:"default:false;index" json:"failed"`
	FailedReason string `gorm:"size:255" json:"failed_reason"`
}
