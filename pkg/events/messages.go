package events

import (
	"encoding/json"
	"time"

	"gymtrack/models"
)

// MonthClosedMessage announces that a month was closed and its aggregate
// archived. Downstream consumers (mailers, dashboards) fetch details by
// snapshot id if they need more than the totals.
type MonthClosedMessage struct {
	SnapshotID    uint      `json:"snapshot_id"`
	Month         int       `json:"month"`
	Year          int       `json:"year"`
	TotalRevenue  string    `json:"total_revenue"`
	ActiveMembers int64     `json:"active_members"`
	ClosedAt      time.Time `json:"closed_at"`
}

func NewMonthClosedMessage(snap *models.MonthlySnapshot) *MonthClosedMessage {
	return &MonthClosedMessage{
		SnapshotID:    snap.ID,
		Month:         snap.Month,
		Year:          snap.Year,
		TotalRevenue:  snap.TotalRevenue.StringFixed(2),
		ActiveMembers: snap.ActiveMembers,
		ClosedAt:      time.Now(),
	}
}

func (m *MonthClosedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MonthClosedMessageFromJSON(data []byte) (*MonthClosedMessage, error) {
	var m MonthClosedMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
