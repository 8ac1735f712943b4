package inbox

import "time"

// Record is one notification addressed to a recipient.
type Record struct {
	ID          string            `json:"id"`
	RecipientID string            `json:"recipient_id"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	IsRead      bool              `json:"is_read"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TimeRange is the half-open interval [GTE, LT).
type TimeRange struct {
	GTE time.Time
	LT  time.Time
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.GTE) && t.Before(r.LT)
}

// RecordFilter selects a recipient's records, optionally restricted to a range.
// A nil Range means no time restriction.
type RecordFilter struct {
	RecipientID string
	Range       *TimeRange
}

// CountFilter selects a recipient's records by read state.
type CountFilter struct {
	RecipientID string
	IsRead      bool
}

// SendRequest is a request to push one notification to one device.
type SendRequest struct {
	DeviceToken string            `json:"deviceToken"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
}

// DeliveryResult is what the push provider returned for a delivered message.
type DeliveryResult struct {
	MessageID string `json:"message_id"`
}
