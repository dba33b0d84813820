package ledger

import "time"

// Status values for ledger entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// Entry is the shape persisted in the ledger DynamoDB table.
type Entry struct {
	RequestID string    `dynamodbav:"request_id"` // PK
	Status    string    `dynamodbav:"status"`
	WidgetKey string    `dynamodbav:"widget_key,omitempty"`
	Operation string    `dynamodbav:"operation,omitempty"`
	Outcome   string    `dynamodbav:"outcome,omitempty"`
	CreatedAt time.Time `dynamodbav:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
	ExpiresAt int64     `dynamodbav:"expires_at"` // TTL epoch seconds
	Note      string    `dynamodbav:"note,omitempty"`
}
