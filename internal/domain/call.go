package domain

import (
	"errors"
	"time"
)

type CallStatus string

const (
	StatusPending    CallStatus = "pending"
	StatusInProgress CallStatus = "in-progress"
	StatusCompleted  CallStatus = "completed"
	StatusFailed     CallStatus = "failed"
)

// Sentinel errors shared between the repository and the API layer.
var (
	ErrCallNotFound   = errors.New("call not found")
	ErrCallNotPending = errors.New("can only delete pending calls")
	// ErrAlreadyClaimed means another dispatcher run transitioned the record
	// out of 'pending' first; the current run must skip it.
	ErrAlreadyClaimed = errors.New("call already claimed for dispatch")
)

type ScheduledCall struct {
	ID            int64      `db:"id" json:"id"`
	PhoneNumber   string     `db:"phone_number" json:"phone_number"`
	ScheduledTime time.Time  `db:"scheduled_time" json:"scheduled_time"`
	Status        CallStatus `db:"status" json:"status"`
	CallAPIID     *string    `db:"call_api_id" json:"call_api_id,omitempty"`
	CallStatus    *string    `db:"call_status" json:"call_status,omitempty"`
	ErrorMessage  *string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// CallInitiation is what the external Call API returns when a call is placed.
type CallInitiation struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type CompletedCallCache struct {
	CallAPIID   string    `json:"callApiId"`
	CallStatus  string    `json:"callStatus"`
	CompletedAt time.Time `json:"completedAt"`
}

// DispatchResult records the outcome of a single dispatch attempt within a
// dispatcher tick.
type DispatchResult struct {
	CallID    int64
	CallAPIID string
	Skipped   bool
	Success   bool
	Error     error
}

// PollResult records the outcome of one status poll for an in-progress call.
type PollResult struct {
	CallID     int64
	CallStatus string
	Completed  bool
	Skipped    bool
	Error      error
}
