package models

import "github.com/google/uuid"

// Repair job types consumed by the worker pool.
const (
	JobDeleteOrphanChat = "delete-orphan-chat"
	JobReconcileUser    = "reconcile-user"
)

// RepairJob is one queued consistency repair. ChatID is only set for
// delete-orphan-chat jobs.
type RepairJob struct {
	ID     uuid.UUID `json:"id"`
	Type   string    `json:"type"`
	UserID string    `json:"user_id"`
	ChatID uuid.UUID `json:"chat_id,omitempty"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
