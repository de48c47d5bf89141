package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// OperationKind classifies a mutating prompt operation for the audit log.
// The kind is always supplied explicitly by the caller.
type OperationKind string

const (
	OperationCreate       OperationKind = "create"
	OperationUpdate       OperationKind = "update"
	OperationDelete       OperationKind = "delete"
	OperationPublish      OperationKind = "publish"
	OperationToggleActive OperationKind = "toggle_active"
)

// AuditEntry is one append-only record of a mutating prompt operation,
// carrying before/after snapshots of the affected version.
type AuditEntry struct {
	ID         string
	ResourceID string
	Operation  OperationKind
	Actor      string
	Before     json.RawMessage
	After      json.RawMessage
	CreatedAt  time.Time
}

// NewAuditEntry builds an AuditEntry from before/after record snapshots.
// A nil snapshot (no prior state on create, no remaining state on delete)
// is recorded as a null JSON document.
func NewAuditEntry(id, resourceID string, op OperationKind, actor string, before, after *PromptRecord) (*AuditEntry, error) {
	beforeJSON, err := marshalSnapshot(before)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal before snapshot: %w", err)
	}

	afterJSON, err := marshalSnapshot(after)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal after snapshot: %w", err)
	}

	return &AuditEntry{
		ID:         id,
		ResourceID: resourceID,
		Operation:  op,
		Actor:      actor,
		Before:     beforeJSON,
		After:      afterJSON,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func marshalSnapshot(p *PromptRecord) (json.RawMessage, error) {
	if p == nil {
		return json.RawMessage("null"), nil
	}
	return json.Marshal(p)
}

// ValidateAuditEntry validates an AuditEntry instance
func ValidateAuditEntry(e *AuditEntry) error {
	if e == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}

	if e.ID == "" {
		return NewDomainError(ErrCodeValidation, "audit entry ID is required")
	}

	if e.ResourceID == "" {
		return NewDomainError(ErrCodeValidation, "audit entry resource id is required")
	}

	if !isValidOperationKind(e.Operation) {
		return ErrInvalidOperationKind
	}

	return nil
}

// isValidOperationKind checks if an OperationKind is valid
func isValidOperationKind(op OperationKind) bool {
	switch op {
	case OperationCreate, OperationUpdate, OperationDelete,
		OperationPublish, OperationToggleActive:
		return true
	}
	return false
}
