package domain

import (
	"fmt"
	"time"
)

// PromptStatus represents the lifecycle status of a prompt version
type PromptStatus string

const (
	PromptStatusDraft     PromptStatus = "draft"
	PromptStatusPublished PromptStatus = "published"
)

// PromptRecord represents one version of a prompt template.
// ResourceID is the stable identity across versions; Version numbers for a
// resource are gapless and strictly increasing. Drafts are mutable in place;
// published versions are immutable and edits fork a new draft version.
type PromptRecord struct {
	ResourceID         string
	Version            int
	Section            string
	SubSection         string
	Categories         []string
	Name               string
	SystemPrompt       string
	UserPromptTemplate string
	OutputFormat       string
	Status             PromptStatus
	IsActive           bool
	CreatedBy          string
	UpdatedBy          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ValidatePromptRecord validates a PromptRecord instance
func ValidatePromptRecord(p *PromptRecord) error {
	if p == nil {
		return fmt.Errorf("prompt record cannot be nil")
	}

	if p.ResourceID == "" {
		return NewDomainError(ErrCodeValidation, "prompt resource id is required")
	}

	if p.Version <= 0 {
		return NewDomainError(ErrCodeValidation, "prompt version must be positive")
	}

	if p.Name == "" {
		return NewDomainError(ErrCodeValidation, "prompt name is required")
	}

	if p.Section == "" {
		return NewDomainError(ErrCodeValidation, "prompt section is required")
	}

	if p.SystemPrompt == "" {
		return NewDomainError(ErrCodeValidation, "prompt system prompt is required")
	}

	if p.UserPromptTemplate == "" {
		return NewDomainError(ErrCodeValidation, "prompt user prompt template is required")
	}

	if !isValidPromptStatus(p.Status) {
		return ErrInvalidPromptStatus
	}

	return nil
}

// isValidPromptStatus checks if a PromptStatus is valid
func isValidPromptStatus(s PromptStatus) bool {
	switch s {
	case PromptStatusDraft, PromptStatusPublished:
		return true
	}
	return false
}

// FullUserPrompt returns the user prompt template with the output format
// trailer appended, when one is set.
func (p *PromptRecord) FullUserPrompt() string {
	if p.OutputFormat == "" {
		return p.UserPromptTemplate
	}
	return p.UserPromptTemplate + "\n\n" + p.OutputFormat
}

// Clone returns a deep copy of the record. Used when forking a published
// version into a new draft.
func (p *PromptRecord) Clone() *PromptRecord {
	cp := *p
	cp.Categories = append([]string(nil), p.Categories...)
	return &cp
}
