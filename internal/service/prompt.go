package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/igad-hub/hubwriter/internal/pagination"
	"github.com/igad-hub/hubwriter/internal/telemetry"
	"github.com/google/uuid"
)

// ListFilters are the conjunctive filters for listing prompts. Route matches
// against the "section/sub_section" path of a record.
type ListFilters struct {
	Section    string
	SubSection string
	Tag        string
	Search     string
	Route      string
	IsActive   *bool
}

// PromptRepositoryInterface defines the repository interface for prompt persistence
type PromptRepositoryInterface interface {
	Insert(ctx context.Context, p *domain.PromptRecord) error
	GetVersion(ctx context.Context, resourceID string, version int) (*domain.PromptRecord, error)
	GetLatest(ctx context.Context, resourceID string) (*domain.PromptRecord, error)
	UpdateVersion(ctx context.Context, p *domain.PromptRecord) error
	DeleteVersion(ctx context.Context, resourceID string, version int) (bool, error)
	DeleteAll(ctx context.Context, resourceID string) (bool, error)
	List(ctx context.Context, filters ListFilters, page pagination.Page) ([]*domain.PromptRecord, int, error)
	FindActive(ctx context.Context, section, subSection string) (*domain.PromptRecord, error)
	NameExists(ctx context.Context, section, subSection, name, excludeResourceID string) (bool, error)
}

// AuditRepositoryInterface defines the repository interface for the append-only history log
type AuditRepositoryInterface interface {
	Append(ctx context.Context, e *domain.AuditEntry) error
	ListByResource(ctx context.Context, resourceID string, limit int) ([]*domain.AuditEntry, error)
}

// TxRepositories exposes transactional repositories inside WithTx.
type TxRepositories interface {
	Prompts() PromptRepositoryInterface
}

// TxRunnerInterface runs a function inside a database transaction.
type TxRunnerInterface interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// PromptService handles the prompt versioning lifecycle: drafts mutate in
// place, published versions are immutable and fork a new draft on edit.
type PromptService struct {
	prompts  PromptRepositoryInterface
	audit    AuditRepositoryInterface
	txRunner TxRunnerInterface
	uuidGen  UUIDGenerator
}

// NewPromptService creates a new PromptService instance
func NewPromptService(prompts PromptRepositoryInterface, audit AuditRepositoryInterface, txRunner TxRunnerInterface) *PromptService {
	return NewPromptServiceWithUUIDGen(prompts, audit, txRunner, &DefaultUUIDGenerator{})
}

// NewPromptServiceWithUUIDGen creates a new PromptService with custom UUID generator (for testing)
func NewPromptServiceWithUUIDGen(prompts PromptRepositoryInterface, audit AuditRepositoryInterface, txRunner TxRunnerInterface, uuidGen UUIDGenerator) *PromptService {
	return &PromptService{
		prompts:  prompts,
		audit:    audit,
		txRunner: txRunner,
		uuidGen:  uuidGen,
	}
}

// CreatePromptInput represents the input for creating a prompt
type CreatePromptInput struct {
	Name               string
	Section            string
	SubSection         string
	Categories         []string
	SystemPrompt       string
	UserPromptTemplate string
	OutputFormat       string
}

// UpdatePromptInput is a partial patch; nil fields are carried forward from
// the current version.
type UpdatePromptInput struct {
	Name               *string
	Section            *string
	SubSection         *string
	Categories         []string
	SystemPrompt       *string
	UserPromptTemplate *string
	OutputFormat       *string
}

// Create creates a new prompt as version 1 in draft status
func (s *PromptService) Create(ctx context.Context, input CreatePromptInput, actor string) (*domain.PromptRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "PromptService.Create", telemetry.SpanAttributes{
		Section:   input.Section,
		Operation: "create",
	})
	defer span.End()

	if strings.TrimSpace(input.Name) == "" ||
		strings.TrimSpace(input.Section) == "" ||
		strings.TrimSpace(input.SystemPrompt) == "" ||
		strings.TrimSpace(input.UserPromptTemplate) == "" {
		return nil, domain.ErrMissingRequiredField
	}

	exists, err := s.prompts.NameExists(ctx, input.Section, input.SubSection, input.Name, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrPromptAlreadyExists
	}

	now := time.Now().UTC()
	record := &domain.PromptRecord{
		ResourceID:         s.uuidGen.NewString(),
		Version:            1,
		Section:            input.Section,
		SubSection:         input.SubSection,
		Categories:         input.Categories,
		Name:               input.Name,
		SystemPrompt:       input.SystemPrompt,
		UserPromptTemplate: input.UserPromptTemplate,
		OutputFormat:       input.OutputFormat,
		Status:             domain.PromptStatusDraft,
		IsActive:           false,
		CreatedBy:          actor,
		UpdatedBy:          actor,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := domain.ValidatePromptRecord(record); err != nil {
		return nil, err
	}

	if err := s.prompts.Insert(ctx, record); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, domain.OperationCreate, record.ResourceID, actor, nil, record)
	return record, nil
}

// Get retrieves a prompt by resource id. A nil version resolves to the
// highest version that exists.
func (s *PromptService) Get(ctx context.Context, resourceID string, version *int) (*domain.PromptRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "PromptService.Get", telemetry.SpanAttributes{
		ResourceID: resourceID,
		Operation:  "get",
	})
	defer span.End()

	if version != nil {
		return s.prompts.GetVersion(ctx, resourceID, *version)
	}
	return s.prompts.GetLatest(ctx, resourceID)
}

// Update patches the current highest version. Drafts are overwritten in
// place keeping the same version; published records fork a new draft at
// version+1 with unspecified fields copied forward. The fork runs inside a
// transaction so two racing forks cannot both claim the same version.
func (s *PromptService) Update(ctx context.Context, resourceID string, patch UpdatePromptInput, actor string) (*domain.PromptRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "PromptService.Update", telemetry.SpanAttributes{
		ResourceID: resourceID,
		Operation:  "update",
	})
	defer span.End()

	current, err := s.prompts.GetLatest(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	updated := current.Clone()
	applyPatch(updated, patch)
	updated.UpdatedBy = actor
	updated.UpdatedAt = time.Now().UTC()

	if err := domain.ValidatePromptRecord(updated); err != nil {
		return nil, err
	}

	if updated.Name != current.Name || updated.Section != current.Section || updated.SubSection != current.SubSection {
		exists, err := s.prompts.NameExists(ctx, updated.Section, updated.SubSection, updated.Name, resourceID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.ErrPromptAlreadyExists
		}
	}

	if current.Status == domain.PromptStatusDraft {
		if err := s.prompts.UpdateVersion(ctx, updated); err != nil {
			return nil, err
		}
		s.recordAudit(ctx, domain.OperationUpdate, resourceID, actor, current, updated)
		return updated, nil
	}

	// Published versions are immutable: fork a new draft.
	updated.Version = current.Version + 1
	updated.Status = domain.PromptStatusDraft
	updated.CreatedAt = updated.UpdatedAt

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		latest, err := repos.Prompts().GetLatest(ctx, resourceID)
		if err != nil {
			return err
		}
		updated.Version = latest.Version + 1
		return repos.Prompts().Insert(ctx, updated)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, domain.OperationUpdate, resourceID, actor, current, updated)
	return updated, nil
}

// Delete removes one version when a version is given, or every version of
// the resource otherwise. Returns false when nothing matched.
func (s *PromptService) Delete(ctx context.Context, resourceID string, version *int, actor string) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "PromptService.Delete", telemetry.SpanAttributes{
		ResourceID: resourceID,
		Operation:  "delete",
	})
	defer span.End()

	before, err := s.prompts.GetLatest(ctx, resourceID)
	if err != nil && err != domain.ErrPromptNotFound {
		return false, err
	}

	var deleted bool
	if version != nil {
		deleted, err = s.prompts.DeleteVersion(ctx, resourceID, *version)
	} else {
		deleted, err = s.prompts.DeleteAll(ctx, resourceID)
	}
	if err != nil {
		return false, err
	}

	if deleted {
		s.recordAudit(ctx, domain.OperationDelete, resourceID, actor, before, nil)
	}
	return deleted, nil
}

// List retrieves latest-version prompts matching the filters, sorted by
// updated_at descending, with offset pagination.
func (s *PromptService) List(ctx context.Context, filters ListFilters, page pagination.Page) (*pagination.PageResult[*domain.PromptRecord], error) {
	ctx, span := telemetry.StartSpan(ctx, "PromptService.List", telemetry.SpanAttributes{
		Section:   filters.Section,
		Operation: "list",
	})
	defer span.End()

	page = page.Normalize()
	items, total, err := s.prompts.List(ctx, filters, page)
	if err != nil {
		return nil, err
	}

	result := pagination.NewPageResult(items, total, page)
	return &result, nil
}

// ResolveBySection returns the single published, active record for a
// (section, sub_section) pair. If the sub-section is omitted the match is on
// section alone and the most recently updated record wins.
func (s *PromptService) ResolveBySection(ctx context.Context, section, subSection string) (*domain.PromptRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "PromptService.ResolveBySection", telemetry.SpanAttributes{
		Section:   section,
		Operation: "resolve",
	})
	defer span.End()

	return s.prompts.FindActive(ctx, section, subSection)
}

// Publish flips the latest version to published. Publishing is one-way per
// version; only a new version can be drafted afterwards.
func (s *PromptService) Publish(ctx context.Context, resourceID, actor string) (*domain.PromptRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "PromptService.Publish", telemetry.SpanAttributes{
		ResourceID: resourceID,
		Operation:  "publish",
	})
	defer span.End()

	current, err := s.prompts.GetLatest(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	if current.Status == domain.PromptStatusPublished {
		return nil, domain.ErrAlreadyPublished
	}

	updated := current.Clone()
	updated.Status = domain.PromptStatusPublished
	updated.UpdatedBy = actor
	updated.UpdatedAt = time.Now().UTC()

	if err := s.prompts.UpdateVersion(ctx, updated); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, domain.OperationPublish, resourceID, actor, current, updated)
	return updated, nil
}

// ToggleActive flips is_active on the latest version. Sibling prompts in the
// same (section, sub_section) are not deactivated; callers manage the
// single-active policy themselves.
func (s *PromptService) ToggleActive(ctx context.Context, resourceID, actor string) (*domain.PromptRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "PromptService.ToggleActive", telemetry.SpanAttributes{
		ResourceID: resourceID,
		Operation:  "toggle_active",
	})
	defer span.End()

	current, err := s.prompts.GetLatest(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	updated := current.Clone()
	updated.IsActive = !current.IsActive
	updated.UpdatedBy = actor
	updated.UpdatedAt = time.Now().UTC()

	if err := s.prompts.UpdateVersion(ctx, updated); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, domain.OperationToggleActive, resourceID, actor, current, updated)
	return updated, nil
}

// History lists the audit trail for a resource, newest first.
func (s *PromptService) History(ctx context.Context, resourceID string, limit int) ([]*domain.AuditEntry, error) {
	return s.audit.ListByResource(ctx, resourceID, limit)
}

// recordAudit appends an audit entry. Failures never propagate to the
// primary operation; they are logged and captured in telemetry.
func (s *PromptService) recordAudit(ctx context.Context, op domain.OperationKind, resourceID, actor string, before, after *domain.PromptRecord) {
	entry, err := domain.NewAuditEntry(s.uuidGen.NewString(), resourceID, op, actor, before, after)
	if err == nil {
		err = s.audit.Append(ctx, entry)
	}
	if err != nil {
		log.Printf("audit_write_failed op=%s resource_id=%s: %v", op, resourceID, err)
		telemetry.CaptureError(ctx, err)
	}
}

func applyPatch(record *domain.PromptRecord, patch UpdatePromptInput) {
	if patch.Name != nil {
		record.Name = *patch.Name
	}
	if patch.Section != nil {
		record.Section = *patch.Section
	}
	if patch.SubSection != nil {
		record.SubSection = *patch.SubSection
	}
	if patch.Categories != nil {
		record.Categories = patch.Categories
	}
	if patch.SystemPrompt != nil {
		record.SystemPrompt = *patch.SystemPrompt
	}
	if patch.UserPromptTemplate != nil {
		record.UserPromptTemplate = *patch.UserPromptTemplate
	}
	if patch.OutputFormat != nil {
		record.OutputFormat = *patch.OutputFormat
	}
}
