package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/igad-hub/hubwriter/internal/api"
	"github.com/igad-hub/hubwriter/internal/api/middleware"
	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/igad-hub/hubwriter/internal/pagination"
	"github.com/igad-hub/hubwriter/internal/service"
	"github.com/go-chi/chi/v5"
)

type PromptService interface {
	Create(ctx context.Context, input service.CreatePromptInput, actor string) (*domain.PromptRecord, error)
	Get(ctx context.Context, resourceID string, version *int) (*domain.PromptRecord, error)
	Update(ctx context.Context, resourceID string, patch service.UpdatePromptInput, actor string) (*domain.PromptRecord, error)
	Delete(ctx context.Context, resourceID string, version *int, actor string) (bool, error)
	List(ctx context.Context, filters service.ListFilters, page pagination.Page) (*pagination.PageResult[*domain.PromptRecord], error)
	ResolveBySection(ctx context.Context, section, subSection string) (*domain.PromptRecord, error)
	Publish(ctx context.Context, resourceID, actor string) (*domain.PromptRecord, error)
	ToggleActive(ctx context.Context, resourceID, actor string) (*domain.PromptRecord, error)
	History(ctx context.Context, resourceID string, limit int) ([]*domain.AuditEntry, error)
}

type PromptHandler struct {
	svc PromptService
}

func NewPromptHandler(svc PromptService) *PromptHandler {
	return &PromptHandler{svc: svc}
}

type CreatePromptRequest struct {
	Name               string   `json:"name"`
	Section            string   `json:"section"`
	SubSection         string   `json:"sub_section"`
	Categories         []string `json:"categories"`
	SystemPrompt       string   `json:"system_prompt"`
	UserPromptTemplate string   `json:"user_prompt_template"`
	OutputFormat       string   `json:"output_format"`
}

type UpdatePromptRequest struct {
	Name               *string  `json:"name"`
	Section            *string  `json:"section"`
	SubSection         *string  `json:"sub_section"`
	Categories         []string `json:"categories"`
	SystemPrompt       *string  `json:"system_prompt"`
	UserPromptTemplate *string  `json:"user_prompt_template"`
	OutputFormat       *string  `json:"output_format"`
}

type PromptResponse struct {
	ResourceID         string   `json:"resource_id"`
	Version            int      `json:"version"`
	Section            string   `json:"section"`
	SubSection         string   `json:"sub_section,omitempty"`
	Categories         []string `json:"categories,omitempty"`
	Name               string   `json:"name"`
	SystemPrompt       string   `json:"system_prompt"`
	UserPromptTemplate string   `json:"user_prompt_template"`
	OutputFormat       string   `json:"output_format,omitempty"`
	Status             string   `json:"status"`
	IsActive           bool     `json:"is_active"`
	CreatedBy          string   `json:"created_by"`
	UpdatedBy          string   `json:"updated_by"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

type PromptListResponse struct {
	Items   []*PromptResponse `json:"items"`
	Total   int               `json:"total"`
	HasMore bool              `json:"has_more"`
}

type AuditEntryResponse struct {
	ID         string          `json:"id"`
	ResourceID string          `json:"resource_id"`
	Operation  string          `json:"operation"`
	Actor      string          `json:"actor"`
	Before     json.RawMessage `json:"before"`
	After      json.RawMessage `json:"after"`
	CreatedAt  string          `json:"created_at"`
}

const timestampFormat = "2006-01-02T15:04:05Z"

func promptToResponse(p *domain.PromptRecord) *PromptResponse {
	return &PromptResponse{
		ResourceID:         p.ResourceID,
		Version:            p.Version,
		Section:            p.Section,
		SubSection:         p.SubSection,
		Categories:         p.Categories,
		Name:               p.Name,
		SystemPrompt:       p.SystemPrompt,
		UserPromptTemplate: p.UserPromptTemplate,
		OutputFormat:       p.OutputFormat,
		Status:             string(p.Status),
		IsActive:           p.IsActive,
		CreatedBy:          p.CreatedBy,
		UpdatedBy:          p.UpdatedBy,
		CreatedAt:          p.CreatedAt.Format(timestampFormat),
		UpdatedAt:          p.UpdatedAt.Format(timestampFormat),
	}
}

func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.CreatePromptInput{
		Name:               req.Name,
		Section:            req.Section,
		SubSection:         req.SubSection,
		Categories:         req.Categories,
		SystemPrompt:       req.SystemPrompt,
		UserPromptTemplate: req.UserPromptTemplate,
		OutputFormat:       req.OutputFormat,
	}

	record, err := h.svc.Create(r.Context(), input, middleware.GetActor(r.Context()))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, promptToResponse(record))
}

func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	resourceID := chi.URLParam(r, "id")

	version, ok := parseOptionalVersion(w, r)
	if !ok {
		return
	}

	record, err := h.svc.Get(r.Context(), resourceID, version)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, promptToResponse(record))
}

func (h *PromptHandler) Update(w http.ResponseWriter, r *http.Request) {
	resourceID := chi.URLParam(r, "id")

	var req UpdatePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := service.UpdatePromptInput{
		Name:               req.Name,
		Section:            req.Section,
		SubSection:         req.SubSection,
		Categories:         req.Categories,
		SystemPrompt:       req.SystemPrompt,
		UserPromptTemplate: req.UserPromptTemplate,
		OutputFormat:       req.OutputFormat,
	}

	record, err := h.svc.Update(r.Context(), resourceID, patch, middleware.GetActor(r.Context()))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, promptToResponse(record))
}

func (h *PromptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	resourceID := chi.URLParam(r, "id")

	version, ok := parseOptionalVersion(w, r)
	if !ok {
		return
	}

	deleted, err := h.svc.Delete(r.Context(), resourceID, version, middleware.GetActor(r.Context()))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filters := service.ListFilters{
		Section:    query.Get("section"),
		SubSection: query.Get("sub_section"),
		Tag:        query.Get("tag"),
		Search:     query.Get("search"),
		Route:      query.Get("route"),
	}
	if raw := query.Get("is_active"); raw != "" {
		isActive, err := strconv.ParseBool(raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid is_active parameter")
			return
		}
		filters.IsActive = &isActive
	}

	page := pagination.Page{}
	if raw := query.Get("limit"); raw != "" {
		page.Limit, _ = strconv.Atoi(raw)
	}
	if raw := query.Get("offset"); raw != "" {
		page.Offset, _ = strconv.Atoi(raw)
	}

	result, err := h.svc.List(r.Context(), filters, page)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*PromptResponse, 0, len(result.Items))
	for _, record := range result.Items {
		items = append(items, promptToResponse(record))
	}

	api.Success(w, http.StatusOK, PromptListResponse{
		Items:   items,
		Total:   result.Total,
		HasMore: result.HasMore,
	})
}

func (h *PromptHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	section := r.URL.Query().Get("section")
	if section == "" {
		api.Error(w, http.StatusBadRequest, "section parameter is required")
		return
	}

	record, err := h.svc.ResolveBySection(r.Context(), section, r.URL.Query().Get("sub_section"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, promptToResponse(record))
}

func (h *PromptHandler) Publish(w http.ResponseWriter, r *http.Request) {
	resourceID := chi.URLParam(r, "id")

	record, err := h.svc.Publish(r.Context(), resourceID, middleware.GetActor(r.Context()))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, promptToResponse(record))
}

func (h *PromptHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	resourceID := chi.URLParam(r, "id")

	record, err := h.svc.ToggleActive(r.Context(), resourceID, middleware.GetActor(r.Context()))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, promptToResponse(record))
}

func (h *PromptHandler) History(w http.ResponseWriter, r *http.Request) {
	resourceID := chi.URLParam(r, "id")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	entries, err := h.svc.History(r.Context(), resourceID, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, &AuditEntryResponse{
			ID:         e.ID,
			ResourceID: e.ResourceID,
			Operation:  string(e.Operation),
			Actor:      e.Actor,
			Before:     e.Before,
			After:      e.After,
			CreatedAt:  e.CreatedAt.Format(timestampFormat),
		})
	}

	api.Success(w, http.StatusOK, items)
}

func parseOptionalVersion(w http.ResponseWriter, r *http.Request) (*int, bool) {
	raw := r.URL.Query().Get("version")
	if raw == "" {
		return nil, true
	}

	version, err := strconv.Atoi(raw)
	if err != nil || version <= 0 {
		api.Error(w, http.StatusBadRequest, "invalid version parameter")
		return nil, false
	}
	return &version, true
}
