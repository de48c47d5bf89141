package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/igad-hub/hubwriter/internal/api"
	"github.com/igad-hub/hubwriter/internal/service"
)

type GenerationRunner interface {
	Generate(ctx context.Context, input service.GenerateInput) (*service.GenerateOutput, error)
	Preview(ctx context.Context, input service.GenerateInput) (*service.GenerateOutput, error)
}

type GenerateHandler struct {
	svc GenerationRunner
}

func NewGenerateHandler(svc GenerationRunner) *GenerateHandler {
	return &GenerateHandler{svc: svc}
}

type GenerateRequest struct {
	Section          string            `json:"section"`
	SubSection       string            `json:"sub_section"`
	Variables        map[string]string `json:"variables"`
	OwnerID          string            `json:"owner_id"`
	ContextQuery     string            `json:"context_query"`
	MaxContextLength int               `json:"max_context_length"`
	MaxTokens        int               `json:"max_tokens"`
	Temperature      float32           `json:"temperature"`
	ModelID          string            `json:"model_id"`
}

func (req *GenerateRequest) toInput() service.GenerateInput {
	return service.GenerateInput{
		Section:          req.Section,
		SubSection:       req.SubSection,
		Variables:        req.Variables,
		OwnerID:          req.OwnerID,
		ContextQuery:     req.ContextQuery,
		MaxContextLength: req.MaxContextLength,
		Options: service.GenerateOptions{
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			ModelID:     req.ModelID,
		},
	}
}

func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	output, err := h.svc.Generate(r.Context(), req.toInput())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, output)
}

func (h *GenerateHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	output, err := h.svc.Preview(r.Context(), req.toInput())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, output)
}
