package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/igad-hub/hubwriter/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGenerationRunner struct {
	mock.Mock
}

func (m *MockGenerationRunner) Generate(ctx context.Context, input service.GenerateInput) (*service.GenerateOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GenerateOutput), args.Error(1)
}

func (m *MockGenerationRunner) Preview(ctx context.Context, input service.GenerateInput) (*service.GenerateOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GenerateOutput), args.Error(1)
}

func TestGenerateHandler_Generate_Success(t *testing.T) {
	mockSvc := new(MockGenerationRunner)
	handler := NewGenerateHandler(mockSvc)

	mockSvc.On("Generate", mock.Anything, service.GenerateInput{
		Section:    "editorial",
		SubSection: "intro",
		Variables:  map[string]string{"topic": "drought"},
		Options:    service.GenerateOptions{MaxTokens: 512, ModelID: "gpt-4o"},
	}).Return(&service.GenerateOutput{Output: "Generated text.", ResourceID: "p-123", Version: 3}, nil)

	body := `{"section":"editorial","sub_section":"intro","variables":{"topic":"drought"},"max_tokens":512,"model_id":"gpt-4o"}`
	req := requestWithActor(http.MethodPost, "/generate", []byte(body))
	w := httptest.NewRecorder()

	handler.Generate(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "Generated text.", data["output"])
	assert.Equal(t, "p-123", data["resource_id"])
	assert.Equal(t, float64(3), data["version"])
	mockSvc.AssertExpectations(t)
}

func TestGenerateHandler_Generate_InvalidJSON(t *testing.T) {
	handler := NewGenerateHandler(new(MockGenerationRunner))

	req := requestWithActor(http.MethodPost, "/generate", []byte(`{invalid`))
	w := httptest.NewRecorder()

	handler.Generate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestGenerateHandler_Generate_DependencyFailure(t *testing.T) {
	mockSvc := new(MockGenerationRunner)
	handler := NewGenerateHandler(mockSvc)

	mockSvc.On("Generate", mock.Anything, mock.Anything).
		Return(nil, domain.NewDomainError(domain.ErrCodeDependency, "generation model call failed"))

	req := requestWithActor(http.MethodPost, "/generate", []byte(`{"section":"editorial"}`))
	w := httptest.NewRecorder()

	handler.Generate(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGenerateHandler_Preview_DegradedStillOK(t *testing.T) {
	mockSvc := new(MockGenerationRunner)
	handler := NewGenerateHandler(mockSvc)

	mockSvc.On("Preview", mock.Anything, mock.Anything).Return(&service.GenerateOutput{
		ResourceID: "p-123",
		Version:    3,
		Output:     "generation model call failed",
		Degraded:   true,
		Error:      "rate limited",
	}, nil)

	req := requestWithActor(http.MethodPost, "/generate/preview", []byte(`{"section":"editorial"}`))
	w := httptest.NewRecorder()

	handler.Preview(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["degraded"])
	assert.Equal(t, "rate limited", data["error"])
}

func TestGenerateHandler_Preview_NoActivePrompt(t *testing.T) {
	mockSvc := new(MockGenerationRunner)
	handler := NewGenerateHandler(mockSvc)

	mockSvc.On("Preview", mock.Anything, mock.Anything).Return(nil, domain.ErrNoActivePrompt)

	req := requestWithActor(http.MethodPost, "/generate/preview", []byte(`{"section":"missing"}`))
	w := httptest.NewRecorder()

	handler.Preview(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
