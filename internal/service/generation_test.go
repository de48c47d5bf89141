package service

import (
	"context"
	"errors"
	"testing"

	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt, opts)
	return args.String(0), args.Error(1)
}

type MockPromptResolver struct {
	mock.Mock
}

func (m *MockPromptResolver) ResolveBySection(ctx context.Context, section, subSection string) (*domain.PromptRecord, error) {
	args := m.Called(ctx, section, subSection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PromptRecord), args.Error(1)
}

type MockContextBuilder struct {
	mock.Mock
}

func (m *MockContextBuilder) BuildContext(ctx context.Context, queryText, ownerID string, maxContextLength int) (string, error) {
	args := m.Called(ctx, queryText, ownerID, maxContextLength)
	return args.String(0), args.Error(1)
}

func activePrompt() *domain.PromptRecord {
	return &domain.PromptRecord{
		ResourceID:         "p-1",
		Version:            3,
		Section:            "editorial",
		Name:               "Editorial intro",
		SystemPrompt:       "You write for {{audience}}.",
		UserPromptTemplate: "Write about {{topic}}.",
		OutputFormat:       "Respond in markdown.",
		Status:             domain.PromptStatusPublished,
		IsActive:           true,
	}
}

func TestGenerationService_Generate(t *testing.T) {
	resolver := new(MockPromptResolver)
	generator := new(MockTextGenerator)
	svc := NewGenerationService(resolver, nil, generator)

	resolver.On("ResolveBySection", mock.Anything, "editorial", "").Return(activePrompt(), nil)
	generator.On("GenerateText", mock.Anything,
		"You write for policymakers.",
		"Write about drought.\n\nRespond in markdown.",
		GenerateOptions{},
	).Return("Generated intro.", nil)

	output, err := svc.Generate(context.Background(), GenerateInput{
		Section:   "editorial",
		Variables: map[string]string{"audience": "policymakers", "topic": "drought"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Generated intro.", output.Output)
	assert.Equal(t, "p-1", output.ResourceID)
	assert.Equal(t, 3, output.Version)
	assert.False(t, output.Degraded)
	generator.AssertExpectations(t)
}

func TestGenerationService_Generate_InjectsContextVariable(t *testing.T) {
	resolver := new(MockPromptResolver)
	generator := new(MockTextGenerator)
	contexts := new(MockContextBuilder)
	svc := NewGenerationService(resolver, contexts, generator)

	prompt := activePrompt()
	prompt.UserPromptTemplate = "Context:\n{{context}}\n\nWrite about {{topic}}."
	resolver.On("ResolveBySection", mock.Anything, "editorial", "").Return(prompt, nil)
	contexts.On("BuildContext", mock.Anything, "drought updates", "user-1", 2000).Return("retrieved facts", nil)
	generator.On("GenerateText", mock.Anything, mock.Anything,
		"Context:\nretrieved facts\n\nWrite about drought.\n\nRespond in markdown.",
		GenerateOptions{}).Return("ok", nil)

	_, err := svc.Generate(context.Background(), GenerateInput{
		Section:          "editorial",
		Variables:        map[string]string{"topic": "drought"},
		OwnerID:          "user-1",
		ContextQuery:     "drought updates",
		MaxContextLength: 2000,
	})

	require.NoError(t, err)
	contexts.AssertExpectations(t)
	generator.AssertExpectations(t)
}

func TestGenerationService_Generate_SectionRequired(t *testing.T) {
	svc := NewGenerationService(new(MockPromptResolver), nil, new(MockTextGenerator))

	_, err := svc.Generate(context.Background(), GenerateInput{Section: "  "})

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
}

func TestGenerationService_Generate_NoActivePrompt(t *testing.T) {
	resolver := new(MockPromptResolver)
	generator := new(MockTextGenerator)
	svc := NewGenerationService(resolver, nil, generator)

	resolver.On("ResolveBySection", mock.Anything, "editorial", "").Return(nil, domain.ErrNoActivePrompt)

	_, err := svc.Generate(context.Background(), GenerateInput{Section: "editorial"})

	assert.ErrorIs(t, err, domain.ErrNoActivePrompt)
	generator.AssertNotCalled(t, "GenerateText")
}

func TestGenerationService_Generate_ModelFailureIsHard(t *testing.T) {
	resolver := new(MockPromptResolver)
	generator := new(MockTextGenerator)
	svc := NewGenerationService(resolver, nil, generator)

	resolver.On("ResolveBySection", mock.Anything, "editorial", "").Return(activePrompt(), nil)
	generator.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("rate limited"))

	_, err := svc.Generate(context.Background(), GenerateInput{Section: "editorial"})

	assert.True(t, IsDependencyError(err))
}

func TestGenerationService_Preview_ModelFailureDegrades(t *testing.T) {
	resolver := new(MockPromptResolver)
	generator := new(MockTextGenerator)
	svc := NewGenerationService(resolver, nil, generator)

	resolver.On("ResolveBySection", mock.Anything, "editorial", "").Return(activePrompt(), nil)
	generator.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("rate limited"))

	output, err := svc.Preview(context.Background(), GenerateInput{Section: "editorial"})

	require.NoError(t, err, "preview degrades model failures to a success response")
	assert.True(t, output.Degraded)
	assert.Contains(t, output.Error, "rate limited")
	assert.Contains(t, output.Output, "generation model call failed")
	assert.Equal(t, "p-1", output.ResourceID)
}

func TestGenerationService_Preview_ResolutionFailureStillPropagates(t *testing.T) {
	resolver := new(MockPromptResolver)
	svc := NewGenerationService(resolver, nil, new(MockTextGenerator))

	resolver.On("ResolveBySection", mock.Anything, "editorial", "").Return(nil, domain.ErrNoActivePrompt)

	_, err := svc.Preview(context.Background(), GenerateInput{Section: "editorial"})

	assert.ErrorIs(t, err, domain.ErrNoActivePrompt)
}

func TestParseGeneratedText(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"plain text", "  hello  ", "hello"},
		{"fenced output", "```\nhello\n```", "hello"},
		{"fenced with language tag", "```markdown\nhello\n```", "hello"},
		{"unbalanced fence kept", "```\nhello", "```\nhello"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseGeneratedText(tt.raw))
		})
	}
}
