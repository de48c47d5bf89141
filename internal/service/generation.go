package service

import (
	"context"
	"errors"
	"strings"

	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/igad-hub/hubwriter/internal/telemetry"
)

// GenerateOptions are the sampling parameters forwarded to the generation
// model. Zero values fall back to the client's defaults.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float32
	ModelID     string
}

// TextGenerator defines the interface for the external generation model.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (string, error)
}

// PromptResolver resolves the active prompt template for a section.
type PromptResolver interface {
	ResolveBySection(ctx context.Context, section, subSection string) (*domain.PromptRecord, error)
}

// ContextBuilder supplies owner-scoped contextual content for generation.
type ContextBuilder interface {
	BuildContext(ctx context.Context, queryText, ownerID string, maxContextLength int) (string, error)
}

// GenerationService runs the generation pipeline: resolve the active prompt,
// fill placeholders, optionally inject retrieved context, and call the
// generation model.
type GenerationService struct {
	prompts   PromptResolver
	contexts  ContextBuilder
	generator TextGenerator
}

// NewGenerationService creates a new GenerationService instance
func NewGenerationService(prompts PromptResolver, contexts ContextBuilder, generator TextGenerator) *GenerationService {
	return &GenerationService{
		prompts:   prompts,
		contexts:  contexts,
		generator: generator,
	}
}

// GenerateInput represents the input for generating one section of content
type GenerateInput struct {
	Section          string
	SubSection       string
	Variables        map[string]string
	OwnerID          string
	ContextQuery     string
	MaxContextLength int
	Options          GenerateOptions
}

// GenerateOutput represents a generation result
type GenerateOutput struct {
	Output     string `json:"output"`
	ResourceID string `json:"resource_id"`
	Version    int    `json:"version"`
	Degraded   bool   `json:"degraded,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Generate runs the pipeline and propagates generation-model failures as
// hard dependency errors.
func (s *GenerationService) Generate(ctx context.Context, input GenerateInput) (*GenerateOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "GenerationService.Generate", telemetry.SpanAttributes{
		Section:   input.Section,
		OwnerID:   input.OwnerID,
		Operation: "generate",
	})
	defer span.End()

	return s.run(ctx, input, false)
}

// Preview runs the same pipeline, but a generation-model failure degrades to
// a success response carrying the error message in the output field, so
// interactive preview flows never hard-fail. Resolution and validation
// failures still propagate.
func (s *GenerationService) Preview(ctx context.Context, input GenerateInput) (*GenerateOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "GenerationService.Preview", telemetry.SpanAttributes{
		Section:   input.Section,
		OwnerID:   input.OwnerID,
		Operation: "preview",
	})
	defer span.End()

	return s.run(ctx, input, true)
}

func (s *GenerationService) run(ctx context.Context, input GenerateInput, degradeOnFailure bool) (*GenerateOutput, error) {
	if strings.TrimSpace(input.Section) == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "section is required")
	}

	prompt, err := s.prompts.ResolveBySection(ctx, input.Section, input.SubSection)
	if err != nil {
		return nil, err
	}

	variables := make(map[string]string, len(input.Variables)+1)
	for k, v := range input.Variables {
		variables[k] = v
	}

	if input.OwnerID != "" && input.ContextQuery != "" && s.contexts != nil {
		contextText, err := s.contexts.BuildContext(ctx, input.ContextQuery, input.OwnerID, input.MaxContextLength)
		if err != nil {
			return nil, err
		}
		variables["context"] = contextText
	}

	systemPrompt := Substitute(prompt.SystemPrompt, variables)
	userPrompt := Substitute(prompt.FullUserPrompt(), variables)

	raw, err := s.generator.GenerateText(ctx, systemPrompt, userPrompt, input.Options)
	if err != nil {
		wrapped := domain.NewDomainErrorWithCause(domain.ErrCodeDependency, "generation model call failed", err)
		if degradeOnFailure {
			return &GenerateOutput{
				Output:     wrapped.Error(),
				ResourceID: prompt.ResourceID,
				Version:    prompt.Version,
				Degraded:   true,
				Error:      err.Error(),
			}, nil
		}
		return nil, wrapped
	}

	return &GenerateOutput{
		Output:     parseGeneratedText(raw),
		ResourceID: prompt.ResourceID,
		Version:    prompt.Version,
	}, nil
}

// parseGeneratedText trims the raw model output and unwraps a single
// surrounding markdown code fence when the model adds one.
func parseGeneratedText(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") {
		inner := strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
		if newline := strings.IndexByte(inner, '\n'); newline >= 0 {
			// drop a language tag on the opening fence
			firstLine := inner[:newline]
			if !strings.ContainsAny(firstLine, " \t") {
				inner = inner[newline+1:]
			}
		}
		text = strings.TrimSpace(inner)
	}

	return text
}

// IsDependencyError reports whether err carries the dependency error code.
func IsDependencyError(err error) bool {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == domain.ErrCodeDependency
	}
	return false
}
