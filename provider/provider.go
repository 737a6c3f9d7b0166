package provider

import (
	"context"
	"errors"
	"os"

	"github.com/limelight-ai/limelight/config"
	"github.com/limelight-ai/limelight/models"
	openai_provider "github.com/limelight-ai/limelight/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
	Gemini    Client = "gemini"
)

// Provider is the interface the single shared LLM backend must satisfy.
type Provider interface {
	// ClassifyParticipants picks the retrieval agents relevant to a query.
	ClassifyParticipants(ctx context.Context, query string) (models.Classification, error)
	// OptimizeQuery rewrites a raw question into a name-first similarity
	// search sentence, with recent queries as disambiguating context.
	OptimizeQuery(ctx context.Context, query string, history []string) (string, error)
	// SelectTools chooses the analytic signals to request for one segment.
	SelectTools(ctx context.Context, query, segment string, docs []models.EvidenceDocument) ([]string, error)
	// SummarizeInsights turns the assembled evidence block into summary text.
	SummarizeInsights(ctx context.Context, query, block string) (string, error)
	// Narrate turns the summary into narrative prose plus a recommendation.
	Narrate(ctx context.Context, query, summary string) (models.Narrative, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(client Client, cfg config.LLMConfig) (Provider, error) {
	switch client {
	case OpenAI:
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("OPENAI_API_KEY not set")
		}
		return openai_provider.NewOpenAIClient(
			apiKey,
			cfg.BaseURL,
			cfg.Model,
			cfg.Temperature,
			cfg.MaxTokens,
			cfg.Timeout,
		), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	case Gemini:
		return nil, errors.New("gemini client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
