package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/limelight-ai/limelight/models"
)

// Client talks to the similarity-search service consumed by the retrieval
// agents. The service resolves a query against named embedding collections
// and returns the closest documents with ascending distance scores.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type searchRequest struct {
	Query       string   `json:"query"`
	Collections []string `json:"collections"`
	TopK        int      `json:"top_k"`
}

type searchResponse struct {
	Results []models.EvidenceDocument `json:"results"`
}

// Search runs a vector search over the given collections. An empty result
// list is a normal outcome, not an error.
func (c *Client) Search(ctx context.Context, query string, collections []string, topK int) ([]models.EvidenceDocument, error) {
	body, err := json.Marshal(searchRequest{Query: query, Collections: collections, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/rag", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("similarity search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("similarity search returned status: %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("similarity search response: %w", err)
	}
	return parsed.Results, nil
}
