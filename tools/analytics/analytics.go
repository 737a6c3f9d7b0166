package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/limelight-ai/limelight/models"
)

// Client talks to the external analytic tool endpoints. Each tool takes the
// evidence documents (source + identifier are enough for the service to
// rehydrate full text) and returns an aligned or aggregated signal.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tool request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tool %s returned status: %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("tool %s response: %w", path, err)
	}
	return nil
}

// Sentiments returns one polarity score per input document, aligned by input
// order: positive-class probability, negated for negative polarity.
func (c *Client) Sentiments(ctx context.Context, docs []models.EvidenceDocument) ([]float64, error) {
	var out struct {
		Sentiments []float64 `json:"sentiments"`
	}
	if err := c.post(ctx, "/sentiment_tool", map[string]interface{}{"docs": docs}, &out); err != nil {
		return nil, err
	}
	return out.Sentiments, nil
}

// Persons returns notable-person mentions aggregated across the documents.
func (c *Client) Persons(ctx context.Context, docs []models.EvidenceDocument) ([]models.Person, error) {
	var out struct {
		Persons []models.Person `json:"persons"`
	}
	if err := c.post(ctx, "/ner_person_tool", map[string]interface{}{"docs": docs}, &out); err != nil {
		return nil, err
	}
	return out.Persons, nil
}

// Locations returns place mentions aggregated across the documents, with an
// optional query filter applied service-side.
func (c *Client) Locations(ctx context.Context, docs []models.EvidenceDocument, query string) ([]models.Location, error) {
	payload := map[string]interface{}{"docs": docs}
	if query != "" {
		payload["query"] = query
	}
	var out struct {
		Locations []models.Location `json:"locations"`
	}
	if err := c.post(ctx, "/geolocation_tool", payload, &out); err != nil {
		return nil, err
	}
	return out.Locations, nil
}
