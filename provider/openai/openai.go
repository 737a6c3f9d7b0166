package openai_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/limelight-ai/limelight/models"
	"github.com/limelight-ai/limelight/utils"
)

const defaultAPIURL = "https://api.openai.com/v1"

// client implements the provider interface using OpenAI's API
type client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

// Message represents a message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// request represents a request to the OpenAI API
type request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// response represents a response from the OpenAI API
type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(apiKey, baseURL, model string, temperature float64, maxTokens int, timeout time.Duration) *client {
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	return &client{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (c *client) complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	reqBody := request{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	if jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return parsed.Choices[0].Message.Content, nil
}

const classifySystemPrompt = `You are an agent classification assistant.
Your job is to identify all agents that may help answer a user query, even if only partially.
Be inclusive. Select liberally. Do not omit an agent unless it's clearly irrelevant.`

// ClassifyParticipants implements the provider interface
func (c *client) ClassifyParticipants(ctx context.Context, query string) (models.Classification, error) {
	user := fmt.Sprintf(`Think step by step.

You can choose from 3 agents, each with broad capabilities:

1. "community_engagement_agent": Handles anything that might appear on fan sites, forums, social media platforms, or online communities. Use this agent if the topic is likely discussed by fans or the public in informal or interactive settings.

2. "news_agent": Handles anything that might be reported, analyzed, or discussed on news sites, blogs, or official media channels. Use this agent for any topic that could be featured in editorial or media coverage.

3. "music_industry_agent": Handles the professional and operational side of music, including artists, releases, tours, bookings, production, schedules, and business logistics.

Your task:
Given the user query below, return only a JSON object with:

- "reasoning": a dictionary with keys as the agent names and values as short explanations of why each was or wasn't selected.
- "agents": a list of the agents that may help answer the query. Choose agents generously — if there's any chance the agent could provide useful insight or context, include it.

Only pick from: ["community_engagement_agent", "news_agent", "music_industry_agent"]

If no agent is useful, return an empty list for "agents".

Do NOT explain anything else. Do NOT include any text outside the JSON object.

Query: %s`, query)

	raw, err := c.complete(ctx, classifySystemPrompt, user, true)
	if err != nil {
		return models.Classification{}, err
	}
	obj, err := utils.ExtractJSONObject(raw)
	if err != nil {
		return models.Classification{}, fmt.Errorf("classification output: %w", err)
	}
	var cls models.Classification
	if err := json.Unmarshal([]byte(obj), &cls); err != nil {
		return models.Classification{}, fmt.Errorf("classification output: %w", err)
	}
	return cls, nil
}

const optimizeSystemPrompt = `Query Rewriter
Convert the user question about a public figure into ONE plain search sentence.
Rules for the rewritten prompt (goes in the "rewritten" field):
  - Begin with the person's full name in double quotes. This is incredibly important, include their name first.
  - Add 2-4 meaning-bearing words from the question; drop filler words.
  - Use spaces only - no punctuation, Boolean words, or extra text.
Output format (as valid JSON):
  {"reasoning": "<your chain of thought here>", "rewritten": "<the one-sentence search prompt here>"}
Reply with exactly that JSON object and nothing else.`

// OptimizeQuery implements the provider interface
func (c *client) OptimizeQuery(ctx context.Context, query string, history []string) (string, error) {
	var sb strings.Builder
	if len(history) > 0 {
		sb.WriteString("Recent queries from this user, for disambiguation:\n")
		for _, q := range history {
			sb.WriteString("- " + q + "\n")
		}
	}
	sb.WriteString("User question: " + query)

	raw, err := c.complete(ctx, optimizeSystemPrompt, sb.String(), true)
	if err != nil {
		return "", err
	}
	obj, err := utils.ExtractJSONObject(raw)
	if err != nil {
		return "", fmt.Errorf("optimizer output: %w", err)
	}
	var parsed struct {
		Reasoning string `json:"reasoning"`
		Rewritten string `json:"rewritten"`
	}
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return "", fmt.Errorf("optimizer output: %w", err)
	}
	if strings.TrimSpace(parsed.Rewritten) == "" {
		return "", fmt.Errorf("optimizer output: empty rewritten field")
	}
	return parsed.Rewritten, nil
}

var knownTools = []string{"geolocation", "sentiment", "ner"}

// SelectTools implements the provider interface. Sentiment is always
// included in the result regardless of what the model picks.
func (c *client) SelectTools(ctx context.Context, query, segment string, docs []models.EvidenceDocument) ([]string, error) {
	var docContext strings.Builder
	for i, d := range docs {
		if i >= 3 {
			break
		}
		docContext.WriteString(fmt.Sprintf("- %s: %s\n", d.Title(), utils.Truncate(d.Document, 100)))
	}

	user := fmt.Sprintf(`You are a tool selector for an agent.
User query: %s
Segment: %s
Here are some relevant documents (title: snippet):
%s
Available tools: %s.
Which tools should be called to best answer the query? geolocation identifies places; sentiment detects polarity; ner extracts notable persons.
Reply with a comma-separated list of tool names (from the available tools) only.`,
		query, segment, docContext.String(), strings.Join(knownTools, ", "))

	raw, err := c.complete(ctx, "You select analytic tools for a research agent.", user, false)
	if err != nil {
		return nil, err
	}
	return parseToolList(raw), nil
}

// parseToolList extracts known tool names from a comma-separated reply,
// deduplicating while preserving order and forcing sentiment in.
func parseToolList(raw string) []string {
	known := make(map[string]bool, len(knownTools))
	for _, t := range knownTools {
		known[t] = true
	}
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(strings.ToLower(raw), ",") {
		t := strings.TrimSpace(part)
		if known[t] && !seen[t] {
			out = append(out, t)
			seen[t] = true
		}
	}
	if !seen["sentiment"] {
		out = append(out, "sentiment")
	}
	return out
}

const synthesisInstructions = `INSTRUCTIONS:
You are InsightSynth. Use only the context above.

STRICT OUTPUT FORMAT (plain text, no bullet characters):
Takeaway: <4-5 sentences - headline facts + spike highlight.>
Spike: <5-8 sentences - who-did-what-where-when, sentiment up/down value, at least 1 concrete event causing the spike, audience reaction.>
Community: <5-8 sentences - top themes, quoted phrases (max 8 words in "quotes"), metrics (~ if approx.), notable names, disagreements.>
News: <5-8 sentences - media framing, key details, numeric impacts, stakeholders quoted.>
Music: <5-8 sentences - releases, business moves, management context, chart/stream numbers.>
WatchNext: <2-3 sentences - forward-looking signal or risk.>

WRITING RULES
1. Name the event up front: first clause says WHO did WHAT, WHERE, WHEN (YYYY-MM-DD).
2. Quote vivid doc wording sparingly; otherwise paraphrase.
3. When a number appears in any doc, keep it and prefix with "~" if approximate.
4. Summarise disagreements clearly (e.g., "Some fans praised... while others called it tone-deaf.").
5. If details truly absent, write "Details unclear" rather than guessing.
6. Sentiment-spike section must reference the exact bin date range and link it to specific events from the docs.
7. Think silently; do NOT output chain-of-thought.
8. No bullet characters anywhere.`

// SummarizeInsights implements the provider interface
func (c *client) SummarizeInsights(ctx context.Context, query, block string) (string, error) {
	user := fmt.Sprintf("USER_QUERY: %s\n\n%s\n\n%s", query, block, synthesisInstructions)
	raw, err := c.complete(ctx, "ROLE: InsightSynth - integrate tool signals + doc snippets to answer the user query.", user, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(stripThink(raw)), nil
}

// Narrate implements the provider interface
func (c *client) Narrate(ctx context.Context, query, summary string) (models.Narrative, error) {
	user := fmt.Sprintf(`Given the following summary of insights, write:
1. A compelling narrative that weaves together the key points, trends, sentiment spikes, and notable people or events from the summary specifically in relation to %s.
- The narrative should extrapolate plot points that are based off the summary points.
- If there is any spike or change in sentiment, reference any specific events (by name) associated with it, and create a sub-plot around them.
- The narrative should briefly explain a likely outcome based on the summary.
2. A prediction or recommended action for the user, based on the summary and your analysis.
- This should be at least 7 sentences.
- Include a section discussing related names and associated places with the query.

User query: %s

Summary:
%s

Respond in this format:
Narrative: <your narrative>
Recommendation: <your prediction or recommended action>
Your response should not contain bullet points.`, query, query, summary)

	raw, err := c.complete(ctx, "You are a narrative strategist.", user, false)
	if err != nil {
		return models.Narrative{}, err
	}
	return parseNarrative(stripThink(raw)), nil
}

// parseNarrative splits a narrative reply into its two sections. Some models
// answer with "Action:" instead of "Recommendation:"; when neither marker is
// present the whole reply becomes the narrative.
func parseNarrative(result string) models.Narrative {
	body := result
	if i := strings.Index(body, "Narrative:"); i != -1 {
		body = body[i+len("Narrative:"):]
	}
	for _, marker := range []string{"Recommendation:", "Action:"} {
		if i := strings.Index(body, marker); i != -1 {
			return models.Narrative{
				Narrative:      strings.TrimSpace(body[:i]),
				Recommendation: strings.TrimSpace(body[i+len(marker):]),
			}
		}
	}
	return models.Narrative{
		Narrative:      strings.TrimSpace(body),
		Recommendation: "(No explicit recommendation found.)",
	}
}

func stripThink(s string) string {
	if i := strings.Index(s, "</think>"); i != -1 {
		return s[i+len("</think>"):]
	}
	return s
}
