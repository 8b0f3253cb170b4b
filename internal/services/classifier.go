package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/triagedesk/triagedesk/internal/config"
	"github.com/triagedesk/triagedesk/internal/database"
)

// TicketInput is one ticket handed to the classifier. Ref is an opaque
// correlation token echoed back on the matching result; the classifier has
// no other notion of ticket identity.
type TicketInput struct {
	Ref         string
	Title       string
	Description string
}

// TicketClassification is the classifier's verdict for one input ticket.
type TicketClassification struct {
	Ref      string
	Category database.TicketCategory
	Priority database.TicketPriority
	Notes    string
}

// BatchResult is the outcome of one batch classification. Classifications
// is best-effort: inputs whose classification failed are simply absent.
type BatchResult struct {
	Classifications []TicketClassification
	Summary         string
}

// Classifier is the boundary to the external classification capability.
// Implementations may fail the batch as a unit (transport or auth errors)
// or return a partial result set.
type Classifier interface {
	ClassifyBatch(ctx context.Context, tickets []TicketInput) (*BatchResult, error)
}

// OpenAIClassifier classifies tickets with the OpenAI chat completions API:
// a map step classifying each ticket with bounded concurrency, then a reduce
// step producing one executive summary for the batch.
type OpenAIClassifier struct {
	apiKey     string
	baseURL    string
	settings   config.ClassifierSettings
	httpClient *http.Client
}

// NewOpenAIClassifier creates a classifier backed by the OpenAI API
func NewOpenAIClassifier(apiKey, baseURL string, settings config.ClassifierSettings) *OpenAIClassifier {
	return &OpenAIClassifier{
		apiKey:   apiKey,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		settings: settings,
		httpClient: &http.Client{
			Timeout: settings.RequestTimeout(),
		},
	}
}

// OpenAI API request/response structures
type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *chatFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// classificationPayload is the JSON shape the model is asked to produce for
// a single ticket
type classificationPayload struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
	Notes    string `json:"notes"`
}

// summaryPayload is the JSON shape the model is asked to produce for the
// batch summary
type summaryPayload struct {
	Summary string `json:"summary"`
}

// ClassifyBatch classifies every ticket and produces a batch summary.
// Individual classification failures are dropped from the result set; the
// call fails as a unit only when nothing could be classified at all.
func (c *OpenAIClassifier) ClassifyBatch(ctx context.Context, tickets []TicketInput) (*BatchResult, error) {
	if c.apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	if len(tickets) == 0 {
		return &BatchResult{}, nil
	}

	results := make([]*TicketClassification, len(tickets))
	var mu sync.Mutex
	var firstErr error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.settings.MaxConcurrency)

	for i, ticket := range tickets {
		g.Go(func() error {
			cls, err := c.classifyTicket(gctx, ticket)
			if err != nil {
				log.Printf("Classification failed for ticket ref %s: %v", ticket.Ref, err)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil // per-item failure does not abort siblings
			}
			results[i] = cls
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	classifications := make([]TicketClassification, 0, len(tickets))
	for _, r := range results {
		if r != nil {
			classifications = append(classifications, *r)
		}
	}

	// Nothing succeeded: treat as a unit failure (auth, network, model down)
	if len(classifications) == 0 {
		return nil, fmt.Errorf("classification failed for all %d ticket(s): %w", len(tickets), firstErr)
	}

	summary, err := c.generateSummary(ctx, classifications, tickets)
	if err != nil {
		// The orchestrator falls back to a count-based summary
		log.Printf("Batch summary generation failed: %v", err)
		summary = ""
	}

	return &BatchResult{Classifications: classifications, Summary: summary}, nil
}

// classifyTicket runs the map step for one ticket
func (c *OpenAIClassifier) classifyTicket(ctx context.Context, ticket TicketInput) (*TicketClassification, error) {
	userPrompt := fmt.Sprintf("Ticket Title: %s\n\nTicket Description: %s", ticket.Title, ticket.Description)

	content, err := c.chatJSON(ctx, classifySystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	var payload classificationPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse classification response: %w", err)
	}

	category := database.TicketCategory(normalizeCategory(payload.Category))
	priority := database.TicketPriority(strings.ToLower(strings.TrimSpace(payload.Priority)))
	if !category.IsValid() {
		return nil, fmt.Errorf("model returned unknown category %q", payload.Category)
	}
	if !priority.IsValid() {
		return nil, fmt.Errorf("model returned unknown priority %q", payload.Priority)
	}

	return &TicketClassification{
		Ref:      ticket.Ref,
		Category: category,
		Priority: priority,
		Notes:    strings.TrimSpace(payload.Notes),
	}, nil
}

// generateSummary runs the reduce step over all successful classifications
func (c *OpenAIClassifier) generateSummary(ctx context.Context, classifications []TicketClassification, tickets []TicketInput) (string, error) {
	byRef := make(map[string]TicketInput, len(tickets))
	for _, t := range tickets {
		byRef[t.Ref] = t
	}

	var sb strings.Builder
	for i, cls := range classifications {
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		ticket := byRef[cls.Ref]
		fmt.Fprintf(&sb, "  - Title: %s\n    Category: %s\n    Priority: %s\n    Description: %s",
			ticket.Title, cls.Category, cls.Priority, ticket.Description)
	}

	userPrompt := fmt.Sprintf("Here are the processed tickets:\n\n%s", sb.String())
	content, err := c.chatJSON(ctx, summarySystemPrompt, userPrompt)
	if err != nil {
		return "", err
	}

	var payload summaryPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return "", fmt.Errorf("failed to parse summary response: %w", err)
	}
	return strings.TrimSpace(payload.Summary), nil
}

// chatJSON sends one chat completion request expecting a JSON object reply
// and returns the raw message content.
func (c *OpenAIClassifier) chatJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := chatRequest{
		Model: c.settings.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: &chatFormat{Type: "json_object"},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// normalizeCategory maps loose model spellings onto the canonical category
// names ("feature request" -> "feature_request").
func normalizeCategory(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "_")
}
