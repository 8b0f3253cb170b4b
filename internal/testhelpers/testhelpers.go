// Package testhelpers provides reusable testing utilities for TriageDesk.
//
// This package contains:
// - HTTP test helpers (creating test requests, asserting on responses)
// - Sample data builders for tickets and analysis runs
// - Assertion helpers
package testhelpers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/triagedesk/triagedesk/internal/database"
)

// ========================================
// HTTP Test Helpers
// ========================================

// HTTPTestContext holds components for HTTP handler testing
type HTTPTestContext struct {
	T        *testing.T
	Recorder *httptest.ResponseRecorder
	Request  *http.Request
}

// NewHTTPTestContext creates a new HTTP test context
func NewHTTPTestContext(t *testing.T, method, path string, body io.Reader) *HTTPTestContext {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	return &HTTPTestContext{
		T:        t,
		Recorder: httptest.NewRecorder(),
		Request:  req,
	}
}

// WithHeader adds a header to the request
func (ctx *HTTPTestContext) WithHeader(key, value string) *HTTPTestContext {
	ctx.Request.Header.Set(key, value)
	return ctx
}

// WithJSONBody sets JSON body on the request
func (ctx *HTTPTestContext) WithJSONBody(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		ctx.T.Fatalf("failed to marshal JSON body: %v", err)
	}
	ctx.Request = httptest.NewRequest(ctx.Request.Method, ctx.Request.URL.String(), bytes.NewReader(body))
	ctx.Request.Header.Set("Content-Type", "application/json")
	return ctx
}

// WithBearerToken adds Authorization Bearer header
func (ctx *HTTPTestContext) WithBearerToken(token string) *HTTPTestContext {
	return ctx.WithHeader("Authorization", "Bearer "+token)
}

// Execute runs the handler and returns the response
func (ctx *HTTPTestContext) Execute(handler http.Handler) *HTTPTestContext {
	handler.ServeHTTP(ctx.Recorder, ctx.Request)
	return ctx
}

// ExecuteFunc runs the handler func and returns the response
func (ctx *HTTPTestContext) ExecuteFunc(handler http.HandlerFunc) *HTTPTestContext {
	handler(ctx.Recorder, ctx.Request)
	return ctx
}

// AssertStatus checks the response status code
func (ctx *HTTPTestContext) AssertStatus(expected int) *HTTPTestContext {
	ctx.T.Helper()
	if ctx.Recorder.Code != expected {
		ctx.T.Errorf("expected status %d, got %d. Body: %s", expected, ctx.Recorder.Code, ctx.Recorder.Body.String())
	}
	return ctx
}

// AssertBodyContains checks if response body contains substring
func (ctx *HTTPTestContext) AssertBodyContains(substr string) *HTTPTestContext {
	ctx.T.Helper()
	body := ctx.Recorder.Body.String()
	if !containsString(body, substr) {
		ctx.T.Errorf("expected body to contain %q, got: %s", substr, body)
	}
	return ctx
}

// AssertHeader checks response header value
func (ctx *HTTPTestContext) AssertHeader(key, expected string) *HTTPTestContext {
	ctx.T.Helper()
	got := ctx.Recorder.Header().Get(key)
	if got != expected {
		ctx.T.Errorf("expected header %s=%q, got %q", key, expected, got)
	}
	return ctx
}

// DecodeJSON decodes response body as JSON
func (ctx *HTTPTestContext) DecodeJSON(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	if err := json.NewDecoder(bytes.NewReader(ctx.Recorder.Body.Bytes())).Decode(v); err != nil {
		ctx.T.Fatalf("failed to decode JSON response: %v", err)
	}
	return ctx
}

// ========================================
// Sample Data Builders
// ========================================

// TicketBuilder builds Ticket instances for testing
type TicketBuilder struct {
	ticket database.Ticket
}

// NewTicketBuilder creates a new ticket builder with defaults
func NewTicketBuilder() *TicketBuilder {
	return &TicketBuilder{
		ticket: database.Ticket{
			Title:       "Test Ticket",
			Description: "Test ticket description",
			Status:      database.TicketStatusPending,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		},
	}
}

// WithID sets the ticket ID
func (b *TicketBuilder) WithID(id uint) *TicketBuilder {
	b.ticket.ID = id
	return b
}

// WithTitle sets the title
func (b *TicketBuilder) WithTitle(title string) *TicketBuilder {
	b.ticket.Title = title
	return b
}

// WithDescription sets the description
func (b *TicketBuilder) WithDescription(description string) *TicketBuilder {
	b.ticket.Description = description
	return b
}

// WithStatus sets the status
func (b *TicketBuilder) WithStatus(status database.TicketStatus) *TicketBuilder {
	b.ticket.Status = status
	return b
}

// Build returns the constructed ticket
func (b *TicketBuilder) Build() database.Ticket {
	return b.ticket
}

// AnalysisRunBuilder builds AnalysisRun instances for testing
type AnalysisRunBuilder struct {
	run database.AnalysisRun
}

// NewAnalysisRunBuilder creates a new run builder with defaults
func NewAnalysisRunBuilder() *AnalysisRunBuilder {
	return &AnalysisRunBuilder{
		run: database.AnalysisRun{
			UUID:      uuid.New().String(),
			Summary:   "Analyzing 1 ticket(s)",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
}

// WithID sets the run ID
func (b *AnalysisRunBuilder) WithID(id uint) *AnalysisRunBuilder {
	b.run.ID = id
	return b
}

// WithUUID sets the run UUID
func (b *AnalysisRunBuilder) WithUUID(id string) *AnalysisRunBuilder {
	b.run.UUID = id
	return b
}

// WithSummary sets the summary
func (b *AnalysisRunBuilder) WithSummary(summary string) *AnalysisRunBuilder {
	b.run.Summary = summary
	return b
}

// Build returns the constructed run
func (b *AnalysisRunBuilder) Build() database.AnalysisRun {
	return b.run
}

// ========================================
// Assertion Helpers
// ========================================

// AssertEqual checks equality with a helpful error message
func AssertEqual(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// AssertError checks that an error occurred
func AssertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected error, got nil", msg)
	}
}

// AssertNoError checks that no error occurred
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Errorf("%s: unexpected error: %v", msg, err)
	}
}

// AssertContains checks if string contains substring
func AssertContains(t *testing.T, s, substr string, msg string) {
	t.Helper()
	if !containsString(s, substr) {
		t.Errorf("%s: expected %q to contain %q", msg, s, substr)
	}
}

// ========================================
// Timing Helpers
// ========================================

// MustCompleteWithin fails the test if the function takes longer than the timeout
func MustCompleteWithin(t *testing.T, timeout time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(timeout):
		t.Fatalf("function did not complete within %v", timeout)
	}
}

// ========================================
// Internal helpers
// ========================================

func containsString(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		findSubstring(s, substr))
}

func findSubstring(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
