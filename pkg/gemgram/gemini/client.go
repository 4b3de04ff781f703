// Package gemini implements the completion gateway against the Gemini
// generateContent REST API. Every backend failure shape is collapsed into a
// small fixed outcome taxonomy so the orchestrator can map each variant to
// one deterministic user-facing notice without inspecting raw error text.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/zawhtut/gemgram/pkg/gemgram/history"
)

const (
	// DefaultBaseURL is the Gemini API host.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-1.5-flash"

	// temperature is the fixed generation temperature.
	temperature = 0.7
)

// OutcomeKind classifies a completion attempt.
type OutcomeKind int

const (
	// Success carries a non-empty completion text.
	Success OutcomeKind = iota
	// SafetyBlocked means the prompt or the candidate tripped a safety filter.
	SafetyBlocked
	// Empty means a candidate existed but yielded no usable text.
	Empty
	// NoCandidate means the response carried no candidates and no block reason.
	NoCandidate
	// RateLimited corresponds to HTTP 429.
	RateLimited
	// BadRequest corresponds to HTTP 400.
	BadRequest
	// TransportError covers every other non-success status and malformed bodies.
	TransportError
)

// String returns the diagnostic tag for the kind.
func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case SafetyBlocked:
		return "safety_blocked"
	case Empty:
		return "empty"
	case NoCandidate:
		return "no_candidate"
	case RateLimited:
		return "rate_limited"
	case BadRequest:
		return "bad_request"
	default:
		return "transport_error"
	}
}

// Outcome is the classified result of one completion call.
type Outcome struct {
	Kind OutcomeKind
	// Text is the completion, set only for Success.
	Text string
	// Detail is a short diagnostic string for logs (never shown to users).
	Detail string
}

// Client talks to the Gemini API. One request per message, no retries.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	persona    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Gemini client. persona is the fixed system
// instruction sent with every request.
func NewClient(baseURL, apiKey, model, persona string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		persona: persona,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger.With("component", "gemini"),
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Request/response wire types for generateContent.

type contentPart struct {
	Text string `json:"text"`
}

type content struct {
	Role  string        `json:"role,omitempty"`
	Parts []contentPart `json:"parts"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type tool struct {
	GoogleSearch struct{} `json:"googleSearch"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	SafetySettings    []safetySetting  `json:"safetySettings,omitempty"`
	Tools             []tool           `json:"tools,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []contentPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// blockMediumAndAbove mirrors the safety posture configured upstream.
var defaultSafetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

// Complete sends the prior transcript plus the new user turn and classifies
// the result. useGrounding attaches the web-search tool declaration.
func (c *Client) Complete(ctx context.Context, transcript []history.Turn, userText string, useGrounding bool) Outcome {
	contents := make([]content, 0, len(transcript)+1)
	for _, t := range transcript {
		contents = append(contents, content{
			Role:  t.Role,
			Parts: []contentPart{{Text: t.Text}},
		})
	}
	contents = append(contents, content{
		Role:  history.RoleUser,
		Parts: []contentPart{{Text: userText}},
	})

	reqBody := generateRequest{
		Contents:         contents,
		GenerationConfig: generationConfig{Temperature: temperature},
		SafetySettings:   defaultSafetySettings,
	}
	if c.persona != "" {
		reqBody.SystemInstruction = &content{
			Parts: []contentPart{{Text: c.persona}},
		}
	}
	if useGrounding {
		reqBody.Tools = []tool{{}}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Outcome{Kind: TransportError, Detail: fmt.Sprintf("marshaling request: %v", err)}
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return Outcome{Kind: TransportError, Detail: fmt.Sprintf("creating request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending completion",
		"model", c.model,
		"turns", len(contents),
		"grounding", useGrounding,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Outcome{Kind: TransportError, Detail: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{Kind: TransportError, Detail: fmt.Sprintf("reading response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("API error",
			"status", resp.StatusCode,
			"body", truncate(string(respBody), 200),
		)
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return Outcome{Kind: RateLimited, Detail: fmt.Sprintf("http %d", resp.StatusCode)}
		case http.StatusBadRequest:
			return Outcome{Kind: BadRequest, Detail: fmt.Sprintf("http %d", resp.StatusCode)}
		default:
			return Outcome{Kind: TransportError, Detail: fmt.Sprintf("http %d", resp.StatusCode)}
		}
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Outcome{Kind: TransportError, Detail: fmt.Sprintf("parsing response: %v", err)}
	}

	outcome := classify(parsed)

	c.logger.Info("completion done",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"outcome", outcome.Kind.String(),
	)
	return outcome
}

// classify maps a parsed 200 response onto the outcome taxonomy.
func classify(resp generateResponse) Outcome {
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return Outcome{Kind: SafetyBlocked, Detail: "prompt blocked: " + resp.PromptFeedback.BlockReason}
		}
		return Outcome{Kind: NoCandidate, Detail: "no candidates"}
	}

	cand := resp.Candidates[0]
	if cand.FinishReason == "SAFETY" {
		return Outcome{Kind: SafetyBlocked, Detail: "candidate finish reason SAFETY"}
	}

	var text string
	if len(cand.Content.Parts) > 0 {
		text = strings.TrimSpace(cand.Content.Parts[0].Text)
	}
	if text == "" {
		return Outcome{Kind: Empty, Detail: "candidate without text, finish reason " + cand.FinishReason}
	}
	return Outcome{Kind: Success, Text: text}
}

// truncate returns the first n characters of s, adding "..." if truncated.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
