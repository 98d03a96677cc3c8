// Package anthropic implements the Analyzer port using the Anthropic
// Messages API. The provider is an opaque collaborator: the core only sees
// the structured result or an error.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/reviewdeck/reviewdeck/internal/domain/model"
	"github.com/reviewdeck/reviewdeck/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Analyzer = (*Provider)(nil)

const maxResponseTokens = 8192

// Provider wraps the Anthropic API for code review analysis.
type Provider struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewProvider creates a Provider with the given API key and model.
func NewProvider(apiKey, model string) *Provider {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Provider{
		api:   &client,
		model: anthropic.Model(model),
	}
}

const systemPrompt = `You are a code review analyst. Review the provided pull request diff and return ONLY a JSON object with these fields:
- "overall_score": integer 0-100, overall code quality
- "security_score": integer 0-100
- "performance_score": integer 0-100
- "maintainability_score": integer 0-100
- "summary": 2-4 sentence overview of the change
- "recommendations": array of short, actionable recommendation strings
- "comments": array of findings, each with:
  - "file_path": path of the affected file
  - "line_number": integer line in the new version, 0 if file-level
  - "category": one of "security", "performance", "maintainability", "style", "bug", "testing", "general"
  - "severity": one of "critical", "high", "medium", "low"
  - "title": short finding title
  - "message": explanation of the problem
  - "suggested_fix": how to remediate, empty string if no concrete fix applies
  - "original_code": the problematic snippet if identifiable, else empty string
  - "suggested_code": the corrected snippet if a concrete fix applies, else empty string

Rules:
- Order comments from most to least important
- Do not invent findings; an empty comments array is a valid answer
- Return valid JSON only, no markdown fencing or explanation`

// analysisPayload mirrors the JSON shape requested in the system prompt.
type analysisPayload struct {
	OverallScore         *int             `json:"overall_score"`
	SecurityScore        *int             `json:"security_score"`
	PerformanceScore     *int             `json:"performance_score"`
	MaintainabilityScore *int             `json:"maintainability_score"`
	Summary              string           `json:"summary"`
	Recommendations      []string         `json:"recommendations"`
	Comments             []commentPayload `json:"comments"`
}

type commentPayload struct {
	FilePath      string `json:"file_path"`
	LineNumber    int    `json:"line_number"`
	Category      string `json:"category"`
	Severity      string `json:"severity"`
	Title         string `json:"title"`
	Message       string `json:"message"`
	SuggestedFix  string `json:"suggested_fix"`
	OriginalCode  string `json:"original_code"`
	SuggestedCode string `json:"suggested_code"`
}

// Analyze sends the subject's diff to the model and parses the structured
// verdict. Any API, timeout, or parse failure is returned as-is; the
// orchestrator treats all of them as the provider failure path.
func (p *Provider) Analyze(ctx context.Context, req driven.AnalysisRequest) (*driven.AnalysisResult, error) {
	userPrompt := buildUserPrompt(req)

	msg, err := p.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: maxResponseTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(stripFencing(text)), &payload); err != nil {
		return nil, fmt.Errorf("parse analysis response as JSON: %w", err)
	}

	result := &driven.AnalysisResult{
		OverallScore:         payload.OverallScore,
		SecurityScore:        payload.SecurityScore,
		PerformanceScore:     payload.PerformanceScore,
		MaintainabilityScore: payload.MaintainabilityScore,
		Summary:              payload.Summary,
		Recommendations:      payload.Recommendations,
		ModelUsed:            string(msg.Model),
		TokensUsed:           int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}

	for _, c := range payload.Comments {
		result.Comments = append(result.Comments, driven.AnalysisComment{
			FilePath:      c.FilePath,
			Line:          c.LineNumber,
			Category:      normalizeCategory(c.Category),
			Severity:      normalizeSeverity(c.Severity),
			Title:         c.Title,
			Message:       c.Message,
			Suggestion:    c.SuggestedFix,
			OriginalCode:  c.OriginalCode,
			SuggestedCode: c.SuggestedCode,
		})
	}

	return result, nil
}

// buildUserPrompt assembles the review request sent to the model.
func buildUserPrompt(req driven.AnalysisRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Pull request: %s#%d\n", req.RepoFullName, req.Number)
	fmt.Fprintf(&sb, "Title: %s\n", req.Title)
	fmt.Fprintf(&sb, "Review focus: %s\n\n", req.ReviewType)
	sb.WriteString("Diff:\n")
	sb.WriteString(req.Diff)
	return sb.String()
}

// stripFencing removes a surrounding markdown code fence if the model added
// one despite instructions.
func stripFencing(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.SplitN(text, "\n", 2)
	if len(lines) > 1 {
		text = lines[1]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// normalizeSeverity maps free-form provider severities onto the closed enum.
func normalizeSeverity(s string) model.Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return model.SeverityCritical
	case "high":
		return model.SeverityHigh
	case "low":
		return model.SeverityLow
	default:
		return model.SeverityMedium
	}
}

// normalizeCategory maps free-form provider categories onto the closed enum.
func normalizeCategory(s string) model.Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "security":
		return model.CategorySecurity
	case "performance":
		return model.CategoryPerformance
	case "maintainability":
		return model.CategoryMaintainability
	case "style":
		return model.CategoryStyle
	case "bug":
		return model.CategoryBug
	case "testing":
		return model.CategoryTesting
	default:
		return model.CategoryGeneral
	}
}
