// Package insights produces the narrative gap analysis attached to
// comparison results. Generation is best-effort: a comparison never
// fails because the model call did.
package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/seo-compare/engine/compare"
	"github.com/seo-compare/engine/logging"
)

// Notices returned in place of a narrative when generation is not possible.
const (
	missingKeyNotice = "AI Analysis not available (Missing API Key)."
	errorNotice      = "Error generating AI comparison."
)

// Generator turns a finished comparison into a markdown gap report via
// the Gemini API.
type Generator struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

// New builds a Generator. With an empty API key the generator stays
// disabled and Narrate returns a fixed notice instead of calling out.
func New(ctx context.Context, apiKey, model string) (*Generator, error) {
	g := &Generator{model: model, log: logging.Component("insights")}
	if apiKey == "" {
		g.log.Warn().Msg("No Gemini API key configured, AI analysis disabled")
		return g, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

// Close releases the underlying API client.
func (g *Generator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Narrate generates the narrative for cmp. Any API failure is logged
// and collapsed to a fixed notice so callers can attach the return
// value unconditionally.
func (g *Generator) Narrate(ctx context.Context, cmp *compare.Result) string {
	if g.client == nil {
		return missingKeyNotice
	}

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.3)

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(cmp)))
	if err != nil {
		g.log.Error().Err(err).Str("model", g.model).Msg("Narrative generation failed")
		return errorNotice
	}
	text, err := responseText(resp)
	if err != nil {
		g.log.Error().Err(err).Str("model", g.model).Msg("Narrative response had no text")
		return errorNotice
	}
	return text
}

// promptPayload is the comparison data serialized into the prompt. The
// full detail table for a 100-parameter catalog stays small enough to
// send whole.
type promptPayload struct {
	Baseline   compare.Side        `json:"baseline"`
	Competitor compare.Side        `json:"competitor"`
	GapCount   int                 `json:"gap_count"`
	Parameters []compare.DetailRow `json:"parameters"`
}

func buildPrompt(cmp *compare.Result) string {
	data, err := json.MarshalIndent(promptPayload{
		Baseline:   cmp.Baseline,
		Competitor: cmp.Competitor,
		GapCount:   cmp.Gaps,
		Parameters: cmp.Details,
	}, "", "  ")
	if err != nil {
		data = []byte("{}")
	}

	var b strings.Builder
	b.WriteString("You are a senior SEO consultant providing a competitive gap analysis for an insurance enterprise.\n\n")
	fmt.Fprintf(&b, "Compare the following SEO data of a baseline website (%s) and a competitor (%s).\n\n",
		cmp.Baseline.URL, cmp.Competitor.URL)
	b.WriteString("Comparison data:\n")
	b.Write(data)
	b.WriteString(`

Provide a deep, enterprise-grade SEO gap analysis report in Markdown format.

Structure your response exactly as follows:

### 🏆 Executive Summary
[High-level verdict. Who is winning? What is the score difference? 2-3 sentences.]

### 📊 Critical Parameter Analysis
*   **Content Depth**: Compare word counts and thin content.
*   **YMYL Signals**: Analyze trust and IRDAI compliance.
*   **Authority Gap**: Compare domain authority and backlink strength.

### ⚡ Technical Performance Drift
*   **Load Time**: Compare page load times in seconds.
*   **Core Web Vitals**: Compare LCP and CLS where available.
*   **Mobile Experience**: Is there a significant gap in mobile optimization?

### 🔍 Keyword & Intent Gaps
Identify what kinds of keywords the competitor might be targeting that the baseline is missing, inferred from the intent and content parameters.

### ✅ Actionable Recommendations
1. [Specific action 1]
2. [Specific action 2]
3. [Specific action 3]

Make the tone professional, data-driven, and extremely specific. Do not use generic advice. Use the provided data for every claim.
`)
	return b.String()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", errors.New("no content in response")
	}

	var parts []string
	for _, part := range content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", errors.New("no text parts in response")
	}
	return strings.TrimSpace(strings.Join(parts, "")), nil
}
