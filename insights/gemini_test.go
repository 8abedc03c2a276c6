package insights

import (
	"context"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"github.com/seo-compare/engine/compare"
)

func sampleComparison() *compare.Result {
	return &compare.Result{
		Baseline: compare.Side{
			URL:        "https://www.bajajlifeinsurance.com/",
			Overall:    82.4,
			Categories: map[string]float64{"Technical": 85, "Content": 80},
			TechDebt:   "Low",
		},
		Competitor: compare.Side{
			URL:        "https://www.hdfclife.com/",
			Overall:    64.1,
			Categories: map[string]float64{"Technical": 60, "Content": 70},
			TechDebt:   "Medium",
		},
		Gaps: 12,
		Details: []compare.DetailRow{
			{Label: "Page Load Time", Baseline: "1.4s", Competitor: "3.4s", Status: compare.StatusOptimized},
			{Label: "Average Word Count", Baseline: "900 words", Competitor: "300 words", Status: compare.StatusOptimized},
		},
	}
}

func TestNarrateWithoutAPIKey(t *testing.T) {
	g, err := New(context.Background(), "", "gemini-1.5-flash")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer g.Close()

	got := g.Narrate(context.Background(), sampleComparison())
	if got != missingKeyNotice {
		t.Errorf("Narrate = %q, want missing-key notice", got)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(sampleComparison())

	for _, want := range []string{
		"https://www.bajajlifeinsurance.com/",
		"https://www.hdfclife.com/",
		"Executive Summary",
		"Actionable Recommendations",
		"Page Load Time",
		"Average Word Count",
		"Markdown",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []genai.Part{
						genai.Text("### Executive Summary\n"),
						genai.Text("The baseline leads by 18 points."),
					},
				},
			},
		},
	}

	text, err := responseText(resp)
	if err != nil {
		t.Fatalf("responseText: %v", err)
	}
	if !strings.Contains(text, "Executive Summary") || !strings.Contains(text, "18 points") {
		t.Errorf("joined text = %q", text)
	}
}

func TestResponseTextEmpty(t *testing.T) {
	cases := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"no candidates", &genai.GenerateContentResponse{}},
		{"no content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}},
		{"no parts", &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{Content: &genai.Content{}}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := responseText(tc.resp); err == nil {
				t.Error("responseText succeeded, want error")
			}
		})
	}
}
