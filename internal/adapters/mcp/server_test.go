package mcpadapter

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

type deciderFake struct {
	got domain.DecisionInput
}

func (f *deciderFake) Decide(_ context.Context, input domain.DecisionInput) domain.Decision {
	f.got = input
	match := &domain.MatchCandidate{
		SourceID:   "qa-1",
		Score:      1,
		Tier:       domain.TierExact,
		Percentage: 100,
		Type:       domain.MatchExactQA,
		Detail:     domain.ExactQADetail{Question: "q", Answer: "Be patient."},
	}
	return domain.Decision{Mode: domain.ModeDocument, Reason: domain.ReasonConfidentMatch, Match: match, Best: match, TurnCount: len(input.History) + 1}
}

type matcherFake struct {
	match *domain.MatchCandidate
}

func (f matcherFake) MatchQuestion(context.Context, string, domain.Emotion) *domain.MatchCandidate {
	return f.match
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("expected tool content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		t.Fatalf("decode tool result %q: %v", text.Text, err)
	}
	return out
}

func TestDecideToolPassesHistoryAndEmotion(t *testing.T) {
	decider := &deciderFake{}
	srv := NewServer(decider, matcherFake{}, nil)

	result, err := srv.handleDecide(context.Background(), callRequest(ToolDecideResponse, map[string]any{
		"query":   "how do I stay patient",
		"emotion": "Anxious",
		"history": []any{"hello", "I am struggling"},
	}))
	if err != nil {
		t.Fatalf("handleDecide() error = %v", err)
	}
	if result.IsError {
		t.Fatal("unexpected tool error")
	}
	if decider.got.Emotion != domain.EmotionAnxious || len(decider.got.History) != 2 {
		t.Fatalf("unexpected decider input: %+v", decider.got)
	}
	out := resultJSON(t, result)
	if out["mode"] != "document" || out["turn_count"] != float64(3) {
		t.Fatalf("unexpected decision view: %v", out)
	}
	match, ok := out["match"].(map[string]any)
	if !ok || match["answer"] != "Be patient." {
		t.Fatalf("expected match answer in view: %v", out["match"])
	}
}

func TestDecideToolRequiresQuery(t *testing.T) {
	srv := NewServer(&deciderFake{}, matcherFake{}, nil)

	result, err := srv.handleDecide(context.Background(), callRequest(ToolDecideResponse, map[string]any{}))
	if err != nil {
		t.Fatalf("handleDecide() error = %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing query")
	}
}

func TestMatchToolReportsMissingMatch(t *testing.T) {
	srv := NewServer(&deciderFake{}, matcherFake{}, nil)

	result, err := srv.handleMatch(context.Background(), callRequest(ToolMatchQuestion, map[string]any{"query": "unknown"}))
	if err != nil {
		t.Fatalf("handleMatch() error = %v", err)
	}
	if out := resultJSON(t, result); out["matched"] != false {
		t.Fatalf("expected matched=false, got %v", out)
	}
}

func TestMatchToolReturnsCandidate(t *testing.T) {
	srv := NewServer(&deciderFake{}, matcherFake{match: &domain.MatchCandidate{
		SourceID:   "qa-7",
		Score:      0.72,
		Tier:       domain.TierHigh,
		Percentage: 81,
		Type:       domain.MatchSemanticQA,
		Detail:     domain.SemanticQADetail{Question: "q", Answer: "a"},
	}}, nil)

	result, err := srv.handleMatch(context.Background(), callRequest(ToolMatchQuestion, map[string]any{"query": "q"}))
	if err != nil {
		t.Fatalf("handleMatch() error = %v", err)
	}
	out := resultJSON(t, result)
	if out["matched"] != true || out["source_id"] != "qa-7" || out["tier"] != "high" {
		t.Fatalf("unexpected match view: %v", out)
	}
}
