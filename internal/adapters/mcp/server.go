// Package mcpadapter exposes retrieval decisions as MCP tools over stdio.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/core/ports"
)

const (
	serverName    = "counsel-assistant"
	serverVersion = "1.0.0"

	ToolDecideResponse = "decide_response"
	ToolMatchQuestion  = "match_question"
)

type Server struct {
	decider ports.ResponseDecider
	matcher ports.QuestionMatcher
	logger  *slog.Logger
	mcp     *server.MCPServer
}

func NewServer(decider ports.ResponseDecider, matcher ports.QuestionMatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		decider: decider,
		matcher: matcher,
		logger:  logger,
		mcp:     server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s
}

// ServeStdio blocks until stdin closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool(ToolDecideResponse,
		mcp.WithDescription("Decide whether a message should be answered verbatim from the Q&A corpus or by the generative model."),
		mcp.WithString("query", mcp.Required(), mcp.Description("User message")),
		mcp.WithString("emotion", mcp.Description("Detected emotion tag, e.g. sad, angry, anxious")),
		mcp.WithArray("history", mcp.Description("Earlier user messages, oldest first"), mcp.WithStringItems()),
	), s.handleDecide)

	s.mcp.AddTool(mcp.NewTool(ToolMatchQuestion,
		mcp.WithDescription("Find the closest Q&A corpus entry for a question and report its confidence tier."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Question to match")),
		mcp.WithString("emotion", mcp.Description("Detected emotion tag")),
	), s.handleMatch)
}

func (s *Server) handleDecide(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	history := make([]domain.ConversationTurn, 0)
	for _, text := range request.GetStringSlice("history", nil) {
		history = append(history, domain.ConversationTurn{Role: domain.RoleUser, Text: text})
	}

	decision := s.decider.Decide(ctx, domain.DecisionInput{
		Query:   query,
		Emotion: domain.ParseEmotion(request.GetString("emotion", "")),
		History: history,
	})
	s.logger.Info("mcp_tool_called", "tool", ToolDecideResponse, "mode", decision.Mode, "reason", decision.Reason)
	return jsonResult(decisionView(decision))
}

func (s *Server) handleMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	match := s.matcher.MatchQuestion(ctx, query, domain.ParseEmotion(request.GetString("emotion", "")))
	s.logger.Info("mcp_tool_called", "tool", ToolMatchQuestion, "matched", match != nil)
	if match == nil {
		return jsonResult(map[string]any{"matched": false})
	}
	view := candidateView(*match)
	view["matched"] = true
	return jsonResult(view)
}

func decisionView(decision domain.Decision) map[string]any {
	out := map[string]any{
		"mode":             decision.Mode,
		"reason":           decision.Reason,
		"duplicate_forced": decision.DuplicateForced,
		"citation":         decision.Citation,
		"cacheable":        decision.Cacheable,
		"turn_count":       decision.TurnCount,
		"embedding_source": decision.EmbeddingSource,
		"context_size":     len(decision.Context),
	}
	if decision.Match != nil {
		out["match"] = candidateView(*decision.Match)
	}
	if decision.Best != nil {
		out["best"] = candidateView(*decision.Best)
	}
	return out
}

func candidateView(c domain.MatchCandidate) map[string]any {
	out := map[string]any{
		"source_id":  c.SourceID,
		"score":      c.Score,
		"tier":       c.Tier,
		"percentage": c.Percentage,
		"match_type": c.Type,
	}
	if answer, ok := c.Answer(); ok {
		out["answer"] = answer
	}
	return out
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
