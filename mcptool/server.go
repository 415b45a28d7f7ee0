// Package mcptool exposes clause analysis as an MCP tool over stdio, so
// agent hosts can scan contract text without the HTTP boundary.
package mcptool

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	clausescan "github.com/clausescan/clausescan-go"
	"github.com/clausescan/clausescan-go/core"
)

// ToolName is the MCP tool identifier for clause analysis
const ToolName = "analyze_clauses"

// Handler serves the analyze_clauses tool over a rule manager, so rule file
// reloads apply to tool calls as well
type Handler struct {
	rules  *core.RuleManager
	logger *zap.Logger
}

// NewHandler creates a tool handler over the given rule manager
func NewHandler(rules *core.RuleManager, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{rules: rules, logger: logger}
}

// NewServer builds an MCP server with the analyze_clauses tool registered
func NewServer(rules *core.RuleManager, logger *zap.Logger) *server.MCPServer {
	h := NewHandler(rules, logger)

	s := server.NewMCPServer("clausescan", clausescan.Version)

	tool := mcp.NewTool(ToolName,
		mcp.WithDescription("Detect risk-bearing legal clause patterns in contract text. "+
			"Returns ranked matches with context windows, confidence scores and risk levels."),
		mcp.WithString("document_text",
			mcp.Required(),
			mcp.Description("Full contract body to scan"),
		),
		mcp.WithString("clause_types",
			mcp.Description("Comma-separated clause categories to evaluate; defaults to all known categories"),
		),
	)

	s.AddTool(tool, h.HandleAnalyze)

	return s
}

// HandleAnalyze runs one tool call. Bad input shapes come back as tool
// errors, never as protocol failures.
func (h *Handler) HandleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments

	documentText, _ := args["document_text"].(string)
	if documentText == "" {
		return mcp.NewToolResultError("no document text provided"), nil
	}

	rules := h.rules.Active()
	categories := parseClauseTypes(args["clause_types"])
	if len(categories) == 0 {
		categories = rules.CategoryNames()
	}

	result := clausescan.AnalyzeWithRules(rules, documentText, categories)

	h.logger.Debug("tool call analyzed document",
		zap.Strings("categories", categories),
		zap.Int("total_found", result.TotalFound),
	)

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	return mcp.NewToolResultText(string(payload)), nil
}

// parseClauseTypes accepts a comma-separated string of category names
func parseClauseTypes(raw interface{}) []string {
	s, _ := raw.(string)
	if s == "" {
		return nil
	}

	var categories []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			categories = append(categories, part)
		}
	}
	return categories
}

// ServeStdio runs the MCP server over stdin/stdout until the host closes
// the stream
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
