package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wagebud/wagebud/internal/pipeline"
	"github.com/wagebud/wagebud/internal/profile"
	"github.com/wagebud/wagebud/internal/session"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Runner   TurnRunner
	Sessions *session.Manager
}

// NewMCPServer creates an MCP server exposing the wage-estimation pipeline
// as tools, so MCP clients can drive a multi-turn estimation conversation.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"wagebud",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("wagebud — conversational wage estimation. Call estimate_wage with free-text statements; keep passing the returned session_id until status is \"success\"."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("estimate_wage",
			mcp.WithDescription("Process one conversational turn of wage estimation. Returns a prediction once age, experience, education, gender, country, and industry are all known; otherwise returns the next question to ask."),
			mcp.WithString("text", mcp.Description("The user's message"), mcp.Required()),
			mcp.WithString("session_id", mcp.Description("Session id from a previous call; omit to start a new conversation")),
		),
		mcpEstimateWage(deps),
	)

	s.AddTool(
		mcp.NewTool("reset_session",
			mcp.WithDescription("Discard a conversation's accumulated profile."),
			mcp.WithString("session_id", mcp.Description("Session id to reset"), mcp.Required()),
		),
		mcpResetSession(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"wagebud://fields",
			"Profile Fields",
			mcp.WithResourceDescription("The required profile fields and their bucketed vocabularies"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceFields(),
	)

	return s
}

func mcpEstimateWage(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}

		sessionID := req.GetString("session_id", "")
		if sessionID == "" {
			if sessionID, err = deps.Sessions.Create(); err != nil {
				return mcpError(fmt.Sprintf("creating session: %v", err)), nil
			}
		}

		st, err := deps.Sessions.Get(sessionID)
		if err != nil {
			return mcpError(fmt.Sprintf("unknown session %q", sessionID)), nil
		}

		out := deps.Runner.Turn(ctx, pipeline.TurnInput{Text: text, CurrentState: &st.Profile})
		persistSessionState(deps.Sessions, sessionID, out)

		b, err := json.Marshal(TurnResponse{Outcome: out, SessionID: sessionID})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal outcome: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResetSession(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		if err := deps.Sessions.Reset(sessionID); err != nil {
			return mcpError(fmt.Sprintf("failed to reset session: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Session %s reset", sessionID)), nil
	}
}

func mcpResourceFields() server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		fields := map[string]any{
			"required": profile.FieldNames,
			"vocabularies": map[string][]string{
				"age":              {"18-24", "25-34", "35-44", "45-54", "55-64", "65+"},
				"years_experience": {"0-2", "3-5", "6-10", "11-20", "20+"},
				"education":        {"High School", "Bachelor's", "Master's", "PhD", "Other"},
				"gender":           {"Male", "Female", "Other"},
				"industry":         {"Technology", "Healthcare", "Finance", "Education", "Manufacturing", "Retail", "Other"},
			},
		}
		b, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal fields: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
