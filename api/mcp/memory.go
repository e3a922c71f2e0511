package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dialpoint/memline/pkg/customer"
)

var (
	memoryRecallToolName    = "memory_recall"
	memoryRecallDescription = "Recall remembered facts about a customer by phone number. With a query, returns observations matching the query; without one (or when nothing matches), returns the customer's most recent observations. Use this to bring persistent knowledge from past conversations into the current one."
)

// MemoryRecallInput represents the input arguments for the MCP memory_recall tool.
type MemoryRecallInput struct {
	Phone          string `json:"phone" jsonschema:"the customer's phone number in E.164 format"`
	Query          string `json:"query,omitempty" jsonschema:"optional search text; when empty the most recent observations are returned"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"optional identifier of the current conversation"`
}

// MemoryRecallOutput represents the structured output of a memory recall.
type MemoryRecallOutput struct {
	Observations []customer.Summary `json:"observations"`
	Summaries    []string           `json:"summaries"`
}

// handleMemoryRecall processes a memory recall request via MCP.
func (s *Server) handleMemoryRecall(ctx context.Context, _ *mcp.CallToolRequest, input MemoryRecallInput) (*mcp.CallToolResult, MemoryRecallOutput, error) {
	if input.Phone == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "phone is required"},
			},
		}, MemoryRecallOutput{}, nil
	}

	result := s.config.Memories.RecallMemories(ctx, input.Phone, input.Query, input.ConversationID)
	if result == nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "Memory recall failed"},
			},
		}, MemoryRecallOutput{}, nil
	}

	output := MemoryRecallOutput{
		Observations: result.Observations,
		Summaries:    result.Summaries,
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, MemoryRecallOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
