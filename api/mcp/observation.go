package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dialpoint/memline/pkg/customer"
)

var (
	saveObservationToolName    = "save_observation"
	saveObservationDescription = "Record a single observation about a customer, keyed by phone number. The customer's profile is created automatically when it does not exist yet. Use this to persist a fact worth remembering in future conversations."
)

// SaveObservationInput represents the input arguments for the MCP save_observation tool.
type SaveObservationInput struct {
	Phone   string `json:"phone" jsonschema:"the customer's phone number in E.164 format"`
	Content string `json:"content" jsonschema:"the observation text to remember"`
	Source  string `json:"source" jsonschema:"the channel the observation came from: voice, sms, or whatsapp"`
}

// SaveObservationOutput represents the structured output of a save.
type SaveObservationOutput struct {
	Saved bool `json:"saved"`
}

// handleSaveObservation persists a single observation via MCP.
func (s *Server) handleSaveObservation(ctx context.Context, _ *mcp.CallToolRequest, input SaveObservationInput) (*mcp.CallToolResult, SaveObservationOutput, error) {
	if input.Phone == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "phone is required"},
			},
		}, SaveObservationOutput{}, nil
	}

	source, err := customer.ParseSource(input.Source)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: err.Error()},
			},
		}, SaveObservationOutput{}, nil
	}

	if _, ok := s.config.Memories.GetOrCreateProfile(ctx, input.Phone, nil); !ok {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "Failed to resolve customer profile"},
			},
		}, SaveObservationOutput{}, nil
	}

	if ok := s.config.Memories.CreateObservation(ctx, input.Phone, input.Content, source); !ok {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "Failed to persist observation"},
			},
		}, SaveObservationOutput{}, nil
	}

	output := SaveObservationOutput{Saved: true}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Saved observation for %s", input.Phone)},
		},
	}, output, nil
}
