package main

import (
	"context"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type launchParams struct {
	Kind    string            `json:"kind" jsonschema:"Kind of action"`
	URI     string            `json:"uri,omitempty" jsonschema:"Target URI"`
	Package string            `json:"package,omitempty" jsonschema:"Application package"`
	MIME    string            `json:"mime,omitempty" jsonschema:"MIME type"`
	Extras  map[string]string `json:"extras,omitempty" jsonschema:"Extra values"`
}

// launch accepts every action except dialing, which this fake device has no
// permission for
func launch(ctx context.Context, req *mcp.CallToolRequest, params *launchParams) (*mcp.CallToolResult, any, error) {
	if params.Kind == "dial" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: "CALL_PHONE permission denied"}},
		}, nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "started " + params.Kind}},
	}, nil, nil
}

func main() {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "test-launcher",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "launch",
		Description: "Launch an action on the device",
	}, launch)

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
