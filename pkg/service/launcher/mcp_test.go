package launcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nhh/miniassistant/pkg/model"
	"github.com/nhh/miniassistant/pkg/service/launcher"
)

type launchParams struct {
	Kind   string            `json:"kind"`
	URI    string            `json:"uri,omitempty"`
	Extras map[string]string `json:"extras,omitempty"`
}

func newHTTPServer(t *testing.T, toolName string, received *[]launchParams) *httptest.Server {
	t.Helper()

	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "test-http-launcher",
		Version: "1.0.0",
	}, nil)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        toolName,
		Description: "Launch an action",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, params *launchParams) (*mcpsdk.CallToolResult, any, error) {
		*received = append(*received, *params)
		if params.Kind == string(model.ActionNote) {
			return &mcpsdk.CallToolResult{
				IsError: true,
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "no notes application installed"}},
			}, nil, nil
		}
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "ok"}},
		}, nil, nil
	})

	handler := mcpsdk.NewStreamableHTTPHandler(func(r *http.Request) *mcpsdk.Server {
		return server
	}, nil)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestMCPHTTP(t *testing.T) {
	ctx := context.Background()
	var received []launchParams
	ts := newHTTPServer(t, launcher.DefaultToolName, &received)

	l, err := launcher.NewMCP(ctx, launcher.ServerConfig{
		Name:      "device",
		Transport: "http",
		URL:       ts.URL,
	})
	gt.NoError(t, err)
	defer l.Close()

	err = l.Launch(ctx, model.Action{
		Kind:   model.ActionCalendar,
		URI:    "content://com.android.calendar/events",
		Extras: map[string]string{"title": "Review"},
	})
	gt.NoError(t, err)
	gt.A(t, received).Length(1)
	gt.V(t, received[0].Kind).Equal("calendar")
	gt.V(t, received[0].Extras["title"]).Equal("Review")

	err = l.Launch(ctx, model.Action{Kind: model.ActionNote})
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("no notes application installed")
}

func TestMCPMissingLaunchTool(t *testing.T) {
	var received []launchParams
	ts := newHTTPServer(t, "something_else", &received)

	_, err := launcher.NewMCP(context.Background(), launcher.ServerConfig{
		Transport: "http",
		URL:       ts.URL,
	})
	gt.Error(t, err)
}

func TestMCPUnsupportedTransport(t *testing.T) {
	_, err := launcher.NewMCP(context.Background(), launcher.ServerConfig{Transport: "grpc"})
	gt.Error(t, err)

	_, err = launcher.NewMCP(context.Background(), launcher.ServerConfig{Transport: "stdio"})
	gt.Error(t, err)

	_, err = launcher.NewMCP(context.Background(), launcher.ServerConfig{Transport: "http"})
	gt.Error(t, err)
}

func TestMCPStdio(t *testing.T) {
	if os.Getenv("TEST_MCP_STDIO") == "" {
		t.Skip("TEST_MCP_STDIO is not set")
	}
	ctx := context.Background()

	l, err := launcher.NewMCP(ctx, launcher.ServerConfig{
		Name:      "test-stdio",
		Transport: "stdio",
		Command:   []string{"go", "run", "./testdata/stdio/main.go"},
	})
	gt.NoError(t, err)
	defer l.Close()

	gt.NoError(t, l.Launch(ctx, model.Action{Kind: model.ActionEmail, URI: "mailto:bob@example.com"}))

	err = l.Launch(ctx, model.Action{Kind: model.ActionDial, URI: "tel:123"})
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("permission denied")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "launcher.yaml")
	gt.NoError(t, os.WriteFile(path, []byte(`server:
  name: pixel
  transport: stdio
  command: ["adb-mcp", "--device", "emulator-5554"]
  env:
    ANDROID_SERIAL: emulator-5554
`), 0600))

	cfg, err := launcher.LoadConfig(path)
	gt.NoError(t, err)
	gt.V(t, cfg.Server.Name).Equal("pixel")
	gt.V(t, cfg.Server.Transport).Equal("stdio")
	gt.V(t, cfg.Server.Command).Equal([]string{"adb-mcp", "--device", "emulator-5554"})
	gt.V(t, cfg.Server.Env["ANDROID_SERIAL"]).Equal("emulator-5554")

	_, err = launcher.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	gt.Error(t, err)
}

func TestLoggerAcceptsEverything(t *testing.T) {
	gt.NoError(t, launcher.NewLogger().Launch(context.Background(), model.Action{Kind: model.ActionDial, URI: "tel:1"}))
}
