package launcher

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nhh/miniassistant/pkg/model"
	"github.com/nhh/miniassistant/pkg/utils/logging"
	"gopkg.in/yaml.v3"
)

// DefaultToolName is the MCP tool that receives launch requests
const DefaultToolName = "launch"

// ServerConfig represents configuration of the MCP server performing actions
type ServerConfig struct {
	Name      string            `yaml:"name"`
	Transport string            `yaml:"transport"` // "stdio" or "http"
	Command   []string          `yaml:"command"`
	URL       string            `yaml:"url"`
	Env       map[string]string `yaml:"env"`
	Tool      string            `yaml:"tool"`
}

// Config represents the MCP launcher configuration file structure
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// LoadConfig reads the YAML configuration file
func LoadConfig(path string) (*Config, error) {
	absPath, err := getAbsPath(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve config path", goerr.V("path", path))
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read MCP config file", goerr.V("path", absPath))
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse MCP config file", goerr.V("path", absPath))
	}

	return &cfg, nil
}

// MCP forwards actions to an MCP server running on, or bridging to, the
// device that owns the dialer, mail, calendar and notes applications
type MCP struct {
	name     string
	toolName string
	session  *mcp.ClientSession

	// one launch at a time over the session
	mu sync.Mutex
}

// NewMCP connects to the configured server and checks it offers the launch tool
func NewMCP(ctx context.Context, cfg ServerConfig) (*MCP, error) {
	if cfg.Name == "" {
		cfg.Name = "launcher"
	}
	if cfg.Tool == "" {
		cfg.Tool = DefaultToolName
	}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "miniassistant",
		Version: "0.1.0",
	}, nil)

	var (
		transport mcp.Transport
		err       error
	)
	switch cfg.Transport {
	case "stdio":
		transport, err = createStdioTransport(cfg)
	case "http":
		transport, err = createHTTPTransport(cfg)
	default:
		return nil, goerr.New("unsupported transport",
			goerr.V("transport", cfg.Transport),
			goerr.V("supported", []string{"stdio", "http"}))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create transport", goerr.V("server", cfg.Name))
	}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to MCP server", goerr.V("server", cfg.Name))
	}

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		_ = session.Close()
		return nil, goerr.Wrap(err, "failed to list tools", goerr.V("server", cfg.Name))
	}

	found := false
	for _, t := range tools.Tools {
		if t.Name == cfg.Tool {
			found = true
			break
		}
	}
	if !found {
		_ = session.Close()
		return nil, goerr.New("MCP server does not provide the launch tool",
			goerr.V("server", cfg.Name),
			goerr.V("tool", cfg.Tool))
	}

	return &MCP{
		name:     cfg.Name,
		toolName: cfg.Tool,
		session:  session,
	}, nil
}

func createStdioTransport(cfg ServerConfig) (mcp.Transport, error) {
	if len(cfg.Command) == 0 {
		return nil, goerr.New("command is required for stdio transport")
	}

	cmd := exec.Command(cfg.Command[0], cfg.Command[1:]...)
	if len(cfg.Env) > 0 {
		env := os.Environ()
		for k, v := range cfg.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	return &mcp.CommandTransport{Command: cmd}, nil
}

func createHTTPTransport(cfg ServerConfig) (mcp.Transport, error) {
	if cfg.URL == "" {
		return nil, goerr.New("url is required for http transport")
	}

	return &mcp.StreamableClientTransport{
		Endpoint: cfg.URL,
	}, nil
}

// Launch sends the action as arguments of the launch tool. A result flagged
// as an error, such as a missing handler application or a denied
// permission, is returned as an error carrying the server's message.
func (l *MCP) Launch(ctx context.Context, action model.Action) error {
	raw, err := json.Marshal(action)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal action")
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return goerr.Wrap(err, "failed to convert action")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	result, err := l.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      l.toolName,
		Arguments: args,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to call launch tool",
			goerr.V("server", l.name),
			goerr.V("kind", action.Kind))
	}

	message := resultText(result)
	if result.IsError {
		if message == "" {
			message = "rejected by host"
		}
		return goerr.New(message, goerr.V("server", l.name), goerr.V("kind", action.Kind))
	}

	logging.From(ctx).Debug("action launched", "kind", action.Kind, "server", l.name, "message", message)
	return nil
}

// Close closes the MCP session
func (l *MCP) Close() error {
	if err := l.session.Close(); err != nil {
		return goerr.Wrap(err, "failed to close session", goerr.V("server", l.name))
	}
	return nil
}

func resultText(result *mcp.CallToolResult) string {
	var texts []string
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// getAbsPath returns absolute path, resolving relative paths from current directory
func getAbsPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Abs(path)
}
