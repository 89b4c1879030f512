package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/nhh/miniassistant/pkg/adapter"
	"github.com/nhh/miniassistant/pkg/model"
)

const (
	DefaultClaudeModel = anthropic.ModelClaude3_7SonnetLatest
	claudeMaxTokens    = 2048
)

// Claude is a model backed by the Anthropic Messages API with tool use
type Claude struct {
	client    adapter.Claude
	modelName anthropic.Model
	tools     []anthropic.ToolUnionParam
}

// NewClaude creates a Claude model that may call the declared tools. An
// empty modelName selects DefaultClaudeModel.
func NewClaude(client adapter.Claude, modelName string, decls []*model.ToolDeclaration) (*Claude, error) {
	tools := make([]anthropic.ToolUnionParam, 0, len(decls))
	for _, d := range decls {
		schema, err := toJSONSchema(d)
		if err != nil {
			return nil, err
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        d.Name,
			Description: anthropic.String(d.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema.Properties,
				Required:   schema.Required,
			},
		}})
	}

	m := anthropic.Model(modelName)
	if modelName == "" {
		m = DefaultClaudeModel
	}

	return &Claude{
		client:    client,
		modelName: m,
		tools:     tools,
	}, nil
}

func (c *Claude) Invoke(ctx context.Context, prompt string) (*model.Response, error) {
	return c.generate(ctx, prompt, c.tools)
}

// Complete sends prompt without any tool definition
func (c *Claude) Complete(ctx context.Context, prompt string) (*model.Response, error) {
	return c.generate(ctx, prompt, nil)
}

func (c *Claude) generate(ctx context.Context, prompt string, tools []anthropic.ToolUnionParam) (*model.Response, error) {
	// top_p is not sent: recent Claude models reject requests that set both
	// temperature and top_p
	params := anthropic.MessageNewParams{
		Model:       c.modelName,
		MaxTokens:   claudeMaxTokens,
		System:      []anthropic.TextBlockParam{{Text: systemInstruction}},
		Temperature: anthropic.Float(defaultTemperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Tools: tools,
	}

	msg, err := c.client.Chat(ctx, params)
	if err != nil {
		return nil, goerr.Wrap(model.ErrTransport, "claude request failed", goerr.V("error", err.Error()))
	}

	var (
		text   strings.Builder
		result model.Response
	)
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(v.Text)
		case anthropic.ToolUseBlock:
			var args map[string]any
			if raw := v.JSON.Input.Raw(); raw != "" {
				if err := json.Unmarshal([]byte(raw), &args); err != nil {
					// keep the call so the dispatcher reports the bad arguments
					args = nil
				}
			}
			result.ToolCalls = append(result.ToolCalls, model.ToolCallRequest{
				Name: v.Name,
				Args: stringifyArgs(args),
			})
		}
	}
	result.Text = text.String()

	return &result, nil
}
