package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/m-mizutani/gt"
	"github.com/nhh/miniassistant/pkg/llm"
	"github.com/nhh/miniassistant/pkg/model"
	"google.golang.org/genai"
)

type mockGemini struct {
	generate func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	embed    func(ctx context.Context, text string) (*genai.EmbedContentResponse, error)
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.generate(ctx, contents, config)
}

func (m *mockGemini) Embedding(ctx context.Context, text string) (*genai.EmbedContentResponse, error) {
	return m.embed(ctx, text)
}

var noteDecl = &model.ToolDeclaration{
	Name:        "createNote",
	Description: "Create a note",
	Parameters: []model.Parameter{
		{Name: "title", Type: model.ParamTypeString},
		{Name: "body", Type: model.ParamTypeString},
	},
	Required: []string{"title", "body"},
}

func TestGeminiInvoke(t *testing.T) {
	var gotConfig *genai.GenerateContentConfig
	client := &mockGemini{
		generate: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotConfig = config
			gt.A(t, contents).Length(1)
			gt.V(t, contents[0].Parts[0].Text).Equal("make a note")
			return &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{Parts: []*genai.Part{
						{Text: "thinking...", Thought: true},
						{Text: "Sure."},
						{FunctionCall: &genai.FunctionCall{
							Name: "createNote",
							Args: map[string]any{"title": "Groceries", "body": "milk"},
						}},
					}},
				}},
			}, nil
		},
	}

	g := gt.R1(llm.NewGemini(client, []*model.ToolDeclaration{noteDecl})).NoError(t)
	resp := gt.R1(g.Invoke(context.Background(), "make a note")).NoError(t)

	gt.V(t, resp.Text).Equal("Sure.")
	gt.A(t, resp.ToolCalls).Length(1)
	gt.V(t, resp.ToolCalls[0]).Equal(model.ToolCallRequest{
		Name: "createNote",
		Args: map[string]string{"title": "Groceries", "body": "milk"},
	})

	gt.A(t, gotConfig.Tools).Length(1)
	gt.V(t, *gotConfig.Temperature).Equal(float32(0.3))
	gt.V(t, *gotConfig.TopP).Equal(float32(0.4))
}

func TestGeminiCompleteOmitsTools(t *testing.T) {
	var configs []*genai.GenerateContentConfig
	client := &mockGemini{
		generate: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			configs = append(configs, config)
			return &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{Parts: []*genai.Part{{Text: "Your note is saved."}}},
				}},
			}, nil
		},
	}

	g := gt.R1(llm.NewGemini(client, []*model.ToolDeclaration{noteDecl})).NoError(t)
	resp := gt.R1(g.Complete(context.Background(), "summarize")).NoError(t)
	gt.V(t, resp.Text).Equal("Your note is saved.")
	gt.R1(g.Invoke(context.Background(), "make a note")).NoError(t)

	gt.A(t, configs).Length(2)
	gt.A(t, configs[0].Tools).Length(0)
	gt.V(t, *configs[0].TopP).Equal(float32(0.4))
	gt.NotNil(t, configs[0].SystemInstruction)
	// the shared config keeps its tools
	gt.A(t, configs[1].Tools).Length(1)
}

func TestGeminiTransportError(t *testing.T) {
	client := &mockGemini{
		generate: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, errors.New("503 unavailable")
		},
	}

	g := gt.R1(llm.NewGemini(client, nil)).NoError(t)
	_, err := g.Invoke(context.Background(), "hello")
	gt.Error(t, err).Is(model.ErrTransport)
}

func TestGeminiEmbedder(t *testing.T) {
	client := &mockGemini{
		embed: func(ctx context.Context, text string) (*genai.EmbedContentResponse, error) {
			if text == "" {
				return &genai.EmbedContentResponse{}, nil
			}
			return &genai.EmbedContentResponse{
				Embeddings: []*genai.ContentEmbedding{{Values: []float32{1, 2, 3}}},
			}, nil
		},
	}
	e := llm.NewGeminiEmbedder(client)

	gt.V(t, gt.R1(e.Embed(context.Background(), "hello")).NoError(t)).Equal([]float32{1, 2, 3})
	_, err := e.Embed(context.Background(), "")
	gt.Error(t, err)
}

type mockClaude struct {
	params anthropic.MessageNewParams
	raw    string
	err    error
}

func (m *mockClaude) Chat(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	m.params = params
	if m.err != nil {
		return nil, m.err
	}
	var msg anthropic.Message
	if err := json.Unmarshal([]byte(m.raw), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func TestClaudeInvoke(t *testing.T) {
	client := &mockClaude{raw: `{
		"id": "msg_01",
		"type": "message",
		"role": "assistant",
		"model": "claude-3-7-sonnet-latest",
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 10, "output_tokens": 5},
		"content": [
			{"type": "text", "text": "Creating it."},
			{"type": "tool_use", "id": "toolu_01", "name": "createNote", "input": {"title": "Groceries", "body": "milk"}}
		]
	}`}

	c := gt.R1(llm.NewClaude(client, "", []*model.ToolDeclaration{noteDecl})).NoError(t)
	resp := gt.R1(c.Invoke(context.Background(), "make a note")).NoError(t)

	gt.V(t, resp.Text).Equal("Creating it.")
	gt.A(t, resp.ToolCalls).Length(1)
	gt.V(t, resp.ToolCalls[0].Args).Equal(map[string]string{"title": "Groceries", "body": "milk"})
	gt.V(t, client.params.Model).Equal(llm.DefaultClaudeModel)
	gt.A(t, client.params.Tools).Length(1)
	gt.V(t, client.params.Temperature.Value).Equal(0.3)
	gt.False(t, client.params.TopP.Valid())
}

func TestClaudeCompleteOmitsTools(t *testing.T) {
	client := &mockClaude{raw: `{
		"id": "msg_02",
		"type": "message",
		"role": "assistant",
		"model": "claude-3-7-sonnet-latest",
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 5},
		"content": [{"type": "text", "text": "Your note is saved."}]
	}`}

	c := gt.R1(llm.NewClaude(client, "", []*model.ToolDeclaration{noteDecl})).NoError(t)
	resp := gt.R1(c.Complete(context.Background(), "summarize")).NoError(t)

	gt.V(t, resp.Text).Equal("Your note is saved.")
	gt.A(t, resp.ToolCalls).Length(0)
	gt.A(t, client.params.Tools).Length(0)
}

func TestClaudeTransportError(t *testing.T) {
	c := gt.R1(llm.NewClaude(&mockClaude{err: errors.New("overloaded")}, "", nil)).NoError(t)
	_, err := c.Invoke(context.Background(), "hello")
	gt.Error(t, err).Is(model.ErrTransport)
}
