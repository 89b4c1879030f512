package llm

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/nhh/miniassistant/pkg/adapter"
	"github.com/nhh/miniassistant/pkg/model"
	"google.golang.org/genai"
)

// Gemini is a model backed by Gemini function calling
type Gemini struct {
	client adapter.Gemini
	config *genai.GenerateContentConfig
}

// NewGemini creates a Gemini model that may call the declared tools
func NewGemini(client adapter.Gemini, decls []*model.ToolDeclaration) (*Gemini, error) {
	funcDecls := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		fd, err := toGenaiDeclaration(d)
		if err != nil {
			return nil, err
		}
		funcDecls = append(funcDecls, fd)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, ""),
		Temperature:       ptrFloat32(defaultTemperature),
		TopP:              ptrFloat32(defaultTopP),
	}
	if len(funcDecls) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: funcDecls}}
	}

	return &Gemini{
		client: client,
		config: config,
	}, nil
}

func (g *Gemini) Invoke(ctx context.Context, prompt string) (*model.Response, error) {
	return g.generate(ctx, prompt, g.config)
}

// Complete sends prompt without any function declaration
func (g *Gemini) Complete(ctx context.Context, prompt string) (*model.Response, error) {
	config := *g.config
	config.Tools = nil
	return g.generate(ctx, prompt, &config)
}

func (g *Gemini) generate(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (*model.Response, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := g.client.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(model.ErrTransport, "gemini request failed", goerr.V("error", err.Error()))
	}

	var (
		text   strings.Builder
		result model.Response
	)
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" && !part.Thought {
				text.WriteString(part.Text)
			}
			if part.FunctionCall != nil {
				result.ToolCalls = append(result.ToolCalls, model.ToolCallRequest{
					Name: part.FunctionCall.Name,
					Args: stringifyArgs(part.FunctionCall.Args),
				})
			}
		}
	}
	result.Text = text.String()

	return &result, nil
}

// GeminiEmbedder encodes text with the Gemini embedding model
type GeminiEmbedder struct {
	client adapter.Gemini
}

func NewGeminiEmbedder(client adapter.Gemini) *GeminiEmbedder {
	return &GeminiEmbedder{client: client}
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embedding(ctx, text)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed text")
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, goerr.New("empty embedding returned")
	}

	return resp.Embeddings[0].Values, nil
}

func ptrFloat32(f float32) *float32 {
	return &f
}
