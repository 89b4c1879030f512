package llm

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/nhh/miniassistant/pkg/model"
	"google.golang.org/genai"
)

// toGenaiDeclaration converts a tool declaration to a Gemini function declaration
func toGenaiDeclaration(decl *model.ToolDeclaration) (*genai.FunctionDeclaration, error) {
	props := make(map[string]*genai.Schema, len(decl.Parameters))
	for _, p := range decl.Parameters {
		var typ genai.Type
		switch p.Type {
		case model.ParamTypeString:
			typ = genai.TypeString
		case model.ParamTypeInteger:
			typ = genai.TypeInteger
		default:
			return nil, goerr.New("unsupported parameter type",
				goerr.V("tool", decl.Name),
				goerr.V("param", p.Name),
				goerr.V("type", p.Type))
		}
		props[p.Name] = &genai.Schema{
			Type:        typ,
			Description: p.Description,
		}
	}

	return &genai.FunctionDeclaration{
		Name:        decl.Name,
		Description: decl.Description,
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: props,
			Required:   decl.Required,
		},
	}, nil
}

// toJSONSchema converts a tool declaration's parameters to a JSON Schema object
func toJSONSchema(decl *model.ToolDeclaration) (*jsonschema.Schema, error) {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(decl.Parameters)),
		Required:   decl.Required,
	}

	for _, p := range decl.Parameters {
		switch p.Type {
		case model.ParamTypeString, model.ParamTypeInteger:
		default:
			return nil, goerr.New("unsupported parameter type",
				goerr.V("tool", decl.Name),
				goerr.V("param", p.Name),
				goerr.V("type", p.Type))
		}
		schema.Properties[p.Name] = &jsonschema.Schema{
			Type:        string(p.Type),
			Description: p.Description,
		}
	}

	return schema, nil
}
