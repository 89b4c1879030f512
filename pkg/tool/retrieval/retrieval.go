package retrieval

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/nhh/miniassistant/pkg/interfaces"
	"github.com/nhh/miniassistant/pkg/model"
	"github.com/nhh/miniassistant/pkg/tool"
)

const (
	DefaultTopK = 5
	MinTopK     = 1
	MaxTopK     = 20

	// NoDocumentsMessage is returned, and shown to the user, when nothing is indexed
	NoDocumentsMessage = "Add documents to execute queries"

	noMatchMessage = "No relevant passages found"
)

// Query retrieves passages from the user's documents
type Query struct {
	Text string
	TopK int
}

func (Query) ToolName() string { return "ragRetriever" }

// Retriever answers queries from uploaded documents using an embedding
// function and a chunk index
type Retriever struct {
	embedder interfaces.Embedder
	index    interfaces.ChunkIndex
	notifier interfaces.Notifier
}

// New creates the ragRetriever tool
func New(embedder interfaces.Embedder, index interfaces.ChunkIndex, notifier interfaces.Notifier) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		notifier: notifier,
	}
}

func (r *Retriever) Declaration() *model.ToolDeclaration {
	return &model.ToolDeclaration{
		Name:        "ragRetriever",
		Description: "Retrieve information from documents uploaded by the user",
		Parameters: []model.Parameter{
			{Name: "query", Type: model.ParamTypeString, Description: "User query to retrieve with"},
			{Name: "topK", Type: model.ParamTypeInteger, Description: "Number of passages to retrieve (1-20)"},
		},
		Required: []string{"query"},
	}
}

func (r *Retriever) Parse(args tool.Args) (tool.Call, error) {
	q, err := args.RequireString("query")
	if err != nil {
		return nil, err
	}

	return Query{
		Text: q,
		TopK: tool.ClampInt(args.Int("topK", DefaultTopK), MinTopK, MaxTopK),
	}, nil
}

func (r *Retriever) Execute(ctx context.Context, call tool.Call) (string, error) {
	q, ok := call.(Query)
	if !ok {
		return "", goerr.New("unexpected call type", goerr.V("call", call))
	}

	n, err := r.index.Count(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to count indexed chunks")
	}
	if n == 0 {
		if r.notifier != nil {
			r.notifier.Notify(ctx, NoDocumentsMessage)
		}
		return NoDocumentsMessage, nil
	}

	vector, err := r.embedder.Embed(ctx, q.Text)
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode query")
	}

	chunks, err := r.index.Query(ctx, vector, q.TopK)
	if err != nil {
		return "", goerr.Wrap(err, "failed to query chunk index", goerr.V("top_k", q.TopK))
	}

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}

	joined := strings.Join(texts, " ")
	if strings.TrimSpace(joined) == "" {
		return noMatchMessage, nil
	}
	return joined, nil
}
