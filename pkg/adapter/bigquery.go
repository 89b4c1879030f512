package adapter

import (
	"context"
	"fmt"
	"regexp"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
	"github.com/nhh/miniassistant/pkg/model"
	"google.golang.org/api/iterator"
)

// tableIDPattern accepts project.dataset.table identifiers; table names cannot
// be bound as query parameters so they are validated instead
var tableIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_]+\.[A-Za-z0-9_]+$`)

// BigQuery is a chunk index backed by a BigQuery table with columns
// doc_file_name, chunk_data and embedding (ARRAY<FLOAT64>)
type BigQuery struct {
	client *bigquery.Client
	table  string
}

// BigQueryOption is a functional option for BigQuery client
type BigQueryOption func(*BigQuery)

// NewBigQuery creates a new BigQuery chunk index over table (project.dataset.table)
func NewBigQuery(ctx context.Context, projectID, table string, opts ...BigQueryOption) (*BigQuery, error) {
	if !tableIDPattern.MatchString(table) {
		return nil, goerr.New("invalid BigQuery table ID", goerr.V("table", table))
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client")
	}

	bq := &BigQuery{
		client: client,
		table:  table,
	}

	for _, opt := range opts {
		opt(bq)
	}

	return bq, nil
}

// Count returns the number of rows in the chunk table
func (bq *BigQuery) Count(ctx context.Context) (int, error) {
	q := bq.client.Query(fmt.Sprintf("SELECT COUNT(*) AS n FROM `%s`", bq.table))

	it, err := q.Read(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count chunks", goerr.V("table", bq.table))
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil {
		return 0, goerr.Wrap(err, "failed to read chunk count", goerr.V("table", bq.table))
	}

	return int(row.N), nil
}

// Query returns the k nearest chunks by cosine distance using VECTOR_SEARCH
func (bq *BigQuery) Query(ctx context.Context, vector []float32, k int) ([]model.RetrievedChunk, error) {
	embedding := make([]float64, len(vector))
	for i, v := range vector {
		embedding[i] = float64(v)
	}

	q := bq.client.Query(fmt.Sprintf(`SELECT base.doc_file_name AS doc_file_name, base.chunk_data AS chunk_data
FROM VECTOR_SEARCH(TABLE `+"`%s`"+`, 'embedding', (SELECT @embedding AS embedding), top_k => @k, distance_type => 'COSINE')
ORDER BY distance`, bq.table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "embedding", Value: embedding},
		{Name: "k", Value: k},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run vector search", goerr.V("table", bq.table))
	}

	var chunks []model.RetrievedChunk
	for {
		var chunk model.RetrievedChunk
		err := it.Next(&chunk)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate vector search result")
		}
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

// Close releases the underlying client
func (bq *BigQuery) Close() error {
	return bq.client.Close()
}
