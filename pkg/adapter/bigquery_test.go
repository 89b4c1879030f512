package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/nhh/miniassistant/pkg/adapter"
)

func TestBigQueryInvalidTable(t *testing.T) {
	_, err := adapter.NewBigQuery(context.Background(), "project", "chunks; DROP TABLE x")
	gt.Error(t, err)

	// the project part is required
	_, err = adapter.NewBigQuery(context.Background(), "project", "rag.chunks")
	gt.Error(t, err)
}

func TestBigQuery(t *testing.T) {
	projectID := os.Getenv("TEST_BIGQUERY_PROJECT")
	if projectID == "" {
		t.Skip("TEST_BIGQUERY_PROJECT is not set")
	}

	table := os.Getenv("TEST_BIGQUERY_CHUNK_TABLE")
	if table == "" {
		t.Skip("TEST_BIGQUERY_CHUNK_TABLE is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewBigQuery(ctx, projectID, table)
	gt.NoError(t, err)
	defer client.Close()

	t.Run("Count", func(t *testing.T) {
		n, err := client.Count(ctx)
		gt.NoError(t, err)
		gt.True(t, n >= 0)
	})

	t.Run("Query", func(t *testing.T) {
		vector := make([]float32, 768)
		vector[0] = 1
		chunks, err := client.Query(ctx, vector, 3)
		gt.NoError(t, err)
		gt.True(t, len(chunks) <= 3)
	})
}
