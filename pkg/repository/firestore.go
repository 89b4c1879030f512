package repository

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/m-mizutani/goerr/v2"
	"github.com/nhh/miniassistant/pkg/model"
	"google.golang.org/api/iterator"
)

const (
	defaultChunkCollection = "chunks"
	embeddingField         = "embedding"
)

// Firestore serves both as the chunk index queried by retrieval and as a
// durable backend of the conversation memory
type Firestore struct {
	client          *firestore.Client
	chunkCollection string
	session         string
}

type Option func(*Firestore)

// WithChunkCollection sets the collection holding document chunks
func WithChunkCollection(name string) Option {
	return func(f *Firestore) {
		f.chunkCollection = name
	}
}

// WithSession sets the session whose turns are read and written
func WithSession(session string) Option {
	return func(f *Firestore) {
		f.session = session
	}
}

// New creates a new Firestore repository
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID),
			goerr.V("database", databaseID))
	}

	f := &Firestore{
		client:          client,
		chunkCollection: defaultChunkCollection,
		session:         "default",
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// Close releases the underlying client
func (f *Firestore) Close() error {
	return f.client.Close()
}

// Count returns the number of chunk documents
func (f *Firestore) Count(ctx context.Context) (int, error) {
	const alias = "all"

	result, err := f.client.Collection(f.chunkCollection).NewAggregationQuery().WithCount(alias).Get(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count chunks", goerr.V("collection", f.chunkCollection))
	}

	raw, ok := result[alias]
	if !ok {
		return 0, goerr.New("count result is missing", goerr.V("collection", f.chunkCollection))
	}
	value, ok := raw.(*firestorepb.Value)
	if !ok {
		return 0, goerr.New("unexpected count result type", goerr.V("value", raw))
	}

	return int(value.GetIntegerValue()), nil
}

// Query runs a cosine nearest-neighbor search over chunk embeddings
func (f *Firestore) Query(ctx context.Context, vector []float32, k int) ([]model.RetrievedChunk, error) {
	q := f.client.Collection(f.chunkCollection).
		FindNearest(embeddingField, firestore.Vector32(vector), k, firestore.DistanceMeasureCosine, nil)

	iter := q.Documents(ctx)
	defer iter.Stop()

	var chunks []model.RetrievedChunk
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate nearest chunks", goerr.V("k", k))
		}

		var chunk model.RetrievedChunk
		if err := doc.DataTo(&chunk); err != nil {
			return nil, goerr.Wrap(err, "failed to decode chunk", goerr.V("id", doc.Ref.ID))
		}
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

func (f *Firestore) turns() *firestore.CollectionRef {
	return f.client.Collection("sessions").Doc(f.session).Collection("turns")
}

// LoadTurns returns the persisted turns of the session ordered by sequence
func (f *Firestore) LoadTurns(ctx context.Context) ([]model.Turn, error) {
	docs, err := f.turns().OrderBy("sequence", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get turns", goerr.V("session", f.session))
	}

	turns := make([]model.Turn, 0, len(docs))
	for _, doc := range docs {
		var turn model.Turn
		if err := doc.DataTo(&turn); err != nil {
			return nil, goerr.Wrap(err, "failed to decode turn", goerr.V("id", doc.Ref.ID))
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// SaveTurns replaces the session's turns with the snapshot in one transaction
func (f *Firestore) SaveTurns(ctx context.Context, turns []model.Turn) error {
	col := f.turns()

	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(col).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to list turns")
		}

		keep := make(map[string]bool, len(turns))
		for _, t := range turns {
			keep[string(t.ID)] = true
		}

		for _, doc := range existing {
			if keep[doc.Ref.ID] {
				continue
			}
			if err := tx.Delete(doc.Ref); err != nil {
				return goerr.Wrap(err, "failed to delete turn", goerr.V("id", doc.Ref.ID))
			}
		}

		for _, t := range turns {
			if err := tx.Set(col.Doc(string(t.ID)), t); err != nil {
				return goerr.Wrap(err, "failed to set turn", goerr.V("id", t.ID))
			}
		}
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to save turns", goerr.V("session", f.session))
	}

	return nil
}
