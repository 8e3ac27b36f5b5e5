package vectorindex

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
)

const (
	fieldID         = "id"
	fieldEmbedding  = "embedding"
	fieldOwnerID    = "owner_id"
	fieldDocumentID = "document_id"
	fieldSource     = "source"
	fieldContent    = "content"
	fieldPosition   = "position"
)

// MilvusIndex stores chunks in a Milvus collection with owner_id and
// document_id as filterable metadata fields.
type MilvusIndex struct {
	client     *milvusclient.Client
	embedder   Embedder
	collection string
}

// NewMilvusIndex ensures the collection exists (creating schema, vector index
// and loading it when missing) and returns the index handle.
func NewMilvusIndex(ctx context.Context, client *milvusclient.Client, embedder Embedder, collection string, dim int) (*MilvusIndex, error) {
	m := &MilvusIndex{client: client, embedder: embedder, collection: collection}
	if err := m.ensureCollection(ctx, dim); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MilvusIndex) ensureCollection(ctx context.Context, dim int) error {
	exists, err := m.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(m.collection))
	if err != nil {
		return fmt.Errorf("check collection existence failed: %w", err)
	}
	if !exists {
		schema := entity.NewSchema().
			WithName(m.collection).
			WithDescription("embedded document chunks, tagged by owner and document").
			WithAutoID(true).
			WithField(entity.NewField().
				WithName(fieldID).
				WithDataType(entity.FieldTypeInt64).
				WithIsPrimaryKey(true).
				WithIsAutoID(true)).
			WithField(entity.NewField().
				WithName(fieldEmbedding).
				WithDataType(entity.FieldTypeFloatVector).
				WithDim(int64(dim))).
			WithField(entity.NewField().
				WithName(fieldOwnerID).
				WithDataType(entity.FieldTypeInt64)).
			WithField(entity.NewField().
				WithName(fieldDocumentID).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(36)).
			WithField(entity.NewField().
				WithName(fieldSource).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(256)).
			WithField(entity.NewField().
				WithName(fieldContent).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(65535)).
			WithField(entity.NewField().
				WithName(fieldPosition).
				WithDataType(entity.FieldTypeInt64))

		if err := m.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(m.collection, schema)); err != nil {
			return fmt.Errorf("create collection failed: %w", err)
		}

		idx := index.NewIvfFlatIndex(entity.COSINE, 128)
		createTask, err := m.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(m.collection, fieldEmbedding, idx))
		if err != nil {
			return fmt.Errorf("create vector index failed: %w", err)
		}
		if err := createTask.Await(ctx); err != nil {
			return fmt.Errorf("wait for vector index failed: %w", err)
		}
	}

	loadTask, err := m.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(m.collection))
	if err != nil {
		return fmt.Errorf("load collection failed: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("wait for collection load failed: %w", err)
	}
	return nil
}

func (m *MilvusIndex) Upsert(ctx context.Context, ownerID uint, documentID string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embed chunks: %v", ErrUnavailable, err)
	}

	owners := make([]int64, len(chunks))
	docIDs := make([]string, len(chunks))
	sources := make([]string, len(chunks))
	contents := make([]string, len(chunks))
	positions := make([]int64, len(chunks))
	for i, c := range chunks {
		owners[i] = int64(ownerID)
		docIDs[i] = documentID
		sources[i] = c.Source
		contents[i] = c.Text
		positions[i] = int64(c.Position)
	}

	_, err = m.client.Insert(ctx, milvusclient.NewColumnBasedInsertOption(m.collection,
		column.NewColumnFloatVector(fieldEmbedding, len(embeddings[0]), embeddings),
		column.NewColumnInt64(fieldOwnerID, owners),
		column.NewColumnVarChar(fieldDocumentID, docIDs),
		column.NewColumnVarChar(fieldSource, sources),
		column.NewColumnVarChar(fieldContent, contents),
		column.NewColumnInt64(fieldPosition, positions),
	))
	if err != nil {
		return fmt.Errorf("%w: insert chunks: %v", ErrUnavailable, err)
	}

	// Flush so freshly ingested chunks are searchable immediately.
	flushTask, err := m.client.Flush(ctx, milvusclient.NewFlushOption(m.collection))
	if err != nil {
		return fmt.Errorf("%w: flush collection: %v", ErrUnavailable, err)
	}
	if err := flushTask.Await(ctx); err != nil {
		return fmt.Errorf("%w: wait for flush: %v", ErrUnavailable, err)
	}
	return nil
}

func (m *MilvusIndex) DeleteByDocument(ctx context.Context, documentID string, ownerID uint) (int64, error) {
	expr := fmt.Sprintf("%s == %q && %s == %d", fieldDocumentID, documentID, fieldOwnerID, ownerID)
	result, err := m.client.Delete(ctx, milvusclient.NewDeleteOption(m.collection).WithExpr(expr))
	if err != nil {
		return 0, fmt.Errorf("%w: delete by document: %v", ErrUnavailable, err)
	}
	return result.DeleteCount, nil
}

func (m *MilvusIndex) Search(ctx context.Context, query string, ownerID uint, k int) ([]Match, error) {
	vector, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrUnavailable, err)
	}

	// The owner filter is what keeps tenants apart; it must be present on
	// every search regardless of k or query content.
	filter := fmt.Sprintf("%s == %d", fieldOwnerID, ownerID)
	results, err := m.client.Search(ctx, milvusclient.NewSearchOption(
		m.collection,
		k,
		[]entity.Vector{entity.FloatVector(vector)},
	).WithANNSField(fieldEmbedding).
		WithFilter(filter).
		WithOutputFields(fieldContent, fieldSource, fieldDocumentID))
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrUnavailable, err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	matches := make([]Match, 0, results[0].ResultCount)
	for i := 0; i < results[0].ResultCount; i++ {
		match := Match{Score: results[0].Scores[i]}
		for _, field := range results[0].Fields {
			col, ok := field.(*column.ColumnVarChar)
			if !ok {
				continue
			}
			switch col.Name() {
			case fieldContent:
				match.Text = col.Data()[i]
			case fieldSource:
				match.Source = col.Data()[i]
			case fieldDocumentID:
				match.DocumentID = col.Data()[i]
			}
		}
		matches = append(matches, match)
	}
	return matches, nil
}
