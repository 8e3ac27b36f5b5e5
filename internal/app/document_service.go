package app

import (
	"context"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"

	"ragdocs/internal/chunker"
	"ragdocs/internal/loader"
	"ragdocs/internal/model"
	"ragdocs/internal/repository"
	"ragdocs/internal/vectorindex"
)

// ReconcilePublisher queues cleanup work for vector-index entries that a
// failed compensation left behind.
type ReconcilePublisher interface {
	Publish(ctx context.Context, task model.ReconcileTask) error
}

// DocumentService runs the ingestion and deletion pipelines across the vector
// index and the metadata store. The two stores are never updated in one
// transaction; inconsistencies are repaired by compensation, best effort.
type DocumentService struct {
	docRepo    *repository.DocumentRepository
	index      vectorindex.Index
	splitter   *chunker.Splitter
	reconciler ReconcilePublisher
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	index vectorindex.Index,
	splitter *chunker.Splitter,
	reconciler ReconcilePublisher,
) *DocumentService {
	return &DocumentService{
		docRepo:    docRepo,
		index:      index,
		splitter:   splitter,
		reconciler: reconciler,
	}
}

// Ingest loads the file, chunks it, upserts the chunks into the vector index
// tagged with a fresh document id and the owner, then persists the metadata
// record. If the metadata write fails after the index write succeeded, the
// orphaned vectors are deleted again; if that also fails the inconsistency is
// logged and queued for reconciliation rather than silently dropped.
func (s *DocumentService) Ingest(ctx context.Context, userID uint, filename string, file io.Reader) (*model.Document, error) {
	if userID == 0 || strings.TrimSpace(filename) == "" || file == nil {
		return nil, ErrInvalidInput
	}

	text, fileType, err := loader.Load(filename, file)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	documentID := uuid.NewString()
	pieces := s.splitter.Split(text)
	if len(pieces) == 0 {
		return nil, ErrEmptyDocument
	}

	chunks := make([]vectorindex.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = vectorindex.Chunk{
			Text:     piece,
			Source:   filename,
			Position: i,
		}
	}

	if err := s.index.Upsert(ctx, userID, documentID, chunks); err != nil {
		return nil, err
	}

	doc := &model.Document{
		DocumentID: documentID,
		UserID:     userID,
		Filename:   filename,
		FileType:   fileType,
		ChunkCount: len(chunks),
	}
	if err := s.docRepo.Create(doc); err != nil {
		s.compensate(ctx, documentID, userID)
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) compensate(ctx context.Context, documentID string, userID uint) {
	_, err := s.index.DeleteByDocument(ctx, documentID, userID)
	if err == nil {
		return
	}
	log.Printf("compensating vector delete failed for document %s: %v", documentID, err)
	if s.reconciler == nil {
		log.Printf("orphaned vectors remain for document %s user %d, no reconciler configured", documentID, userID)
		return
	}
	task := model.ReconcileTask{DocumentID: documentID, UserID: userID}
	if err := s.reconciler.Publish(ctx, task); err != nil {
		log.Printf("enqueue reconcile task failed for document %s user %d: %v", documentID, userID, err)
	}
}

// List returns one page of the user's documents, newest first, with the total
// count. The caller caps limit.
func (s *DocumentService) List(userID uint, limit, offset int) ([]model.Document, int64, error) {
	if userID == 0 {
		return nil, 0, ErrInvalidInput
	}
	return s.docRepo.ListByUserID(userID, limit, offset)
}

// Delete removes the document from the vector index first, then the metadata
// store. It succeeds if either removal found something, logging a warning
// when only one did, so half-deleted state never stays invisible. Removing
// nothing on both sides is a not-found, whether the document never existed or
// belongs to another user.
func (s *DocumentService) Delete(ctx context.Context, documentID string, userID uint) error {
	if userID == 0 || documentID == "" {
		return ErrInvalidInput
	}

	deletedVectors, vecErr := s.index.DeleteByDocument(ctx, documentID, userID)
	if vecErr != nil {
		log.Printf("vector delete failed for document %s: %v", documentID, vecErr)
	}

	removedMeta, metaErr := s.docRepo.DeleteByDocumentIDAndUserID(documentID, userID)
	if metaErr != nil {
		log.Printf("metadata delete failed for document %s: %v", documentID, metaErr)
	}

	vectorsGone := vecErr == nil && deletedVectors > 0
	metaGone := metaErr == nil && removedMeta

	switch {
	case vectorsGone && metaGone:
		return nil
	case vectorsGone || metaGone:
		log.Printf("partial delete for document %s user %d: vectors=%v metadata=%v",
			documentID, userID, vectorsGone, metaGone)
		return nil
	case vecErr != nil:
		return vecErr
	case metaErr != nil:
		return metaErr
	default:
		return ErrDocumentNotFound
	}
}
