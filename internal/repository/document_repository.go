package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ragdocs/internal/model"
)

// ErrDuplicateDocumentID reports a document_id collision on insert, distinct
// from backend failure.
var ErrDuplicateDocumentID = errors.New("document id already exists")

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateDocumentID
		}
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

// ListByUserID returns one page of the user's documents, newest upload first,
// plus the user's total document count.
func (r *DocumentRepository) ListByUserID(userID uint, limit, offset int) ([]model.Document, int64, error) {
	var total int64
	if err := r.db.Model(&model.Document{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count documents failed: %w", err)
	}

	var docs []model.Document
	q := r.db.Where("user_id = ?", userID).Order("uploaded_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, total, nil
}

func (r *DocumentRepository) GetByDocumentIDAndUserID(documentID string, userID uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("document_id = ? AND user_id = ?", documentID, userID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

// DeleteByDocumentIDAndUserID removes the record and reports whether a row
// matching both keys existed.
func (r *DocumentRepository) DeleteByDocumentIDAndUserID(documentID string, userID uint) (bool, error) {
	res := r.db.Where("document_id = ? AND user_id = ?", documentID, userID).Delete(&model.Document{})
	if res.Error != nil {
		return false, fmt.Errorf("delete document failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
