package model

import "time"

// FileType values accepted by the ingestion pipeline.
const (
	FileTypePDF  = "pdf"
	FileTypeDOCX = "docx"
)

// Document is the metadata record for an ingested file. The chunks themselves
// live in the vector index, tagged with DocumentID and UserID.
type Document struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	DocumentID string    `gorm:"size:36;not null;uniqueIndex" json:"document_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Filename   string    `gorm:"size:256;not null" json:"filename"`
	FileType   string    `gorm:"size:16;not null" json:"file_type"`
	ChunkCount int       `gorm:"not null;default:0" json:"chunk_count"`
	UploadedAt time.Time `gorm:"autoCreateTime;index" json:"uploaded_at"`
}
