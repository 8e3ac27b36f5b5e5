package model

// ReconcileTask asks the reconcile worker to retry removing a document's
// vector-index entries after an earlier compensating delete failed.
type ReconcileTask struct {
	DocumentID string `json:"document_id"`
	UserID     uint   `json:"user_id"`
}
