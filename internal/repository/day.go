package repository

import (
	"context"

	"github.com/iimmbipul/whattocook/internal/model"
)

// DayRepository defines data access for day documents. No business logic
// here, strictly keyed-document persistence: get/set/merge/delete, a full
// scan, and atomic multi-document batches.
type DayRepository interface {
	// Get returns the document stored under key. Returns sql.ErrNoRows when
	// no document exists; the caller decides whether that is an error.
	Get(ctx context.Context, key string) (*model.DayDocument, error)

	// Put stores the document under doc.ID, replacing any existing document.
	Put(ctx context.Context, doc *model.DayDocument) error

	// MergeFields applies the field-path updates to the existing document,
	// preserving every field the update does not name. Returns sql.ErrNoRows
	// when the document does not exist. The merge is serialized through a row
	// lock so concurrent merges on one key cannot interleave.
	MergeFields(ctx context.Context, key string, fields map[string]any) error

	// Delete removes the document under key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// ListAll returns every document ordered by key. The collection holds at
	// most one month of days, so a full scan is the intended access path.
	ListAll(ctx context.Context) ([]model.DayDocument, error)

	// RunBatch executes the operations inside one transaction; either every
	// operation commits or none do.
	RunBatch(ctx context.Context, ops []BatchOp) error
}

// BatchOpKind discriminates batch operations.
type BatchOpKind int

const (
	// OpSet stores a full document, replacing any existing one.
	OpSet BatchOpKind = iota
	// OpMerge applies field-path updates to an existing document.
	OpMerge
	// OpDelete removes a document.
	OpDelete
)

// BatchOp is one operation inside an atomic batch.
type BatchOp struct {
	Kind   BatchOpKind
	Key    string
	Doc    *model.DayDocument // OpSet
	Fields map[string]any     // OpMerge
}

// SetOp builds an OpSet operation keyed by the document's ID.
func SetOp(doc *model.DayDocument) BatchOp {
	return BatchOp{Kind: OpSet, Key: doc.ID, Doc: doc}
}

// MergeOp builds an OpMerge operation.
func MergeOp(key string, fields map[string]any) BatchOp {
	return BatchOp{Kind: OpMerge, Key: key, Fields: fields}
}

// DeleteOp builds an OpDelete operation.
func DeleteOp(key string) BatchOp {
	return BatchOp{Kind: OpDelete, Key: key}
}
