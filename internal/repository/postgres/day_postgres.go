package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iimmbipul/whattocook/internal/docjson"
	"github.com/iimmbipul/whattocook/internal/model"
	"github.com/iimmbipul/whattocook/internal/repository"
)

// DayPostgres is a PostgreSQL implementation of repository.DayRepository.
// Each day document is one row in meal_days: a TEXT key plus the whole
// document as JSONB. Partial updates are read-modify-write under a row lock
// rather than jsonb_set surgery, which keeps the merge semantics in one
// tested Go function and the SQL trivial.
type DayPostgres struct {
	db *sql.DB
}

// NewDayPostgres creates a new DayPostgres repository.
func NewDayPostgres(db *sql.DB) *DayPostgres {
	return &DayPostgres{db: db}
}

var _ repository.DayRepository = (*DayPostgres)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Get fetches a single document by key.
func (r *DayPostgres) Get(ctx context.Context, key string) (*model.DayDocument, error) {
	const q = `SELECT doc FROM meal_days WHERE id = $1`
	var raw []byte
	if err := r.db.QueryRowContext(ctx, q, key).Scan(&raw); err != nil {
		return nil, err
	}
	return decodeDoc(key, raw)
}

// Put upserts a full document under doc.ID.
func (r *DayPostgres) Put(ctx context.Context, doc *model.DayDocument) error {
	return put(ctx, r.db, doc)
}

// MergeFields applies field-path updates inside a transaction, locking the
// row for the read-modify-write.
func (r *DayPostgres) MergeFields(ctx context.Context, key string, fields map[string]any) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin merge tx: %w", err)
	}
	if err := mergeFields(ctx, tx, key, fields); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit merge tx: %w", err)
	}
	return nil
}

// Delete removes a document by key. Missing rows are not an error.
func (r *DayPostgres) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM meal_days WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, key)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// ListAll returns every document ordered by key.
func (r *DayPostgres) ListAll(ctx context.Context) ([]model.DayDocument, error) {
	const q = `SELECT id, doc FROM meal_days ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]model.DayDocument, 0)
	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		doc, err := decodeDoc(key, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// RunBatch executes the operations in one transaction, all-or-nothing.
func (r *DayPostgres) RunBatch(ctx context.Context, ops []repository.BatchOp) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	for _, op := range ops {
		if err := applyOp(ctx, tx, op); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch tx: %w", err)
	}
	return nil
}

func applyOp(ctx context.Context, tx *sql.Tx, op repository.BatchOp) error {
	switch op.Kind {
	case repository.OpSet:
		return put(ctx, tx, op.Doc)
	case repository.OpMerge:
		return mergeFields(ctx, tx, op.Key, op.Fields)
	case repository.OpDelete:
		_, err := tx.ExecContext(ctx, `DELETE FROM meal_days WHERE id = $1`, op.Key)
		return err
	}
	return fmt.Errorf("unknown batch op kind %d", op.Kind)
}

func put(ctx context.Context, q querier, doc *model.DayDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode day %s: %w", doc.ID, err)
	}
	const stmt = `
		INSERT INTO meal_days (id, doc)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc
	`
	_, err = q.ExecContext(ctx, stmt, doc.ID, raw)
	return err
}

func mergeFields(ctx context.Context, q querier, key string, fields map[string]any) error {
	var raw []byte
	const sel = `SELECT doc FROM meal_days WHERE id = $1 FOR UPDATE`
	if err := q.QueryRowContext(ctx, sel, key).Scan(&raw); err != nil {
		return err
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode day %s: %w", key, err)
	}

	norm, err := docjson.NormalizeFields(fields)
	if err != nil {
		return err
	}
	merged, err := docjson.Apply(doc, norm)
	if err != nil {
		return fmt.Errorf("merge day %s: %w", key, err)
	}

	out, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode day %s: %w", key, err)
	}
	const upd = `UPDATE meal_days SET doc = $2 WHERE id = $1`
	_, err = q.ExecContext(ctx, upd, key, out)
	return err
}

func decodeDoc(key string, raw []byte) (*model.DayDocument, error) {
	var doc model.DayDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode day %s: %w", key, err)
	}
	// The row key is authoritative over whatever the payload carries.
	doc.ID = key
	return &doc, nil
}
