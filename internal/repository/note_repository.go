// This file defines the Note model and its repository. Unlike the user and
// token repositories, every note mutation runs inside an explicit
// transaction: the cache-aside layer above sequences its cache writes
// strictly after a successful commit, so the commit boundary must be
// visible here rather than implied by single-statement autocommit.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Note mirrors the 'notes' table. OwnerID always holds the id of the
// principal that created the note; it is never taken from client input.
type Note struct {
	ID        uint64    `json:"id"`
	OwnerID   uint64    `json:"owner"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NoteRepo struct{ DB *sql.DB }

func NewNoteRepo(db *sql.DB) *NoteRepo { return &NoteRepo{DB: db} }

// Create inserts a note inside a transaction and fills in the generated id
// and timestamps. On any failure the transaction is rolled back and the
// database holds no partial row.
func (r *NoteRepo) Create(ctx context.Context, n *Note) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO notes (owner_id, title, content) VALUES (?,?,?)",
		n.OwnerID, n.Title, n.Content)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	// Read back DB-generated timestamps so callers get a complete record.
	if err := tx.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM notes WHERE id=?",
		n.ID).Scan(&n.CreatedAt, &n.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID fetches a note by id regardless of owner. Ownership is enforced
// by the access policy above this layer so that a denied read is
// distinguishable from a missing note.
func (r *NoteRepo) GetByID(ctx context.Context, id uint64) (*Note, error) {
	var n Note
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, owner_id, title, content, created_at, updated_at FROM notes WHERE id=? LIMIT 1",
		id).Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByOwner returns all notes of one owner ordered by id. The owner
// filter at the query level keeps list responses scoped to the requester.
func (r *NoteRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*Note, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, owner_id, title, content, created_at, updated_at FROM notes WHERE owner_id=? ORDER BY id",
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Note
	for rows.Next() {
		n := new(Note)
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Update rewrites title and content inside a transaction and refreshes the
// struct's timestamps from the database. ErrNotFound is returned when the
// note disappeared between the ownership check and the write.
func (r *NoteRepo) Update(ctx context.Context, n *Note) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE notes SET title=?, content=? WHERE id=?",
		n.Title, n.Content, n.ID)
	if err != nil {
		return err
	}
	if aff, err := res.RowsAffected(); err == nil && aff == 0 {
		// MySQL reports 0 affected rows for a no-op update as well, so
		// confirm the row is really gone before reporting not found.
		var one int
		switch scanErr := tx.QueryRowContext(ctx, "SELECT 1 FROM notes WHERE id=?", n.ID).Scan(&one); {
		case errors.Is(scanErr, sql.ErrNoRows):
			return ErrNotFound
		case scanErr != nil:
			return scanErr
		}
	}
	if err := tx.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM notes WHERE id=?",
		n.ID).Scan(&n.CreatedAt, &n.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a note inside a transaction.
func (r *NoteRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM notes WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
