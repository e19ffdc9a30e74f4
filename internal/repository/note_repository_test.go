package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newNoteRepoWithMock(t *testing.T) (*NoteRepo, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewNoteRepo(db), mock, db
}

var noteCols = []string{"id", "owner_id", "title", "content", "created_at", "updated_at"}

func TestNoteCreate_CommitsAndFillsRecord(t *testing.T) {
	repo, mock, db := newNoteRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO notes \(owner_id, title, content\) VALUES \(\?,\?,\?\)`).
		WithArgs(uint64(1), "T", "C").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(`SELECT created_at, updated_at FROM notes WHERE id=\?`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	n := &Note{OwnerID: 1, Title: "T", Content: "C"}
	if err := repo.Create(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.ID != 7 {
		t.Fatalf("expected generated id 7, got %d", n.ID)
	}
	if n.OwnerID != 1 {
		t.Fatalf("owner must stay the creator, got %d", n.OwnerID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNoteCreate_RollsBackOnFailure(t *testing.T) {
	repo, mock, db := newNoteRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO notes`).
		WithArgs(uint64(1), "T", "C").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	n := &Note{OwnerID: 1, Title: "T", Content: "C"}
	if err := repo.Create(context.Background(), n); err == nil {
		t.Fatal("expected error from failed insert")
	}
	// No partial row: the transaction rolled back, which sqlmock verifies.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNoteGetByID(t *testing.T) {
	repo, mock, db := newNoteRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	q := `SELECT id, owner_id, title, content, created_at, updated_at FROM notes WHERE id=\? LIMIT 1`

	mock.ExpectQuery(q).WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(noteCols).AddRow(7, 1, "T", "C", now, now))

	n, err := repo.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Title != "T" || n.OwnerID != 1 {
		t.Fatalf("unexpected note: %+v", n)
	}

	mock.ExpectQuery(q).WithArgs(uint64(8)).WillReturnError(sql.ErrNoRows)
	if _, err := repo.GetByID(context.Background(), 8); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNoteListByOwner_ScopedToOwner(t *testing.T) {
	repo, mock, db := newNoteRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .* FROM notes WHERE owner_id=\? ORDER BY id`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(noteCols).
			AddRow(1, 1, "a", "x", now, now).
			AddRow(3, 1, "b", "y", now, now))

	out, err := repo.ListByOwner(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(out))
	}
}

func TestNoteUpdate_CommitsAndRefreshesTimestamps(t *testing.T) {
	repo, mock, db := newNoteRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE notes SET title=\?, content=\? WHERE id=\?`).
		WithArgs("T2", "C2", uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT created_at, updated_at FROM notes WHERE id=\?`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now.Add(-time.Hour), now))
	mock.ExpectCommit()

	n := &Note{ID: 7, OwnerID: 1, Title: "T2", Content: "C2"}
	if err := repo.Update(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !n.UpdatedAt.Equal(now) {
		t.Fatalf("expected refreshed updated_at, got %v", n.UpdatedAt)
	}
}

func TestNoteUpdate_MissingRow(t *testing.T) {
	repo, mock, db := newNoteRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE notes SET title=\?, content=\? WHERE id=\?`).
		WithArgs("T", "C", uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM notes WHERE id=\?`).
		WithArgs(uint64(9)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	n := &Note{ID: 9, Title: "T", Content: "C"}
	if err := repo.Update(context.Background(), n); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNoteUpdate_ExistenceCheckFailurePropagates(t *testing.T) {
	repo, mock, db := newNoteRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE notes SET title=\?, content=\? WHERE id=\?`).
		WithArgs("T", "C", uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM notes WHERE id=\?`).
		WithArgs(uint64(9)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	// A broken existence check is an internal failure, not a missing row.
	n := &Note{ID: 9, Title: "T", Content: "C"}
	if err := repo.Update(context.Background(), n); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected the db error to propagate, got %v", err)
	}
}

func TestNoteDelete(t *testing.T) {
	repo, mock, db := newNoteRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM notes WHERE id=\?`).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Delete(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM notes WHERE id=\?`).
		WithArgs(uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := repo.Delete(context.Background(), 8); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
