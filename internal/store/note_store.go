// Package store implements the cache-aside note store. It layers the
// Redis note cache over the transactional note repository and owns the one
// ordering contract of the system: the cache is touched only after the
// durable transaction has committed. A failed transaction therefore never
// leaves anything in the cache, and a failed cache write after a commit is
// logged and ignored because the database stays authoritative and the
// entry heals on the next write or TTL expiry.
package store

import (
	"context"
	"log"

	"github.com/iliyamo/notes-keeper/internal/cache"
	"github.com/iliyamo/notes-keeper/internal/policy"
	"github.com/iliyamo/notes-keeper/internal/repository"
)

// NoteRepository is the durable side of the store. *repository.NoteRepo
// satisfies it; tests substitute lighter fakes.
type NoteRepository interface {
	Create(ctx context.Context, n *repository.Note) error
	GetByID(ctx context.Context, id uint64) (*repository.Note, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]*repository.Note, error)
	Update(ctx context.Context, n *repository.Note) error
	Delete(ctx context.Context, id uint64) error
}

// NoteStore orchestrates ownership-checked, transactional note CRUD with
// cache maintenance. A nil cache disables caching entirely; every read
// then behaves like a miss that does not populate.
type NoteStore struct {
	repo  NoteRepository
	cache cache.NoteCache
}

func NewNoteStore(repo NoteRepository, c cache.NoteCache) *NoteStore {
	return &NoteStore{repo: repo, cache: c}
}

// Create inserts a note owned by the requester. The owner comes from the
// authenticated principal, never from the payload. The cache is populated
// only after the insert commits.
func (s *NoteStore) Create(ctx context.Context, requesterID uint64, title, content string) (*repository.Note, error) {
	n := &repository.Note{OwnerID: requesterID, Title: title, Content: content}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.cacheSet(ctx, n)
	return n, nil
}

// Get returns a note by id, serving from the cache when possible. The
// ownership predicate runs on whichever copy is returned, so a cached
// snapshot of someone else's note is still denied. A cache miss reads the
// durable store and populates the cache before returning.
func (s *NoteStore) Get(ctx context.Context, requesterID, id uint64) (*repository.Note, error) {
	if s.cache != nil {
		if n, ok, err := s.cache.Get(ctx, id); err != nil {
			log.Printf("note cache: get %d failed, falling back to db: %v", id, err)
		} else if ok {
			if !policy.Owns(requesterID, n) {
				return nil, repository.ErrForbidden
			}
			return n, nil
		}
	}
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Owns(requesterID, n) {
		return nil, repository.ErrForbidden
	}
	s.cacheSet(ctx, n)
	return n, nil
}

// List returns the requester's notes straight from the durable store; list
// responses are not cached.
func (s *NoteStore) List(ctx context.Context, requesterID uint64) ([]*repository.Note, error) {
	return s.repo.ListByOwner(ctx, requesterID)
}

// Update replaces title and content of an owned note. On commit the cache
// entry is overwritten wholesale with a fresh TTL; on failure the old
// entry is left alone, stale at worst but never reflecting an aborted
// transaction.
func (s *NoteStore) Update(ctx context.Context, requesterID, id uint64, title, content string) (*repository.Note, error) {
	n, err := s.ownedNote(ctx, requesterID, id)
	if err != nil {
		return nil, err
	}
	n.Title = title
	n.Content = content
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	s.cacheSet(ctx, n)
	return n, nil
}

// Patch updates only the provided fields of an owned note. Nil pointers
// mean "keep the current value".
func (s *NoteStore) Patch(ctx context.Context, requesterID, id uint64, title, content *string) (*repository.Note, error) {
	n, err := s.ownedNote(ctx, requesterID, id)
	if err != nil {
		return nil, err
	}
	if title != nil {
		n.Title = *title
	}
	if content != nil {
		n.Content = *content
	}
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	s.cacheSet(ctx, n)
	return n, nil
}

// Delete removes an owned note and evicts its cache entry after the
// delete commits.
func (s *NoteStore) Delete(ctx context.Context, requesterID, id uint64) (*repository.Note, error) {
	n, err := s.ownedNote(ctx, requesterID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, id); err != nil {
			log.Printf("note cache: evict %d failed: %v", id, err)
		}
	}
	return n, nil
}

// ownedNote loads a note from the durable store and applies the ownership
// predicate. Mutations always re-read the row rather than trusting the
// cache, since the copy about to be rewritten must be the committed one.
func (s *NoteStore) ownedNote(ctx context.Context, requesterID, id uint64) (*repository.Note, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Owns(requesterID, n) {
		return nil, repository.ErrForbidden
	}
	return n, nil
}

func (s *NoteStore) cacheSet(ctx context.Context, n *repository.Note) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, n); err != nil {
		log.Printf("note cache: set %d failed: %v", n.ID, err)
	}
}
