package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tagnestapp/tagnest-server/internal/domain"
	"github.com/tagnestapp/tagnest-server/internal/store"
)

// makeTestTag creates a domain.Tag with sensible defaults for testing.
func makeTestTag(id, slug, clientID string) *domain.Tag {
	now := time.Now()
	return &domain.Tag{
		ID:        id,
		Slug:      slug,
		ClientID:  clientID,
		Name:      "Rex",
		Phone:     "+1 555 0100",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// seedClient inserts a client for tag tests to hang off.
func seedClient(t *testing.T, s *Store, id, name string) {
	t.Helper()
	if err := s.CreateClient(context.Background(), makeTestClient(id, name)); err != nil {
		t.Fatalf("seed client %s: %v", id, err)
	}
}

func TestCreateAndGetTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedClient(t, s, "client-1", "alice")

	tag := makeTestTag("tag-1", "dog-rex", "client-1")
	tag.Address = "12 Oak Lane"
	tag.URL = "https://example.com/rex"
	tag.Instructions = "Friendly, call if found"

	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	got, err := s.GetTag(ctx, "tag-1")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}

	if got.Slug != "dog-rex" {
		t.Errorf("Slug: got %q, want dog-rex", got.Slug)
	}
	if got.ClientID != "client-1" {
		t.Errorf("ClientID: got %q, want client-1", got.ClientID)
	}
	if got.Name != "Rex" {
		t.Errorf("Name: got %q, want Rex", got.Name)
	}
	if got.Phone != "+1 555 0100" {
		t.Errorf("Phone: got %q", got.Phone)
	}
	if got.Address != "12 Oak Lane" {
		t.Errorf("Address: got %q", got.Address)
	}
	if got.Instructions != "Friendly, call if found" {
		t.Errorf("Instructions: got %q", got.Instructions)
	}
	if got.ScanCount != 0 {
		t.Errorf("ScanCount: got %d, want 0", got.ScanCount)
	}
}

func TestGetTagBySlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedClient(t, s, "client-1", "alice")

	tag := makeTestTag("tag-1", "dog-rex", "client-1")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	got, err := s.GetTagBySlug(ctx, "dog-rex")
	if err != nil {
		t.Fatalf("GetTagBySlug: %v", err)
	}
	if got.ID != "tag-1" {
		t.Errorf("ID: got %q, want tag-1", got.ID)
	}

	_, err = s.GetTagBySlug(ctx, "no-such-slug")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateTag_DuplicateSlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedClient(t, s, "client-1", "alice")

	a := makeTestTag("tag-1", "dog-rex", "client-1")
	if err := s.CreateTag(ctx, a); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	b := makeTestTag("tag-2", "dog-rex", "client-1")
	err := s.CreateTag(ctx, b)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateTag_UnknownOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := makeTestTag("tag-1", "dog-rex", "client-missing")
	if err := s.CreateTag(ctx, tag); err == nil {
		t.Fatal("expected FK violation for unknown owner, got nil")
	}
}

func TestUpdateTag_SlugImmutable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedClient(t, s, "client-1", "alice")

	tag := makeTestTag("tag-1", "dog-rex", "client-1")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	// Attempted slug change is ignored by the update statement.
	tag.Slug = "something-else"
	tag.Name = "Rex II"
	tag.Touch()
	if err := s.UpdateTag(ctx, tag); err != nil {
		t.Fatalf("UpdateTag: %v", err)
	}

	got, err := s.GetTag(ctx, "tag-1")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}
	if got.Slug != "dog-rex" {
		t.Errorf("Slug changed on update: got %q, want dog-rex", got.Slug)
	}
	if got.Name != "Rex II" {
		t.Errorf("Name: got %q, want Rex II", got.Name)
	}
}

func TestListTagsByClient(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedClient(t, s, "client-1", "alice")
	seedClient(t, s, "client-2", "bob")

	if err := s.CreateTag(ctx, makeTestTag("tag-1", "rex", "client-1")); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if err := s.CreateTag(ctx, makeTestTag("tag-2", "bella", "client-1")); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if err := s.CreateTag(ctx, makeTestTag("tag-3", "milo", "client-2")); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	tags, err := s.ListTagsByClient(ctx, "client-1")
	if err != nil {
		t.Fatalf("ListTagsByClient: %v", err)
	}
	if len(tags) != 2 {
		t.Errorf("expected 2 tags for client-1, got %d", len(tags))
	}

	all, err := s.ListTags(ctx)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 tags total, got %d", len(all))
	}
}

func TestIncrementTagScans(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedClient(t, s, "client-1", "alice")

	tag := makeTestTag("tag-1", "dog-rex", "client-1")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	for range 3 {
		if err := s.IncrementTagScans(ctx, "tag-1"); err != nil {
			t.Fatalf("IncrementTagScans: %v", err)
		}
	}

	got, err := s.GetTag(ctx, "tag-1")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}
	if got.ScanCount != 3 {
		t.Errorf("ScanCount: got %d, want 3", got.ScanCount)
	}

	if err := s.IncrementTagScans(ctx, "tag-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedClient(t, s, "client-1", "alice")

	tag := makeTestTag("tag-1", "dog-rex", "client-1")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	if err := s.DeleteTag(ctx, "tag-1"); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	if _, err := s.GetTag(ctx, "tag-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteTag(ctx, "tag-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	// Owner is untouched.
	if _, err := s.GetClient(ctx, "client-1"); err != nil {
		t.Errorf("owner affected by tag delete: %v", err)
	}
}
