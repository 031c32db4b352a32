package memstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/memstore"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

func TestCollection_NotFoundSentinels(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	tests := []struct {
		name   string
		update func() error
		remove func() error
		want   error
	}{
		{
			name:   "person",
			update: func() error { return s.People().Update(ctx, "o1", "x", map[string]any{"summary": "s"}) },
			remove: func() error { return s.People().Delete(ctx, "o1", "x") },
			want:   models.ErrPersonNotFound,
		},
		{
			name:   "tree",
			update: func() error { return s.Trees().Update(ctx, "o1", "x", map[string]any{"name": "n"}) },
			remove: func() error { return s.Trees().Delete(ctx, "o1", "x") },
			want:   models.ErrTreeNotFound,
		},
		{
			name:   "post",
			update: func() error { return s.Posts().Update(ctx, "o1", "x", map[string]any{"body": "b"}) },
			remove: func() error { return s.Posts().Delete(ctx, "o1", "x") },
			want:   models.ErrPostNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.update(); !errors.Is(err, tc.want) {
				t.Errorf("update err = %v, want %v", err, tc.want)
			}
			if err := tc.remove(); !errors.Is(err, tc.want) {
				t.Errorf("delete err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCollection_OwnerScoping(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	if _, err := s.People().BulkUpsert(ctx, "o1", []models.Person{{ID: "b", Name: "Beth"}, {ID: "a", Name: "Alan"}}); err != nil {
		t.Fatalf("BulkUpsert: %v", err)
	}
	if _, err := s.People().BulkUpsert(ctx, "o2", []models.Person{{ID: "a", Name: "Taken"}}); !errors.Is(err, models.ErrDuplicateKey) {
		t.Errorf("cross-owner upsert err = %v, want ErrDuplicateKey", err)
	}

	got, err := s.People().List(ctx, "o1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Alan" || got[1].Name != "Beth" {
		t.Errorf("List = %+v, want Alan then Beth", got)
	}

	other, err := s.People().List(ctx, "o2")
	if err != nil {
		t.Fatalf("List o2: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("o2 sees %d people", len(other))
	}

	if err := s.People().Delete(ctx, "o2", "a"); !errors.Is(err, models.ErrPersonNotFound) {
		t.Errorf("cross-owner delete err = %v, want ErrPersonNotFound", err)
	}
}

func TestTags_CascadeAndHook(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	if _, err := s.Posts().Create(ctx, "o1", models.Post{ID: "p1", Body: "Hi"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.PostTags().Tag(ctx, "o1", "p1", []string{"a", "b"}); err != nil {
		t.Fatalf("Tag: %v", err)
	}
	if got := s.TaggedPersons("p1"); len(got) != 2 {
		t.Fatalf("tagged = %v, want 2", got)
	}

	boom := errors.New("boom")
	s.SetHook(func(_ context.Context, c memstore.Call) error {
		if c.Op == "untag" {
			return boom
		}
		return nil
	})
	if err := s.PostTags().Untag(ctx, "o1", "p1", "a"); !errors.Is(err, boom) {
		t.Errorf("Untag err = %v, want hook error", err)
	}
	s.SetHook(nil)

	if err := s.Posts().Delete(ctx, "o1", "p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := s.TaggedPersons("p1"); len(got) != 0 {
		t.Errorf("tags survived post delete: %v", got)
	}

	if n := len(s.CallsFor("post_tags", "untag")); n != 1 {
		t.Errorf("recorded %d untag calls, want 1", n)
	}
}
