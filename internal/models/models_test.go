package models_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

func ptr[T any](v T) *T { return &v }

func assertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func assertErrorContains(t *testing.T, err error, want string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error containing %q, got nil", want)
	}

	if !strings.Contains(err.Error(), want) {
		t.Errorf("expected error containing %q, got %q", want, err.Error())
	}
}

func TestPerson_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       models.Person
		wantErr string
	}{
		{name: "valid", p: models.Person{ID: "p1", Name: "Ada", Gender: models.GenderFemale}},
		{name: "defaults gender", p: models.Person{ID: "p1", Name: "Ada"}},
		{name: "missing id", p: models.Person{Name: "Ada"}, wantErr: "id is required"},
		{name: "missing name", p: models.Person{ID: "p1"}, wantErr: "name is required"},
		{name: "bad gender", p: models.Person{ID: "p1", Name: "Ada", Gender: "x"}, wantErr: "gender must be"},
		{name: "name too long", p: models.Person{ID: "p1", Name: strings.Repeat("x", 501)}, wantErr: "exceeds maximum length"},
		{name: "self parent", p: models.Person{ID: "p1", Name: "Ada", ParentIDs: []string{"p1"}}, wantErr: "related to themselves"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate()
			if tc.wantErr != "" {
				assertErrorContains(t, err, tc.wantErr)
				return
			}
			assertNoError(t, err)
		})
	}
}

func TestTree_SetHomePerson(t *testing.T) {
	tree := models.Tree{ID: "t1", Name: "Smiths", MemberIDs: []string{"a", "b"}}

	if err := tree.SetHomePerson("c"); !errors.Is(err, models.ErrHomeNotMember) {
		t.Fatalf("expected ErrHomeNotMember, got %v", err)
	}
	if tree.HomePersonID != nil {
		t.Fatal("home person set despite error")
	}

	assertNoError(t, tree.SetHomePerson("b"))
	if tree.HomePersonID == nil || *tree.HomePersonID != "b" {
		t.Fatalf("home person = %v, want b", tree.HomePersonID)
	}

	if !tree.RemoveMember("b") {
		t.Fatal("RemoveMember reported no change")
	}
	if tree.HomePersonID != nil {
		t.Error("home person not cleared after removing the member")
	}
	if tree.RemoveMember("b") {
		t.Error("second RemoveMember reported a change")
	}
}

func TestTree_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tree    models.Tree
		wantErr string
	}{
		{name: "valid", tree: models.Tree{ID: "t", Name: "n", MemberIDs: []string{"a"}, HomePersonID: ptr("a")}},
		{name: "missing name", tree: models.Tree{ID: "t"}, wantErr: "name is required"},
		{name: "home not member", tree: models.Tree{ID: "t", Name: "n", HomePersonID: ptr("a")}, wantErr: "home person must be"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tree.Validate()
			if tc.wantErr != "" {
				assertErrorContains(t, err, tc.wantErr)
				return
			}
			assertNoError(t, err)
		})
	}
}

func TestPost_Validate(t *testing.T) {
	assertNoError(t, (&models.Post{ID: "p", Body: "hello"}).Validate())
	assertNoError(t, (&models.Post{ID: "p", Attachments: []models.MediaRef{{ID: "m", URL: "u"}}}).Validate())
	assertErrorContains(t, (&models.Post{ID: "p"}).Validate(), "body is required")
	assertErrorContains(t, (&models.Post{Body: "x"}).Validate(), "id is required")
}

func family() []models.Person {
	return []models.Person{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
		{ID: "c", Name: "C"},
	}
}

func TestLinkAndRemove_KeepSymmetry(t *testing.T) {
	people := family()
	idx := models.Index(people)

	assertNoError(t, models.LinkSpouses(idx, "a", "b"))
	assertNoError(t, models.LinkParentChild(idx, "a", "c"))
	assertNoError(t, models.LinkParentChild(idx, "b", "c"))
	assertNoError(t, models.LinkParentChild(idx, "b", "c"))

	if problems := models.CheckSymmetry(people); len(problems) != 0 {
		t.Fatalf("asymmetric after linking: %v", problems)
	}
	if got := people[2].ParentIDs; !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("c.ParentIDs = %v, want [a b]", got)
	}

	rest := models.RemovePerson(people, "a")
	if len(rest) != 2 {
		t.Fatalf("len = %d, want 2", len(rest))
	}
	if problems := models.CheckSymmetry(rest); len(problems) != 0 {
		t.Fatalf("asymmetric after removal: %v", problems)
	}
	for _, p := range rest {
		if slices.Contains(p.SpouseIDs, "a") || slices.Contains(p.ParentIDs, "a") {
			t.Errorf("%s still references a", p.ID)
		}
	}
}

func TestLink_Errors(t *testing.T) {
	idx := models.Index(family())

	if err := models.LinkSpouses(idx, "a", "a"); !errors.Is(err, models.ErrSelfRelation) {
		t.Errorf("expected ErrSelfRelation, got %v", err)
	}
	if err := models.LinkParentChild(idx, "a", "zz"); !errors.Is(err, models.ErrPersonNotFound) {
		t.Errorf("expected ErrPersonNotFound, got %v", err)
	}
}

func TestCheckSymmetry_ReportsOneSidedLinks(t *testing.T) {
	people := []models.Person{
		{ID: "a", Name: "A", ChildIDs: []string{"b"}},
		{ID: "b", Name: "B"},
	}

	problems := models.CheckSymmetry(people)
	if len(problems) != 1 {
		t.Fatalf("problems = %v, want 1", problems)
	}
}

func TestChangedFields(t *testing.T) {
	old := models.Person{ID: "p", OwnerID: "o", Name: "Ada", SpouseIDs: []string{"x"}, BirthYear: "1815"}

	t.Run("no change", func(t *testing.T) {
		fields, err := models.ChangedFields(old, old.Clone())
		assertNoError(t, err)
		if len(fields) != 0 {
			t.Errorf("fields = %v, want none", fields)
		}
	})

	t.Run("one field", func(t *testing.T) {
		updated := old.Clone()
		updated.Name = "Ada Lovelace"
		fields, err := models.ChangedFields(old, updated)
		assertNoError(t, err)
		if len(fields) != 1 || fields["name"] != "Ada Lovelace" {
			t.Errorf("fields = %v, want only name", fields)
		}
	})

	t.Run("emptied list", func(t *testing.T) {
		updated := old.Clone()
		updated.SpouseIDs = nil
		fields, err := models.ChangedFields(old, updated)
		assertNoError(t, err)
		list, ok := fields["spouse_ids"].([]any)
		if !ok || len(list) != 0 {
			t.Errorf("spouse_ids = %#v, want empty list", fields["spouse_ids"])
		}
	})

	t.Run("server fields ignored", func(t *testing.T) {
		updated := old.Clone()
		updated.OwnerID = "other"
		fields, err := models.ChangedFields(old, updated)
		assertNoError(t, err)
		if len(fields) != 0 {
			t.Errorf("fields = %v, want none", fields)
		}
	})
}

func TestDecodePatch_RoundTripsChangedFields(t *testing.T) {
	old := models.Tree{ID: "t", Name: "n", MemberIDs: []string{"a"}, HomePersonID: ptr("a")}
	updated := old.Clone()
	updated.HomePersonID = nil

	fields, err := models.ChangedFields(old, updated)
	assertNoError(t, err)

	patch, err := models.DecodePatch[models.TreePatch](fields)
	assertNoError(t, err)
	if !patch.HomePersonID.Set || patch.HomePersonID.Value != nil {
		t.Fatalf("home_person_id patch = %+v, want explicit null", patch.HomePersonID)
	}

	target := old.Clone()
	assertNoError(t, patch.Apply(&target))
	if target.HomePersonID != nil {
		t.Error("home person not cleared")
	}
}

func TestDecodePatch_RejectsUnknownFields(t *testing.T) {
	_, err := models.DecodePatch[models.PersonPatch](map[string]any{"nickname": "x"})
	if !errors.Is(err, models.ErrMalformedRow) {
		t.Fatalf("expected ErrMalformedRow, got %v", err)
	}
}

func TestDecodeRows(t *testing.T) {
	rows := []byte(`[{"id":"p1","owner_id":"o","name":"Ada","gender":"female","birth_year":"","death_year":"","image_url":"","summary":"","is_memorial":false,"parent_ids":["p2"]}]`)

	people, err := models.DecodeRows[models.Person](rows)
	assertNoError(t, err)
	if len(people) != 1 || people[0].ParentIDs[0] != "p2" {
		t.Fatalf("people = %+v", people)
	}

	_, err = models.DecodeRows[models.Person]([]byte(`[{"id":"p1","name":""}]`))
	if !errors.Is(err, models.ErrMalformedRow) {
		t.Fatalf("expected ErrMalformedRow for empty name, got %v", err)
	}

	_, err = models.DecodePerson([]byte(`{"id":"p1","name":"x","extra":1}`))
	if !errors.Is(err, models.ErrMalformedRow) {
		t.Fatalf("expected ErrMalformedRow for unknown column, got %v", err)
	}
}

func TestMergeImported(t *testing.T) {
	existing := models.Person{
		ID: "p", Name: "Old", Summary: "kept", ImageURL: "img",
		ChildIDs: []string{"c1"},
		Memories: []models.Memory{{ID: "m1", Text: "story"}},
	}
	imported := models.Person{
		ID: "p", Name: "New", Gender: models.GenderMale, BirthYear: "1900",
		ChildIDs: []string{"c2"},
		Memories: []models.Memory{{ID: "m2", Text: "story"}},
	}

	got := models.MergeImported(existing, imported)
	if got.Name != "New" || got.Summary != "kept" || got.ImageURL != "img" || got.BirthYear != "1900" {
		t.Errorf("merged scalar fields wrong: %+v", got)
	}
	if !slices.Equal(got.ChildIDs, []string{"c1", "c2"}) {
		t.Errorf("ChildIDs = %v", got.ChildIDs)
	}
	if len(got.Memories) != 1 {
		t.Errorf("duplicate memory text merged: %v", got.Memories)
	}
	if !models.Equal(models.MergeImported(got, imported), got) {
		t.Error("merge is not idempotent")
	}
}
