package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/db"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/db/migrations"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/dbpool"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL, dbpool.Options{})
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		t.Fatalf("migrating test DB: %v", err)
	}

	sharedEnv = &testEnv{
		pool: pool,
		log:  log,
	}

	return sharedEnv
}

// setupTestBase creates a Base with a fresh test owner, cleaned up after the test.
func setupTestBase(t *testing.T) (_ store.Base, _ string) {
	t.Helper()

	env := getTestEnv(t)
	ctx := context.Background()

	owners := store.NewOwnerStore(env.pool)
	ownerID, _, err := owners.CreateOwner(ctx, fmt.Sprintf("test-owner-%s", uuid.NewString()[:8]))
	if err != nil {
		t.Fatalf("creating test owner: %v", err)
	}

	t.Cleanup(func() {
		// Owned rows cascade from the owner.
		env.pool.Exec(context.Background(), "DELETE FROM owners WHERE id = $1", ownerID) //nolint:errcheck // best-effort cleanup
	})

	return store.Base{Pool: env.pool, Log: env.log}, ownerID
}

func TestOwnerStore_APIKeyLookup(t *testing.T) {
	env := getTestEnv(t)
	ctx := context.Background()
	owners := store.NewOwnerStore(env.pool)

	ownerID, apiKey, err := owners.CreateOwner(ctx, "lookup")
	if err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}
	t.Cleanup(func() {
		env.pool.Exec(context.Background(), "DELETE FROM owners WHERE id = $1", ownerID) //nolint:errcheck // best-effort cleanup
	})

	got, err := owners.GetOwnerByAPIKey(ctx, apiKey)
	if err != nil {
		t.Fatalf("GetOwnerByAPIKey: %v", err)
	}
	if got != ownerID {
		t.Errorf("owner = %q, want %q", got, ownerID)
	}

	if _, err := owners.GetOwnerByAPIKey(ctx, "et_wrong"); !errors.Is(err, store.ErrUnknownAPIKey) {
		t.Errorf("err = %v, want ErrUnknownAPIKey", err)
	}
}

func TestPersonStore_CRUD(t *testing.T) {
	base, ownerID := setupTestBase(t)
	ps := store.NewPersonStore(base)
	ctx := context.Background()

	created, err := ps.Create(ctx, ownerID, models.Person{
		ID:       "p-ada",
		Name:     "Ada",
		Gender:   models.GenderFemale,
		Memories: []models.Memory{{ID: "m1", Text: "Taught me chess"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.OwnerID != ownerID || created.CreatedAt.IsZero() {
		t.Errorf("created = %+v, want owner and created_at set", created)
	}

	if _, err := ps.Create(ctx, ownerID, models.Person{ID: "p-ada", Name: "Again"}); !errors.Is(err, models.ErrDuplicateKey) {
		t.Errorf("duplicate create err = %v, want ErrDuplicateKey", err)
	}

	if err := ps.Update(ctx, ownerID, "p-ada", map[string]any{"summary": "Mathematician"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := ps.Update(ctx, ownerID, "missing", map[string]any{"summary": "x"}); !errors.Is(err, models.ErrPersonNotFound) {
		t.Errorf("update missing err = %v, want ErrPersonNotFound", err)
	}
	if err := ps.Update(ctx, ownerID, "p-ada", map[string]any{"nickname": "x"}); err == nil {
		t.Error("expected error for unknown field")
	}

	people, err := ps.List(ctx, ownerID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(people) != 1 || people[0].Summary != "Mathematician" || len(people[0].Memories) != 1 {
		t.Fatalf("List = %+v", people)
	}

	if err := ps.Delete(ctx, ownerID, "p-ada"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := ps.Delete(ctx, ownerID, "p-ada"); !errors.Is(err, models.ErrPersonNotFound) {
		t.Errorf("second delete err = %v, want ErrPersonNotFound", err)
	}
}

func TestPersonStore_BulkUpsertAndOrder(t *testing.T) {
	base, ownerID := setupTestBase(t)
	ps := store.NewPersonStore(base)
	ctx := context.Background()

	batch := []models.Person{
		{ID: "p3", Name: "Cora"},
		{ID: "p1", Name: "Alan"},
		{ID: "p2", Name: "Beth"},
	}
	out, err := ps.BulkUpsert(ctx, ownerID, batch)
	if err != nil {
		t.Fatalf("BulkUpsert: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("BulkUpsert returned %d rows, want 3", len(out))
	}

	batch[0].Name = "Cora Grey"
	if _, err := ps.BulkUpsert(ctx, ownerID, batch[:1]); err != nil {
		t.Fatalf("second BulkUpsert: %v", err)
	}

	people, err := ps.List(ctx, ownerID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"Alan", "Beth", "Cora Grey"}
	for i, p := range people {
		if p.Name != want[i] {
			t.Errorf("people[%d] = %q, want %q", i, p.Name, want[i])
		}
	}
}

func TestPersonStore_OwnerIsolation(t *testing.T) {
	base, ownerA := setupTestBase(t)
	_, ownerB := setupTestBase(t)
	ps := store.NewPersonStore(base)
	ctx := context.Background()

	if _, err := ps.Create(ctx, ownerA, models.Person{ID: "shared", Name: "A's"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	people, err := ps.List(ctx, ownerB)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(people) != 0 {
		t.Errorf("owner B sees %d people, want 0", len(people))
	}

	if _, err := ps.BulkUpsert(ctx, ownerB, []models.Person{{ID: "shared", Name: "B's"}}); !errors.Is(err, models.ErrDuplicateKey) {
		t.Errorf("cross-owner upsert err = %v, want ErrDuplicateKey", err)
	}
}

func TestTreeStore_HomeMustBeMember(t *testing.T) {
	base, ownerID := setupTestBase(t)
	ts := store.NewTreeStore(base)
	ctx := context.Background()

	if _, err := ts.Create(ctx, ownerID, models.Tree{ID: "t1", Name: "Greys", MemberIDs: []string{"a", "b"}}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := ts.Update(ctx, ownerID, "t1", map[string]any{"home_person_id": "b"}); err != nil {
		t.Fatalf("Update home: %v", err)
	}
	if err := ts.Update(ctx, ownerID, "t1", map[string]any{"home_person_id": "z"}); !errors.Is(err, models.ErrHomeNotMember) {
		t.Errorf("err = %v, want ErrHomeNotMember", err)
	}
	if err := ts.Update(ctx, ownerID, "t1", map[string]any{"home_person_id": nil}); err != nil {
		t.Fatalf("clearing home: %v", err)
	}

	trees, err := ts.List(ctx, ownerID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(trees) != 1 || trees[0].HomePersonID != nil {
		t.Errorf("trees = %+v, want one tree without home", trees)
	}
}

func TestTagStore_CascadeOnPostDelete(t *testing.T) {
	base, ownerID := setupTestBase(t)
	remote := store.NewRemote(base)
	ctx := context.Background()

	if _, err := remote.People().BulkUpsert(ctx, ownerID, []models.Person{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}); err != nil {
		t.Fatalf("BulkUpsert: %v", err)
	}
	if _, err := remote.Posts().Create(ctx, ownerID, models.Post{ID: "post1", Body: "Hello"}); err != nil {
		t.Fatalf("Create post: %v", err)
	}

	if err := remote.PostTags().Tag(ctx, ownerID, "post1", []string{"b", "a", "a"}); err != nil {
		t.Fatalf("Tag: %v", err)
	}
	if err := remote.PostTags().Tag(ctx, ownerID, "post1", []string{"ghost"}); !errors.Is(err, models.ErrPersonNotFound) {
		t.Errorf("tag unknown person err = %v, want ErrPersonNotFound", err)
	}

	tags := remote.PostTagStore()
	got, err := tags.TaggedPersons(ctx, ownerID, "post1")
	if err != nil {
		t.Fatalf("TaggedPersons: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("tagged = %v, want [a b]", got)
	}

	if err := remote.PostTags().Untag(ctx, ownerID, "post1", "a"); err != nil {
		t.Fatalf("Untag: %v", err)
	}
	if err := remote.Posts().Delete(ctx, ownerID, "post1"); err != nil {
		t.Fatalf("Delete post: %v", err)
	}

	got, err = tags.TaggedPersons(ctx, ownerID, "post1")
	if err != nil {
		t.Fatalf("TaggedPersons after delete: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("tags survived post delete: %v", got)
	}
}

func TestFailureStore_RecordAndList(t *testing.T) {
	base, ownerID := setupTestBase(t)
	fs := store.NewFailureStore(base)
	ctx := context.Background()

	for _, kind := range []string{"person", "tree", "person"} {
		err := fs.RecordFailure(ctx, ownerID, models.SyncFailure{Kind: kind, Op: "update", EntityIDs: []string{"x"}, Chunk: -1, Message: "boom"})
		if err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	got, hasMore, err := fs.ListFailures(ctx, ownerID, models.SyncFailureQuery{Kind: "person", Limit: 1})
	if err != nil {
		t.Fatalf("ListFailures: %v", err)
	}
	if len(got) != 1 || !hasMore {
		t.Errorf("got %d failures, hasMore = %v; want 1, true", len(got), hasMore)
	}
	if got[0].Kind != "person" || got[0].Chunk != -1 {
		t.Errorf("failure = %+v", got[0])
	}
}
