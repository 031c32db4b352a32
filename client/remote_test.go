package client_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/client"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/api"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/memstore"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/reconcile"
)

const ownerID = "00000000-0000-0000-0000-0000000000aa"

type staticLookup struct{}

func (staticLookup) GetOwnerByAPIKey(_ context.Context, _ string) (string, error) {
	return ownerID, nil
}

func TestRemote_DrivesReconcileCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := memstore.New()
	srv := httptest.NewServer(api.NewRouter(ctx, &api.RouterDeps{
		Log:         log,
		Store:       store,
		PostTags:    store.PostTagTable(),
		MediaTags:   store.MediaTagTable(),
		OwnerLookup: staticLookup{},
		Version:     "test",
	}))
	t.Cleanup(srv.Close)

	c := client.New(srv.URL, client.WithAPIKey("et_test"))
	cache := reconcile.New(client.Remote(c), ownerID, log)
	t.Cleanup(cache.Close)

	cache.People.Mutate(func(people []models.Person) []models.Person {
		return append(people,
			models.Person{ID: "a", OwnerID: ownerID, Name: "Alan"},
			models.Person{ID: "b", OwnerID: ownerID, Name: "Beth"},
		)
	})
	if _, err := cache.Posts.CreateOptimistic(models.Post{ID: "post1", OwnerID: ownerID, Body: "Reunion"}); err != nil {
		t.Fatalf("CreateOptimistic: %v", err)
	}
	cache.Wait()
	if err := cache.TagPost("post1", []string{"a", "b"}); err != nil {
		t.Fatalf("TagPost: %v", err)
	}
	cache.Wait()

	people, err := store.People().List(ctx, ownerID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(people) != 2 {
		t.Fatalf("stored people = %d, want 2", len(people))
	}
	if got := store.TaggedPersons("post1"); len(got) != 2 {
		t.Errorf("tagged = %v, want [a b]", got)
	}

	summary := "Grandfather"
	cache.People.Mutate(func(people []models.Person) []models.Person {
		for i := range people {
			if people[i].ID == "a" {
				people[i].Summary = summary
			}
		}
		return people
	})
	cache.Wait()

	updates := store.CallsFor("person", "update")
	if len(updates) != 1 || updates[0].Fields["summary"] != summary {
		t.Errorf("updates = %+v, want one summary update", updates)
	}

	select {
	case err := <-cache.Errors():
		t.Errorf("unexpected reconcile error: %v", err)
	default:
	}
}
