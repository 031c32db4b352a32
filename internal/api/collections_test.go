package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/api"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/memstore"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

func newPeopleRouter(store *memstore.Store) http.Handler {
	h := api.NewPersonHandler(store.People(), testLogger())
	r := newTestRouter()
	r.GET("/people", h.List)
	r.POST("/people", h.Create)
	r.POST("/bulk/people", h.BulkUpsert)
	r.PATCH("/people/:id", h.Update)
	r.DELETE("/people/:id", h.Delete)

	return r
}

func TestPersonHandler_CreateAndList(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	r := newPeopleRouter(store)

	w := doRequest(r, http.MethodPost, "/people", `{"id":"p1","name":"Ada"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodPost, "/people", `{"name":"Bea"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create without id: expected 201, got %d", w.Code)
	}

	var created models.Person
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if created.ID == "" {
		t.Error("expected a generated id")
	}

	w = doRequest(r, http.MethodGet, "/people", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}

	var body struct {
		People []models.Person `json:"people"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.People) != 2 || body.People[0].Name != "Ada" || body.People[1].Name != "Bea" {
		t.Errorf("people = %+v, want Ada then Bea", body.People)
	}
}

func TestPersonHandler_ListEmpty(t *testing.T) {
	t.Parallel()

	r := newPeopleRouter(memstore.New())

	w := doRequest(r, http.MethodGet, "/people", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != `{"people":[]}` {
		t.Errorf("body = %s, want empty list", got)
	}
}

func TestPersonHandler_CreateErrors(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	r := newPeopleRouter(store)
	doRequest(r, http.MethodPost, "/people", `{"id":"p1","name":"Ada"}`)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{name: "malformed json", body: `{"id":`, wantCode: http.StatusBadRequest},
		{name: "missing name", body: `{"id":"p2"}`, wantCode: http.StatusBadRequest},
		{name: "bad gender", body: `{"id":"p2","name":"X","gender":"other"}`, wantCode: http.StatusBadRequest},
		{name: "duplicate id", body: `{"id":"p1","name":"Again"}`, wantCode: http.StatusConflict},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/people", tc.body)
			if w.Code != tc.wantCode {
				t.Errorf("expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestPersonHandler_Update(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	r := newPeopleRouter(store)
	doRequest(r, http.MethodPost, "/people", `{"id":"p1","name":"Ada"}`)

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
	}{
		{name: "ok", path: "/people/p1", body: `{"summary":"Mathematician"}`, wantCode: http.StatusNoContent},
		{name: "empty patch", path: "/people/p1", body: `{}`, wantCode: http.StatusBadRequest},
		{name: "unknown field", path: "/people/p1", body: `{"nickname":"A"}`, wantCode: http.StatusBadRequest},
		{name: "missing person", path: "/people/nope", body: `{"summary":"x"}`, wantCode: http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPatch, tc.path, tc.body)
			if w.Code != tc.wantCode {
				t.Errorf("expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
		})
	}

	people, err := store.People().List(context.Background(), testOwnerID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if people[0].Summary != "Mathematician" {
		t.Errorf("summary = %q, want Mathematician", people[0].Summary)
	}
}

func TestPersonHandler_Delete(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	r := newPeopleRouter(store)
	doRequest(r, http.MethodPost, "/people", `{"id":"p1","name":"Ada"}`)

	if w := doRequest(r, http.MethodDelete, "/people/p1", ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := doRequest(r, http.MethodDelete, "/people/p1", ""); w.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", w.Code)
	}
}

func TestPersonHandler_BulkUpsert(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	r := newPeopleRouter(store)

	w := doRequest(r, http.MethodPost, "/bulk/people", `{"people":[{"id":"a","name":"A"},{"id":"b","name":"B"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		People []models.Person `json:"people"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.People) != 2 {
		t.Errorf("expected 2 people, got %d", len(body.People))
	}

	w = doRequest(r, http.MethodPost, "/bulk/people", `{"people":[{"id":"c"}]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid item: expected 400, got %d", w.Code)
	}
	if got := len(store.CallsFor("person", "bulk_upsert")); got != 1 {
		t.Errorf("bulk upserts = %d, want 1", got)
	}
}

func TestPersonHandler_StoreFailure(t *testing.T) {
	t.Parallel()

	repo := &mockPersonRepo{
		listFn: func(_ context.Context, _ string) ([]models.Person, error) {
			return nil, errors.New("connection reset")
		},
	}
	h := api.NewPersonHandler(repo, testLogger())
	r := newTestRouter()
	r.GET("/people", h.List)

	w := doRequest(r, http.MethodGet, "/people", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["code"] != api.ErrCodeInternalError {
		t.Errorf("code = %q, want %q", body["code"], api.ErrCodeInternalError)
	}
}

func TestTreeHandler_HomeMustBeMember(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	h := api.NewTreeHandler(store.Trees(), testLogger())
	r := newTestRouter()
	r.POST("/trees", h.Create)
	r.PATCH("/trees/:id", h.Update)

	w := doRequest(r, http.MethodPost, "/trees", `{"id":"t1","name":"Greys","member_ids":["a","b"],"home_person_id":"z"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("create with outside home: expected 400, got %d", w.Code)
	}

	w = doRequest(r, http.MethodPost, "/trees", `{"id":"t1","name":"Greys","member_ids":["a","b"]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if w := doRequest(r, http.MethodPatch, "/trees/t1", `{"home_person_id":"b"}`); w.Code != http.StatusNoContent {
		t.Errorf("set home: expected 204, got %d", w.Code)
	}
	if w := doRequest(r, http.MethodPatch, "/trees/t1", `{"home_person_id":"z"}`); w.Code != http.StatusBadRequest {
		t.Errorf("set outside home: expected 400, got %d", w.Code)
	}
}
