package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/api"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/memstore"
)

func TestTagHandler_TagListUntag(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	h := api.NewTagHandler(store.PostTagTable(), "post_tags", testLogger())
	r := newTestRouter()
	r.GET("/posts/:id/tags", h.List)
	r.PUT("/posts/:id/tags", h.Tag)
	r.DELETE("/posts/:id/tags/:person", h.Untag)

	w := doRequest(r, http.MethodPut, "/posts/post1/tags", `{"person_ids":["b","a","a",""]}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("tag: expected 204, got %d: %s", w.Code, w.Body.String())
	}

	calls := store.CallsFor("post_tags", "tag")
	if len(calls) != 1 || len(calls[0].IDs) != 2 {
		t.Fatalf("tag calls = %+v, want one call with 2 deduplicated ids", calls)
	}

	if w := doRequest(r, http.MethodDelete, "/posts/post1/tags/a", ""); w.Code != http.StatusNoContent {
		t.Fatalf("untag: expected 204, got %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/posts/post1/tags", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}

	var body struct {
		PersonIDs []string `json:"person_ids"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.PersonIDs) != 1 || body.PersonIDs[0] != "b" {
		t.Errorf("person_ids = %v, want [b]", body.PersonIDs)
	}
}

func TestTagHandler_RejectsEmpty(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	h := api.NewTagHandler(store.MediaTagTable(), "media_tags", testLogger())
	r := newTestRouter()
	r.PUT("/media/:id/tags", h.Tag)

	tests := []struct {
		name string
		body string
	}{
		{name: "no ids", body: `{"person_ids":[]}`},
		{name: "only blanks", body: `{"person_ids":["",""]}`},
		{name: "malformed", body: `{"person_ids":`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPut, "/media/m1/tags", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}

	if got := len(store.Calls()); got != 0 {
		t.Errorf("store calls = %d, want 0", got)
	}
}
