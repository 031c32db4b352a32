package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/api"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

func TestFailureHandler_List(t *testing.T) {
	t.Parallel()

	repo := &mockFailureRepo{
		listed:  []models.SyncFailure{{ID: 7, Kind: "person", Op: "update", Chunk: -1, Message: "boom"}},
		hasMore: true,
	}
	h := api.NewFailureHandler(repo, testLogger())
	r := newTestRouter()
	r.GET("/sync-failures", h.List)

	w := doRequest(r, http.MethodGet, "/sync-failures?kind=person&limit=5&since=2024-05-01T00:00:00Z", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Failures []models.SyncFailure `json:"failures"`
		HasMore  bool                 `json:"has_more"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.Failures) != 1 || !body.HasMore {
		t.Errorf("body = %+v, want one failure and has_more", body)
	}
	if repo.lastQ.Kind != "person" || repo.lastQ.Limit != 5 || repo.lastQ.Since == nil {
		t.Errorf("query = %+v", repo.lastQ)
	}

	if w := doRequest(r, http.MethodGet, "/sync-failures?since=yesterday", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad since: expected 400, got %d", w.Code)
	}
}

func TestFailureHandler_Record(t *testing.T) {
	t.Parallel()

	repo := &mockFailureRepo{}
	h := api.NewFailureHandler(repo, testLogger())
	r := newTestRouter()
	r.POST("/sync-failures", h.Record)

	w := doRequest(r, http.MethodPost, "/sync-failures", `{"kind":"tree","op":"create","entity_ids":["t1"],"chunk":-1,"message":"timeout"}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if len(repo.recorded) != 1 || repo.recorded[0].OccurredAt.IsZero() {
		t.Errorf("recorded = %+v, want one failure with a timestamp", repo.recorded)
	}

	if w := doRequest(r, http.MethodPost, "/sync-failures", `{"op":"create"}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing kind: expected 400, got %d", w.Code)
	}
}
