package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/api"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/memstore"
)

func TestNewRouter_Auth(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := memstore.New()
	handler := api.NewRouter(ctx, &api.RouterDeps{
		Log:         testLogger(),
		Store:       store,
		PostTags:    store.PostTagTable(),
		MediaTags:   store.MediaTagTable(),
		OwnerLookup: &mockOwnerLookup{keys: map[string]string{"et_good": testOwnerID}},
		Version:     "test",
	})

	tests := []struct {
		name     string
		method   string
		path     string
		key      string
		body     string
		wantCode int
	}{
		{name: "health is public", method: http.MethodGet, path: "/api/v1/health", wantCode: http.StatusOK},
		{name: "missing key", method: http.MethodGet, path: "/api/v1/people", wantCode: http.StatusUnauthorized},
		{name: "wrong key", method: http.MethodGet, path: "/api/v1/people", key: "et_bad", wantCode: http.StatusUnauthorized},
		{name: "whoami", method: http.MethodGet, path: "/api/v1/owner", key: "et_good", wantCode: http.StatusOK},
		{name: "list people", method: http.MethodGet, path: "/api/v1/people", key: "et_good", wantCode: http.StatusOK},
		{name: "create tree", method: http.MethodPost, path: "/api/v1/trees", key: "et_good", body: `{"name":"Greys"}`, wantCode: http.StatusCreated},
		{name: "tag post", method: http.MethodPut, path: "/api/v1/posts/p1/tags", key: "et_good", body: `{"person_ids":["a"]}`, wantCode: http.StatusNoContent},
		{name: "import not wired", method: http.MethodPost, path: "/api/v1/import/gedcom", key: "et_good", wantCode: http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req *http.Request
			if tc.body != "" {
				req = httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tc.method, tc.path, http.NoBody)
			}
			if tc.key != "" {
				req.Header.Set("Authorization", "Bearer "+tc.key)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tc.wantCode {
				t.Errorf("expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
		})
	}
}
