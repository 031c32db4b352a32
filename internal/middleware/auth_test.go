package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockOwnerLookup struct {
	mu        sync.Mutex
	calls     int
	validKeys map[string]string
}

func (m *mockOwnerLookup) GetOwnerByAPIKey(_ context.Context, apiKey string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if oid, ok := m.validKeys[apiKey]; ok {
		return oid, nil
	}
	return "", errors.New("invalid key")
}

func (m *mockOwnerLookup) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestAuthMiddleware(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	lookup := &mockOwnerLookup{validKeys: map[string]string{"good-key": "owner-1"}}

	tests := []struct {
		name       string
		authHeader string
		wantCode   int
	}{
		{"valid token", "Bearer good-key", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"invalid token", "Bearer bad-key", http.StatusUnauthorized},
		{"no bearer prefix", "good-key", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(middleware.AuthMiddleware(lookup, log))
			r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("got %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestAuthMiddleware_SetsOwnerID(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	lookup := &mockOwnerLookup{validKeys: map[string]string{"k1": "o1"}}

	var gotOwner string
	r := gin.New()
	r.Use(middleware.AuthMiddleware(lookup, log))
	r.GET("/test", func(c *gin.Context) {
		gotOwner = c.GetString(middleware.OwnerIDKey)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer k1")
	r.ServeHTTP(w, req)

	if gotOwner != "o1" {
		t.Fatalf("expected owner_id=o1, got %q", gotOwner)
	}
}

func TestCachedOwnerLookup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inner := &mockOwnerLookup{validKeys: map[string]string{"k1": "o1"}}
	cached := middleware.NewCachedOwnerLookup(ctx, inner)

	for range 3 {
		got, err := cached.GetOwnerByAPIKey(ctx, "k1")
		if err != nil || got != "o1" {
			t.Fatalf("GetOwnerByAPIKey = %q, %v", got, err)
		}
	}
	for range 3 {
		if _, err := cached.GetOwnerByAPIKey(ctx, "nope"); err == nil {
			t.Fatal("expected error for unknown key")
		}
	}

	if got := inner.callCount(); got != 2 {
		t.Errorf("inner lookups = %d, want 2 (one hit, one miss)", got)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"abc123", ""},
		{"", ""},
		{"Bearer ", ""},
		{"bearer abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			got := middleware.ExtractBearerToken(c)
			if got != tt.want {
				t.Errorf("ExtractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestRequestIDAndBodyLimit(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	r := gin.New()
	r.Use(middleware.RequestID(log), middleware.BodyLimit(8, map[string]int64{"/import": 64}))
	echo := func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, c.GetString(middleware.RequestIDKey))
	}
	r.POST("/echo", echo)
	r.POST("/import", echo)

	tests := []struct {
		name      string
		path      string
		body      string
		header    string
		wantCode  int
		wantKeeps bool
	}{
		{name: "non-uuid id replaced", path: "/echo", header: "client-id", wantCode: http.StatusOK},
		{name: "uuid id kept", path: "/echo", header: "6f1c2b9e-3d4a-4c5b-8e7f-0a1b2c3d4e5f", wantCode: http.StatusOK, wantKeeps: true},
		{name: "oversized body", path: "/echo", body: "this body is too long", wantCode: http.StatusRequestEntityTooLarge},
		{name: "route limit", path: "/import", body: "this body is too long", wantCode: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
			if tc.header != "" {
				req.Header.Set(middleware.RequestIDHeader, tc.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantCode)
			}
			got := w.Header().Get(middleware.RequestIDHeader)
			if got == "" {
				t.Fatal("missing request id header")
			}
			if (got == tc.header) != tc.wantKeeps {
				t.Errorf("request id = %q, client sent %q", got, tc.header)
			}
			if tc.wantCode == http.StatusOK && got != w.Body.String() {
				t.Errorf("header %q differs from context id %q", got, w.Body.String())
			}
		})
	}
}
