package similarity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSearchSendsRequestAndParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rag" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		var req struct {
			Query       string   `json:"query"`
			Collections []string `json:"collections"`
			TopK        int      `json:"top_k"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "\"Artist X\" tour" || len(req.Collections) != 2 || req.TopK != 6 {
			t.Fatalf("unexpected request: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"source":"reddit_embeddings","document":"great show","metadata":{"id":"r1"},"distance":0.12}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", 5*time.Second)
	docs, err := c.Search(context.Background(), "\"Artist X\" tour", []string{"a", "b"}, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].Source != "reddit_embeddings" || docs[0].Distance != 0.12 {
		t.Fatalf("unexpected docs: %+v", docs)
	}
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	docs, err := c.Search(context.Background(), "q", nil, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected empty result, got %d docs", len(docs))
	}
}

func TestSearchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	if _, err := c.Search(context.Background(), "q", nil, 6); err == nil {
		t.Fatalf("expected error for non-200 status")
	}
}
