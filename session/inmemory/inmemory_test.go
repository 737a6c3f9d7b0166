package inmemory

import (
	"testing"
	"time"

	"github.com/limelight-ai/limelight/session"
)

func TestEnsureSessionReusesExistingID(t *testing.T) {
	store := NewInMemorySessionStore()
	first, err := store.EnsureSession("user-1", time.Minute)
	if err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if err := first.AddQuery("q1"); err != nil {
		t.Fatalf("AddQuery: %v", err)
	}
	again, err := store.EnsureSession("user-1", time.Minute)
	if err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if got := again.RecentQueries(); len(got) != 1 || got[0] != "q1" {
		t.Fatalf("history lost across EnsureSession: %v", got)
	}
}

func TestEnsureSessionGeneratesIDWhenEmpty(t *testing.T) {
	store := NewInMemorySessionStore()
	sess, err := store.EnsureSession("", time.Minute)
	if err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if sess.ID() == "" {
		t.Fatalf("expected generated session id")
	}
}

func TestRecentQueriesKeepsLastThree(t *testing.T) {
	store := NewInMemorySessionStore()
	sess, _ := store.EnsureSession("user-2", time.Minute)
	for _, q := range []string{"a", "b", "c", "d", "e"} {
		if err := sess.AddQuery(q); err != nil {
			t.Fatalf("AddQuery: %v", err)
		}
	}
	got := sess.RecentQueries()
	if len(got) != session.HistoryLimit {
		t.Fatalf("history length = %d, want %d", len(got), session.HistoryLimit)
	}
	want := []string{"c", "d", "e"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("history = %v, want %v", got, want)
		}
	}
}

func TestGetSessionMissing(t *testing.T) {
	store := NewInMemorySessionStore()
	sess, err := store.GetSession("never-seen")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess != nil {
		t.Fatalf("expected nil session for unknown id")
	}
}

func TestGetSessionExpired(t *testing.T) {
	store := NewInMemorySessionStore()
	if _, err := store.EnsureSession("user-3", -time.Second); err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	sess, err := store.GetSession("user-3")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess != nil {
		t.Fatalf("expected expired session to be invisible")
	}
}
