package auth

import (
	"testing"
	"time"
)

func TestSessionCreateAndResolve(t *testing.T) {
	store := NewSessionStore(time.Hour)

	session := store.Create("alice", "crab")
	if session.Token == "" {
		t.Fatal("empty token")
	}

	resolved, ok := store.Resolve(session.Token)
	if !ok {
		t.Fatal("session not found")
	}
	if resolved.Username != "alice" || resolved.AvatarID != "crab" {
		t.Fatalf("resolved = %+v", resolved)
	}
}

func TestSessionTokensAreUnique(t *testing.T) {
	store := NewSessionStore(time.Hour)
	a := store.Create("alice", "crab")
	b := store.Create("alice", "crab")
	if a.Token == b.Token {
		t.Fatal("two sessions share a token")
	}
	if store.len() != 2 {
		t.Fatalf("len = %d", store.len())
	}
}

func TestSessionExpiryPrunes(t *testing.T) {
	store := NewSessionStore(time.Minute)
	current := time.Now()
	store.now = func() time.Time { return current }

	session := store.Create("alice", "crab")

	current = current.Add(2 * time.Minute)
	if _, ok := store.Resolve(session.Token); ok {
		t.Fatal("expired session resolved")
	}
	if store.len() != 0 {
		t.Fatalf("expired session not pruned, len = %d", store.len())
	}
}

func TestSessionRevoke(t *testing.T) {
	store := NewSessionStore(time.Hour)
	session := store.Create("alice", "crab")

	store.Revoke(session.Token)
	if _, ok := store.Resolve(session.Token); ok {
		t.Fatal("revoked session resolved")
	}

	store.Revoke("never-issued")
}

func TestSessionUnknownToken(t *testing.T) {
	store := NewSessionStore(time.Hour)
	if _, ok := store.Resolve("nope"); ok {
		t.Fatal("resolved a token that was never issued")
	}
}
