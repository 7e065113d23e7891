package store

import (
	"database/sql"
	"errors"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := InitSchema(db); err != nil {
		t.Fatal(err)
	}
	return &Store{DB: db, MaxExchanges: 5}
}

func TestLoad_NotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Load(42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreate_ThenLoad(t *testing.T) {
	s := setupTestStore(t)

	created, err := s.Create(42, "alice", "de")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Language != "de" {
		t.Errorf("expected language de, got %q", created.Language)
	}

	loaded, err := s.Load(42)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Identity != 42 || loaded.DisplayName != "alice" {
		t.Fatalf("unexpected loaded profile: %+v", loaded)
	}
	if loaded.HasActiveTopic() {
		t.Error("fresh profile must not have an active topic")
	}
	if len(loaded.Topics) != 0 {
		t.Errorf("fresh profile must have no topics, got %d", len(loaded.Topics))
	}
	if loaded.MaxExchanges != 5 {
		t.Errorf("expected MaxExchanges stamped from store, got %d", loaded.MaxExchanges)
	}
}

func TestPersist_RoundTripTopicsAndActive(t *testing.T) {
	s := setupTestStore(t)

	p, err := s.Create(7, "bob", "en")
	if err != nil {
		t.Fatal(err)
	}
	p.CreateTopic("work")
	p.CreateTopic("cooking")
	if err := p.ActivateTopic("work"); err != nil {
		t.Fatal(err)
	}
	p.AppendAndTruncate("work", "hi")
	p.AppendAndTruncate("work", "hello there")
	p.PreferredModel = "gpt-4o"
	if err := s.Persist(p); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	loaded, err := s.Load(7)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	names := loaded.TopicNames()
	if len(names) != 2 || names[0] != "work" || names[1] != "cooking" {
		t.Fatalf("topic order not preserved: %v", names)
	}
	if loaded.ActiveTopic != "work" {
		t.Errorf("expected active topic work, got %q", loaded.ActiveTopic)
	}
	history := loaded.HistoryOf("work")
	if len(history) != 2 || history[0] != "hi" || history[1] != "hello there" {
		t.Fatalf("history not preserved: %v", history)
	}
	if loaded.PreferredModel != "gpt-4o" {
		t.Errorf("expected preferred model preserved, got %q", loaded.PreferredModel)
	}
}

func TestPersist_OverwritesWholesale(t *testing.T) {
	s := setupTestStore(t)

	p, err := s.Create(9, "carol", "en")
	if err != nil {
		t.Fatal(err)
	}
	p.CreateTopic("work")
	if err := s.Persist(p); err != nil {
		t.Fatal(err)
	}
	if err := p.DeleteTopic("work"); err != nil {
		t.Fatal(err)
	}
	if err := s.Persist(p); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load(9)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Topics) != 0 {
		t.Fatalf("expected deleted topic gone after persist, got %v", loaded.TopicNames())
	}
}

func TestPersist_SurfacesFailure(t *testing.T) {
	s := setupTestStore(t)
	p, err := s.Create(3, "dave", "en")
	if err != nil {
		t.Fatal(err)
	}
	s.DB.Close()
	if err := s.Persist(p); err == nil {
		t.Fatal("expected persist error after close, got nil")
	}
}
