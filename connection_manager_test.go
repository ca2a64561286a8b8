package main

import (
	"testing"
)

func TestConnectionManagerSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cm, err := NewConnectionManager(0)
	if err != nil {
		t.Fatalf("NewConnectionManager: %v", err)
	}

	if err := cm.SaveConnection(&ConnectionInfo{
		Name: "prod", Type: ConnectionPostgres, Host: "db", Port: 5432, Database: "app",
	}); err != nil {
		t.Fatalf("SaveConnection: %v", err)
	}
	if err := cm.SaveConnection(&ConnectionInfo{
		Name: "local", Type: ConnectionSQLite, Path: "/tmp/app.db",
	}); err != nil {
		t.Fatalf("SaveConnection: %v", err)
	}

	// A fresh manager reloads from disk.
	cm2, err := NewConnectionManager(0)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	saved := cm2.GetSavedConnections()
	if len(saved) != 2 {
		t.Fatalf("expected 2 saved connections, got %d", len(saved))
	}
	// Sorted case-insensitively by name.
	if saved[0].Name != "local" || saved[1].Name != "prod" {
		t.Fatalf("unexpected order: %q, %q", saved[0].Name, saved[1].Name)
	}
	if saved[1].Host != "db" || saved[1].Database != "app" {
		t.Fatalf("profile fields lost: %+v", saved[1])
	}
}

func TestConnectionManagerReturnsCopies(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cm, err := NewConnectionManager(0)
	if err != nil {
		t.Fatalf("NewConnectionManager: %v", err)
	}
	if err := cm.SaveConnection(&ConnectionInfo{Name: "a", Type: ConnectionSQLite, Path: "/x"}); err != nil {
		t.Fatalf("SaveConnection: %v", err)
	}

	saved := cm.GetSavedConnections()
	saved[0].Path = "/mutated"
	if cm.GetSavedConnections()[0].Path != "/x" {
		t.Fatalf("GetSavedConnections must hand out copies")
	}
}

func TestConnectionManagerDelete(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cm, err := NewConnectionManager(0)
	if err != nil {
		t.Fatalf("NewConnectionManager: %v", err)
	}
	if err := cm.SaveConnection(&ConnectionInfo{Name: "gone", Type: ConnectionSQLite, Path: "/x"}); err != nil {
		t.Fatalf("SaveConnection: %v", err)
	}
	if err := cm.DeleteConnection("gone"); err != nil {
		t.Fatalf("DeleteConnection: %v", err)
	}
	if len(cm.GetSavedConnections()) != 0 {
		t.Fatalf("connection not deleted")
	}

	cm2, err := NewConnectionManager(0)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(cm2.GetSavedConnections()) != 0 {
		t.Fatalf("deletion not persisted")
	}
}

func TestConnectionManagerDefaultsMissingType(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cm, err := NewConnectionManager(0)
	if err != nil {
		t.Fatalf("NewConnectionManager: %v", err)
	}
	if err := cm.SaveConnection(&ConnectionInfo{Name: "untyped", Host: "h", Database: "d"}); err != nil {
		t.Fatalf("SaveConnection: %v", err)
	}

	cm2, err := NewConnectionManager(0)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := cm2.GetSavedConnections()[0].Type; got != ConnectionPostgres {
		t.Fatalf("missing type should default to postgres, got %q", got)
	}
}

func TestConnectionManagerAdoptClosesReplaced(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cm, err := NewConnectionManager(0)
	if err != nil {
		t.Fatalf("NewConnectionManager: %v", err)
	}

	first := &Conn{}
	second := &Conn{}
	cm.Adopt("db", first)
	cm.Adopt("db", second)

	got, ok := cm.GetConnection("db")
	if !ok || got != second {
		t.Fatalf("Adopt should replace the tracked connection")
	}
	if names := cm.GetConnectionNames(); len(names) != 1 || names[0] != "db" {
		t.Fatalf("names = %v", names)
	}

	if err := cm.Disconnect("db"); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if _, ok := cm.GetConnection("db"); ok {
		t.Fatalf("connection should be dropped after disconnect")
	}
}
