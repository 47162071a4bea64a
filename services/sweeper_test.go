package services

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSweepRemovesOldOrphans(t *testing.T) {
	svc, db, store := newTestService(t)

	// Referenzierte Datei über eine echte Submission anlegen.
	result, err := svc.Submit(context.Background(), fullInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	referenced := store.Path(result.ExperienceID, "pdd_6mv.csv")

	// Verwaiste Datei, wie sie ein Absturz zwischen Dateischreiben und
	// Rollback hinterlassen würde.
	orphan, err := store.Save(9999, "crashed.csv", []byte("x\n"))
	if err != nil {
		t.Fatalf("save orphan: %v", err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(orphan, old, old); err != nil {
		t.Fatalf("age orphan: %v", err)
	}

	sweeper := NewSweeper(db, store, zap.NewNop(), time.Hour)
	removed, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 file removed, got %d", removed)
	}
	if store.Exists(orphan) {
		t.Fatalf("orphan still present: %s", orphan)
	}
	if !store.Exists(referenced) {
		t.Fatalf("referenced file was removed: %s", referenced)
	}
}

func TestSweepSkipsRecentFiles(t *testing.T) {
	_, db, store := newTestService(t)

	// Frische Datei: könnte zu einer gerade laufenden Submission gehören.
	orphan, err := store.Save(1, "in_flight.csv", []byte("x\n"))
	if err != nil {
		t.Fatalf("save orphan: %v", err)
	}

	sweeper := NewSweeper(db, store, zap.NewNop(), time.Hour)
	removed, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected no removals, got %d", removed)
	}
	if !store.Exists(orphan) {
		t.Fatalf("recent file was removed: %s", orphan)
	}
}
