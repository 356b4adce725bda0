package db

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ldi/taskboard/pkg/models"
)

func TestSnapshotRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seed := []*models.Task{
		{Title: "keep me", Description: "survives export", Status: models.StatusTodo, Priority: models.PriorityHigh, Assignees: []string{"ann"}},
		{Title: "me too", Status: models.StatusDone, Priority: models.PriorityLow},
	}
	for _, task := range seed {
		if err := db.InsertTask(ctx, task); err != nil {
			t.Fatalf("Failed to insert task: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	if err := db.ExportSnapshot(ctx, path); err != nil {
		t.Fatalf("Failed to export snapshot: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 snapshot lines, got %d", len(lines))
	}

	// Import into a fresh database and compare
	other := openTestDB(t)
	if err := other.ImportSnapshot(ctx, path); err != nil {
		t.Fatalf("Failed to import snapshot: %v", err)
	}

	restored, err := other.FindTask(ctx, seed[0].ID)
	if err != nil {
		t.Fatalf("Failed to get restored task: %v", err)
	}
	if restored == nil {
		t.Fatalf("Restored task not found")
	}
	if restored.Title != "keep me" || restored.Priority != models.PriorityHigh {
		t.Errorf("Restored task mismatch: %+v", restored)
	}
	if len(restored.Assignees) != 1 || restored.Assignees[0] != "ann" {
		t.Errorf("Expected assignees to survive the round trip, got %v", restored.Assignees)
	}
	if !restored.CreatedAt.Equal(seed[0].CreatedAt) {
		t.Errorf("Expected created_at preserved, got %v vs %v", restored.CreatedAt, seed[0].CreatedAt)
	}
}

func TestImportSnapshotReplacesExisting(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	task := &models.Task{Title: "exported", Status: models.StatusTodo, Priority: models.PriorityMedium}
	if err := db.InsertTask(ctx, task); err != nil {
		t.Fatalf("Failed to insert task: %v", err)
	}

	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	if err := db.ExportSnapshot(ctx, path); err != nil {
		t.Fatalf("Failed to export snapshot: %v", err)
	}

	stray := &models.Task{Title: "stray", Status: models.StatusTodo, Priority: models.PriorityMedium}
	if err := db.InsertTask(ctx, stray); err != nil {
		t.Fatalf("Failed to insert stray task: %v", err)
	}

	if err := db.ImportSnapshot(ctx, path); err != nil {
		t.Fatalf("Failed to import snapshot: %v", err)
	}

	tasks, err := db.FindAllTasks(ctx, TaskFilters{})
	if err != nil {
		t.Fatalf("Failed to list tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "exported" {
		t.Errorf("Expected import to replace the table, got %d tasks", len(tasks))
	}
}

func TestAutoSnapshot(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	db.EnableAutoSnapshot(path)

	task := &models.Task{Title: "auto", Status: models.StatusTodo, Priority: models.PriorityMedium}
	if err := db.InsertTask(ctx, task); err != nil {
		t.Fatalf("Failed to insert task: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected auto-snapshot file after write: %v", err)
	}
	if !strings.Contains(string(data), `"auto"`) {
		t.Errorf("Expected snapshot to contain the new task, got %s", data)
	}
}
