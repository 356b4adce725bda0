package db

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ldi/taskboard/pkg/models"
)

// EnableAutoSnapshot sets up a hook that exports a snapshot to the given
// path after every successful write operation.
func (db *DB) EnableAutoSnapshot(path string) {
	db.SetOnChange(func(ctx context.Context) {
		// Best-effort: a failed export must not fail the original write.
		_ = db.ExportSnapshot(ctx, path)
	})
}

// ExportSnapshot writes every task as one JSON line, atomically via a
// temporary file in the target directory.
func (db *DB) ExportSnapshot(ctx context.Context, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "snapshot-*.jsonl")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempFile.Name())
		}
	}()

	rows, err := db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		ORDER BY id
	`)
	if err != nil {
		return fmt.Errorf("failed to query snapshot rows: %w", err)
	}
	defer rows.Close()

	enc := json.NewEncoder(tempFile)
	for rows.Next() {
		t := &models.Task{}
		var assignees string
		err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Link, &assignees,
			&t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		if err := unmarshalAssignees(assignees, &t.Assignees); err != nil {
			return err
		}
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("failed to write snapshot line: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	filename := tempFile.Name()
	tempFile = nil // Prevent defer from removing it

	if err := os.Rename(filename, path); err != nil {
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}

	return nil
}

// ImportSnapshot replaces the tasks table with the contents of a snapshot
// file, preserving ids and timestamps. The onChange hook is suppressed for
// the duration so an auto-snapshot cannot overwrite the file being read.
func (db *DB) ImportSnapshot(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	db.DisableOnChange()
	defer db.EnableOnChange()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("failed to clear tasks: %w", err)
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var t models.Task
		if err := json.Unmarshal(line, &t); err != nil {
			return fmt.Errorf("failed to parse snapshot line: %w", err)
		}

		assignees, err := marshalAssignees(t.Assignees)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO tasks (id, title, description, status, priority, link, assignees, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, t.Title, t.Description, t.Status, t.Priority, t.Link, assignees, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot task: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot import: %w", err)
	}

	return nil
}
