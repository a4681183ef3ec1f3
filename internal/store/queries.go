package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tormodhaugland/planner/internal/pathpolicy"
)

const keyProjectRoot = "project_root"

// PlanRecord is a locally remembered generated plan
type PlanRecord struct {
	PlanID        string     `json:"plan_id"`
	Title         string     `json:"title"`
	ProjectRoot   string     `json:"project_root"`
	Prompt        string     `json:"prompt,omitempty"`
	ChangeCount   int        `json:"change_count"`
	CreatedAt     time.Time  `json:"created_at"`
	LastStatus    string     `json:"last_status,omitempty"`
	LastAppliedAt *time.Time `json:"last_applied_at,omitempty"`
}

// ProjectRoot returns the committed project root, or "" when none is set.
func (db *DB) ProjectRoot() (string, error) {
	var v string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", keyProjectRoot).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting project root: %w", err)
	}
	return v, nil
}

// SetProjectRoot commits root as the project root and records it as
// recently used. An empty root clears the setting.
func (db *DB) SetProjectRoot(root string) error {
	root = pathpolicy.Normalize(root)
	if root == pathpolicy.Empty {
		if _, err := db.conn.Exec("DELETE FROM settings WHERE key = ?", keyProjectRoot); err != nil {
			return fmt.Errorf("clearing project root: %w", err)
		}
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, keyProjectRoot, root, time.Now())
	if err != nil {
		return fmt.Errorf("setting project root: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO recent_roots (path, used_at) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET used_at = excluded.used_at
	`, root, time.Now())
	if err != nil {
		return fmt.Errorf("recording recent root: %w", err)
	}
	return tx.Commit()
}

// RecentRoots returns previously committed project roots, most recent first.
func (db *DB) RecentRoots(limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.conn.Query("SELECT path FROM recent_roots ORDER BY used_at DESC, path LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent roots: %w", err)
	}
	defer rows.Close()

	var roots []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning recent root: %w", err)
		}
		roots = append(roots, p)
	}
	return roots, rows.Err()
}

// ScanPaths returns the committed scan paths for a project root, sorted.
func (db *DB) ScanPaths(projectRoot string) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT path FROM scan_paths WHERE project_root = ? ORDER BY path",
		pathpolicy.Normalize(projectRoot),
	)
	if err != nil {
		return nil, fmt.Errorf("querying scan paths: %w", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning scan path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// ReplaceScanPaths stores paths as the complete scan path selection for a
// project root.
func (db *DB) ReplaceScanPaths(projectRoot string, paths []string) error {
	root := pathpolicy.Normalize(projectRoot)

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM scan_paths WHERE project_root = ?", root); err != nil {
		return fmt.Errorf("clearing scan paths: %w", err)
	}

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO scan_paths (project_root, path, added_at) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range paths {
		p = pathpolicy.Normalize(p)
		if p == pathpolicy.Empty {
			continue
		}
		if _, err := stmt.Exec(root, p, now); err != nil {
			return fmt.Errorf("inserting scan path %s: %w", p, err)
		}
	}

	return tx.Commit()
}

// RecordPlan remembers a generated plan.
func (db *DB) RecordPlan(r PlanRecord) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := db.conn.Exec(`
		INSERT INTO plan_history (plan_id, title, project_root, prompt, change_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(plan_id) DO UPDATE SET
			title = excluded.title,
			project_root = excluded.project_root,
			prompt = excluded.prompt,
			change_count = excluded.change_count
	`, r.PlanID, r.Title, pathpolicy.Normalize(r.ProjectRoot), r.Prompt, r.ChangeCount, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording plan: %w", err)
	}
	return nil
}

// MarkApplied records the outcome of applying a plan.
func (db *DB) MarkApplied(planID, status string) error {
	res, err := db.conn.Exec(
		"UPDATE plan_history SET last_status = ?, last_applied_at = ? WHERE plan_id = ?",
		status, time.Now(), planID,
	)
	if err != nil {
		return fmt.Errorf("marking plan applied: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("plan %s not in history", planID)
	}
	return nil
}

// History returns remembered plans, newest first. An empty projectRoot
// returns plans for every root.
func (db *DB) History(projectRoot string, limit int) ([]PlanRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT plan_id, title, project_root, COALESCE(prompt, ''), change_count, created_at,
			COALESCE(last_status, ''), last_applied_at
		FROM plan_history`
	args := []any{}
	if root := pathpolicy.Normalize(projectRoot); root != pathpolicy.Empty {
		query += " WHERE project_root = ?"
		args = append(args, root)
	}
	query += " ORDER BY created_at DESC, plan_id LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying plan history: %w", err)
	}
	defer rows.Close()

	var records []PlanRecord
	for rows.Next() {
		var r PlanRecord
		var applied sql.NullTime
		if err := rows.Scan(&r.PlanID, &r.Title, &r.ProjectRoot, &r.Prompt, &r.ChangeCount,
			&r.CreatedAt, &r.LastStatus, &applied); err != nil {
			return nil, fmt.Errorf("scanning plan record: %w", err)
		}
		if applied.Valid {
			t := applied.Time
			r.LastAppliedAt = &t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
