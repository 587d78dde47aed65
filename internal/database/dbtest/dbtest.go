// Package dbtest provides an in-memory SQLite database with the projects
// schema for specs that exercise real SQL.
package dbtest

import (
	"context"
	"time"

	"github.com/iliyamo/project-ranking/internal/database"
)

// Schema mirrors the production tables closely enough for the queries this
// service issues.
const Schema = `
CREATE TABLE projects (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	category    TEXT,
	score       INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE rating_history (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id        INTEGER NOT NULL,
	actor_id          INTEGER NOT NULL DEFAULT 0,
	actor_username    TEXT,
	change_type       TEXT NOT NULL,
	score_before      INTEGER NOT NULL,
	score_after       INTEGER NOT NULL,
	change_amount     INTEGER NOT NULL,
	reason            TEXT,
	is_admin_action   BOOLEAN NOT NULL DEFAULT 0,
	related_review_id INTEGER,
	created_at        DATETIME NOT NULL
);`

// Open returns a fresh in-memory database with Schema applied.
func Open() (*database.DB, error) {
	db, err := database.Open("sqlite://:memory:")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// InsertProject adds a project row and returns its id.
func InsertProject(db *database.DB, name, category string, score int64) (int64, error) {
	res, err := db.ExecContext(context.Background(),
		"INSERT INTO projects (name, category, score) VALUES (?, ?, ?)", name, category, score)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertHistory adds a bare rating_history row for a project.
func InsertHistory(db *database.DB, projectID, amount int64, at time.Time) error {
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO rating_history
		 (project_id, change_type, score_before, score_after, change_amount, reason, created_at)
		 VALUES (?, 'admin_change', 0, ?, ?, 'seed', ?)`,
		projectID, amount, amount, at.UTC())
	return err
}

// Score reads the current score of a project.
func Score(db *database.DB, id int64) (int64, error) {
	var s int64
	err := db.QueryRowContext(context.Background(), "SELECT score FROM projects WHERE id = ?", id).Scan(&s)
	return s, err
}
