// Package repository contains data access logic separated from HTTP handlers.
// This file holds the queries over the `projects` table.  The table's schema
// is owned by the database; rows are returned keyed by column name.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/project-ranking/internal/database"
	"github.com/iliyamo/project-ranking/internal/model"
)

// ProjectRepo encapsulates all database queries related to projects.  It
// depends on a database.DB pool which is configured elsewhere.
type ProjectRepo struct {
	db *database.DB
}

// NewProjectRepo constructs a ProjectRepo with the provided DB handle.
func NewProjectRepo(db *database.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// ListByScore returns every project, highest score first.  Rows with equal
// scores come back in whatever order the database produces; no secondary
// key is applied.  Driver errors are returned untouched so their message
// reaches the client as-is.
func (r *ProjectRepo) ListByScore(ctx context.Context) ([]model.Project, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT * FROM projects ORDER BY score DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProjects(rows)
}

// GetByID fetches one project.  It returns ErrProjectNotFound if no row
// matches.
func (r *ProjectRepo) GetByID(ctx context.Context, id int64) (model.Project, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind("SELECT * FROM projects WHERE id = ?"), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out, err := scanProjects(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrProjectNotFound
	}
	return out[0], nil
}

// SearchByName returns up to limit projects whose name contains q, ignoring
// case, highest score first.  LIKE wildcards in q are not escaped.
func (r *ProjectRepo) SearchByName(ctx context.Context, q string, limit int) ([]model.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		r.db.Rebind("SELECT * FROM projects WHERE LOWER(name) LIKE ? ORDER BY score DESC LIMIT ?"),
		"%"+strings.ToLower(q)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProjects(rows)
}

// ApplyScoreChange moves a project's score by ch.ChangeAmount and records the
// movement in rating_history, both inside one transaction.  The increment is
// done in SQL so concurrent changes never overwrite each other.  On success
// ch.ScoreBefore, ch.ScoreAfter and ch.CreatedAt are populated (and ch.ID when
// the driver reports insert ids).  ErrProjectNotFound is returned when the
// project does not exist.
func (r *ProjectRepo) ApplyScoreChange(ctx context.Context, ch *model.RatingChange) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	res, err := tx.ExecContext(ctx,
		r.db.Rebind("UPDATE projects SET score = score + ? WHERE id = ?"),
		ch.ChangeAmount, ch.ProjectID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProjectNotFound
	}

	var after int64
	if err = tx.QueryRowContext(ctx,
		r.db.Rebind("SELECT score FROM projects WHERE id = ?"), ch.ProjectID).Scan(&after); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProjectNotFound
		}
		return err
	}
	ch.ScoreAfter = after
	ch.ScoreBefore = after - ch.ChangeAmount
	if ch.CreatedAt.IsZero() {
		ch.CreatedAt = time.Now()
	}
	ch.CreatedAt = ch.CreatedAt.UTC()

	const qInsert = `INSERT INTO rating_history
		(project_id, actor_id, actor_username, change_type, score_before, score_after,
		 change_amount, reason, is_admin_action, related_review_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err = tx.ExecContext(ctx, r.db.Rebind(qInsert),
		ch.ProjectID, ch.ActorID, ch.ActorUsername, ch.ChangeType, ch.ScoreBefore, ch.ScoreAfter,
		ch.ChangeAmount, ch.Reason, ch.IsAdminAction, ch.RelatedReviewID, ch.CreatedAt)
	if err != nil {
		return err
	}
	// pgx does not implement LastInsertId; the id stays zero there.
	if id, idErr := res.LastInsertId(); idErr == nil {
		ch.ID = id
	}
	return nil
}
