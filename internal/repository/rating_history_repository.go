package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/project-ranking/internal/database"
	"github.com/iliyamo/project-ranking/internal/model"
)

// RatingHistoryRepo reads the `rating_history` table.  Rows are written by
// ProjectRepo.ApplyScoreChange so the score and its history stay in one
// transaction.
type RatingHistoryRepo struct {
	db *database.DB
}

// NewRatingHistoryRepo constructs a RatingHistoryRepo with the provided DB handle.
func NewRatingHistoryRepo(db *database.DB) *RatingHistoryRepo {
	return &RatingHistoryRepo{db: db}
}

// ProjectTotal is the summed score movement of one project over a window.
type ProjectTotal struct {
	ProjectID int64
	Total     int64
}

// ListByProject returns the history of one project, newest first.
func (r *RatingHistoryRepo) ListByProject(ctx context.Context, projectID int64) ([]*model.RatingChange, error) {
	const q = `SELECT id, project_id, actor_id, actor_username, change_type, score_before, score_after,
	                  change_amount, reason, is_admin_action, related_review_id, created_at
	           FROM rating_history WHERE project_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.RatingChange, 0)
	for rows.Next() {
		var (
			ch       model.RatingChange
			username sql.NullString
			reason   sql.NullString
			reviewID sql.NullInt64
			created  timestamp
		)
		if err := rows.Scan(&ch.ID, &ch.ProjectID, &ch.ActorID, &username, &ch.ChangeType,
			&ch.ScoreBefore, &ch.ScoreAfter, &ch.ChangeAmount, &reason, &ch.IsAdminAction,
			&reviewID, &created); err != nil {
			return nil, err
		}
		ch.ActorUsername = username.String
		ch.Reason = reason.String
		if reviewID.Valid {
			v := reviewID.Int64
			ch.RelatedReviewID = &v
		}
		ch.CreatedAt = created.Time
		out = append(out, &ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TotalsSince sums change_amount per project for changes at or after since
// and returns the limit largest totals, largest first.
func (r *RatingHistoryRepo) TotalsSince(ctx context.Context, since time.Time, limit int) ([]ProjectTotal, error) {
	const q = `SELECT project_id, SUM(change_amount) AS total
	           FROM rating_history WHERE created_at >= ?
	           GROUP BY project_id ORDER BY total DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), since.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ProjectTotal, 0, limit)
	for rows.Next() {
		var t ProjectTotal
		if err := rows.Scan(&t.ProjectID, &t.Total); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
