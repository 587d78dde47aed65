package model

import "time"

// Change types recorded in rating_history.change_type.
const (
	ChangeLike         = "like"
	ChangeUserReview   = "user_review"
	ChangeDeleteReview = "delete_review"
	ChangeAdmin        = "admin_change"
)

// RatingChange represents a row in the `rating_history` table.  Every score
// movement of a project is recorded here together with who caused it.
type RatingChange struct {
	ID              int64     `json:"id"`
	ProjectID       int64     `json:"project_id"`
	ActorID         int64     `json:"actor_id"`
	ActorUsername   string    `json:"actor_username"`
	ChangeType      string    `json:"change_type"`
	ScoreBefore     int64     `json:"score_before"`
	ScoreAfter      int64     `json:"score_after"`
	ChangeAmount    int64     `json:"change_amount"`
	Reason          string    `json:"reason"`
	IsAdminAction   bool      `json:"is_admin_action"`
	RelatedReviewID *int64    `json:"related_review_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
