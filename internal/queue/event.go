// Package queue defines message payloads exchanged over the message broker
// and the consumer that applies score changes.
package queue

import "time"

const (
	// ScoreChangedQueue carries ScoreChangedEvent messages from the bot and
	// moderation tools to this service.
	ScoreChangedQueue = "project.score_changed"
	// ScoreAppliedQueue receives a ScoreAppliedEvent for every change that
	// was written to the database.
	ScoreAppliedQueue = "project.score_applied"
)

// ScoreChangedEvent asks for a project's score to move.  Which fields are
// meaningful depends on ChangeType:
//
//	like          -> nothing beyond the actor
//	user_review   -> Rating, PreviousRating when the user reviewed before
//	delete_review -> Rating of the deleted review, ReviewID
//	admin_change  -> Amount and Reason
type ScoreChangedEvent struct {
	ProjectID      int64     `json:"project_id"`
	ChangeType     string    `json:"change_type"`
	ActorID        int64     `json:"actor_id"`
	ActorUsername  string    `json:"actor_username"`
	Rating         int       `json:"rating,omitempty"`
	PreviousRating int       `json:"previous_rating,omitempty"`
	Amount         int64     `json:"amount,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	ReviewID       int64     `json:"review_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// ScoreAppliedEvent is published after a ScoreChangedEvent has been stored.
// Downstream consumers can notify users or moderators without querying the
// primary database.
type ScoreAppliedEvent struct {
	HistoryID    int64  `json:"history_id,omitempty"`
	ProjectID    int64  `json:"project_id"`
	ChangeType   string `json:"change_type"`
	ScoreBefore  int64  `json:"score_before"`
	ScoreAfter   int64  `json:"score_after"`
	ChangeAmount int64  `json:"change_amount"`
	Reason       string `json:"reason"`
	AppliedAt    string `json:"applied_at"`
}
