// Package rating holds the rules that turn user and admin actions into score
// changes for a project.
package rating

import (
	"errors"
	"fmt"

	"github.com/iliyamo/project-ranking/internal/model"
)

var (
	ErrUnknownChange = errors.New("unknown change type")
	ErrInvalidStars  = errors.New("rating must be between 1 and 5")
	ErrMissingReason = errors.New("admin change requires a reason")
)

// starDelta maps a 1..5 star review to the points it moves the score by.
var starDelta = map[int]int64{1: -5, 2: -2, 3: 0, 4: 2, 5: 5}

// LikeDelta is what a single like adds to a project's score.
const LikeDelta int64 = 1

// StarDelta returns the score contribution of a review with the given stars.
func StarDelta(stars int) (int64, error) {
	d, ok := starDelta[stars]
	if !ok {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidStars, stars)
	}
	return d, nil
}

// Delta computes how much a change moves the score.
//
// previousStars is the rating of the user's earlier review of the same
// project (0 when there is none); a re-review only applies the difference.
// amount is used verbatim for admin changes and ignored otherwise.
func Delta(kind string, stars, previousStars int, amount int64) (int64, error) {
	switch kind {
	case model.ChangeLike:
		return LikeDelta, nil
	case model.ChangeUserReview:
		d, err := StarDelta(stars)
		if err != nil {
			return 0, err
		}
		if previousStars == 0 {
			return d, nil
		}
		prev, err := StarDelta(previousStars)
		if err != nil {
			return 0, err
		}
		return d - prev, nil
	case model.ChangeDeleteReview:
		d, err := StarDelta(stars)
		if err != nil {
			return 0, err
		}
		return -d, nil
	case model.ChangeAdmin:
		return amount, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownChange, kind)
}

// DefaultReason describes a change when the producer did not supply one.
// Admin changes have no default; callers must reject them with
// ErrMissingReason instead.
func DefaultReason(kind string, stars, previousStars int, reviewID int64) string {
	switch kind {
	case model.ChangeLike:
		return "like from user"
	case model.ChangeUserReview:
		if previousStars != 0 {
			return fmt.Sprintf("review changed: %d/5 -> %d/5", previousStars, stars)
		}
		return fmt.Sprintf("new review: %d/5", stars)
	case model.ChangeDeleteReview:
		return fmt.Sprintf("review #%d deleted (rating: %d/5)", reviewID, stars)
	}
	return ""
}

// IsAdmin reports whether the change is made by a moderator rather than a user.
func IsAdmin(kind string) bool {
	return kind == model.ChangeAdmin || kind == model.ChangeDeleteReview
}
