package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/project-ranking/internal/model"
	"github.com/iliyamo/project-ranking/internal/rating"
	"github.com/iliyamo/project-ranking/internal/repository"
)

// ErrInvalidEvent wraps every reason a message can never be applied.
var ErrInvalidEvent = errors.New("invalid score event")

// ScoreApplier stores a score change.  repository.ProjectRepo implements it.
type ScoreApplier interface {
	ApplyScoreChange(ctx context.Context, ch *model.RatingChange) error
}

// Notifier announces applied changes.  It may be nil.
type Notifier interface {
	PublishScoreApplied(ctx context.Context, ev ScoreAppliedEvent) error
}

// Consumer reads ScoreChangedQueue, applies each change and appends a line
// to <LogDir>/rating.log.
type Consumer struct {
	URL      string
	Store    ScoreApplier
	Notifier Notifier
	LogDir   string
	Prefetch int
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Lost
// connections are re-dialled with exponential backoff (1s doubling up to
// 30s).  The returned error is always ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("score-consumer: failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("score-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	prefetch := c.Prefetch
	if prefetch < 1 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		log.Warn().Err(err).Msg("score-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(ScoreChangedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(ScoreChangedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	log.Info().Str("queue", ScoreChangedQueue).Msg("score-consumer: consuming")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.deliver(ctx, d)
		}
	}
}

// deliver handles one message and settles it.  Invalid events are dropped;
// other failures are requeued once and dropped on the second attempt so a
// poisoned message cannot spin forever.
func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery) {
	applied, err := c.Handle(ctx, d.Body)
	if err != nil {
		requeue := !Permanent(err) && !d.Redelivered
		log.Error().Err(err).Bool("requeue", requeue).Msg("score-consumer: handle message failed")
		_ = d.Nack(false, requeue)
		return
	}
	_ = d.Ack(false)

	if c.Notifier == nil {
		return
	}
	if err := c.Notifier.PublishScoreApplied(ctx, AppliedEvent(applied)); err != nil {
		log.Warn().Err(err).Int64("project_id", applied.ProjectID).Msg("score-consumer: publish applied event failed")
	}
}

// Permanent reports whether retrying the message can never succeed.
func Permanent(err error) bool {
	return errors.Is(err, ErrInvalidEvent) || errors.Is(err, repository.ErrProjectNotFound)
}

// Handle decodes one ScoreChangedEvent, stores it and writes the rating log
// line.  It returns the stored history row.
func (c *Consumer) Handle(ctx context.Context, body []byte) (*model.RatingChange, error) {
	var ev ScoreChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", ErrInvalidEvent, err)
	}
	change, err := ToRatingChange(ev)
	if err != nil {
		return nil, err
	}
	if err := c.Store.ApplyScoreChange(ctx, change); err != nil {
		return nil, err
	}
	if err := c.appendLog(change); err != nil {
		// the score is already committed; the log line is best effort
		log.Warn().Err(err).Msg("score-consumer: write rating log failed")
	}
	return change, nil
}

// ToRatingChange validates an event and turns it into the history row to
// store, with the score delta computed by the rating rules.
func ToRatingChange(ev ScoreChangedEvent) (*model.RatingChange, error) {
	if ev.ProjectID <= 0 {
		return nil, fmt.Errorf("%w: project_id must be positive", ErrInvalidEvent)
	}
	delta, err := rating.Delta(ev.ChangeType, ev.Rating, ev.PreviousRating, ev.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	reason := strings.TrimSpace(ev.Reason)
	if reason == "" {
		if ev.ChangeType == model.ChangeAdmin {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, rating.ErrMissingReason)
		}
		reason = rating.DefaultReason(ev.ChangeType, ev.Rating, ev.PreviousRating, ev.ReviewID)
	}
	ch := &model.RatingChange{
		ProjectID:     ev.ProjectID,
		ActorID:       ev.ActorID,
		ActorUsername: ev.ActorUsername,
		ChangeType:    ev.ChangeType,
		ChangeAmount:  delta,
		Reason:        reason,
		IsAdminAction: rating.IsAdmin(ev.ChangeType),
		CreatedAt:     ev.OccurredAt,
	}
	if ev.ReviewID > 0 {
		id := ev.ReviewID
		ch.RelatedReviewID = &id
	}
	return ch, nil
}

// AppliedEvent builds the notification for a stored change.
func AppliedEvent(ch *model.RatingChange) ScoreAppliedEvent {
	return ScoreAppliedEvent{
		HistoryID:    ch.ID,
		ProjectID:    ch.ProjectID,
		ChangeType:   ch.ChangeType,
		ScoreBefore:  ch.ScoreBefore,
		ScoreAfter:   ch.ScoreAfter,
		ChangeAmount: ch.ChangeAmount,
		Reason:       ch.Reason,
		AppliedAt:    ch.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (c *Consumer) appendLog(ch *model.RatingChange) error {
	dir := c.LogDir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "rating.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(LogLine(ch)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// LogLine formats a stored change as one line of rating.log.
func LogLine(ch *model.RatingChange) string {
	actor := ch.ActorUsername
	if actor == "" {
		actor = fmt.Sprint(ch.ActorID)
	}
	return fmt.Sprintf("[%s] Score changed | project_id=%d | type=%s | actor=%s | before=%d | after=%d | change=%+d | reason=%q\n",
		ch.CreatedAt.UTC().Format(time.RFC3339), ch.ProjectID, ch.ChangeType, actor,
		ch.ScoreBefore, ch.ScoreAfter, ch.ChangeAmount, ch.Reason)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
