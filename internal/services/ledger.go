package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dmitrijs2005/learnkeeper/internal/logging"
	"github.com/dmitrijs2005/learnkeeper/internal/models"
	"github.com/dmitrijs2005/learnkeeper/internal/store"
	"github.com/dmitrijs2005/learnkeeper/internal/timex"
)

// PerformanceLedger records quiz results.
type PerformanceLedger struct {
	store store.Store
	log   logging.Logger
	now   func() time.Time
}

func NewPerformanceLedger(st store.Store, log logging.Logger) *PerformanceLedger {
	return &PerformanceLedger{
		store: st,
		log:   log.With("component", "ledger"),
		now:   time.Now,
	}
}

// Append records that username answered correct of models.MaxCorrect
// questions of course right.
func (l *PerformanceLedger) Append(ctx context.Context, username, course string, correct int) (models.PerformanceEntry, error) {
	course = strings.TrimSpace(course)
	if course == "" {
		return models.PerformanceEntry{}, ErrInvalidCourse
	}
	if correct < 0 || correct > models.MaxCorrect {
		return models.PerformanceEntry{}, ErrInvalidScore
	}

	now := l.now()
	e := models.PerformanceEntry{
		ID:         ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Username:   username,
		Course:     course,
		Correct:    correct,
		RecordedAt: timex.NewTimestamp(now),
	}

	if err := l.store.Update(ctx, func(tx store.Tx) error {
		return tx.Ledger().Append(ctx, e)
	}); err != nil {
		return models.PerformanceEntry{}, fmt.Errorf("append performance: %w", err)
	}

	l.log.Info(ctx, "quiz result recorded", "username", username, "course", course, "correct", correct)
	return e, nil
}

// Entries returns the ledger in recording order.
func (l *PerformanceLedger) Entries(ctx context.Context) ([]models.PerformanceEntry, error) {
	var entries []models.PerformanceEntry
	err := l.store.View(ctx, func(tx store.Tx) error {
		var err error
		entries, err = tx.Ledger().List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load performance: %w", err)
	}
	return entries, nil
}
