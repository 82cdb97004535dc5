package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/learnkeeper/internal/models"
)

// course is a quiz offered by the platform. Stored is the name written to
// the performance ledger and matches the entries of existing ledgers.
type course struct {
	Stored string
	Label  string
}

var courses = []course{
	{Stored: "Lógica Computacional", Label: "Computational Logic"},
	{Stored: "Python", Label: "Python Programming"},
	{Stored: "Segurança Digital", Label: "Digital Security"},
}

// courseLabel returns the display name of a stored course name. Unknown
// names are shown as stored.
func courseLabel(stored string) string {
	for _, c := range courses {
		if c.Stored == stored {
			return c.Label
		}
	}
	return stored
}

// RecordResult stores the outcome of a quiz the user has taken.
func (a *App) RecordResult(ctx context.Context) error {
	for i, c := range courses {
		a.printf("%d. %s\n", i+1, c.Label)
	}
	n, err := getInt(a.reader, "Course", a.out, 1, len(courses))
	if err != nil {
		return err
	}
	correct, err := getInt(a.reader, fmt.Sprintf("Correct answers (0-%d)", models.MaxCorrect), a.out, 0, models.MaxCorrect)
	if err != nil {
		return err
	}

	e, err := a.deps.Ledger.Append(ctx, a.session.Username, courses[n-1].Stored, correct)
	if err != nil {
		return err
	}
	a.printf("Recorded %d/%d for %s.\n", e.Correct, models.MaxCorrect, courseLabel(e.Course))
	return nil
}
