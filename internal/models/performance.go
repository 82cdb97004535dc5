package models

import "github.com/dmitrijs2005/learnkeeper/internal/timex"

// MaxCorrect is the number of questions in every quiz.
const MaxCorrect = 3

// PerformanceEntry is one completed quiz. Entries are append-only.
type PerformanceEntry struct {
	// ID is a ULID, so ids sort in recording order.
	ID         string          `json:"id,omitempty"`
	Username   string          `json:"usuario"`
	Course     string          `json:"curso"`
	Correct    int             `json:"acertos"`
	RecordedAt timex.Timestamp `json:"data"`
}
