package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/learnkeeper/internal/models"
)

// AgeStats summarizes the ages on the user records.
type AgeStats struct {
	Mean   float64
	Mode   int
	Median float64
	// Count is the number of records that carried an age.
	Count int
}

// UsageRow is one line of the usage report. Users appear only by label.
type UsageRow struct {
	Label        string
	Age          *int
	AccessCount  int
	SessionHours float64
}

// StatsEngine computes reports over records and the performance ledger.
type StatsEngine struct {
	records *RecordStore
	ledger  *PerformanceLedger
}

func NewStatsEngine(records *RecordStore, ledger *PerformanceLedger) *StatsEngine {
	return &StatsEngine{records: records, ledger: ledger}
}

// AgeStatistics returns mean, mode and median of the ages present in
// records. Ties for the mode go to the age seen first; the median of an
// even count is the mean of the two middle ages.
func (e *StatsEngine) AgeStatistics(records []models.UserRecord) (AgeStats, error) {
	var ages []int
	for _, r := range records {
		if r.Age != nil {
			ages = append(ages, *r.Age)
		}
	}
	if len(ages) == 0 {
		return AgeStats{}, ErrInsufficientData
	}

	sum := 0
	counts := make(map[int]int, len(ages))
	for _, a := range ages {
		sum += a
		counts[a]++
	}
	mode := ages[0]
	for _, a := range ages {
		if counts[a] > counts[mode] {
			mode = a
		}
	}

	sorted := slices.Clone(ages)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	median := float64(sorted[mid])
	if len(sorted)%2 == 0 {
		median = float64(sorted[mid-1]+sorted[mid]) / 2
	}

	return AgeStats{
		Mean:   float64(sum) / float64(len(ages)),
		Mode:   mode,
		Median: median,
		Count:  len(ages),
	}, nil
}

// score maps a correct count onto the 0..10 scale.
func score(correct int) float64 {
	return float64(correct) / models.MaxCorrect * 10
}

// CourseScoreAverage is the mean score of course on a 0..10 scale.
func (e *StatsEngine) CourseScoreAverage(ctx context.Context, course string) (float64, error) {
	entries, err := e.ledger.Entries(ctx)
	if err != nil {
		return 0, err
	}

	var sum float64
	n := 0
	for _, en := range entries {
		if en.Course == course {
			sum += score(en.Correct)
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("course %q: %w", course, ErrInsufficientData)
	}
	return sum / float64(n), nil
}

// CourseScoreAverages is CourseScoreAverage for every course in the ledger.
func (e *StatsEngine) CourseScoreAverages(ctx context.Context) (map[string]float64, error) {
	entries, err := e.ledger.Entries(ctx)
	if err != nil {
		return nil, err
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	for _, en := range entries {
		sums[en.Course] += score(en.Correct)
		counts[en.Course]++
	}
	for c, n := range counts {
		sums[c] /= float64(n)
	}
	return sums, nil
}

// ParticipantsPerCourse counts ledger entries per course. Repeated attempts
// by one user count separately.
func (e *StatsEngine) ParticipantsPerCourse(ctx context.Context) (map[string]int, error) {
	entries, err := e.ledger.Entries(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, en := range entries {
		counts[en.Course]++
	}
	return counts, nil
}

// UsageReport lists age, access count and hours for every record under its
// masked label.
func (e *StatsEngine) UsageReport(ctx context.Context) ([]UsageRow, error) {
	recs, err := e.records.Load(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]UsageRow, len(recs))
	for i, r := range recs {
		rows[i] = UsageRow{
			Label:        MaskedLabel(i),
			Age:          r.Age,
			AccessCount:  r.AccessCount,
			SessionHours: r.SessionHours,
		}
	}
	return rows, nil
}
