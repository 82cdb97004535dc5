package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/learnkeeper/internal/models"
)

func withAges(ages ...*int) []models.UserRecord {
	recs := make([]models.UserRecord, len(ages))
	for i, a := range ages {
		recs[i] = models.UserRecord{Age: a}
	}
	return recs
}

func TestStatsEngine_AgeStatistics(t *testing.T) {
	e := NewStatsEngine(nil, nil)
	p := models.IntPtr

	tests := []struct {
		name   string
		recs   []models.UserRecord
		mean   float64
		mode   int
		median float64
	}{
		{"even count", withAges(p(18), p(20), p(20), p(22)), 20, 20, 20},
		{"single", withAges(p(31)), 31, 31, 31},
		{"odd unsorted", withAges(p(40), p(10), p(25)), 25, 40, 25},
		{"mode tie goes to first seen", withAges(p(30), p(18), p(18), p(30)), 24, 30, 24},
		{"missing ages skipped", withAges(nil, p(10), nil, p(20)), 15, 10, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.AgeStatistics(tt.recs)
			require.NoError(t, err)
			assert.InDelta(t, tt.mean, got.Mean, 1e-9)
			assert.Equal(t, tt.mode, got.Mode)
			assert.InDelta(t, tt.median, got.Median, 1e-9)
		})
	}

	_, err := e.AgeStatistics(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = e.AgeStatistics(withAges(nil, nil))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestStatsEngine_CourseAggregates(t *testing.T) {
	forEachDriver(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		for _, c := range []int{2, 3, 1} {
			_, err := env.ledger.Append(ctx, "ana", "python", c)
			require.NoError(t, err)
		}
		_, err := env.ledger.Append(ctx, "ana", "logic", 3)
		require.NoError(t, err)

		avg, err := env.stats.CourseScoreAverage(ctx, "python")
		require.NoError(t, err)
		assert.InDelta(t, 6.67, avg, 0.005)

		_, err = env.stats.CourseScoreAverage(ctx, "security")
		assert.ErrorIs(t, err, ErrInsufficientData)

		avgs, err := env.stats.CourseScoreAverages(ctx)
		require.NoError(t, err)
		assert.Len(t, avgs, 2)
		assert.InDelta(t, 10, avgs["logic"], 1e-9)
		assert.InDelta(t, avg, avgs["python"], 1e-9)

		counts, err := env.stats.ParticipantsPerCourse(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"python": 3, "logic": 1}, counts)
	})
}

func TestStatsEngine_UsageReport(t *testing.T) {
	forEachDriver(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		registerAna(t, env)
		_, err := env.records.Register(ctx, RegisterInput{Username: "bob", Password: "pw", Age: 30})
		require.NoError(t, err)
		require.NoError(t, env.records.IncrementAccess(ctx, "bob"))
		require.NoError(t, env.records.AddSessionTime(ctx, "bob", 2))

		rows, err := env.stats.UsageReport(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "User 1", rows[0].Label)
		assert.Equal(t, "User 2", rows[1].Label)
		assert.Equal(t, 1, rows[1].AccessCount)
		assert.InDelta(t, 2.0, rows[1].SessionHours, 1e-9)
		require.NotNil(t, rows[1].Age)
		assert.Equal(t, 30, *rows[1].Age)
	})
}
