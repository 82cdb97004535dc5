package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformanceLedger_Append(t *testing.T) {
	forEachDriver(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		fixed := time.Date(2025, 5, 4, 13, 14, 15, 999, time.Local)
		env.ledger.now = func() time.Time { return fixed }

		e, err := env.ledger.Append(ctx, "ana", " python ", 2)
		require.NoError(t, err)
		assert.Equal(t, "python", e.Course)
		assert.Equal(t, "2025-05-04 13:14:15", e.RecordedAt.String())
		assert.Len(t, e.ID, 26)

		_, err = env.ledger.Append(ctx, "ana", "python", 4)
		assert.ErrorIs(t, err, ErrInvalidScore)
		_, err = env.ledger.Append(ctx, "ana", "python", -1)
		assert.ErrorIs(t, err, ErrInvalidScore)
		_, err = env.ledger.Append(ctx, "ana", "  ", 1)
		assert.ErrorIs(t, err, ErrInvalidCourse)

		e2, err := env.ledger.Append(ctx, "bob", "logic", 0)
		require.NoError(t, err)

		entries, err := env.ledger.Entries(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, e.ID, entries[0].ID)
		assert.Equal(t, e2.ID, entries[1].ID)
		assert.Equal(t, "ana", entries[0].Username)
		assert.True(t, entries[0].RecordedAt.Equal(e.RecordedAt.Time))
	})
}
