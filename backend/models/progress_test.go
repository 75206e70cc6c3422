package models

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewAttemptRepository(db)
	ctx := context.Background()

	first := &TestAttempt{UserID: 1, TestID: 1, SessionID: "s-1", TotalScaled: 600, SubmissionState: "pending"}
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, &TestAttempt{UserID: 1, TestID: 2, SessionID: "s-2", TotalScaled: 800, SubmissionState: "failed"}))
	require.NoError(t, repo.Save(ctx, &TestAttempt{UserID: 2, TestID: 1, SessionID: "s-3", TotalScaled: 990}))

	require.NoError(t, repo.UpdateSubmission(ctx, "s-1", "submitted", 55))

	attempts, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "s-2", attempts[0].SessionID)
	assert.EqualValues(t, 55, attempts[1].ResultID)

	overview, err := repo.Overview(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, overview.AttemptsTotal)
	assert.Equal(t, 2, overview.TestsCompleted)
	assert.Equal(t, 800, overview.BestTotalScore)
	assert.Equal(t, 700, overview.AverageScore)
	assert.Equal(t, 1, overview.SubmittedCount)
	assert.Equal(t, 1, overview.FailedSubmissions)
	require.NotNil(t, overview.LastAttemptAt)

	empty, err := repo.Overview(ctx, 99)
	require.NoError(t, err)
	assert.Zero(t, empty.AttemptsTotal)
	assert.Nil(t, empty.LastAttemptAt)
}
