package models

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"practicetest/backend/engine"
)

// TestAttempt is the local record of a finished session.
type TestAttempt struct {
	gorm.Model
	UserID            uint   `gorm:"index;not null"`
	TestID            uint   `gorm:"index;not null"`
	SessionID         string `gorm:"uniqueIndex;size:36;not null"`
	FinishReason      string
	CompletionMinutes int
	Correct           int
	Total             int
	Unanswered        int
	ListeningScaled   int
	ReadingScaled     int
	TotalScaled       int
	SubmissionState   string
	ResultID          uint
}

type ProgressOverview struct {
	TestsCompleted    int        `json:"testsCompleted"`
	AttemptsTotal     int        `json:"attemptsTotal"`
	BestTotalScore    int        `json:"bestTotalScore"`
	AverageScore      int        `json:"averageScore"`
	LastAttemptAt     *time.Time `json:"lastAttemptAt,omitempty"`
	SubmittedCount    int        `json:"submittedCount"`
	FailedSubmissions int        `json:"failedSubmissions"`
}

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

// Save inserts the attempt, or updates it when the session was already
// recorded.
func (r *AttemptRepository) Save(ctx context.Context, a *TestAttempt) error {
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		UpdateAll: true,
	}).Create(a).Error
	if err != nil {
		return fmt.Errorf("save attempt %s: %w", a.SessionID, err)
	}
	return nil
}

func (r *AttemptRepository) UpdateSubmission(ctx context.Context, sessionID, state string, resultID uint) error {
	err := r.DB.WithContext(ctx).Model(&TestAttempt{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{"submission_state": state, "result_id": resultID}).Error
	if err != nil {
		return fmt.Errorf("update attempt %s: %w", sessionID, err)
	}
	return nil
}

func (r *AttemptRepository) ListByUser(ctx context.Context, userID uint) ([]TestAttempt, error) {
	var attempts []TestAttempt
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

func (r *AttemptRepository) Overview(ctx context.Context, userID uint) (ProgressOverview, error) {
	attempts, err := r.ListByUser(ctx, userID)
	if err != nil {
		return ProgressOverview{}, err
	}

	var overview ProgressOverview
	tests := make(map[uint]bool)
	sum := 0
	for _, a := range attempts {
		tests[a.TestID] = true
		sum += a.TotalScaled
		if a.TotalScaled > overview.BestTotalScore {
			overview.BestTotalScore = a.TotalScaled
		}
		switch a.SubmissionState {
		case string(engine.SubmissionSubmitted):
			overview.SubmittedCount++
		case string(engine.SubmissionFailed):
			overview.FailedSubmissions++
		}
	}
	overview.AttemptsTotal = len(attempts)
	overview.TestsCompleted = len(tests)
	if len(attempts) > 0 {
		overview.AverageScore = sum / len(attempts)
		last := attempts[0].CreatedAt
		overview.LastAttemptAt = &last
	}
	return overview, nil
}
