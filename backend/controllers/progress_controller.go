package controllers

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"

	"practicetest/backend/engine"
	"practicetest/backend/middleware"
	"practicetest/backend/models"
	"practicetest/backend/utils"
)

type ProgressController struct {
	Attempts *models.AttemptRepository
	Logger   *log.Logger
}

func NewProgressController(attempts *models.AttemptRepository, logger *log.Logger) *ProgressController {
	return &ProgressController{Attempts: attempts, Logger: logger}
}

// GetProgress lists the caller's finished attempts, newest first.
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	attempts, err := pc.Attempts.ListByUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return utils.InternalServerError(c, "Failed to load attempts")
	}
	return utils.Success(c, fiber.StatusOK, attemptViews(attempts))
}

func (pc *ProgressController) GetProgressOverview(c *fiber.Ctx) error {
	overview, err := pc.Attempts.Overview(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return utils.InternalServerError(c, "Failed to load progress")
	}
	return utils.Success(c, fiber.StatusOK, overview)
}

// Record persists completion and submission outcomes of a live session.
func (pc *ProgressController) Record(live *LiveSession, e engine.Event) {
	ctx := context.Background()
	switch e.Kind {
	case engine.EventCompleted:
		snap := live.Session.Snapshot()
		attempt := &models.TestAttempt{
			UserID:            live.OwnerID,
			TestID:            snap.TestID,
			SessionID:         live.ID,
			FinishReason:      string(snap.FinishReason),
			CompletionMinutes: snap.CompletionMinutes,
			SubmissionState:   string(snap.Submission.State),
			ResultID:          snap.Submission.ResultID,
		}
		if snap.Score != nil {
			attempt.Correct = snap.Score.Overall.Correct
			attempt.Total = snap.Score.Overall.Total
			attempt.Unanswered = snap.Score.Unanswered
			attempt.ListeningScaled = snap.Score.ListeningScaled
			attempt.ReadingScaled = snap.Score.ReadingScaled
			attempt.TotalScaled = snap.Score.TotalScaled
		}
		if err := pc.Attempts.Save(ctx, attempt); err != nil {
			pc.logf("record attempt: %v", err)
		}
	case engine.EventSubmitted, engine.EventSubmissionFailed:
		sub := live.Session.Snapshot().Submission
		if err := pc.Attempts.UpdateSubmission(ctx, live.ID, string(sub.State), sub.ResultID); err != nil {
			pc.logf("record submission: %v", err)
		}
	}
}

func (pc *ProgressController) logf(format string, args ...interface{}) {
	if pc.Logger != nil {
		pc.Logger.Printf(format, args...)
	}
}

type AttemptView struct {
	SessionID         string `json:"sessionId"`
	TestID            uint   `json:"testId"`
	FinishReason      string `json:"finishReason"`
	CompletionMinutes int    `json:"completionTimeInMinutes"`
	Correct           int    `json:"correct"`
	Total             int    `json:"total"`
	ListeningScaled   int    `json:"listeningScaledScore"`
	ReadingScaled     int    `json:"readingScaledScore"`
	TotalScaled       int    `json:"totalScaledScore"`
	SubmissionState   string `json:"submissionState"`
	ResultID          uint   `json:"resultId,omitempty"`
	FinishedAt        string `json:"finishedAt"`
}

func attemptViews(attempts []models.TestAttempt) []AttemptView {
	out := make([]AttemptView, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, AttemptView{
			SessionID:         a.SessionID,
			TestID:            a.TestID,
			FinishReason:      a.FinishReason,
			CompletionMinutes: a.CompletionMinutes,
			Correct:           a.Correct,
			Total:             a.Total,
			ListeningScaled:   a.ListeningScaled,
			ReadingScaled:     a.ReadingScaled,
			TotalScaled:       a.TotalScaled,
			SubmissionState:   a.SubmissionState,
			ResultID:          a.ResultID,
			FinishedAt:        a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return out
}
