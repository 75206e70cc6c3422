package controllers

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"practicetest/backend/config"
	"practicetest/backend/engine"
	"practicetest/backend/middleware"
	"practicetest/backend/models"
	"practicetest/backend/results"
	"practicetest/backend/utils"
)

type CreateSessionRequest struct {
	TestID uint `json:"testId" validate:"required,gt=0"`
}

type AnswerRequest struct {
	QuestionID uint   `json:"questionId" validate:"required,gt=0"`
	OptionKey  string `json:"optionKey" validate:"required,max=4"`
}

type AudioEventRequest struct {
	GroupIndex *int `json:"groupIndex" validate:"required,gte=0"`
}

type QuestionView struct {
	engine.Question
	SelectedAnswer string `json:"selectedAnswer,omitempty"`
}

// GroupView is the current group as the client renders it: media URLs are
// resolved and correct answers are never included.
type GroupView struct {
	Index      int            `json:"index"`
	GroupCount int            `json:"groupCount"`
	ID         uint           `json:"id"`
	Part       int            `json:"part"`
	Skill      engine.Skill   `json:"skill"`
	AudioURL   string         `json:"audioUrl,omitempty"`
	ImageURL   string         `json:"imageUrl,omitempty"`
	Passage    string         `json:"passage,omitempty"`
	Questions  []QuestionView `json:"questions"`
	Playing    bool           `json:"playing"`
}

// SessionsDeps wires the sessions controller. Clock, Loader, Submitter and
// Progress are optional.
type SessionsDeps struct {
	Source    engine.DefinitionSource
	Store     *SessionStore
	Cfg       *config.Config
	Resolver  engine.MediaResolver
	Loader    engine.MediaLoader
	Submitter *results.HTTPSubmitter
	Progress  *ProgressController
	Clock     engine.Clock
	Logger    *log.Logger
}

type SessionsController struct {
	SessionsDeps
}

func NewSessionsController(deps SessionsDeps) *SessionsController {
	return &SessionsController{SessionsDeps: deps}
}

func (sc *SessionsController) CreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if ok, err := utils.ParseAndValidate(c, &req); !ok {
		return err
	}

	def, err := sc.Source.FetchTest(c.UserContext(), req.TestID)
	if err != nil {
		if errors.Is(err, models.ErrTestNotFound) {
			return utils.NotFound(c, "Test not found")
		}
		sc.logf("load test %d: %v", req.TestID, err)
		return utils.Error(c, fiber.StatusBadGateway, errors.New("Failed to load test"))
	}

	live := sc.Store.NewLive(middleware.UserID(c))
	if sc.Progress != nil {
		live.hook = sc.Progress.Record
	}
	opts := engine.Options{
		Clock:            sc.Clock,
		Loader:           sc.Loader,
		Resolver:         sc.Resolver,
		Playback:         live.Playback,
		Observer:         live,
		Logger:           sc.Logger,
		AutoAdvanceDelay: sc.Cfg.AutoAdvanceDelay,
		SubmitTimeout:    sc.Cfg.SubmitTimeout,
	}
	if sc.Submitter != nil {
		opts.Submitter = sc.Submitter.WithToken(middleware.Token(c))
	}

	sess, err := engine.NewSession(def, opts)
	if err != nil {
		if errors.Is(err, engine.ErrEmptyTest) {
			return utils.Error(c, fiber.StatusUnprocessableEntity, err)
		}
		return utils.InternalServerError(c, "Failed to create session")
	}
	live.Session = sess
	sc.Store.Add(live)
	// The attempt outlives this request.
	sess.Start(context.Background())

	return utils.Created(c, fiber.Map{
		"sessionId": live.ID,
		"session":   sess.Snapshot(),
	})
}

func (sc *SessionsController) GetSession(c *fiber.Ctx) error {
	live, err := sc.lookup(c)
	if err != nil {
		return sessionError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, live.Session.Snapshot())
}

func (sc *SessionsController) GetCurrentGroup(c *fiber.Ctx) error {
	live, err := sc.lookup(c)
	if err != nil {
		return sessionError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, sc.groupView(live))
}

func (sc *SessionsController) Next(c *fiber.Ctx) error {
	return sc.act(c, func(s *engine.Session) error { return s.Next() })
}

func (sc *SessionsController) Previous(c *fiber.Ctx) error {
	return sc.act(c, func(s *engine.Session) error { return s.Previous() })
}

func (sc *SessionsController) FinishNow(c *fiber.Ctx) error {
	return sc.act(c, func(s *engine.Session) error { return s.FinishNow() })
}

func (sc *SessionsController) SelectAnswer(c *fiber.Ctx) error {
	var req AnswerRequest
	if ok, err := utils.ParseAndValidate(c, &req); !ok {
		return err
	}
	return sc.act(c, func(s *engine.Session) error { return s.SelectAnswer(req.QuestionID, req.OptionKey) })
}

func (sc *SessionsController) AudioEnded(c *fiber.Ctx) error {
	var req AudioEventRequest
	if ok, err := utils.ParseAndValidate(c, &req); !ok {
		return err
	}
	return sc.act(c, func(s *engine.Session) error { return s.AudioEnded(*req.GroupIndex) })
}

func (sc *SessionsController) AudioDenied(c *fiber.Ctx) error {
	var req AudioEventRequest
	if ok, err := utils.ParseAndValidate(c, &req); !ok {
		return err
	}
	return sc.act(c, func(s *engine.Session) error { return s.AutoplayDenied(*req.GroupIndex) })
}

func (sc *SessionsController) GetScore(c *fiber.Ctx) error {
	live, err := sc.lookup(c)
	if err != nil {
		return sessionError(c, err)
	}
	report, err := live.Session.Score()
	if err != nil {
		return sessionError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, report)
}

func (sc *SessionsController) GetEvents(c *fiber.Ctx) error {
	live, err := sc.lookup(c)
	if err != nil {
		return sessionError(c, err)
	}
	after := c.QueryInt("after", 0)
	return utils.Success(c, fiber.StatusOK, live.EventsAfter(after))
}

func (sc *SessionsController) DeleteSession(c *fiber.Ctx) error {
	if err := sc.Store.Remove(c.Params("id"), middleware.UserID(c)); err != nil {
		return sessionError(c, err)
	}
	return utils.NoContent(c)
}

func (sc *SessionsController) lookup(c *fiber.Ctx) (*LiveSession, error) {
	return sc.Store.Get(c.Params("id"), middleware.UserID(c))
}

// act applies one session operation and answers with the new snapshot.
func (sc *SessionsController) act(c *fiber.Ctx, op func(*engine.Session) error) error {
	live, err := sc.lookup(c)
	if err != nil {
		return sessionError(c, err)
	}
	if err := op(live.Session); err != nil {
		return sessionError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, live.Session.Snapshot())
}

func (sc *SessionsController) groupView(live *LiveSession) GroupView {
	index, g := live.Session.CurrentGroup()
	answers := live.Session.Answers()
	_, playing := live.Playback.State()

	view := GroupView{
		Index:      index,
		GroupCount: len(live.Session.Groups()),
		ID:         g.ID,
		Part:       g.Part,
		Skill:      g.Skill(),
		AudioURL:   sc.resolve(g.AudioURL),
		ImageURL:   sc.resolve(g.ImageURL),
		Passage:    g.Passage,
		Questions:  make([]QuestionView, 0, len(g.Questions)),
		Playing:    playing,
	}
	for _, q := range g.Questions {
		view.Questions = append(view.Questions, QuestionView{Question: q, SelectedAnswer: answers[q.ID]})
	}
	return view
}

func (sc *SessionsController) resolve(raw string) string {
	if raw == "" || sc.Resolver == nil {
		return raw
	}
	return sc.Resolver.Resolve(raw)
}

func (sc *SessionsController) logf(format string, args ...interface{}) {
	if sc.Logger != nil {
		sc.Logger.Printf(format, args...)
	}
}

func sessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return utils.NotFound(c, "Session not found")
	case errors.Is(err, engine.ErrGated),
		errors.Is(err, engine.ErrCompleted),
		errors.Is(err, engine.ErrNotCompleted),
		errors.Is(err, engine.ErrAtFirstGroup),
		errors.Is(err, engine.ErrStaleEvent),
		errors.Is(err, engine.ErrNoAudio),
		errors.Is(err, engine.ErrClosed):
		return utils.Conflict(c, err.Error())
	case errors.Is(err, engine.ErrUnknownQuestion),
		errors.Is(err, engine.ErrInvalidOption):
		return utils.Error(c, fiber.StatusUnprocessableEntity, err)
	default:
		return utils.InternalServerError(c, err.Error())
	}
}
