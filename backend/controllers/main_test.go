package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"practicetest/backend/config"
	"practicetest/backend/engine"
	"practicetest/backend/media"
	"practicetest/backend/middleware"
	"practicetest/backend/models"
	"practicetest/backend/results"
	"practicetest/backend/utils"
)

var (
	app        *fiber.App
	cfg        *config.Config
	store      *SessionStore
	cache      *media.Cache
	clock      *engine.ManualClock
	testID     uint
	jwtToken   string
	otherToken string

	resultsMu  sync.Mutex
	submitted  []engine.SessionResult
	submitAuth []string
)

func TestMain(m *testing.M) {
	resultServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var res engine.SessionResult
		json.NewDecoder(r.Body).Decode(&res)
		resultsMu.Lock()
		submitted = append(submitted, res)
		submitAuth = append(submitAuth, r.Header.Get("Authorization"))
		resultsMu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 77}`))
	}))
	defer resultServer.Close()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		log.Fatal(err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}
	if _, err := models.SeedTests(db, []models.SeedTest{seedTest()}); err != nil {
		log.Fatal(err)
	}
	var test models.Test
	db.First(&test)
	testID = test.ID

	cfg = &config.Config{
		JWTSecret:        "test-secret",
		AutoAdvanceDelay: 2 * time.Second,
		SubmitTimeout:    5 * time.Second,
	}
	jwtToken, _ = utils.GenerateJWTToken(1, cfg)
	otherToken, _ = utils.GenerateJWTToken(2, cfg)

	quiet := log.New(io.Discard, "", 0)
	repo := models.NewTestRepository(db, 120)
	resolver := media.NewResolver("http://media.test")
	cache = media.NewCache(16)
	store = NewSessionStore(time.Minute)
	clock = engine.NewManualClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))

	app = fiber.New()
	auth := middleware.AuthMiddleware(cfg)
	authController := NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)
	progress := NewProgressController(models.NewAttemptRepository(db), quiet)
	sessions := NewSessionsController(SessionsDeps{
		Source:    repo,
		Store:     store,
		Cfg:       cfg,
		Resolver:  resolver,
		Submitter: results.NewHTTPSubmitter(resultServer.URL, time.Second),
		Progress:  progress,
		Clock:     clock,
		Logger:    quiet,
	})
	tests := NewTestsController(repo, resolver)
	mc := NewMediaController(cache)

	app.Get("/api/tests", auth, tests.GetAvailableTests)
	app.Get("/api/tests/:id", auth, tests.GetTestDetails)
	app.Post("/api/sessions", auth, sessions.CreateSession)
	app.Get("/api/sessions/:id", auth, sessions.GetSession)
	app.Delete("/api/sessions/:id", auth, sessions.DeleteSession)
	app.Get("/api/sessions/:id/group", auth, sessions.GetCurrentGroup)
	app.Get("/api/sessions/:id/events", auth, sessions.GetEvents)
	app.Get("/api/sessions/:id/score", auth, sessions.GetScore)
	app.Post("/api/sessions/:id/next", auth, sessions.Next)
	app.Post("/api/sessions/:id/previous", auth, sessions.Previous)
	app.Post("/api/sessions/:id/answers", auth, sessions.SelectAnswer)
	app.Post("/api/sessions/:id/finish", auth, sessions.FinishNow)
	app.Post("/api/sessions/:id/audio/ended", auth, sessions.AudioEnded)
	app.Post("/api/sessions/:id/audio/denied", auth, sessions.AudioDenied)
	app.Get("/api/media", auth, mc.GetMedia)
	app.Get("/api/progress", auth, progress.GetProgress)
	app.Get("/api/progress/overview", auth, progress.GetProgressOverview)

	code := m.Run()
	store.CloseAll()
	os.Exit(code)
}

// seedTest stores its groups out of part order on purpose.
func seedTest() models.SeedTest {
	return models.SeedTest{
		Title:    "Mini TOEIC",
		Duration: 10,
		Groups: []models.SeedGroup{
			{
				Part:    5,
				Passage: "Choose the word that best completes the sentence.",
				Questions: []models.SeedQuestion{
					{Question: "The report ___ on Friday.", CorrectAnswer: "B", Options: map[string]string{"A": "due", "B": "is due", "C": "dues", "D": "doing"}},
					{Question: "Please ___ the form.", CorrectAnswer: "A", Options: map[string]string{"A": "sign", "B": "signs", "C": "signing", "D": "signed"}},
				},
			},
			{
				Part:     1,
				AudioURL: "audio/part1.mp3",
				ImageURL: "https://cdn.test/p1.png",
				Questions: []models.SeedQuestion{
					{Question: "Look at the picture.", CorrectAnswer: "C", Options: map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"}},
				},
			},
		},
	}
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

func doJSON(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		json.Unmarshal(raw, &env)
	}
	return resp.StatusCode, env
}

func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode %s: %v", env.Data, err)
	}
}
