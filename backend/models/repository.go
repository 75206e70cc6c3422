package models

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"practicetest/backend/engine"
)

var ErrTestNotFound = errors.New("test not found")

type TestSummary struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Duration      int    `json:"duration"`
	GroupCount    int    `json:"groupCount"`
	QuestionCount int    `json:"questionCount"`
}

// TestRepository loads test definitions for sessions.
type TestRepository struct {
	DB              *gorm.DB
	DefaultDuration int
}

func NewTestRepository(db *gorm.DB, defaultDuration int) *TestRepository {
	return &TestRepository{DB: db, DefaultDuration: defaultDuration}
}

func (r *TestRepository) load(ctx context.Context, testID uint) (Test, error) {
	var test Test
	err := r.DB.WithContext(ctx).
		Preload("QuestionGroups").
		Preload("QuestionGroups.Questions").
		Preload("QuestionGroups.Questions.Options").
		Where("is_active = ?", true).
		First(&test, testID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Test{}, ErrTestNotFound
		}
		return Test{}, fmt.Errorf("load test %d: %w", testID, err)
	}
	return test, nil
}

// FetchTest returns the test with groups ordered by part and questions by
// their order within the group.
func (r *TestRepository) FetchTest(ctx context.Context, testID uint) (engine.TestDefinition, error) {
	test, err := r.load(ctx, testID)
	if err != nil {
		return engine.TestDefinition{}, err
	}
	return r.toDefinition(test), nil
}

func (r *TestRepository) ListActive(ctx context.Context) ([]TestSummary, error) {
	var tests []Test
	err := r.DB.WithContext(ctx).
		Preload("QuestionGroups").
		Preload("QuestionGroups.Questions").
		Where("is_active = ?", true).
		Order("id").
		Find(&tests).Error
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}

	out := make([]TestSummary, 0, len(tests))
	for _, t := range tests {
		questions := 0
		for _, g := range t.QuestionGroups {
			questions += len(g.Questions)
		}
		out = append(out, TestSummary{
			ID:            t.ID,
			Title:         t.Title,
			Description:   t.Description,
			Duration:      r.duration(t),
			GroupCount:    len(t.QuestionGroups),
			QuestionCount: questions,
		})
	}
	return out, nil
}

func (r *TestRepository) duration(t Test) int {
	if t.Duration > 0 {
		return t.Duration
	}
	return r.DefaultDuration
}

func (r *TestRepository) toDefinition(t Test) engine.TestDefinition {
	def := engine.TestDefinition{
		TestID:          t.ID,
		Title:           t.Title,
		DurationMinutes: r.duration(t),
		Groups:          make([]engine.QuestionGroup, 0, len(t.QuestionGroups)),
	}

	groups := append([]QuestionGroup(nil), t.QuestionGroups...)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })

	for _, g := range groups {
		qs := append([]TestQuestion(nil), g.Questions...)
		sort.SliceStable(qs, func(i, j int) bool {
			if qs[i].QuestionOrder == qs[j].QuestionOrder {
				return qs[i].ID < qs[j].ID
			}
			return qs[i].QuestionOrder < qs[j].QuestionOrder
		})

		eg := engine.QuestionGroup{
			ID:        g.ID,
			Part:      g.Part,
			AudioURL:  g.AudioURL,
			ImageURL:  g.ImageURL,
			Passage:   g.Passage,
			Questions: make([]engine.Question, 0, len(qs)),
		}
		for _, q := range qs {
			opts := append([]QuestionOption(nil), q.Options...)
			sort.SliceStable(opts, func(i, j int) bool { return opts[i].OptionKey < opts[j].OptionKey })

			eq := engine.Question{
				ID:            q.ID,
				Prompt:        q.Question,
				CorrectAnswer: engine.NormalizeKey(q.CorrectAnswer),
				Options:       make([]engine.Option, 0, len(opts)),
			}
			for _, o := range opts {
				eq.Options = append(eq.Options, engine.Option{Key: engine.NormalizeKey(o.OptionKey), Text: o.OptionText})
			}
			eg.Questions = append(eg.Questions, eq)
		}
		def.Groups = append(def.Groups, eg)
	}
	def.Groups = engine.SortGroups(def.Groups)
	return def
}
