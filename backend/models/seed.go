package models

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"

	"practicetest/backend/engine"
)

// ==== JSON input ====

type SeedQuestion struct {
	Question      string            `json:"question"`
	CorrectAnswer string            `json:"correctAnswer"`
	Explanation   string            `json:"explanation"`
	Options       map[string]string `json:"options"`
}

type SeedGroup struct {
	Title     string         `json:"title"`
	Part      int            `json:"part"`
	AudioURL  string         `json:"audioUrl"`
	ImageURL  string         `json:"imageUrl"`
	Passage   string         `json:"passage"`
	Questions []SeedQuestion `json:"questions"`
}

type SeedTest struct {
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Instructions string      `json:"instructions"`
	Duration     int         `json:"duration"`
	Groups       []SeedGroup `json:"groups"`
}

// SeedFromJSON loads tests from a file holding either [ ... ] or
// { "tests": [ ... ] }. Tests whose title already exists are skipped.
func SeedFromJSON(db *gorm.DB, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var wrapper struct {
		Tests []SeedTest `json:"tests"`
	}
	var arr []SeedTest
	if err := sonic.Unmarshal(raw, &wrapper); err == nil && len(wrapper.Tests) > 0 {
		arr = wrapper.Tests
	} else if err := sonic.Unmarshal(raw, &arr); err != nil {
		return 0, fmt.Errorf("json parse: %w", err)
	}
	return SeedTests(db, arr)
}

func SeedTests(db *gorm.DB, in []SeedTest) (int, error) {
	for i, t := range in {
		if err := validateSeed(t); err != nil {
			return 0, fmt.Errorf("test %d (%q): %w", i, t.Title, err)
		}
	}

	created := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, st := range in {
			var count int64
			if err := tx.Model(&Test{}).Where("title = ?", st.Title).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			test := buildTest(st)
			if err := tx.Create(&test).Error; err != nil {
				return fmt.Errorf("create test %q: %w", st.Title, err)
			}
			created++
		}
		return nil
	})
	return created, err
}

func validateSeed(t SeedTest) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("missing title")
	}
	if len(t.Groups) == 0 {
		return fmt.Errorf("no question groups")
	}
	for gi, g := range t.Groups {
		if g.Part < engine.MinPart || g.Part > engine.MaxPart {
			return fmt.Errorf("group %d: part %d out of range", gi, g.Part)
		}
		for qi, q := range g.Questions {
			key := engine.NormalizeKey(q.CorrectAnswer)
			if _, ok := normalizedOptions(q.Options)[key]; !ok {
				return fmt.Errorf("group %d question %d: correct answer %q is not an option", gi, qi, q.CorrectAnswer)
			}
		}
	}
	return nil
}

func normalizedOptions(opts map[string]string) map[string]string {
	out := make(map[string]string, len(opts))
	for k, v := range opts {
		out[engine.NormalizeKey(k)] = v
	}
	return out
}

func buildTest(st SeedTest) Test {
	test := Test{
		Title:        st.Title,
		Description:  st.Description,
		Instructions: st.Instructions,
		Duration:     st.Duration,
		IsActive:     true,
	}
	for _, sg := range st.Groups {
		group := QuestionGroup{
			Title:    sg.Title,
			Part:     sg.Part,
			AudioURL: sg.AudioURL,
			ImageURL: sg.ImageURL,
			Passage:  sg.Passage,
		}
		for qi, sq := range sg.Questions {
			q := TestQuestion{
				Question:      sq.Question,
				CorrectAnswer: engine.NormalizeKey(sq.CorrectAnswer),
				Explanation:   sq.Explanation,
				QuestionOrder: qi + 1,
			}
			opts := normalizedOptions(sq.Options)
			keys := make([]string, 0, len(opts))
			for k := range opts {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				q.Options = append(q.Options, QuestionOption{OptionKey: k, OptionText: opts[k]})
			}
			group.Questions = append(group.Questions, q)
		}
		test.QuestionGroups = append(test.QuestionGroups, group)
	}
	return test
}
