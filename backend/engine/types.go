package engine

import (
	"context"
	"sort"
)

// Parts 1-4 are listening, 5-7 reading.
const (
	MinPart           = 1
	LastListeningPart = 4
	MaxPart           = 7
)

type Skill string

const (
	SkillListening Skill = "listening"
	SkillReading   Skill = "reading"
)

type Option struct {
	Key  string `json:"optionKey"`
	Text string `json:"optionText"`
}

type Question struct {
	ID            uint     `json:"id"`
	Prompt        string   `json:"question"`
	Options       []Option `json:"options"`
	CorrectAnswer string   `json:"-"`
}

// HasOption reports whether key is one of the question's option keys.
func (q Question) HasOption(key string) bool {
	for _, o := range q.Options {
		if NormalizeKey(o.Key) == NormalizeKey(key) {
			return true
		}
	}
	return false
}

type QuestionGroup struct {
	ID        uint       `json:"id"`
	Part      int        `json:"part"`
	AudioURL  string     `json:"audioUrl,omitempty"`
	ImageURL  string     `json:"imageUrl,omitempty"`
	Passage   string     `json:"passage,omitempty"`
	Questions []Question `json:"questions"`
}

func (g QuestionGroup) IsListening() bool { return g.Part <= LastListeningPart }

func (g QuestionGroup) Skill() Skill {
	if g.IsListening() {
		return SkillListening
	}
	return SkillReading
}

func (g QuestionGroup) HasAudio() bool { return g.AudioURL != "" }

type TestDefinition struct {
	TestID          uint            `json:"testId"`
	Title           string          `json:"title"`
	DurationMinutes int             `json:"durationMinutes"`
	Groups          []QuestionGroup `json:"groups"`
}

// SortGroups orders groups ascending by part. Groups of the same part keep
// their stored order.
func SortGroups(groups []QuestionGroup) []QuestionGroup {
	out := make([]QuestionGroup, len(groups))
	copy(out, groups)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Part < out[j].Part })
	return out
}

// DefinitionSource loads a test once at session start.
type DefinitionSource interface {
	FetchTest(ctx context.Context, testID uint) (TestDefinition, error)
}

// MediaResolver maps a stored media reference to a fetchable URL.
type MediaResolver interface {
	Resolve(raw string) string
}

type ResolverFunc func(raw string) string

func (f ResolverFunc) Resolve(raw string) string { return f(raw) }

type AnswerEntry struct {
	QuestionID uint   `json:"questionId"`
	UserAnswer string `json:"userAnswer"`
}

type SessionResult struct {
	TestID                  uint          `json:"testId"`
	CompletionTimeInMinutes int           `json:"completionTimeInMinutes"`
	UserAnswers             []AnswerEntry `json:"userAnswers"`
}

type SubmitReceipt struct {
	ResultID uint `json:"id"`
}

// ResultSubmitter hands a finished attempt to the result service.
type ResultSubmitter interface {
	Submit(ctx context.Context, result SessionResult) (SubmitReceipt, error)
}
