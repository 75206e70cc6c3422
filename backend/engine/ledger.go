package engine

import (
	"sort"
	"strings"
)

// Ledger records the option the user picked per question. Only user
// selections write to it. It is not safe for concurrent use; the owning
// Session serialises access.
type Ledger struct {
	answers map[uint]string
}

func NewLedger() *Ledger {
	return &Ledger{answers: make(map[uint]string)}
}

// NormalizeKey trims and upper-cases an option key.
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// Record overwrites any earlier selection for the question.
func (l *Ledger) Record(questionID uint, key string) error {
	key = NormalizeKey(key)
	if key == "" {
		return ErrInvalidOption
	}
	l.answers[questionID] = key
	return nil
}

func (l *Ledger) Has(questionID uint) bool {
	_, ok := l.answers[questionID]
	return ok
}

func (l *Ledger) Len() int { return len(l.answers) }

// AllAnswered reports whether every question of the group has an entry.
func (l *Ledger) AllAnswered(g QuestionGroup) bool {
	for _, q := range g.Questions {
		if !l.Has(q.ID) {
			return false
		}
	}
	return true
}

func (l *Ledger) Snapshot() map[uint]string {
	out := make(map[uint]string, len(l.answers))
	for k, v := range l.answers {
		out[k] = v
	}
	return out
}

// Entries lists answers ordered by question id.
func (l *Ledger) Entries() []AnswerEntry {
	out := make([]AnswerEntry, 0, len(l.answers))
	for id, key := range l.answers {
		out = append(out, AnswerEntry{QuestionID: id, UserAnswer: key})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}
