package engine

import (
	"math"
	"sort"
)

// MaxScaledSkillScore is the top of the per-skill scaled range.
const MaxScaledSkillScore = 495

type SectionScore struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

func (s *SectionScore) add(correct bool) {
	s.Total++
	if correct {
		s.Correct++
	}
}

func (s *SectionScore) finish() {
	s.Percent = percent(s.Correct, s.Total)
}

type PartScore struct {
	Part int `json:"part"`
	SectionScore
}

type ScoreReport struct {
	Parts           []PartScore  `json:"parts"`
	Listening       SectionScore `json:"listening"`
	Reading         SectionScore `json:"reading"`
	Overall         SectionScore `json:"overall"`
	Unanswered      int          `json:"unanswered"`
	ListeningScaled int          `json:"listeningScaledScore"`
	ReadingScaled   int          `json:"readingScaledScore"`
	TotalScaled     int          `json:"totalScaledScore"`
}

// Part returns the score of a single part and whether the test contained it.
func (r ScoreReport) Part(part int) (SectionScore, bool) {
	for _, p := range r.Parts {
		if p.Part == part {
			return p.SectionScore, true
		}
	}
	return SectionScore{}, false
}

// ScaleConverter turns per-skill accuracy into the scaled score reported to
// the user.
type ScaleConverter interface {
	Scale(skill Skill, s SectionScore) int
}

// LinearScale maps a percentage onto 0..MaxScaledSkillScore.
type LinearScale struct{}

func (LinearScale) Scale(_ Skill, s SectionScore) int {
	return int(math.Round(float64(s.Percent) / 100.0 * MaxScaledSkillScore))
}

// Score compares the answers with the reference keys. Unanswered questions
// count as wrong. It has no side effects.
func Score(groups []QuestionGroup, answers map[uint]string) ScoreReport {
	return ScoreWith(groups, answers, LinearScale{})
}

func ScoreWith(groups []QuestionGroup, answers map[uint]string, conv ScaleConverter) ScoreReport {
	var r ScoreReport
	parts := map[int]*SectionScore{}

	for _, g := range groups {
		ps, ok := parts[g.Part]
		if !ok {
			ps = &SectionScore{}
			parts[g.Part] = ps
		}
		for _, q := range g.Questions {
			given, answered := answers[q.ID]
			correct := answered && given == NormalizeKey(q.CorrectAnswer)
			if !answered {
				r.Unanswered++
			}
			ps.add(correct)
			r.Overall.add(correct)
			if g.IsListening() {
				r.Listening.add(correct)
			} else {
				r.Reading.add(correct)
			}
		}
	}

	r.Parts = make([]PartScore, 0, len(parts))
	for part, s := range parts {
		s.finish()
		r.Parts = append(r.Parts, PartScore{Part: part, SectionScore: *s})
	}
	sort.Slice(r.Parts, func(i, j int) bool { return r.Parts[i].Part < r.Parts[j].Part })

	r.Listening.finish()
	r.Reading.finish()
	r.Overall.finish()

	if conv == nil {
		conv = LinearScale{}
	}
	r.ListeningScaled = conv.Scale(SkillListening, r.Listening)
	r.ReadingScaled = conv.Scale(SkillReading, r.Reading)
	r.TotalScaled = r.ListeningScaled + r.ReadingScaled
	return r
}

func percent(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
