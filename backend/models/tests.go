package models

import "gorm.io/gorm"

type Test struct {
	gorm.Model
	Title          string
	Description    string
	Instructions   string
	// Duration is in minutes; zero falls back to the configured default.
	Duration       int
	IsActive       bool `gorm:"default:true"`
	QuestionGroups []QuestionGroup
}

// QuestionGroup is one stimulus (audio, image and/or passage) shared by a
// block of questions. Parts 1-4 are listening, 5-7 reading.
type QuestionGroup struct {
	gorm.Model
	TestID    uint `gorm:"index;not null"`
	Title     string
	Part      int `gorm:"not null"`
	AudioURL  string
	ImageURL  string
	Passage   string
	Questions []TestQuestion
}

type TestQuestion struct {
	gorm.Model
	QuestionGroupID uint `gorm:"index;not null"`
	Question        string
	CorrectAnswer   string `gorm:"size:4;not null"`
	Explanation     string
	QuestionOrder   int
	Options         []QuestionOption
}

type QuestionOption struct {
	gorm.Model
	TestQuestionID uint   `gorm:"index;not null"`
	OptionKey      string `gorm:"size:4;not null"` // "A".."D"
	OptionText     string
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Test{},
		&QuestionGroup{},
		&TestQuestion{},
		&QuestionOption{},
		&User{},
		&TestAttempt{},
	)
}
