package models

import "gorm.io/gorm"

// User is a test taker. Sessions and submitted results are tied to its id
// through the JWT subject.
type User struct {
	gorm.Model
	Username     string `gorm:"unique;not null"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
}
