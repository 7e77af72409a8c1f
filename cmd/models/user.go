package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name         string `gorm:"column:name;size:255;not null" json:"name"`
	Email        string `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"column:password_hash;size:255;not null" json:"-"`
	Provider     bool   `gorm:"column:provider;default:false" json:"provider"`
}

func (User) TableName() string {
	return "users"
}
