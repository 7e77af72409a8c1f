package models

import (
	"gorm.io/gorm"
)

// Notification is an in-app notice shown to a provider. Rows are written by
// the booking flow and consumed by the provider's notification feed.
type Notification struct {
	gorm.Model
	UserID  uint   `gorm:"column:user_id;not null;index" json:"user_id"`
	Content string `gorm:"column:content;type:text;not null" json:"content"`
	Read    bool   `gorm:"column:read;default:false" json:"read"`
}

func (Notification) TableName() string {
	return "notifications"
}
