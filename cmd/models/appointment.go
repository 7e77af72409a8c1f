package models

import (
	"time"

	"gorm.io/gorm"
)

type Appointment struct {
	gorm.Model
	UserID     uint       `gorm:"column:user_id;not null;index" json:"user_id"`
	ProviderID uint       `gorm:"column:provider_id;not null;index" json:"provider_id"`
	Date       time.Time  `gorm:"column:date;not null" json:"date"`
	CanceledAt *time.Time `gorm:"column:canceled_at" json:"canceled_at"`

	User     *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Provider *User `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// Active reports whether the appointment still occupies its slot.
func (a *Appointment) Active() bool {
	return a.CanceledAt == nil
}
