package notification

import (
	"context"

	"gorm.io/gorm"

	"github.com/appointa/appointa-server/cmd/models"
)

// Notifier persists in-app notices for providers.
type Notifier struct {
	db *gorm.DB
}

func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{db: db}
}

func (n *Notifier) Notify(ctx context.Context, providerID uint, content string) error {
	return n.db.WithContext(ctx).Create(&models.Notification{
		UserID:  providerID,
		Content: content,
	}).Error
}
