package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/appointa/appointa-server/cmd/models"
)

// Store is the gorm-backed AppointmentStore.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ActiveAt(ctx context.Context, providerID uint, slot time.Time) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.WithContext(ctx).
		Where("provider_id = ? AND date = ? AND canceled_at IS NULL", providerID, slot).
		First(&appt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (s *Store) FindWithParties(ctx context.Context, id uint) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.WithContext(ctx).
		Preload("Provider").
		Preload("User").
		First(&appt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSuchAppointment
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (s *Store) ListActive(ctx context.Context, userID uint, from time.Time, page, perPage int) ([]models.Appointment, int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("user_id = ? AND canceled_at IS NULL AND date >= ?", userID, from)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var appointments []models.Appointment
	err := query.
		Preload("Provider").
		Order("date ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&appointments).Error
	if err != nil {
		return nil, 0, err
	}
	return appointments, total, nil
}

func (s *Store) Create(ctx context.Context, appt *models.Appointment) error {
	err := s.db.WithContext(ctx).Create(appt).Error
	if isUniqueViolation(err) {
		return ErrSlotTaken
	}
	return err
}

func (s *Store) Cancel(ctx context.Context, appt *models.Appointment, at time.Time) error {
	if err := s.db.WithContext(ctx).Model(appt).Update("canceled_at", at).Error; err != nil {
		return err
	}
	appt.CanceledAt = &at
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Users is the gorm-backed UserStore.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (u *Users) Find(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
