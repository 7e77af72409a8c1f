package appointment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/appointa/appointa-server/cmd/models"
	"github.com/appointa/appointa-server/cmd/utils"
)

// AppointmentStore is the storage surface the workflows depend on.
type AppointmentStore interface {
	// ActiveAt returns the active appointment occupying (providerID, slot),
	// or nil when the slot is free.
	ActiveAt(ctx context.Context, providerID uint, slot time.Time) (*models.Appointment, error)
	// FindWithParties loads an appointment with its provider (name, email)
	// and user (name) attached. Returns ErrNoSuchAppointment when absent.
	FindWithParties(ctx context.Context, id uint) (*models.Appointment, error)
	// ListActive pages through a user's active appointments from a given
	// instant onward, ordered by date.
	ListActive(ctx context.Context, userID uint, from time.Time, page, perPage int) ([]models.Appointment, int64, error)
	// Create persists a new appointment. Returns ErrSlotTaken when the
	// slot uniqueness guard rejects the insert.
	Create(ctx context.Context, appt *models.Appointment) error
	// Cancel durably records the cancellation instant.
	Cancel(ctx context.Context, appt *models.Appointment, at time.Time) error
}

type UserStore interface {
	// Find returns the user, or nil when absent.
	Find(ctx context.Context, id uint) (*models.User, error)
}

// Notifier writes an in-app notice for a provider.
type Notifier interface {
	Notify(ctx context.Context, providerID uint, content string) error
}

// Enqueuer submits asynchronous work.
type Enqueuer interface {
	Add(ctx context.Context, key string, payload interface{}) (string, error)
}

// Service runs the booking and cancellation workflows.
type Service struct {
	appointments AppointmentStore
	users        UserStore
	notifier     Notifier
	queue        Enqueuer
	now          func() time.Time
}

func NewService(appointments AppointmentStore, users UserStore, notifier Notifier, queue Enqueuer) *Service {
	return &Service{
		appointments: appointments,
		users:        users,
		notifier:     notifier,
		queue:        queue,
		now:          time.Now,
	}
}

type BookInput struct {
	ProviderID uint
	Date       string
}

// Book creates an appointment for userID with the requested provider at the
// canonical hour slot of the requested date. The provider notification is
// best-effort: by the time it runs the booking is already durable, so a
// failure there is logged, not surfaced.
func (s *Service) Book(ctx context.Context, userID uint, in BookInput) (*models.Appointment, error) {
	if in.ProviderID == 0 {
		return nil, validationError("provider_id is required")
	}
	if in.Date == "" {
		return nil, validationError("date is required")
	}
	slot, err := utils.CanonicalSlot(in.Date)
	if err != nil {
		return nil, validationError("date must be a valid timestamp")
	}

	provider, err := s.users.Find(ctx, in.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("resolving provider: %w", err)
	}
	if provider == nil || !provider.Provider {
		return nil, ErrNotAProvider
	}

	if in.ProviderID == userID {
		return nil, ErrSelfBooking
	}

	if utils.IsPast(slot, s.now()) {
		return nil, ErrPastSlot
	}

	// Friendly pre-check only; the partial unique index on
	// (provider_id, date) is the real guard against racing bookings.
	existing, err := s.appointments.ActiveAt(ctx, in.ProviderID, slot)
	if err != nil {
		return nil, fmt.Errorf("checking slot availability: %w", err)
	}
	if existing != nil {
		return nil, ErrSlotUnavailable
	}

	appt := &models.Appointment{
		UserID:     userID,
		ProviderID: in.ProviderID,
		Date:       slot,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	s.notifyProvider(ctx, appt)

	return appt, nil
}

func (s *Service) notifyProvider(ctx context.Context, appt *models.Appointment) {
	user, err := s.users.Find(ctx, appt.UserID)
	if err != nil || user == nil {
		log.Printf("appointment %d: could not resolve booking user for notification: %v", appt.ID, err)
		return
	}
	content := fmt.Sprintf("New appointment created by %s on %s", user.Name, utils.FormatSlot(appt.Date))
	if err := s.notifier.Notify(ctx, appt.ProviderID, content); err != nil {
		log.Printf("appointment %d: provider notification failed: %v", appt.ID, err)
	}
}

// Cancel marks the caller's appointment as canceled and enqueues the
// cancellation mail. Cancelling an already-canceled appointment is a no-op
// that returns the stored record. An enqueue failure does not undo the
// cancellation; it is logged and the job is lost to the dead-letter path.
func (s *Service) Cancel(ctx context.Context, userID, appointmentID uint) (*models.Appointment, error) {
	appt, err := s.appointments.FindWithParties(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, ErrNoSuchAppointment) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading appointment: %w", err)
	}

	if appt.UserID != userID {
		return nil, ErrForbidden
	}

	if !appt.Active() {
		return appt, nil
	}

	now := s.now()
	if utils.WithinCancellationCutoff(appt.Date, now, utils.CancellationCutoff) {
		return nil, ErrCancellationWindowClosed
	}

	if err := s.appointments.Cancel(ctx, appt, now); err != nil {
		return nil, fmt.Errorf("canceling appointment: %w", err)
	}

	payload := CancelationMailPayload{
		AppointmentID: appt.ID,
		Date:          appt.Date,
	}
	if appt.Provider != nil {
		payload.ProviderName = appt.Provider.Name
		payload.ProviderEmail = appt.Provider.Email
	}
	if appt.User != nil {
		payload.UserName = appt.User.Name
	}
	if _, err := s.queue.Add(ctx, CancelationMailKey, payload); err != nil {
		log.Printf("appointment %d: enqueueing cancellation mail failed: %v", appt.ID, err)
	}

	return appt, nil
}

// List pages through the caller's active upcoming appointments.
func (s *Service) List(ctx context.Context, userID uint, page, perPage int) ([]models.Appointment, int64, error) {
	return s.appointments.ListActive(ctx, userID, s.now(), page, perPage)
}
