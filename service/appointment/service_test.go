package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/appointa/appointa-server/cmd/models"
)

type fakeAppointments struct {
	stored    []*models.Appointment
	nextID    uint
	createErr error
	storeErr  error
}

func (f *fakeAppointments) ActiveAt(_ context.Context, providerID uint, slot time.Time) (*models.Appointment, error) {
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	for _, a := range f.stored {
		if a.ProviderID == providerID && a.Date.Equal(slot) && a.Active() {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAppointments) FindWithParties(_ context.Context, id uint) (*models.Appointment, error) {
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	for _, a := range f.stored {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, ErrNoSuchAppointment
}

func (f *fakeAppointments) ListActive(_ context.Context, userID uint, from time.Time, page, perPage int) ([]models.Appointment, int64, error) {
	var out []models.Appointment
	for _, a := range f.stored {
		if a.UserID == userID && a.Active() && !a.Date.Before(from) {
			out = append(out, *a)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeAppointments) Create(_ context.Context, appt *models.Appointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	appt.ID = f.nextID
	f.stored = append(f.stored, appt)
	return nil
}

func (f *fakeAppointments) Cancel(_ context.Context, appt *models.Appointment, at time.Time) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	appt.CanceledAt = &at
	return nil
}

type fakeUsers struct {
	users map[uint]*models.User
}

func (f *fakeUsers) Find(_ context.Context, id uint) (*models.User, error) {
	return f.users[id], nil
}

type fakeNotifier struct {
	notices []string
	to      []uint
	err     error
}

func (f *fakeNotifier) Notify(_ context.Context, providerID uint, content string) error {
	if f.err != nil {
		return f.err
	}
	f.to = append(f.to, providerID)
	f.notices = append(f.notices, content)
	return nil
}

type fakeQueue struct {
	keys     []string
	payloads []interface{}
	err      error
}

func (f *fakeQueue) Add(_ context.Context, key string, payload interface{}) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	f.payloads = append(f.payloads, payload)
	return "job-1", nil
}

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc          *Service
	appointments *fakeAppointments
	users        *fakeUsers
	notifier     *fakeNotifier
	queue        *fakeQueue
}

func newFixture() *fixture {
	appointments := &fakeAppointments{}
	users := &fakeUsers{users: map[uint]*models.User{
		1: {Model: gorm.Model{ID: 1}, Name: "Uma Client", Email: "uma@example.com"},
		2: {Model: gorm.Model{ID: 2}, Name: "Pat Provider", Email: "pat@example.com", Provider: true},
		3: {Model: gorm.Model{ID: 3}, Name: "Vic Client", Email: "vic@example.com"},
	}}
	notifier := &fakeNotifier{}
	q := &fakeQueue{}

	svc := NewService(appointments, users, notifier, q)
	svc.now = func() time.Time { return testNow }

	return &fixture{svc: svc, appointments: appointments, users: users, notifier: notifier, queue: q}
}

func TestBookCreatesAppointmentAndNotifiesProvider(t *testing.T) {
	f := newFixture()

	appt, err := f.svc.Book(context.Background(), 1, BookInput{
		ProviderID: 2,
		Date:       testNow.Add(5 * time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)

	assert.Equal(t, uint(1), appt.UserID)
	assert.Equal(t, uint(2), appt.ProviderID)
	assert.Nil(t, appt.CanceledAt)
	assert.Equal(t, time.Date(2026, 9, 1, 17, 0, 0, 0, time.UTC), appt.Date)

	require.Len(t, f.notifier.notices, 1)
	assert.Equal(t, []uint{2}, f.notifier.to)
	assert.Equal(t, "New appointment created by Uma Client on September 01, at 17:00", f.notifier.notices[0])
}

func TestBookTruncatesToHourSlot(t *testing.T) {
	f := newFixture()

	appt, err := f.svc.Book(context.Background(), 1, BookInput{
		ProviderID: 2,
		Date:       "2026-09-01T17:45:30Z",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 1, 17, 0, 0, 0, time.UTC), appt.Date)
}

func TestBookValidation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name string
		in   BookInput
	}{
		{"missing provider", BookInput{Date: testNow.Add(time.Hour).Format(time.RFC3339)}},
		{"missing date", BookInput{ProviderID: 2}},
		{"unparseable date", BookInput{ProviderID: 2, Date: "tomorrow-ish"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Book(context.Background(), 1, tt.in)
			var rule *Error
			require.ErrorAs(t, err, &rule)
			assert.Equal(t, "validation_failed", rule.Kind)
			assert.Equal(t, 400, rule.Status)
		})
	}
	assert.Empty(t, f.appointments.stored)
}

func TestBookRejectsNonProvider(t *testing.T) {
	f := newFixture()
	date := testNow.Add(5 * time.Hour).Format(time.RFC3339)

	// A plain client.
	_, err := f.svc.Book(context.Background(), 1, BookInput{ProviderID: 3, Date: date})
	assert.ErrorIs(t, err, ErrNotAProvider)

	// An id that does not exist at all.
	_, err = f.svc.Book(context.Background(), 1, BookInput{ProviderID: 99, Date: date})
	assert.ErrorIs(t, err, ErrNotAProvider)
}

func TestBookRejectsSelfBooking(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Book(context.Background(), 2, BookInput{
		ProviderID: 2,
		Date:       testNow.Add(5 * time.Hour).Format(time.RFC3339),
	})
	assert.ErrorIs(t, err, ErrSelfBooking)
}

func TestBookRejectsPastSlots(t *testing.T) {
	f := newFixture()

	for _, date := range []string{
		testNow.Add(-time.Hour).Format(time.RFC3339),
		testNow.Add(-30 * 24 * time.Hour).Format(time.RFC3339),
		// 11:59 truncates to the 11:00 slot, which already started.
		testNow.Add(-time.Minute).Format(time.RFC3339),
	} {
		_, err := f.svc.Book(context.Background(), 1, BookInput{ProviderID: 2, Date: date})
		assert.ErrorIs(t, err, ErrPastSlot, "date %s", date)
	}
	assert.Empty(t, f.notifier.notices)
}

func TestBookRejectsOccupiedSlot(t *testing.T) {
	f := newFixture()
	date := testNow.Add(5 * time.Hour).Format(time.RFC3339)

	_, err := f.svc.Book(context.Background(), 3, BookInput{ProviderID: 2, Date: date})
	require.NoError(t, err)

	_, err = f.svc.Book(context.Background(), 1, BookInput{ProviderID: 2, Date: date})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	require.Len(t, f.appointments.stored, 1)
}

func TestBookTreatsInsertConflictAsUnavailable(t *testing.T) {
	// The pre-check saw a free slot but a racing booking won the insert:
	// the store's uniqueness guard answers, and the caller sees the same
	// rejection as a pre-check miss.
	f := newFixture()
	f.appointments.createErr = ErrSlotTaken

	_, err := f.svc.Book(context.Background(), 1, BookInput{
		ProviderID: 2,
		Date:       testNow.Add(5 * time.Hour).Format(time.RFC3339),
	})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Empty(t, f.notifier.notices)
}

func TestBookSucceedsWhenNotificationFails(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("notification store down")

	appt, err := f.svc.Book(context.Background(), 1, BookInput{
		ProviderID: 2,
		Date:       testNow.Add(5 * time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)
	assert.NotZero(t, appt.ID)
}

func cancelableAppointment(f *fixture, hoursOut time.Duration) *models.Appointment {
	appt := &models.Appointment{
		UserID:     1,
		ProviderID: 2,
		Date:       testNow.Add(hoursOut).Truncate(time.Hour),
		User:       f.users.users[1],
		Provider:   f.users.users[2],
	}
	f.appointments.nextID++
	appt.ID = f.appointments.nextID
	f.appointments.stored = append(f.appointments.stored, appt)
	return appt
}

func TestCancelSetsCanceledAtAndEnqueuesMail(t *testing.T) {
	f := newFixture()
	appt := cancelableAppointment(f, 10*time.Hour)

	got, err := f.svc.Cancel(context.Background(), 1, appt.ID)
	require.NoError(t, err)

	require.NotNil(t, got.CanceledAt)
	assert.Equal(t, testNow, *got.CanceledAt)

	require.Equal(t, []string{CancelationMailKey}, f.queue.keys)
	payload, ok := f.queue.payloads[0].(CancelationMailPayload)
	require.True(t, ok)
	assert.Equal(t, appt.ID, payload.AppointmentID)
	assert.Equal(t, appt.Date, payload.Date)
	assert.Equal(t, "Pat Provider", payload.ProviderName)
	assert.Equal(t, "pat@example.com", payload.ProviderEmail)
	assert.Equal(t, "Uma Client", payload.UserName)
}

func TestCancelPayloadSurvivesLaterMutation(t *testing.T) {
	f := newFixture()
	appt := cancelableAppointment(f, 10*time.Hour)

	_, err := f.svc.Cancel(context.Background(), 1, appt.ID)
	require.NoError(t, err)

	snapshot, err := json.Marshal(f.queue.payloads[0])
	require.NoError(t, err)

	f.users.users[2].Name = "Renamed Provider"

	var decoded CancelationMailPayload
	require.NoError(t, json.Unmarshal(snapshot, &decoded))
	assert.Equal(t, "Pat Provider", decoded.ProviderName)
}

func TestCancelUnknownAppointment(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Cancel(context.Background(), 1, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelRejectsNonOwner(t *testing.T) {
	f := newFixture()
	appt := cancelableAppointment(f, 10*time.Hour)

	_, err := f.svc.Cancel(context.Background(), 3, appt.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, appt.CanceledAt)
	assert.Empty(t, f.queue.keys)
}

func TestCancelRejectsInsideCutoff(t *testing.T) {
	f := newFixture()
	appt := cancelableAppointment(f, 2*time.Hour)

	_, err := f.svc.Cancel(context.Background(), 1, appt.ID)
	assert.ErrorIs(t, err, ErrCancellationWindowClosed)
	assert.Nil(t, appt.CanceledAt)
	assert.Empty(t, f.queue.keys)
}

func TestCancelTwiceIsANoOp(t *testing.T) {
	f := newFixture()
	appt := cancelableAppointment(f, 10*time.Hour)

	first, err := f.svc.Cancel(context.Background(), 1, appt.ID)
	require.NoError(t, err)
	canceledAt := *first.CanceledAt

	second, err := f.svc.Cancel(context.Background(), 1, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, canceledAt, *second.CanceledAt)

	// Only the first cancellation produces a mail job.
	assert.Len(t, f.queue.keys, 1)
}

func TestCancelSucceedsWhenEnqueueFails(t *testing.T) {
	f := newFixture()
	f.queue.err = errors.New("broker unavailable")
	appt := cancelableAppointment(f, 10*time.Hour)

	got, err := f.svc.Cancel(context.Background(), 1, appt.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.CanceledAt)
}

func TestListReturnsOnlyActiveUpcomingAppointments(t *testing.T) {
	f := newFixture()
	upcoming := cancelableAppointment(f, 10*time.Hour)

	canceled := cancelableAppointment(f, 20*time.Hour)
	at := testNow
	canceled.CanceledAt = &at

	past := cancelableAppointment(f, 10*time.Hour)
	past.Date = testNow.Add(-10 * time.Hour)

	got, total, err := f.svc.List(context.Background(), 1, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, got, 1)
	assert.Equal(t, upcoming.ID, got[0].ID)
}
