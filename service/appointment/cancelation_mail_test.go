package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appointa/appointa-server/service/mail"
)

type recordingMailer struct {
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func cancelationPayload(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal(CancelationMailPayload{
		AppointmentID: 7,
		Date:          time.Date(2026, 9, 1, 17, 0, 0, 0, time.UTC),
		ProviderName:  "Pat Provider",
		ProviderEmail: "pat@example.com",
		UserName:      "Uma Client",
	})
	require.NoError(t, err)
	return raw
}

func TestCancelationMailSendsToProvider(t *testing.T) {
	mailer := &recordingMailer{}
	job := NewCancelationMail(mailer)

	require.NoError(t, job.Handle(context.Background(), cancelationPayload(t)))

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "Pat Provider <pat@example.com>", msg.To)
	assert.Equal(t, "Appointment Canceled", msg.Subject)
	assert.Contains(t, msg.Body, "Uma Client")
	assert.Contains(t, msg.Body, "September 01, at 17:00")
}

func TestCancelationMailKey(t *testing.T) {
	job := NewCancelationMail(&recordingMailer{})
	assert.Equal(t, "CancelationMail", job.Key())
}

func TestCancelationMailPropagatesSendFailure(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp relay down")}
	job := NewCancelationMail(mailer)

	err := job.Handle(context.Background(), cancelationPayload(t))
	assert.Error(t, err)
}

func TestCancelationMailRejectsMalformedPayload(t *testing.T) {
	job := NewCancelationMail(&recordingMailer{})

	err := job.Handle(context.Background(), []byte("{not json"))
	assert.Error(t, err)
}
