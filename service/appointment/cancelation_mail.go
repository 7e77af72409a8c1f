package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/appointa/appointa-server/cmd/utils"
	"github.com/appointa/appointa-server/service/mail"
)

const CancelationMailKey = "CancelationMail"

// CancelationMailPayload is the snapshot captured at enqueue time, so the
// mail can be rendered even if the appointment row changes afterwards.
type CancelationMailPayload struct {
	AppointmentID uint      `json:"appointment_id"`
	Date          time.Time `json:"date"`
	ProviderName  string    `json:"provider_name"`
	ProviderEmail string    `json:"provider_email"`
	UserName      string    `json:"user_name"`
}

// CancelationMail is the queue job that mails a provider about a canceled
// appointment. Send failures are returned so the queue retries the job.
type CancelationMail struct {
	mailer mail.Mailer
}

func NewCancelationMail(m mail.Mailer) *CancelationMail {
	return &CancelationMail{mailer: m}
}

func (j *CancelationMail) Key() string {
	return CancelationMailKey
}

func (j *CancelationMail) Handle(ctx context.Context, payload []byte) error {
	var p CancelationMailPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decoding cancelation mail payload: %w", err)
	}

	return j.mailer.Send(mail.Message{
		To:      fmt.Sprintf("%s <%s>", p.ProviderName, p.ProviderEmail),
		Subject: "Appointment Canceled",
		Body: fmt.Sprintf(
			"Hello %s,\n\nThe appointment booked by %s for %s has been canceled.\n\nThe slot is open for new bookings again.\n",
			p.ProviderName, p.UserName, utils.FormatSlot(p.Date),
		),
	})
}
