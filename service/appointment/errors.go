package appointment

import (
	"errors"
	"net/http"
)

// Error is a business-rule rejection. Kind is stable and machine-checkable;
// Message is what the caller sees; Status is the HTTP class the route layer
// responds with.
type Error struct {
	Kind    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrNotAProvider = &Error{
		Kind:    "not_a_provider",
		Status:  http.StatusUnauthorized,
		Message: "You can only create appointments with providers",
	}
	ErrSelfBooking = &Error{
		Kind:    "self_booking_denied",
		Status:  http.StatusUnauthorized,
		Message: "You cannot create an appointment with yourself",
	}
	ErrPastSlot = &Error{
		Kind:    "past_slot_denied",
		Status:  http.StatusBadRequest,
		Message: "Past hours are not allowed",
	}
	ErrSlotUnavailable = &Error{
		Kind:    "slot_unavailable",
		Status:  http.StatusBadRequest,
		Message: "Appointment date not available",
	}
	ErrNotFound = &Error{
		Kind:    "not_found",
		Status:  http.StatusNotFound,
		Message: "Appointment not found",
	}
	ErrForbidden = &Error{
		Kind:    "forbidden",
		Status:  http.StatusUnauthorized,
		Message: "You don't have permission to cancel this appointment",
	}
	ErrCancellationWindowClosed = &Error{
		Kind:    "cancellation_window_closed",
		Status:  http.StatusUnauthorized,
		Message: "You can only cancel appointments until 3 hours before the scheduled time",
	}
)

func validationError(msg string) *Error {
	return &Error{Kind: "validation_failed", Status: http.StatusBadRequest, Message: msg}
}

// Store-level outcomes, translated into the errors above by the workflows.
var (
	ErrSlotTaken         = errors.New("slot already booked")
	ErrNoSuchAppointment = errors.New("appointment does not exist")
)
