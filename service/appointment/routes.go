package appointment

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/appointa/appointa-server/cmd/utils"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/appointments", h.ListAppointments).Methods("GET")
	router.HandleFunc("/appointments", h.BookAppointment).Methods("POST")
	router.HandleFunc("/appointments/{id}", h.CancelAppointment).Methods("DELETE")
}

const pageSize = 20

func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	callerID, err := utils.CallerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	appointments, total, err := h.svc.List(r.Context(), callerID, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"appointments": appointments,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
		"total_pages":  (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

func (h *Handler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	callerID, err := utils.CallerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var bookingRequest struct {
		ProviderID uint   `json:"provider_id"`
		Date       string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&bookingRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Book(r.Context(), callerID, BookInput{
		ProviderID: bookingRequest.ProviderID,
		Date:       bookingRequest.Date,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(appt)
}

func (h *Handler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	callerID, err := utils.CallerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	appointmentID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid appointment ID", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Cancel(r.Context(), callerID, uint(appointmentID))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appt)
}

// writeError maps business-rule rejections to their status class and keeps
// infrastructure detail out of responses.
func writeError(w http.ResponseWriter, err error) {
	var rule *Error
	if errors.As(err, &rule) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rule.Status)
		json.NewEncoder(w).Encode(map[string]string{
			"error": rule.Message,
			"kind":  rule.Kind,
		})
		return
	}

	log.Printf("appointment request failed: %v", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
