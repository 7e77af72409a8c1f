package schedule

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/appointa/appointa-server/cmd/models"
	"github.com/appointa/appointa-server/cmd/utils"
)

// Handler serves the provider-facing schedule and the public availability
// grid for a provider's day.
type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/schedule", h.GetSchedule).Methods("GET")
	router.HandleFunc("/providers/{id}/available", h.GetAvailable).Methods("GET")
}

// GetSchedule lists the calling provider's active appointments for a day.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	callerID, err := utils.CallerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var caller models.User
	if err := h.db.First(&caller, callerID).Error; err != nil {
		http.Error(w, "User not found", http.StatusUnauthorized)
		return
	}
	if !caller.Provider {
		http.Error(w, "Only providers can load their schedule", http.StatusUnauthorized)
		return
	}

	dayStart, err := parseDay(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	dayEnd := dayStart.Add(24 * time.Hour)

	var appointments []models.Appointment
	if err := h.db.
		Where("provider_id = ? AND canceled_at IS NULL AND date >= ? AND date < ?", callerID, dayStart, dayEnd).
		Order("date ASC").
		Preload("User").
		Find(&appointments).Error; err != nil {
		http.Error(w, "Error retrieving schedule", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appointments)
}

// GetAvailable returns the hour grid for a provider's day with slots that
// are past or actively booked marked unavailable.
func (h *Handler) GetAvailable(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	providerID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid provider ID", http.StatusBadRequest)
		return
	}

	dayStart, err := parseDay(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	dayEnd := dayStart.Add(24 * time.Hour)

	var appointments []models.Appointment
	if err := h.db.
		Where("provider_id = ? AND canceled_at IS NULL AND date >= ? AND date < ?", providerID, dayStart, dayEnd).
		Find(&appointments).Error; err != nil {
		http.Error(w, "Error retrieving appointments", http.StatusInternalServerError)
		return
	}

	booked := make([]time.Time, 0, len(appointments))
	for _, appt := range appointments {
		booked = append(booked, appt.Date)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(DaySlots(dayStart, booked, time.Now().UTC()))
}

func parseDay(raw string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", raw, time.UTC)
}
