package notification

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/appointa/appointa-server/cmd/models"
	"github.com/appointa/appointa-server/cmd/utils"
)

// Handler serves a provider's notification feed.
type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/notifications", h.ListNotifications).Methods("GET")
	router.HandleFunc("/notifications/{id}", h.MarkRead).Methods("PUT")
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, "Only providers can load notifications", http.StatusUnauthorized)
		return
	}

	var notifications []models.Notification
	if err := h.db.
		Where("user_id = ?", callerID).
		Order("created_at DESC").
		Limit(20).
		Find(&notifications).Error; err != nil {
		http.Error(w, "Error retrieving notifications", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	callerID, err := utils.CallerID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	notificationID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	var notification models.Notification
	if err := h.db.
		Where("id = ? AND user_id = ?", notificationID, callerID).
		First(&notification).Error; err != nil {
		http.Error(w, "Notification not found", http.StatusNotFound)
		return
	}

	notification.Read = true
	if err := h.db.Save(&notification).Error; err != nil {
		http.Error(w, "Error updating notification", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notification)
}
