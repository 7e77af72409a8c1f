package schedule

import (
	"time"
)

// Providers take appointments on the hour between these bounds.
const (
	firstBookableHour = 8
	lastBookableHour  = 19
)

type Slot struct {
	Time      string    `json:"time"`
	Value     time.Time `json:"value"`
	Available bool      `json:"available"`
}

// DaySlots builds the hour grid for a provider's day. A slot is available
// when it is still in the future and no active appointment occupies it.
func DaySlots(day time.Time, booked []time.Time, now time.Time) []Slot {
	taken := make(map[int64]bool, len(booked))
	for _, b := range booked {
		taken[b.Truncate(time.Hour).Unix()] = true
	}

	slots := make([]Slot, 0, lastBookableHour-firstBookableHour+1)
	for hour := firstBookableHour; hour <= lastBookableHour; hour++ {
		value := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
		slots = append(slots, Slot{
			Time:      value.Format("15:04"),
			Value:     value,
			Available: value.After(now) && !taken[value.Unix()],
		})
	}
	return slots
}
