package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaySlotsCoversWorkingHours(t *testing.T) {
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	slots := DaySlots(day, nil, now)

	require.Len(t, slots, 12)
	assert.Equal(t, "08:00", slots[0].Time)
	assert.Equal(t, "19:00", slots[len(slots)-1].Time)
	for _, s := range slots {
		assert.True(t, s.Available, "slot %s", s.Time)
	}
}

func TestDaySlotsExcludesPastAndBookedHours(t *testing.T) {
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)
	booked := []time.Time{
		time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC),
	}

	slots := DaySlots(day, booked, now)

	available := make(map[string]bool, len(slots))
	for _, s := range slots {
		available[s.Time] = s.Available
	}

	assert.False(t, available["08:00"], "past hour")
	assert.False(t, available["09:00"], "hour already started")
	assert.False(t, available["10:00"], "booked")
	assert.True(t, available["11:00"])
	assert.False(t, available["14:00"], "booked")
	assert.True(t, available["15:00"])
}

func TestDaySlotsNormalizesBookedTimes(t *testing.T) {
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	offset := time.FixedZone("UTC-3", -3*60*60)
	booked := []time.Time{time.Date(2026, 9, 1, 13, 0, 0, 0, offset)} // 16:00 UTC

	slots := DaySlots(day, booked, now)

	for _, s := range slots {
		if s.Time == "16:00" {
			assert.False(t, s.Available)
		} else {
			assert.True(t, s.Available, "slot %s", s.Time)
		}
	}
}
