package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationToNextRefresh(t *testing.T) {
	testCases := []struct {
		name           string
		refreshMinutes int
		currentTime    time.Time
		expectedDurMin float64
	}{
		{"11:10:15->11:11:00", 1, time.Date(2024, 1, 1, 11, 10, 15, 0, time.UTC), 0.75},
		{"00:00:00->00:15:00", 15, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 15.0},
		{"00:07:30->00:15:00", 15, time.Date(2024, 1, 1, 0, 7, 30, 0, time.UTC), 7.5},
		{"00:14:59->00:15:00", 15, time.Date(2024, 1, 1, 0, 14, 59, 0, time.UTC), 1.0 / 60},
		{"00:30:00->01:00:00", 60, time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC), 30.0},
		{"11:55:15->12:00:00", 60, time.Date(2024, 1, 1, 11, 55, 15, 0, time.UTC), 4.75},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actualDur := durationToNextRefresh(tc.currentTime, tc.refreshMinutes)
			assert.InDelta(t, tc.expectedDurMin, actualDur.Minutes(), 0.01,
				"case: %s, expected duration of around %f minutes, but got duration of %v", tc.name, tc.expectedDurMin, actualDur)
		})
	}
}

func TestParseLockTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tm, err := parseLockTime("", now)
	assert.NoError(t, err)
	assert.True(t, tm.IsZero())

	tm, err = parseLockTime("+72h", now)
	assert.NoError(t, err)
	assert.Equal(t, now.Add(72*time.Hour), tm)

	tm, err = parseLockTime("2027-01-01T00:00:00Z", now)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), tm)

	_, err = parseLockTime("tomorrow", now)
	assert.Error(t, err)

	_, err = parseLockTime("+fast", now)
	assert.Error(t, err)
}
