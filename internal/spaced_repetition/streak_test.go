package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStreak(t *testing.T) {
	now := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)
	day := func(offset int, hour int) time.Time {
		return time.Date(2025, 6, 15+offset, hour, 5, 0, 0, time.UTC)
	}

	cases := []struct {
		name  string
		dates []time.Time
		want  int
	}{
		{"none", nil, 0},
		{"single today", []time.Time{day(0, 9)}, 1},
		{"three consecutive", []time.Time{day(0, 9), day(-1, 20), day(-2, 7)}, 3},
		{"gap breaks chain", []time.Time{day(0, 9), day(-3, 9)}, 1},
		{"several per day", []time.Time{day(0, 17), day(0, 8), day(-1, 22), day(-1, 6), day(-2, 12)}, 3},
		{"unordered input", []time.Time{day(-2, 12), day(0, 8), day(-1, 22)}, 3},
		{"ends yesterday", []time.Time{day(-1, 9), day(-2, 9)}, 2},
		{"ends two days ago", []time.Time{day(-2, 9), day(-3, 9)}, 0},
		{"stops at first gap", []time.Time{day(0, 1), day(-1, 1), day(-3, 1), day(-4, 1)}, 2},
		{"future day skipped", []time.Time{day(2, 9), day(0, 9), day(-1, 9)}, 2},
		{"only future days", []time.Time{day(1, 9), day(3, 9)}, 0},
		{"later today counts", []time.Time{day(0, 23), day(-1, 9)}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Streak(tc.dates, now))
		})
	}
}

func TestStreakUsesCallerLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	now := time.Date(2025, 6, 15, 8, 0, 0, 0, loc)
	// 22:30 UTC on the 14th is 08:30 on the 15th in loc
	completed := []time.Time{time.Date(2025, 6, 14, 22, 30, 0, 0, time.UTC)}

	assert.Equal(t, 1, Streak(completed, now))
	assert.Equal(t, 1, Streak(completed, now.UTC()), "same calendar day in UTC")
}
