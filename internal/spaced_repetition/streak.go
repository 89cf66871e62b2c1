package spaced_repetition

import (
	"sort"
	"time"
)

// Streak counts consecutive calendar days with at least one completion, ending today.
// A chain whose latest day is yesterday still counts since today is not over yet.
// Dates may come in any order and may repeat within a day; days are taken in now's location.
// Days after today are ignored.
func Streak(completed []time.Time, now time.Time) int {
	loc := now.Location()
	today := midnight(now)
	days := make([]time.Time, 0, len(completed))
	seen := make(map[int64]bool, len(completed))
	for _, c := range completed {
		d := midnight(c.In(loc))
		if d.After(today) {
			continue
		}
		if !seen[d.Unix()] {
			seen[d.Unix()] = true
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return 0
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	expected := today
	if !days[0].Equal(today) {
		expected = today.AddDate(0, 0, -1)
		if !days[0].Equal(expected) {
			return 0
		}
	}

	streak := 0
	for _, d := range days {
		if !d.Equal(expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
