// Package stats turns completed study sessions into the numbers shown on the
// progress pages and in the bot.
package stats

import (
	"math"
	"time"

	"github.com/example/studyplanner/pkg/models"
)

// Weekdays is the bucket order of StudyTimeByWeekday.
var Weekdays = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday,
}

// WeekdayMinutes is the study time of one weekday.
type WeekdayMinutes struct {
	Day     string `json:"day"`
	Minutes int    `json:"minutes"`
}

// DifficultyPerformance is the mean rating of sessions of one difficulty.
type DifficultyPerformance struct {
	Difficulty models.Difficulty `json:"difficulty"`
	Average    int               `json:"average"`
	Sessions   int               `json:"sessions"`
}

// WeekStart returns midnight of the Sunday starting the week that contains now,
// in now's location.
func WeekStart(now time.Time) time.Time {
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// StudyTimeByWeekday sums session durations of the current week into seven
// Sunday-first buckets. Sessions outside the week are ignored.
func StudyTimeByWeekday(sessions []models.CompletedSession, now time.Time) []WeekdayMinutes {
	start := WeekStart(now)
	end := start.AddDate(0, 0, 7)

	var buckets [7]int
	for _, s := range sessions {
		at := s.CompletedDate.In(now.Location())
		if at.Before(start) || !at.Before(end) {
			continue
		}
		buckets[at.Weekday()] += s.Duration
	}

	out := make([]WeekdayMinutes, len(Weekdays))
	for i, wd := range Weekdays {
		out[i] = WeekdayMinutes{Day: wd.String()[:3], Minutes: buckets[wd]}
	}
	return out
}

// PerformanceByDifficulty returns the rounded mean rating for easy, medium and
// hard sessions. A difficulty without sessions averages 0.
func PerformanceByDifficulty(sessions []models.CompletedSession) []DifficultyPerformance {
	sums := make(map[models.Difficulty]int)
	counts := make(map[models.Difficulty]int)
	for _, s := range sessions {
		sums[s.Difficulty] += s.Performance
		counts[s.Difficulty]++
	}

	out := make([]DifficultyPerformance, 0, len(models.Difficulties))
	for _, d := range models.Difficulties {
		p := DifficultyPerformance{Difficulty: d, Sessions: counts[d]}
		if p.Sessions > 0 {
			p.Average = int(math.Round(float64(sums[d]) / float64(p.Sessions)))
		}
		out = append(out, p)
	}
	return out
}

// DayBounds returns [midnight, next midnight) of now's calendar day.
func DayBounds(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}
