package spaced_repetition

import (
	"sort"
	"time"

	"github.com/example/studyplanner/pkg/models"
)

// DueRevisions returns up to limit scheduled revisions whose date has passed.
// Harder material (lower ease factor) comes first, then the most overdue.
func DueRevisions(revisions []models.Revision, now time.Time, limit int) []models.Revision {
	var due []models.Revision
	for _, r := range revisions {
		if r.Status == models.StatusScheduled && !r.ScheduledDate.After(now) {
			due = append(due, r)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].EaseFactor != due[j].EaseFactor {
			return due[i].EaseFactor < due[j].EaseFactor
		}
		if !due[i].ScheduledDate.Equal(due[j].ScheduledDate) {
			return due[i].ScheduledDate.Before(due[j].ScheduledDate)
		}
		return due[i].ID < due[j].ID
	})

	if limit > 0 && len(due) > limit {
		return due[:limit]
	}
	return due
}

// DueTopics returns topics whose coarse next revision date has passed.
func DueTopics(topics []models.Topic, now time.Time) []models.Topic {
	var due []models.Topic
	for _, t := range topics {
		if t.NextRevision != nil && !t.NextRevision.After(now) {
			due = append(due, t)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].NextRevision.Before(*due[j].NextRevision)
	})
	return due
}
