package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/example/studyplanner/pkg/models"
)

func TestDueRevisions(t *testing.T) {
	rev := func(id int64, hoursAgo int, ef float64, status models.RevisionStatus) models.Revision {
		return models.Revision{
			ID:            id,
			ScheduledDate: t0.Add(-time.Duration(hoursAgo) * time.Hour),
			Status:        status,
			RevisionState: models.RevisionState{Interval: 1, EaseFactor: ef},
		}
	}
	revisions := []models.Revision{
		rev(1, 2, 2.5, models.StatusScheduled),
		rev(2, 30, 2.5, models.StatusScheduled),
		rev(3, 1, 1.8, models.StatusScheduled),
		rev(4, -5, 1.3, models.StatusScheduled), // in the future
		rev(5, 40, 1.3, models.StatusCompleted),
		rev(6, 2, 2.5, models.StatusScheduled),
	}

	due := DueRevisions(revisions, t0, 0)
	ids := make([]int64, 0, len(due))
	for _, r := range due {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{3, 2, 1, 6}, ids)

	assert.Len(t, DueRevisions(revisions, t0, 2), 2)
}

func TestDueTopics(t *testing.T) {
	past := t0.Add(-time.Hour)
	older := t0.Add(-48 * time.Hour)
	future := t0.Add(time.Hour)
	topics := []models.Topic{
		{ID: 1, NextRevision: &past},
		{ID: 2},
		{ID: 3, NextRevision: &future},
		{ID: 4, NextRevision: &older},
	}
	due := DueTopics(topics, t0)
	if assert.Len(t, due, 2) {
		assert.Equal(t, int64(4), due[0].ID)
		assert.Equal(t, int64(1), due[1].ID)
	}
}
