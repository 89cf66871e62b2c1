package study

import (
	"context"
	"time"

	sr "github.com/example/studyplanner/internal/spaced_repetition"
	"github.com/example/studyplanner/internal/stats"
	"github.com/example/studyplanner/pkg/models"
)

// Overview returns the dashboard summary.
func (s *Service) Overview(ctx context.Context, userID int64) (*models.Overview, error) {
	now := s.Now()
	var (
		ov  models.Overview
		err error
	)
	if ov.TotalSubjects, err = s.repos.Stats.CountSubjects(ctx, userID); err != nil {
		return nil, err
	}
	if ov.UpcomingRevisions, err = s.repos.Stats.CountUpcoming(ctx, userID, now); err != nil {
		return nil, err
	}
	from, to := stats.DayBounds(now)
	if ov.CompletedToday, err = s.repos.Stats.CountCompletedBetween(ctx, userID, from, to); err != nil {
		return nil, err
	}
	if ov.Streak, err = s.Streak(ctx, userID); err != nil {
		return nil, err
	}
	return &ov, nil
}

// Streak returns the number of consecutive days with a completed revision.
func (s *Service) Streak(ctx context.Context, userID int64) (int, error) {
	dates, err := s.repos.Stats.CompletedDates(ctx, userID)
	if err != nil {
		return 0, err
	}
	return sr.Streak(dates, s.Now()), nil
}

// SubjectProgress returns total progress per subject.
func (s *Service) SubjectProgress(ctx context.Context, userID int64) ([]models.SubjectProgress, error) {
	return s.repos.Stats.SubjectProgress(ctx, userID)
}

// TopicProgress returns progress per topic.
func (s *Service) TopicProgress(ctx context.Context, userID int64) ([]models.TopicProgress, error) {
	return s.repos.Stats.TopicProgress(ctx, userID)
}

// StudyTime returns this week's study minutes per weekday, Sunday first.
func (s *Service) StudyTime(ctx context.Context, userID int64) ([]stats.WeekdayMinutes, error) {
	now := s.Now()
	start := stats.WeekStart(now)
	sessions, err := s.repos.Stats.CompletedSessions(ctx, userID, start, start.AddDate(0, 0, 7))
	if err != nil {
		return nil, err
	}
	return stats.StudyTimeByWeekday(sessions, now), nil
}

// Performance returns the mean rating per difficulty over all sessions.
func (s *Service) Performance(ctx context.Context, userID int64) ([]stats.DifficultyPerformance, error) {
	sessions, err := s.repos.Stats.CompletedSessions(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	return stats.PerformanceByDifficulty(sessions), nil
}
