package excel

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/studyplanner/pkg/models"
)

// Sheet names of the progress export
const (
	SubjectsSheet = "Subjects"
	TopicsSheet   = "Topics"
)

var (
	subjectHeader = []interface{}{"ID", "Subject", "Description", "Progress %", "Study time (min)", "Last studied", "Topics"}
	topicHeader   = []interface{}{"Subject", "Topic", "Difficulty", "Progress %", "Revisions", "Ease factor", "Interval (days)", "Next revision"}
)

// ExportProgress writes a workbook with one row per subject and one row per topic.
func ExportProgress(w io.Writer, subjects []models.Subject) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SubjectsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(TopicsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := setRow(f, SubjectsSheet, 1, subjectHeader); err != nil {
		return err
	}
	if err := setRow(f, TopicsSheet, 1, topicHeader); err != nil {
		return err
	}

	topicRow := 2
	for i, s := range subjects {
		err := setRow(f, SubjectsSheet, i+2, []interface{}{
			s.ID, s.Name, s.Description, s.TotalProgress, s.StudyTime, formatDate(s.LastStudied), len(s.Topics),
		})
		if err != nil {
			return err
		}
		for _, t := range s.Topics {
			err := setRow(f, TopicsSheet, topicRow, []interface{}{
				s.Name, t.Name, string(t.Difficulty), t.Progress, t.RevisionCount,
				t.EaseFactor, t.Interval, formatDate(t.RevisionState.NextRevision),
			})
			if err != nil {
				return err
			}
			topicRow++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
