package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/studyplanner/internal/study"
	"github.com/example/studyplanner/pkg/models"
)

// Store creates the imported subjects and topics.
type Store interface {
	ListSubjects(ctx context.Context, userID int64) ([]models.Subject, error)
	CreateSubject(ctx context.Context, cmd study.CreateSubjectCommand) (*models.Subject, error)
	CreateTopic(ctx context.Context, cmd study.CreateTopicCommand) (*models.Topic, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	SubjectColumn     string // Column with the subject name
	TopicColumn       string // Column with the topic name
	DescriptionColumn string // Column with the topic description
	DifficultyColumn  string // Column with the difficulty
	SheetName         string // Name of the sheet to import, the first sheet when missing
	StartRow          int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SubjectColumn:     "A",
		TopicColumn:       "B",
		DescriptionColumn: "C",
		DifficultyColumn:  "D",
		SheetName:         "Sheet1",
		StartRow:          2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed  int      `json:"total_processed"`
	SubjectsCreated int      `json:"subjects_created"`
	TopicsCreated   int      `json:"topics_created"`
	Skipped         int      `json:"skipped"`
	Errors          []string `json:"errors"`
}

// Importer loads subject/topic rows into a user's study plan.
type Importer struct {
	store  Store
	config ImportConfig
}

// NewImporter creates an importer with the given column layout.
func NewImporter(store Store, config ImportConfig) *Importer {
	if config.StartRow < 1 {
		config.StartRow = 1
	}
	return &Importer{store: store, config: config}
}

// Import reads an .xlsx or .csv upload, chosen by filename, and creates the
// subjects and topics it names. Existing topics are skipped.
func (im *Importer) Import(ctx context.Context, userID int64, filename string, r io.Reader) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx", ".xlsm":
		rows, err = im.readExcel(r)
	default:
		return nil, fmt.Errorf("unsupported file type %q, expected .xlsx or .csv", filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}

	existing, err := im.store.ListSubjects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing subjects: %w", err)
	}
	p := &plan{
		store:    im.store,
		userID:   userID,
		subjects: make(map[string]*subjectEntry),
		result:   &ImportResult{Errors: make([]string, 0)},
	}
	for _, s := range existing {
		p.add(s)
	}

	for i, row := range rows {
		// Skip header rows
		if i < im.config.StartRow-1 || isBlank(row) {
			continue
		}
		p.result.TotalProcessed++
		if err := p.processRow(ctx, im.rowData(row)); err != nil {
			p.result.Errors = append(p.result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}
	return p.result, nil
}

func (im *Importer) readExcel(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := im.config.SheetName
	if idx, _ := f.GetSheetIndex(sheet); sheet == "" || idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return rows, nil
}

// TopicRow is one parsed import row.
type TopicRow struct {
	Subject     string
	Topic       string
	Description string
	Difficulty  string
}

func (im *Importer) rowData(row []string) TopicRow {
	cell := func(column string) string {
		if column == "" {
			return ""
		}
		if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}
	return TopicRow{
		Subject:     cell(im.config.SubjectColumn),
		Topic:       cell(im.config.TopicColumn),
		Description: cell(im.config.DescriptionColumn),
		Difficulty:  cell(im.config.DifficultyColumn),
	}
}

type subjectEntry struct {
	id     int64
	topics map[string]bool
}

// plan tracks what exists while rows are applied.
type plan struct {
	store    Store
	userID   int64
	subjects map[string]*subjectEntry
	result   *ImportResult
}

func (p *plan) add(s models.Subject) *subjectEntry {
	e := &subjectEntry{id: s.ID, topics: make(map[string]bool)}
	for _, t := range s.Topics {
		e.topics[strings.ToLower(t.Name)] = true
	}
	p.subjects[strings.ToLower(s.Name)] = e
	return e
}

// processRow handles the common logic for processing row data from any source
func (p *plan) processRow(ctx context.Context, row TopicRow) error {
	if row.Subject == "" {
		return fmt.Errorf("subject cannot be empty")
	}
	if row.Topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	difficulty, err := ParseDifficulty(row.Difficulty)
	if err != nil {
		return err
	}

	subject, err := p.getOrCreateSubject(ctx, row.Subject)
	if err != nil {
		return err
	}
	key := strings.ToLower(row.Topic)
	if subject.topics[key] {
		p.result.Skipped++
		return nil
	}

	_, err = p.store.CreateTopic(ctx, study.CreateTopicCommand{
		UserID:      p.userID,
		SubjectID:   subject.id,
		Name:        row.Topic,
		Description: row.Description,
		Difficulty:  difficulty,
	})
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}
	subject.topics[key] = true
	p.result.TopicsCreated++
	return nil
}

// getOrCreateSubject gets a subject by name or creates a new one if it doesn't exist
func (p *plan) getOrCreateSubject(ctx context.Context, name string) (*subjectEntry, error) {
	if e, ok := p.subjects[strings.ToLower(name)]; ok {
		return e, nil
	}
	s, err := p.store.CreateSubject(ctx, study.CreateSubjectCommand{UserID: p.userID, Name: name})
	if err != nil {
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}
	p.result.SubjectsCreated++
	return p.add(*s), nil
}

// ParseDifficulty accepts easy/medium/hard or a 1-5 score; empty means medium.
func ParseDifficulty(s string) (models.Difficulty, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return models.DifficultyMedium, nil
	}
	if d := models.Difficulty(s); d.IsValid() {
		return d, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 5 {
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
	switch {
	case n <= 2:
		return models.DifficultyEasy, nil
	case n == 3:
		return models.DifficultyMedium, nil
	default:
		return models.DifficultyHard, nil
	}
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		if column[i] < 'A' || column[i] > 'Z' {
			return -1
		}
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
