package content

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WorkbookQuestion is a question authored in a spreadsheet, keyed to
// its topic by slug. Topics themselves come from YAML packs; workbooks
// only bulk-add questions.
type WorkbookQuestion struct {
	TopicSlug string
	Question  Question
}

// workbookSheet is the sheet LoadWorkbook reads. Expected header:
// topic, content, correct_answer, distractors, difficulty,
// min_year_group, max_year_group, explanation, type.
// Distractors are pipe-separated.
const workbookSheet = "Questions"

// LoadWorkbook reads bulk-authored questions from an xlsx workbook.
func LoadWorkbook(path string) ([]WorkbookQuestion, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(workbookSheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", workbookSheet, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"topic", "content", "correct_answer", "distractors"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("workbook %s: missing column %q", path, required)
		}
	}

	var out []WorkbookQuestion
	for i, row := range rows[1:] {
		cell := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		if cell("topic") == "" && cell("content") == "" {
			continue // blank trailing row
		}

		q := Question{
			Content:       cell("content"),
			Type:          cell("type"),
			CorrectAnswer: cell("correct_answer"),
			Distractors:   splitDistractors(cell("distractors")),
			Explanation:   cell("explanation"),
		}
		if q.Content == "" || q.CorrectAnswer == "" || len(q.Distractors) == 0 {
			return nil, fmt.Errorf("workbook %s row %d: content, correct_answer and distractors are required", path, i+2)
		}

		for _, f := range []struct {
			col string
			dst *int
		}{
			{"difficulty", &q.Difficulty},
			{"min_year_group", &q.MinYearGroup},
			{"max_year_group", &q.MaxYearGroup},
		} {
			if v := cell(f.col); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("workbook %s row %d: %s %q is not an integer", path, i+2, f.col, v)
				}
				*f.dst = n
			}
		}

		out = append(out, WorkbookQuestion{TopicSlug: cell("topic"), Question: q})
	}
	return out, nil
}

func splitDistractors(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
