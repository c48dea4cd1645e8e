package content_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/edukid/backend/internal/content"
)

const validPack = `subject: Mathematics
slug: maths
topics:
  - name: Addition and Subtraction
    slug: addition-subtraction
    stage: KS2
    description: Mental and written methods
    questions:
      - content: "What is 5 + 3?"
        correct_answer: "8"
        distractors: ["7", "9"]
        difficulty: 1
        min_year_group: 3
        max_year_group: 5
        explanation: "5 + 3 = 8"
      - content: "What is 12 - 4?"
        correct_answer: "8"
        distractors: ["6", "7", "9"]
`

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", name, err)
	}
	return path
}

func TestLoadPack(t *testing.T) {
	path := writeFile(t, t.TempDir(), "maths.yaml", validPack)

	pack, err := content.LoadPack(path)
	if err != nil {
		t.Fatalf("LoadPack() error = %v", err)
	}

	if pack.Subject != "Mathematics" || pack.Slug != "maths" {
		t.Errorf("pack = %q/%q, want Mathematics/maths", pack.Subject, pack.Slug)
	}
	if len(pack.Topics) != 1 {
		t.Fatalf("len(Topics) = %d, want 1", len(pack.Topics))
	}
	topic := pack.Topics[0]
	if topic.Stage != content.StageKS2 {
		t.Errorf("Stage = %q, want %q", topic.Stage, content.StageKS2)
	}
	if len(topic.Questions) != 2 {
		t.Fatalf("len(Questions) = %d, want 2", len(topic.Questions))
	}
	q := topic.Questions[0]
	if q.CorrectAnswer != "8" || q.Difficulty != 1 || q.MinYearGroup != 3 {
		t.Errorf("question = %+v", q)
	}
}

func TestLoadPack_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "missing subject",
			data:    "slug: maths\ntopics: []\n",
			wantErr: "subject",
		},
		{
			name: "bad stage",
			data: `subject: Maths
slug: maths
topics:
  - name: T
    slug: t
    stage: KS9
    questions: []
`,
			wantErr: "stage",
		},
		{
			name: "question without distractors",
			data: `subject: Maths
slug: maths
topics:
  - name: T
    slug: t
    stage: KS1
    questions:
      - content: "2+2?"
        correct_answer: "4"
        distractors: []
`,
			wantErr: "distractors",
		},
		{
			name: "difficulty out of range",
			data: `subject: Maths
slug: maths
topics:
  - name: T
    slug: t
    stage: KS1
    questions:
      - content: "2+2?"
        correct_answer: "4"
        distractors: ["5"]
        difficulty: 7
`,
			wantErr: "difficulty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "pack.yaml", tt.data)
			_, err := content.LoadPack(path)
			if err == nil {
				t.Fatal("LoadPack() succeeded, want validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func writeWorkbook(t *testing.T, dir string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := "Questions"
	if _, err := f.NewSheet(sheet); err != nil {
		t.Fatalf("NewSheet() error = %v", err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	path := filepath.Join(dir, "questions.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	return path
}

func TestLoadWorkbook(t *testing.T) {
	path := writeWorkbook(t, t.TempDir(), [][]any{
		{"topic", "content", "correct_answer", "distractors", "difficulty", "min_year_group", "max_year_group", "explanation"},
		{"addition-subtraction", "What is 6 + 7?", "13", "12 | 14 | 11", 2, 3, 5, "6 + 7 = 13"},
		{"addition-subtraction", "What is 9 - 5?", "4", "3|5", "", "", "", ""},
	})

	questions, err := content.LoadWorkbook(path)
	if err != nil {
		t.Fatalf("LoadWorkbook() error = %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("len(questions) = %d, want 2", len(questions))
	}

	first := questions[0]
	if first.TopicSlug != "addition-subtraction" {
		t.Errorf("TopicSlug = %q", first.TopicSlug)
	}
	if first.Question.CorrectAnswer != "13" || first.Question.Difficulty != 2 {
		t.Errorf("question = %+v", first.Question)
	}
	wantDistractors := []string{"12", "14", "11"}
	if len(first.Question.Distractors) != len(wantDistractors) {
		t.Fatalf("Distractors = %v, want %v", first.Question.Distractors, wantDistractors)
	}
	for i, d := range wantDistractors {
		if first.Question.Distractors[i] != d {
			t.Errorf("Distractors[%d] = %q, want %q", i, first.Question.Distractors[i], d)
		}
	}

	second := questions[1]
	if second.Question.Difficulty != 0 {
		t.Errorf("Difficulty = %d, want 0 (defaulted at write time)", second.Question.Difficulty)
	}
}

func TestLoadWorkbook_MissingColumn(t *testing.T) {
	path := writeWorkbook(t, t.TempDir(), [][]any{
		{"topic", "content", "correct_answer"},
		{"t", "q", "a"},
	})

	_, err := content.LoadWorkbook(path)
	if err == nil || !strings.Contains(err.Error(), "distractors") {
		t.Errorf("LoadWorkbook() error = %v, want missing column complaint", err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "maths.yaml", validPack)
	writeWorkbook(t, dir, [][]any{
		{"topic", "content", "correct_answer", "distractors"},
		{"addition-subtraction", "What is 1 + 1?", "2", "3"},
	})
	writeFile(t, dir, "README.md", "ignored")

	c, err := content.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(c.Packs) != 1 {
		t.Errorf("len(Packs) = %d, want 1", len(c.Packs))
	}
	if len(c.WorkbookQuestions) != 1 {
		t.Errorf("len(WorkbookQuestions) = %d, want 1", len(c.WorkbookQuestions))
	}
}
