package content_test

import (
	"context"
	"errors"
	"testing"

	"github.com/edukid/backend/internal/content"
)

func TestMemoryCatalog_QuestionDefaults(t *testing.T) {
	c := content.NewMemoryCatalog()

	q, err := c.CreateQuestion(context.Background(), content.Question{
		TopicID:       1,
		Content:       "q",
		CorrectAnswer: "a",
		Distractors:   []string{"b"},
	})
	if err != nil {
		t.Fatalf("CreateQuestion() error = %v", err)
	}

	if q.Type != content.TypeMultipleChoice {
		t.Errorf("Type = %q, want %q", q.Type, content.TypeMultipleChoice)
	}
	if q.Difficulty != 1 {
		t.Errorf("Difficulty = %d, want 1", q.Difficulty)
	}
	if q.MinYearGroup != content.DefaultMinYearGroup || q.MaxYearGroup != content.DefaultMaxYearGroup {
		t.Errorf("year range = [%d,%d], want [%d,%d]",
			q.MinYearGroup, q.MaxYearGroup, content.DefaultMinYearGroup, content.DefaultMaxYearGroup)
	}
}

func TestMemoryCatalog_QuestionNotFound(t *testing.T) {
	c := content.NewMemoryCatalog()

	_, err := c.Question(context.Background(), 1)
	if !errors.Is(err, content.ErrNotFound) {
		t.Errorf("Question() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryCatalog_CreateSubjectIdempotent(t *testing.T) {
	c := content.NewMemoryCatalog()
	ctx := context.Background()

	first, err := c.CreateSubject(ctx, content.Subject{Name: "Maths", Slug: "maths"})
	if err != nil {
		t.Fatalf("CreateSubject() error = %v", err)
	}
	second, err := c.CreateSubject(ctx, content.Subject{Name: "Maths", Slug: "maths"})
	if err != nil {
		t.Fatalf("CreateSubject() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("repeated CreateSubject minted a new ID: %d then %d", first.ID, second.ID)
	}
}

func TestMemoryCatalog_TopicsByStage(t *testing.T) {
	c := content.NewMemoryCatalog()
	ctx := context.Background()

	for _, stage := range []string{content.StageKS1, content.StageKS2, content.StageKS2} {
		if _, err := c.CreateTopic(ctx, content.Topic{Name: "t", Slug: "t", Stage: stage}); err != nil {
			t.Fatalf("CreateTopic() error = %v", err)
		}
	}

	ks2, err := c.Topics(ctx, content.StageKS2)
	if err != nil {
		t.Fatalf("Topics() error = %v", err)
	}
	if len(ks2) != 2 {
		t.Errorf("Topics(KS2) returned %d, want 2", len(ks2))
	}

	all, err := c.Topics(ctx, "")
	if err != nil {
		t.Fatalf("Topics() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Topics(\"\") returned %d, want 3", len(all))
	}
}

func TestQuestion_InYearRange(t *testing.T) {
	q := content.Question{MinYearGroup: 3, MaxYearGroup: 5}

	tests := []struct {
		year int
		want bool
	}{
		{2, false},
		{3, true},
		{5, true},
		{6, false},
	}
	for _, tt := range tests {
		if got := q.InYearRange(tt.year); got != tt.want {
			t.Errorf("InYearRange(%d) = %v, want %v", tt.year, got, tt.want)
		}
	}
}

func TestSeed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "maths.yaml", validPack)
	writeWorkbook(t, dir, [][]any{
		{"topic", "content", "correct_answer", "distractors"},
		{"addition-subtraction", "What is 1 + 1?", "2", "3|4"},
	})

	c := content.NewMemoryCatalog()
	if err := content.Seed(context.Background(), c, dir); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	topics, err := c.Topics(context.Background(), "")
	if err != nil {
		t.Fatalf("Topics() error = %v", err)
	}
	if len(topics) != 1 {
		t.Fatalf("seeded %d topics, want 1", len(topics))
	}

	questions, err := c.QuestionsByTopic(context.Background(), topics[0].ID)
	if err != nil {
		t.Fatalf("QuestionsByTopic() error = %v", err)
	}
	if len(questions) != 3 {
		t.Errorf("seeded %d questions, want 3 (2 from the pack, 1 from the workbook)", len(questions))
	}
}

func TestSeed_SkipsNonEmptyCatalog(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "maths.yaml", validPack)

	c := content.NewMemoryCatalog()
	if _, err := c.CreateTopic(context.Background(), content.Topic{Name: "existing", Slug: "existing", Stage: content.StageKS1}); err != nil {
		t.Fatalf("CreateTopic() error = %v", err)
	}

	if err := content.Seed(context.Background(), c, dir); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	topics, _ := c.Topics(context.Background(), "")
	if len(topics) != 1 {
		t.Errorf("Seed() loaded into a non-empty catalog: %d topics", len(topics))
	}
}

func TestSeed_UnknownWorkbookTopic(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, dir, [][]any{
		{"topic", "content", "correct_answer", "distractors"},
		{"no-such-topic", "q", "a", "b"},
	})

	err := content.Seed(context.Background(), content.NewMemoryCatalog(), dir)
	if err == nil {
		t.Fatal("Seed() succeeded, want unknown-topic error")
	}
}
