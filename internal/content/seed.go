package content

import (
	"context"
	"fmt"
	"log/slog"
)

// Seed loads the content directory into the catalog if the catalog is
// empty. Runs at startup; an already-seeded catalog is left untouched.
func Seed(ctx context.Context, w Writer, dir string) error {
	empty, err := w.Empty(ctx)
	if err != nil {
		return fmt.Errorf("checking catalog: %w", err)
	}
	if !empty {
		slog.Info("catalog already seeded, skipping content load")
		return nil
	}

	loaded, err := LoadDir(dir)
	if err != nil {
		return err
	}

	topicBySlug := make(map[string]Topic)
	topics, questions := 0, 0

	for _, pack := range loaded.Packs {
		subject, err := w.CreateSubject(ctx, Subject{Name: pack.Subject, Slug: pack.Slug})
		if err != nil {
			return err
		}

		for _, pt := range pack.Topics {
			topic, err := w.CreateTopic(ctx, Topic{
				SubjectID:   subject.ID,
				Name:        pt.Name,
				Slug:        pt.Slug,
				Stage:       pt.Stage,
				Description: pt.Description,
			})
			if err != nil {
				return err
			}
			topicBySlug[topic.Slug] = topic
			topics++

			for _, pq := range pt.Questions {
				if _, err := w.CreateQuestion(ctx, Question{
					TopicID:       topic.ID,
					Content:       pq.Content,
					Type:          pq.Type,
					CorrectAnswer: pq.CorrectAnswer,
					Distractors:   pq.Distractors,
					Difficulty:    pq.Difficulty,
					MinYearGroup:  pq.MinYearGroup,
					MaxYearGroup:  pq.MaxYearGroup,
					Explanation:   pq.Explanation,
				}); err != nil {
					return err
				}
				questions++
			}
		}
	}

	for _, wq := range loaded.WorkbookQuestions {
		topic, ok := topicBySlug[wq.TopicSlug]
		if !ok {
			return fmt.Errorf("workbook question references unknown topic %q", wq.TopicSlug)
		}
		q := wq.Question
		q.TopicID = topic.ID
		if _, err := w.CreateQuestion(ctx, q); err != nil {
			return err
		}
		questions++
	}

	slog.Info("content seeded", "topics", topics, "questions", questions)
	return nil
}
