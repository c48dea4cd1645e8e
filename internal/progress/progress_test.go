package progress_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/edukid/backend/internal/progress"
)

func TestMemoryMasteryStore_GetMissing(t *testing.T) {
	store := progress.NewMemoryMasteryStore()

	_, ok, err := store.Get(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() reported a record for an empty store")
	}
}

func TestMemoryMasteryStore_UpsertCreatesAndUpdates(t *testing.T) {
	store := progress.NewMemoryMasteryStore()
	ctx := context.Background()

	created, err := store.Upsert(ctx, 7, 3, func(prev progress.Mastery, exists bool) progress.Mastery {
		if exists {
			t.Error("first Upsert saw an existing record")
		}
		return progress.Mastery{Score: 1.0, QuestionsAnswered: 1}
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if created.UserID != 7 || created.TopicID != 3 {
		t.Errorf("Upsert() keyed record as (%d, %d), want (7, 3)", created.UserID, created.TopicID)
	}

	updated, err := store.Upsert(ctx, 7, 3, func(prev progress.Mastery, exists bool) progress.Mastery {
		if !exists {
			t.Error("second Upsert did not see the existing record")
		}
		prev.QuestionsAnswered++
		return prev
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if updated.QuestionsAnswered != 2 {
		t.Errorf("QuestionsAnswered = %d, want 2", updated.QuestionsAnswered)
	}
}

func TestMemoryMasteryStore_UpsertConcurrent(t *testing.T) {
	store := progress.NewMemoryMasteryStore()
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Upsert(ctx, 1, 1, func(prev progress.Mastery, exists bool) progress.Mastery {
				prev.QuestionsAnswered++
				return prev
			})
		}()
	}
	wg.Wait()

	m, ok, err := store.Get(ctx, 1, 1)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v; want record", ok, err)
	}
	if m.QuestionsAnswered != workers {
		t.Errorf("QuestionsAnswered = %d, want %d", m.QuestionsAnswered, workers)
	}
}

func TestMemoryMasteryStore_ByUser(t *testing.T) {
	store := progress.NewMemoryMasteryStore()
	ctx := context.Background()

	for _, topicID := range []int{5, 2, 9} {
		if _, err := store.Upsert(ctx, 1, topicID, func(prev progress.Mastery, _ bool) progress.Mastery {
			return progress.Mastery{Score: 0.5}
		}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}
	if _, err := store.Upsert(ctx, 2, 1, func(prev progress.Mastery, _ bool) progress.Mastery {
		return progress.Mastery{Score: 0.1}
	}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	records, err := store.ByUser(ctx, 1)
	if err != nil {
		t.Fatalf("ByUser() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("ByUser() returned %d records, want 3", len(records))
	}
	for i, want := range []int{2, 5, 9} {
		if records[i].TopicID != want {
			t.Errorf("records[%d].TopicID = %d, want %d", i, records[i].TopicID, want)
		}
	}
}

func TestMemoryEventLog_DefaultsCreatedAt(t *testing.T) {
	log := progress.NewMemoryEventLog()

	before := time.Now()
	if err := log.Append(context.Background(), progress.LearningEvent{UserID: 1, QuestionID: 2}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	events := log.Events()
	if len(events) != 1 {
		t.Fatalf("Events() returned %d, want 1", len(events))
	}
	if events[0].CreatedAt.Before(before) {
		t.Errorf("CreatedAt = %v, want >= %v", events[0].CreatedAt, before)
	}
}
