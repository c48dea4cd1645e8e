package api_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/edukid/backend/internal/api"
	"github.com/edukid/backend/internal/content"
	"github.com/edukid/backend/internal/platform/metrics"
	"github.com/edukid/backend/internal/progress"
	"github.com/edukid/backend/internal/users"
)

func TestLiveHub_StreamsEvents(t *testing.T) {
	hub := api.NewLiveHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	// The subscriber registers asynchronously, so publish on a ticker
	// until the read lands.
	want := progress.LearningEvent{UserID: 1, QuestionID: 2, IsCorrect: true}
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			hub.Publish(want)
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}()

	var got progress.LearningEvent
	if err := wsjson.Read(ctx, conn, &got); err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.UserID != want.UserID || got.QuestionID != want.QuestionID || !got.IsCorrect {
		t.Errorf("received %+v, want %+v", got, want)
	}
}

func TestLiveHub_StreamsThroughMetricsMiddleware(t *testing.T) {
	// The production server wraps the whole mux in WithMetrics; the
	// recorder it injects must still expose Hijacker or the websocket
	// upgrade fails with a 501.
	hub := api.NewLiveHub()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/teacher/live", func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r)
	})
	srv := httptest.NewServer(api.WithMetrics(metrics.New(), mux))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/teacher/live"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() through middleware error = %v", err)
	}
	defer conn.CloseNow()

	want := progress.LearningEvent{UserID: 3, QuestionID: 9, IsCorrect: true}
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			hub.Publish(want)
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}()

	var got progress.LearningEvent
	if err := wsjson.Read(ctx, conn, &got); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.QuestionID != want.QuestionID {
		t.Errorf("received %+v, want %+v", got, want)
	}
}

func TestSubmitAnswer_FeedsLiveDashboard(t *testing.T) {
	ts := newTestServer(t)

	topic, err := ts.catalog.CreateTopic(context.Background(), content.Topic{
		Name: "Addition", Slug: "addition", Stage: content.StageKS2,
	})
	if err != nil {
		t.Fatalf("CreateTopic() error = %v", err)
	}
	q, err := ts.catalog.CreateQuestion(context.Background(), content.Question{
		TopicID: topic.ID, Content: "What is 5 + 3?", CorrectAnswer: "8",
		Distractors: []string{"7"}, Difficulty: 1,
	})
	if err != nil {
		t.Fatalf("CreateQuestion() error = %v", err)
	}
	student := ts.createStudent(t, "alex", 5)

	ts.createWithPassword(t, "teacher1", users.RoleTeacher, "secret123")
	teacherClient := ts.login(t, map[string]any{
		"username": "teacher1", "role": "teacher", "password": "secret123",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Dial the feed with the teacher's session cookie.
	srvURL, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	header := http.Header{}
	for _, c := range teacherClient.Jar.Cookies(srvURL) {
		header.Add("Cookie", c.String())
	}
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/api/teacher/live",
		&websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	studentClient := ts.login(t, map[string]any{
		"username": "alex", "role": "student",
		"picturePassword": []string{"cat", "dog", "apple"},
	})

	// A rejected answer must not reach the feed.
	resp := ts.postJSON(t, studentClient, "/api/learning/answer", map[string]any{
		"questionId": 999, "answer": "8",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("bad submit status = %d, want 404", resp.StatusCode)
	}

	// Successful answers do, once the answer is recorded. Submit on a
	// ticker so the feed subscription racing the dial cannot starve
	// the read.
	submit := fmt.Sprintf(`{"questionId": %d, "answer": "8", "timeTaken": 7}`, q.ID)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			if r, err := studentClient.Post(ts.URL+"/api/learning/answer",
				"application/json", strings.NewReader(submit)); err == nil {
				r.Body.Close()
			}
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}()

	var got progress.LearningEvent
	if err := wsjson.Read(ctx, conn, &got); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.UserID != student.ID || got.QuestionID != q.ID || !got.IsCorrect || got.TimeTaken != 7 {
		t.Errorf("feed event = %+v, want correct answer by student %d on question %d", got, student.ID, q.ID)
	}
}

func TestLiveHub_PublishNeverBlocks(t *testing.T) {
	hub := api.NewLiveHub()

	// No subscribers, then far more events than any buffer: Publish
	// must return promptly either way.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish(progress.LearningEvent{UserID: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked")
	}
}
