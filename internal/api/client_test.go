package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/focusflow/internal/pomodoro"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second)
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:8000", "http://localhost:8000/api/v1"},
		{"http://localhost:8000/", "http://localhost:8000/api/v1"},
		{"http://localhost:8000/api/v1", "http://localhost:8000/api/v1"},
		{"http://localhost:8000/api/v1/", "http://localhost:8000/api/v1"},
	}
	for _, tt := range tests {
		if got := NormalizeBaseURL(tt.in); got != tt.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreateSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/pomodoro/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["session_type"] != "focus" || body["duration"] != float64(25) || body["task_id"] != float64(3) {
			t.Errorf("body = %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":7,"task_id":3,"session_type":"focus","duration":25,"state":"pending",
			"started_at":null,"completed_at":null,"paused_duration_ms":0,
			"created_at":"2026-05-04T09:00:00.123456","updated_at":null}`)
	})

	s, err := c.CreateSession(context.Background(), pomodoro.SessionCreate{
		TaskID:          pomodoro.Ptr(int64(3)),
		SessionType:     pomodoro.Focus,
		DurationMinutes: 25,
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.ID != 7 || s.State != pomodoro.StatePending || s.SessionType != pomodoro.Focus {
		t.Errorf("session = %+v", s)
	}
	if s.CreatedAt.IsZero() {
		t.Error("created_at without zone should still parse")
	}
	if s.StartedAt != nil {
		t.Error("started_at should be nil")
	}
}

func TestUpdateSessionSendsOnlySetFields(t *testing.T) {
	started := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/v1/pomodoro/sessions/7" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if len(body) != 2 {
			t.Errorf("body = %v, want state and started_at only", body)
		}
		if body["state"] != "active" || body["started_at"] != "2026-05-04T09:00:00Z" {
			t.Errorf("body = %v", body)
		}
		io.WriteString(w, `{"id":7,"session_type":"focus","duration":25,"state":"active",
			"started_at":"2026-05-04T09:00:00Z","paused_duration_ms":0,
			"created_at":"2026-05-04T09:00:00Z"}`)
	})

	s, err := c.UpdateSession(context.Background(), 7, pomodoro.SessionUpdate{
		State:     pomodoro.Ptr(pomodoro.StateActive),
		StartedAt: &started,
	})
	if err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	if s.State != pomodoro.StateActive || s.StartedAt == nil || !s.StartedAt.Equal(started) {
		t.Errorf("session = %+v", s)
	}
}

func TestActiveSessionNull(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "null")
	})
	s, err := c.ActiveSession(context.Background())
	if err != nil {
		t.Fatalf("ActiveSession: %v", err)
	}
	if s != nil {
		t.Errorf("ActiveSession = %+v, want nil", s)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail":"Session not found"}`)
	})
	_, err := c.GetSession(context.Background(), 99)
	if !errors.Is(err, pomodoro.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Detail != "Session not found" {
		t.Errorf("api error = %+v", apiErr)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound = false")
	}
}

func TestErrorDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string", `{"detail":"boom"}`, "boom"},
		{"validation", `{"detail":[{"msg":"field required"},{"msg":"too long"}]}`, "field required; too long"},
		{"plain", "Internal Server Error", "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorDetail([]byte(tt.body)); got != tt.want {
				t.Errorf("errorDetail = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServerErrorNotRetried(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"detail":"db down"}`)
	})
	_, err := c.TodayStats(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != 500 {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestTodayStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/pomodoro/stats/today" {
			t.Errorf("path = %s", r.URL.Path)
		}
		io.WriteString(w, `{"completed_today":4,"total_focus_time_minutes":100}`)
	})
	stats, err := c.TodayStats(context.Background())
	if err != nil {
		t.Fatalf("TodayStats: %v", err)
	}
	if stats.CompletedToday != 4 || stats.TotalFocusMinutes != 100 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestListTasksQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("include_completed"); got != "false" {
			t.Errorf("include_completed = %q", got)
		}
		io.WriteString(w, `[{"id":1,"title":"Write","completed":false,"order":0,"created_at":"2026-05-04T09:00:00Z"},
			{"id":2,"title":"Read","description":"ch. 3","completed":false,"order":1,"created_at":"2026-05-04T09:00:00Z"}]`)
	})
	tasks, err := c.ListTasks(context.Background(), false)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 2 || tasks[1].Description == nil || *tasks[1].Description != "ch. 3" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestCreateTaskValidates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty title")
	})
	_, err := c.CreateTask(context.Background(), pomodoro.TaskCreate{})
	if !errors.Is(err, pomodoro.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestUpdateAndDeleteTask(t *testing.T) {
	var methods []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), `"completed":true`) {
				t.Errorf("body = %s", body)
			}
			io.WriteString(w, `{"id":1,"title":"Write","completed":true,"order":0,"created_at":"2026-05-04T09:00:00Z"}`)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})

	task, err := c.UpdateTask(context.Background(), 1, pomodoro.TaskUpdate{Completed: pomodoro.Ptr(true)})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if !task.Completed {
		t.Error("task not completed")
	}
	if err := c.DeleteTask(context.Background(), 1); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	want := []string{"PUT /api/v1/tasks/1", "DELETE /api/v1/tasks/1"}
	if strings.Join(methods, ",") != strings.Join(want, ",") {
		t.Errorf("requests = %v, want %v", methods, want)
	}
}
