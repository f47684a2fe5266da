package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eslsoft/vocadrill/internal/entity"
)

func TestProgressMirrorFetch(t *testing.T) {
	best := 80
	stored := entity.NewLearningProgress()
	stored.Topics["food"] = &entity.TopicProgress{TopicID: "food", BestScore: &best}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/progress" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer s3cret" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode(stored)
	}))
	defer server.Close()

	client := NewProgressMirrorClient(server.URL, "s3cret", time.Second)
	progress, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if progress == nil || progress.Topics["food"] == nil || *progress.Topics["food"].BestScore != 80 {
		t.Fatalf("Fetch returned %+v", progress)
	}
}

func TestProgressMirrorFetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewProgressMirrorClient(server.URL, "", time.Second)
	progress, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if progress != nil {
		t.Fatalf("a 404 must map to no progress, got %+v", progress)
	}
}

func TestProgressMirrorPush(t *testing.T) {
	var received *entity.LearningProgress
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var progress entity.LearningProgress
		if err := json.NewDecoder(r.Body).Decode(&progress); err != nil {
			t.Errorf("decode body: %v", err)
		}
		received = &progress
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	pushed := entity.NewLearningProgress()
	pushed.Topics["animals"] = &entity.TopicProgress{TopicID: "animals"}

	client := NewProgressMirrorClient(server.URL, "", time.Second)
	if err := client.Push(context.Background(), pushed); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if received == nil || received.Topics["animals"] == nil {
		t.Fatalf("server received %+v", received)
	}
}

func TestProgressMirrorPushServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewProgressMirrorClient(server.URL, "", time.Second)
	if err := client.Push(context.Background(), entity.NewLearningProgress()); err == nil {
		t.Fatal("a 5xx push must surface an error")
	}
}
