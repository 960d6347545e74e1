package search

import (
	"context"
	"encoding/json"
	"testing"

	meili "github.com/meilisearch/meilisearch-go"
)

func rawString(s string) json.RawMessage {
	data, _ := json.Marshal(s)
	return data
}

func TestIndexToResultType(t *testing.T) {
	if got := indexToResultType(idxProjects); got != ResultProject {
		t.Errorf("expected project type, got %q", got)
	}
	if got := indexToResultType(idxTasks); got != ResultTask {
		t.Errorf("expected task type, got %q", got)
	}
	if got := indexToResultType("something_else"); got != "" {
		t.Errorf("unknown index must map to empty type, got %q", got)
	}
}

func TestHitToResult(t *testing.T) {
	t.Run("task hit carries project and snippet", func(t *testing.T) {
		hit := meili.Hit{
			"id":          rawString("tsk-1"),
			"title":       rawString("Fix login"),
			"projectId":   rawString("prj-1"),
			"description": rawString("users cannot sign in"),
		}
		result := hitToResult(hit, ResultTask)
		if result.ID != "tsk-1" || result.Title != "Fix login" {
			t.Fatalf("unexpected result %+v", result)
		}
		if result.ProjectID != "prj-1" {
			t.Errorf("expected projectId prj-1, got %q", result.ProjectID)
		}
		if result.Snippet != "users cannot sign in" {
			t.Errorf("unexpected snippet %q", result.Snippet)
		}
	})

	t.Run("project hit uses its own id as projectId", func(t *testing.T) {
		hit := meili.Hit{
			"id":    rawString("prj-2"),
			"title": rawString("Backlog"),
		}
		result := hitToResult(hit, ResultProject)
		if result.ProjectID != "prj-2" {
			t.Errorf("expected projectId prj-2, got %q", result.ProjectID)
		}
	})

	t.Run("formatted title wins over the plain one", func(t *testing.T) {
		formatted, _ := json.Marshal(map[string]string{"title": "Fix <em>login</em>"})
		hit := meili.Hit{
			"id":         rawString("tsk-1"),
			"title":      rawString("Fix login"),
			"_formatted": formatted,
		}
		result := hitToResult(hit, ResultTask)
		if result.Title != "Fix <em>login</em>" {
			t.Errorf("expected highlighted title, got %q", result.Title)
		}
	})

	t.Run("missing fields decode to empty strings", func(t *testing.T) {
		result := hitToResult(meili.Hit{}, ResultTask)
		if result.ID != "" || result.Title != "" || result.Snippet != "" {
			t.Errorf("expected zero result, got %+v", result)
		}
	})
}

func TestFirstNonBlank(t *testing.T) {
	if got := firstNonBlank("", "  ", "value", "other"); got != "value" {
		t.Errorf("expected %q, got %q", "value", got)
	}
	if got := firstNonBlank("", "   "); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestServiceFallsBackWithoutMeili(t *testing.T) {
	// A service built without a Meilisearch client must not panic on the
	// indexing paths; they are silent no-ops until a backend exists.
	ctx := context.Background()
	svc := NewService(nil, nil)
	if err := svc.RemoveProject(ctx, "prj-1"); err != nil {
		t.Fatalf("RemoveProject without backend: %v", err)
	}
	if err := svc.RemoveTask(ctx, "tsk-1"); err != nil {
		t.Fatalf("RemoveTask without backend: %v", err)
	}
}

func TestNonNil(t *testing.T) {
	if got := nonNil(nil); got == nil {
		t.Fatal("nil slice must become an empty one")
	}
	in := []Result{{ID: "a"}}
	if got := nonNil(in); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected slice %v", got)
	}
}
