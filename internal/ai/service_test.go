package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				f.lastPrompt = text.Text
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.response}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	f.lastPrompt = prompt
	return f.response, f.err
}

func TestPrioritize(t *testing.T) {
	ctx := context.Background()
	tasks := []TaskSummary{
		{ID: "t1", Title: "Fix login", Importance: "P0"},
		{ID: "t2", Title: "Update docs", Importance: "P3"},
	}

	t.Run("plain JSON response", func(t *testing.T) {
		model := &fakeModel{response: `[
			{"id": "t1", "priorityScore": 95, "reason": "blocks sign-in"},
			{"id": "t2", "priorityScore": 10, "reason": "low urgency"}
		]`}
		svc := NewServiceWithModel(model)

		results, err := svc.Prioritize(ctx, tasks)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[0].ID != "t1" || results[0].PriorityScore != 95 {
			t.Errorf("unexpected first result: %+v", results[0])
		}
		if !strings.Contains(model.lastPrompt, "Fix login") {
			t.Error("expected prompt to include task titles")
		}
	})

	t.Run("code-fenced response", func(t *testing.T) {
		model := &fakeModel{response: "```json\n[{\"id\": \"t1\", \"priorityScore\": 80, \"reason\": \"urgent\"}]\n```"}
		svc := NewServiceWithModel(model)

		results, err := svc.Prioritize(ctx, tasks)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 1 || results[0].PriorityScore != 80 {
			t.Fatalf("unexpected results: %+v", results)
		}
	})

	t.Run("unknown and duplicate ids are discarded", func(t *testing.T) {
		model := &fakeModel{response: `[
			{"id": "t1", "priorityScore": 50, "reason": "first"},
			{"id": "t1", "priorityScore": 60, "reason": "duplicate"},
			{"id": "ghost", "priorityScore": 99, "reason": "not an input"}
		]`}
		svc := NewServiceWithModel(model)

		results, err := svc.Prioritize(ctx, tasks)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		if results[0].Reason != "first" {
			t.Errorf("expected first occurrence kept, got %q", results[0].Reason)
		}
	})

	t.Run("scores are clamped", func(t *testing.T) {
		model := &fakeModel{response: `[
			{"id": "t1", "priorityScore": 180, "reason": "over"},
			{"id": "t2", "priorityScore": -5, "reason": "under"}
		]`}
		svc := NewServiceWithModel(model)

		results, err := svc.Prioritize(ctx, tasks)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results[0].PriorityScore != 100 || results[1].PriorityScore != 0 {
			t.Errorf("expected clamped scores, got %+v", results)
		}
	})

	t.Run("empty input skips the call", func(t *testing.T) {
		model := &fakeModel{err: errors.New("should not be called")}
		svc := NewServiceWithModel(model)

		results, err := svc.Prioritize(ctx, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results != nil {
			t.Errorf("expected nil results, got %+v", results)
		}
	})

	t.Run("malformed response errors", func(t *testing.T) {
		model := &fakeModel{response: "sure, here are the priorities!"}
		svc := NewServiceWithModel(model)

		if _, err := svc.Prioritize(ctx, tasks); err == nil {
			t.Error("expected error for non-JSON response")
		}
	})

	t.Run("model failure propagates", func(t *testing.T) {
		model := &fakeModel{err: errors.New("rate limited")}
		svc := NewServiceWithModel(model)

		if _, err := svc.Prioritize(ctx, tasks); err == nil {
			t.Error("expected error when model call fails")
		}
	})
}

func TestReactTo(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the emoji", func(t *testing.T) {
		model := &fakeModel{response: "🔥"}
		svc := NewServiceWithModel(model)

		emoji, err := svc.ReactTo(ctx, "Ship the new billing page before Friday")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if emoji != "🔥" {
			t.Errorf("expected 🔥, got %q", emoji)
		}
	})

	t.Run("trims whitespace and fences", func(t *testing.T) {
		model := &fakeModel{response: "```\n🎉\n```"}
		svc := NewServiceWithModel(model)

		emoji, err := svc.ReactTo(ctx, "Launch day")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if emoji != "🎉" {
			t.Errorf("expected 🎉, got %q", emoji)
		}
	})

	t.Run("long responses are truncated", func(t *testing.T) {
		model := &fakeModel{response: "this is definitely not an emoji"}
		svc := NewServiceWithModel(model)

		emoji, err := svc.ReactTo(ctx, "Something")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len([]rune(emoji)) > 8 {
			t.Errorf("expected at most 8 runes, got %q", emoji)
		}
	})

	t.Run("empty description rejected", func(t *testing.T) {
		svc := NewServiceWithModel(&fakeModel{response: "🙂"})
		if _, err := svc.ReactTo(ctx, "   "); err == nil {
			t.Error("expected error for empty description")
		}
	})

	t.Run("empty reaction rejected", func(t *testing.T) {
		svc := NewServiceWithModel(&fakeModel{response: "   "})
		if _, err := svc.ReactTo(ctx, "A task"); err == nil {
			t.Error("expected error for empty model output")
		}
	})
}
