// Package ai wraps the opaque LLM collaborator behind two calls: batch task
// prioritization and a one-emoji reaction. Any OpenAI-compatible endpoint
// works; the base URL and model come from configuration.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// TaskSummary is the slice of a task the model sees.
type TaskSummary struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Importance  string     `json:"importance"`
	Description string     `json:"description,omitempty"`
}

// PriorityResult is one scored task from the model.
type PriorityResult struct {
	ID            string  `json:"id"`
	PriorityScore float64 `json:"priorityScore"`
	Reason        string  `json:"reason"`
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

type Service struct {
	llm llms.Model
}

// NewService builds the collaborator against an OpenAI-compatible endpoint.
func NewService(cfg Config) (*Service, error) {
	if cfg.BaseURL == "" || cfg.Model == "" {
		return nil, fmt.Errorf("ai: base URL and model are required")
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		// langchaingo requires a token even for keyless local endpoints.
		apiKey = "placeholder"
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}
	return &Service{llm: llm}, nil
}

// NewServiceWithModel wires an existing model, used by tests.
func NewServiceWithModel(llm llms.Model) *Service {
	return &Service{llm: llm}
}

const prioritizePrompt = `You are a project management assistant. Score each task below
from 0 (ignore for now) to 100 (drop everything) and give a one-sentence reason.

Respond with ONLY a JSON array, no prose, in this exact shape:
[{"id": "...", "priorityScore": 0, "reason": "..."}]

Include every task id exactly once.

Tasks:
%s`

// Prioritize scores the given tasks. The call is safe to retry: it reads
// nothing and the caller persists results separately. Results whose id was
// not part of the input are discarded, and an input id missing from the
// response simply keeps its prior state — the caller writes only what came
// back.
func (s *Service) Prioritize(ctx context.Context, tasks []TaskSummary) ([]PriorityResult, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	payload, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, s.llm, fmt.Sprintf(prioritizePrompt, payload),
		llms.WithTemperature(0.2))
	if err != nil {
		return nil, fmt.Errorf("prioritize call: %w", err)
	}

	var raw []PriorityResult
	if err := json.Unmarshal([]byte(stripCodeFence(out)), &raw); err != nil {
		return nil, fmt.Errorf("parse prioritize response: %w", err)
	}

	known := make(map[string]struct{}, len(tasks))
	for _, task := range tasks {
		known[task.ID] = struct{}{}
	}
	results := make([]PriorityResult, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, result := range raw {
		if _, ok := known[result.ID]; !ok {
			continue
		}
		if _, dup := seen[result.ID]; dup {
			continue
		}
		seen[result.ID] = struct{}{}
		if result.PriorityScore < 0 {
			result.PriorityScore = 0
		}
		if result.PriorityScore > 100 {
			result.PriorityScore = 100
		}
		results = append(results, result)
	}
	return results, nil
}

const reactPrompt = `React to the following task description with a single emoji.
Respond with ONLY the emoji, nothing else.

Description:
%s`

// ReactTo returns one emoji for a task description.
func (s *Service) ReactTo(ctx context.Context, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", fmt.Errorf("description is required")
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, s.llm, fmt.Sprintf(reactPrompt, description),
		llms.WithTemperature(0.8))
	if err != nil {
		return "", fmt.Errorf("react call: %w", err)
	}

	emoji := strings.TrimSpace(stripCodeFence(out))
	if emoji == "" {
		return "", fmt.Errorf("empty reaction")
	}
	runes := []rune(emoji)
	if len(runes) > 8 {
		runes = runes[:8]
	}
	return string(runes), nil
}

// stripCodeFence removes a surrounding markdown code fence, which chat models
// add even when told not to.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
