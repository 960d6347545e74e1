package export

import (
	"strings"
	"testing"
	"time"
)

func TestRenderBoardHTML(t *testing.T) {
	view := BoardView{
		OrganizationName: "Acme Inc",
		GeneratedAt:      time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Projects: []ProjectView{
			{
				Title: "In Progress",
				Tasks: []TaskView{
					{
						Title:        "Ship onboarding",
						Status:       "IN_PROGRESS",
						Priority:     "P1",
						Assignees:    []string{"Dana", "Avery"},
						ETA:          "2026-03-20",
						CommentCount: 3,
					},
				},
			},
			{Title: "Done"},
		},
	}

	html, err := RenderBoardHTML(view)
	if err != nil {
		t.Fatalf("RenderBoardHTML failed: %v", err)
	}

	for _, want := range []string{
		"Acme Inc",
		"In Progress",
		"Ship onboarding",
		"P1",
		"Dana, Avery",
		"due 2026-03-20",
		"3 comments",
		"Mar 14, 2026",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered board missing %q", want)
		}
	}

	if !strings.Contains(html, "No tasks") {
		t.Error("empty column should render a placeholder")
	}
}

func TestRenderBoardHTMLEscapesContent(t *testing.T) {
	view := BoardView{
		OrganizationName: "Acme",
		GeneratedAt:      time.Now(),
		Projects: []ProjectView{
			{
				Title: "Backlog",
				Tasks: []TaskView{
					{Title: `<script>alert("x")</script>`, Status: "TODO", Priority: "P2"},
				},
			},
		},
	}

	html, err := RenderBoardHTML(view)
	if err != nil {
		t.Fatalf("RenderBoardHTML failed: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("task titles must be HTML-escaped")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple title",
			input:    "My Board",
			expected: "My-Board",
		},
		{
			name:     "special characters stripped",
			input:    "Q1/Q2 plan: <final>",
			expected: "Q1Q2-plan-final",
		},
		{
			name:     "empty becomes board",
			input:    "!!!",
			expected: "board",
		},
		{
			name:     "long title truncated",
			input:    strings.Repeat("a", 80),
			expected: strings.Repeat("a", 50),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeFilename(tt.input); got != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "unreserved characters pass through",
			input:    "abc-XYZ_0.9~",
			expected: "abc-XYZ_0.9~",
		},
		{
			name:     "space is %20 not plus",
			input:    "a b",
			expected: "a%20b",
		},
		{
			name:     "html characters encoded",
			input:    "<p>",
			expected: "%3Cp%3E",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentEncodeForDataURL(tt.input); got != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
