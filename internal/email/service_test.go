package email

import (
	"strings"
	"testing"
)

func TestServiceIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{
			name:     "empty config",
			config:   Config{},
			expected: false,
		},
		{
			name: "missing host",
			config: Config{
				Port: "587",
				From: "test@example.com",
			},
			expected: false,
		},
		{
			name: "missing port",
			config: Config{
				Host: "smtp.example.com",
				From: "test@example.com",
			},
			expected: false,
		},
		{
			name: "missing from",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
			},
			expected: false,
		},
		{
			name: "fully configured",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
				From: "test@example.com",
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.config)
			if svc.IsConfigured() != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", svc.IsConfigured(), tt.expected)
			}
		})
	}
}

func TestRenderVerificationTemplate(t *testing.T) {
	data := VerificationData{
		AppName:         "Taskboard",
		UserName:        "Test User",
		VerificationURL: "https://example.com/verify?token=abc123",
	}

	html, err := renderTemplate(verificationEmailTemplate, data)
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	if !strings.Contains(html, "Taskboard") {
		t.Error("template should contain app name")
	}
	if !strings.Contains(html, "Test User") {
		t.Error("template should contain user name")
	}
	if !strings.Contains(html, "https://example.com/verify?token=abc123") {
		t.Error("template should contain verification URL")
	}
}

func TestRenderMentionTemplate(t *testing.T) {
	data := MentionData{
		AppName:    "Taskboard",
		UserName:   "Dana",
		AuthorName: "Avery",
		TaskTitle:  "Ship the onboarding flow",
		Content:    "@Dana can you review the copy?",
		BoardURL:   "https://board.example.com",
	}

	html, err := renderTemplate(mentionEmailTemplate, data)
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	if !strings.Contains(html, "Avery") {
		t.Error("template should contain the comment author")
	}
	if !strings.Contains(html, "Ship the onboarding flow") {
		t.Error("template should contain the task title")
	}
	if !strings.Contains(html, "can you review the copy?") {
		t.Error("template should contain the comment body")
	}
}

func TestRenderMentionTemplateEscapesHTML(t *testing.T) {
	data := MentionData{
		AppName:    "Taskboard",
		UserName:   "Dana",
		AuthorName: "Avery",
		TaskTitle:  "Task",
		Content:    `<script>alert("x")</script>`,
		BoardURL:   "https://board.example.com",
	}

	html, err := renderTemplate(mentionEmailTemplate, data)
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	if strings.Contains(html, "<script>") {
		t.Error("comment content must be HTML-escaped")
	}
}

func TestRenderInviteTemplate(t *testing.T) {
	data := InviteData{
		AppName:          "Taskboard",
		UserName:         "Dana",
		OrganizationName: "Acme Inc",
		InviterName:      "Avery",
		BoardURL:         "https://board.example.com",
	}

	html, err := renderTemplate(inviteEmailTemplate, data)
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	if !strings.Contains(html, "Acme Inc") {
		t.Error("template should contain the organization name")
	}
	if !strings.Contains(html, "Avery") {
		t.Error("template should contain the inviter name")
	}
}
