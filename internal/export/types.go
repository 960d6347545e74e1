// Package export renders a board snapshot to PDF via headless Chrome.
package export

import (
	"errors"
	"time"
)

// BoardView is the flattened, permission-checked board content handed to the
// renderer. Columns and cards arrive already in display order.
type BoardView struct {
	OrganizationName string
	GeneratedAt      time.Time
	Projects         []ProjectView
}

// ProjectView is one column of the board.
type ProjectView struct {
	Title string
	Tasks []TaskView
}

// TaskView is one card.
type TaskView struct {
	Title        string
	Status       string
	Priority     string
	Assignees    []string
	ETA          string // formatted date, empty when unset
	CommentCount int
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
