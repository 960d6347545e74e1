package export

import (
	"context"
	"fmt"
)

// Service turns board views into downloadable files.
type Service struct{}

// NewService creates an export service.
func NewService() *Service {
	return &Service{}
}

// ExportBoard renders the board to a PDF with a download filename.
func (s *Service) ExportBoard(ctx context.Context, view BoardView) (*Result, error) {
	html, err := RenderBoardHTML(view)
	if err != nil {
		return nil, fmt.Errorf("render board html: %w", err)
	}
	return exportPDF(ctx, html, view.OrganizationName+" board")
}

// BoardPDF renders the board to raw PDF bytes.
func (s *Service) BoardPDF(ctx context.Context, view BoardView) ([]byte, error) {
	result, err := s.ExportBoard(ctx, view)
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}
