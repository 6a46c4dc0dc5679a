// internal/service/export_service.go
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"okuda/tabi-planner/internal/domain"
	"okuda/tabi-planner/internal/repository"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// ExportService renders a shared template as downloadable artifacts: a PDF
// handout and a QR code pointing at the shared page. Both resolve the token
// the same way the shared page does but do not count as an access; only the
// page view is counted.
type ExportService interface {
	SharePDF(ctx context.Context, token string) (pdf []byte, filename string, err error)
	ShareQR(ctx context.Context, token string) ([]byte, error)
}

type exportService struct {
	templateRepo repository.TemplateRepository
	shareRepo    repository.ShareRepository
	shareBaseURL string
}

// NewExportService creates a new instance of exportService.
func NewExportService(templateRepo repository.TemplateRepository, shareRepo repository.ShareRepository, shareBaseURL string) ExportService {
	return &exportService{
		templateRepo: templateRepo,
		shareRepo:    shareRepo,
		shareBaseURL: shareBaseURL,
	}
}

// SharePDF builds a one-page A4 handout of the published template.
func (s *exportService) SharePDF(ctx context.Context, token string) ([]byte, string, error) {
	template, err := s.resolvePublic(ctx, token)
	if err != nil {
		return nil, "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 12, template.Title)
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Destination: %s", template.Destination))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Duration: %d day(s)", template.Days))
	pdf.Ln(12)

	for _, day := range template.Outline {
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(0, 8, fmt.Sprintf("Day %d", day.Day))
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 11)
		for _, highlight := range day.Highlights {
			pdf.MultiCell(0, 6, "- "+highlight, "", "L", false)
		}
		pdf.Ln(4)
	}

	if len(template.ChecklistNames) > 0 {
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(0, 8, "Packing list")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 6, strings.Join(template.ChecklistNames, ", "), "", "L", false)
	}

	// The QR in the footer links back to the live shared page.
	qrPNG, err := qrcode.Encode(s.shareURL(token), qrcode.Medium, 256)
	if err == nil {
		imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("share-qr", imageOpts, bytes.NewReader(qrPNG))
		pdf.ImageOptions("share-qr", 160, 250, 35, 35, false, imageOpts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("itinerary-%s.pdf", token)
	return buf.Bytes(), filename, nil
}

// ShareQR encodes the shared page URL as a PNG.
func (s *exportService) ShareQR(ctx context.Context, token string) ([]byte, error) {
	if _, err := s.resolvePublic(ctx, token); err != nil {
		return nil, err
	}
	return qrcode.Encode(s.shareURL(token), qrcode.Medium, 256)
}

// resolvePublic validates the token against the same visibility rules as the
// shared page, without touching the access counter.
func (s *exportService) resolvePublic(ctx context.Context, token string) (*domain.Template, error) {
	share, err := s.shareRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, err
	}
	if share.ExpiresAt != nil && share.ExpiresAt.Before(time.Now()) {
		return nil, ErrShareNotFound
	}
	template, err := s.templateRepo.GetByID(ctx, share.TemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, err
	}
	if template.PublishStatus != domain.PublishPublic {
		return nil, ErrShareNotFound
	}
	return template, nil
}

func (s *exportService) shareURL(token string) string {
	return strings.TrimRight(s.shareBaseURL, "/") + "/" + token
}
