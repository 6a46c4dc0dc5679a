package api

import (
	"fmt"
	"net/http"
	"time"

	"okuda/tabi-planner/internal/service"

	"github.com/gin-gonic/gin"
)

// ShareHandler covers publishing and the public shared views.
type ShareHandler struct {
	templateService service.TemplateService
	exportService   service.ExportService
}

// NewShareHandler creates a new ShareHandler.
func NewShareHandler(templateService service.TemplateService, exportService service.ExportService) *ShareHandler {
	return &ShareHandler{templateService: templateService, exportService: exportService}
}

// --- Request/Response Structs ---

type CoverUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type PublishResponse struct {
	TemplateID string `json:"templateId"`
	ShareURL   string `json:"shareUrl"`
	URLToken   string `json:"urlToken"`
}

type TemplateDayResponse struct {
	Day        int      `json:"day"`
	Highlights []string `json:"highlights"`
}

// SharedViewResponse is the anonymous, read-only rendering of a template.
type SharedViewResponse struct {
	Title          string                `json:"title"`
	Destination    string                `json:"destination"`
	Days           int                   `json:"days"`
	Outline        []TemplateDayResponse `json:"outline"`
	ChecklistNames []string              `json:"checklistNames,omitempty"`
	CoverImageURL  string                `json:"coverImageUrl,omitempty"`
	AccessCount    int64                 `json:"accessCount"`
	PublishedAt    time.Time             `json:"publishedAt"`
}

// --- Owner-facing Handlers ---

// Publish makes a plan's summary publicly shareable.
func (h *ShareHandler) Publish(c *gin.Context) {
	sess, ok := getPlanSession(c)
	if !ok {
		return
	}

	result, err := h.templateService.Publish(c.Request.Context(), sess)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, PublishResponse{
		TemplateID: result.Template.ID.Hex(),
		ShareURL:   result.ShareURL,
		URLToken:   result.Share.URLToken,
	})
}

// Unpublish withdraws the shared view without invalidating the URL forever.
func (h *ShareHandler) Unpublish(c *gin.Context) {
	sess, ok := getPlanSession(c)
	if !ok {
		return
	}

	if err := h.templateService.Unpublish(c.Request.Context(), sess); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CoverUploadURL hands the owner a presigned PUT URL for the cover image.
func (h *ShareHandler) CoverUploadURL(c *gin.Context) {
	sess, ok := getPlanSession(c)
	if !ok {
		return
	}

	var req CoverUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	uploadURL, err := h.templateService.CoverUploadURL(c.Request.Context(), sess, req.ContentType)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploadUrl": uploadURL})
}

// --- Public Handlers (no auth) ---

// ResolveShare serves the shared plan summary to anonymous readers.
func (h *ShareHandler) ResolveShare(c *gin.Context) {
	view, err := h.templateService.ResolveShare(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSharedViewToResponse(view))
}

// SharePDF streams the shared summary as a PDF handout.
func (h *ShareHandler) SharePDF(c *gin.Context) {
	pdf, filename, err := h.exportService.SharePDF(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ShareQR streams a QR code pointing at the shared page.
func (h *ShareHandler) ShareQR(c *gin.Context) {
	png, err := h.exportService.ShareQR(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// --- Mapping Helpers ---

// MapSharedViewToResponse converts a shared view to its public DTO. The owner
// and internal ids stay hidden from anonymous readers.
func MapSharedViewToResponse(view *service.SharedView) SharedViewResponse {
	if view == nil {
		return SharedViewResponse{}
	}
	outline := make([]TemplateDayResponse, 0, len(view.Template.Outline))
	for _, day := range view.Template.Outline {
		outline = append(outline, TemplateDayResponse{Day: day.Day, Highlights: day.Highlights})
	}
	return SharedViewResponse{
		Title:          view.Template.Title,
		Destination:    view.Template.Destination,
		Days:           view.Template.Days,
		Outline:        outline,
		ChecklistNames: view.Template.ChecklistNames,
		CoverImageURL:  view.CoverImageURL,
		AccessCount:    view.Share.AccessCount,
		PublishedAt:    view.Template.UpdatedAt,
	}
}
