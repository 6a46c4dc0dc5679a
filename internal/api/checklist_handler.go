package api

import (
	"fmt"
	"net/http"
	"time"

	"okuda/tabi-planner/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChecklistHandler holds the checklist service dependency.
type ChecklistHandler struct {
	checklistService service.ChecklistService
}

// NewChecklistHandler creates a new ChecklistHandler.
func NewChecklistHandler(checklistService service.ChecklistService) *ChecklistHandler {
	return &ChecklistHandler{checklistService: checklistService}
}

// --- Request/Response Structs ---

type CreateChecklistRequest struct {
	Title string `json:"title"`
}

type AddChecklistItemRequest struct {
	ItemName     string `json:"itemName" binding:"required"`
	CategoryName string `json:"categoryName"`
	Qty          int    `json:"qty"`
	IsEssential  bool   `json:"isEssential"`
}

type PatchChecklistItemRequest struct {
	Checked     *bool   `json:"checked"`
	Qty         *int    `json:"qty" binding:"omitempty,min=1"`
	OrderNo     *int    `json:"orderNo"`
	IsEssential *bool   `json:"isEssential"`
	Note        *string `json:"note"`
}

type ChecklistItemResponse struct {
	ID           string `json:"id"`
	ItemName     string `json:"itemName"`
	CategoryName string `json:"categoryName,omitempty"`
	Qty          int    `json:"qty"`
	IsEssential  bool   `json:"isEssential"`
	Checked      bool   `json:"checked"`
	OrderNo      int    `json:"orderNo"`
	Note         string `json:"note,omitempty"`
}

type ChecklistResponse struct {
	ID        string                  `json:"id"`
	PlanID    string                  `json:"planId"`
	Title     string                  `json:"title"`
	Status    string                  `json:"status"`
	Items     []ChecklistItemResponse `json:"items"`
	CreatedAt time.Time               `json:"createdAt"`
}

// --- Handler Methods ---

// Generate builds the packing list from the generative model.
func (h *ChecklistHandler) Generate(c *gin.Context) {
	sess, ok := getPlanSession(c)
	if !ok {
		return
	}

	view, err := h.checklistService.Generate(c.Request.Context(), sess)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapChecklistToResponse(view))
}

// CreateManual starts an empty checklist.
func (h *ChecklistHandler) CreateManual(c *gin.Context) {
	sess, ok := getPlanSession(c)
	if !ok {
		return
	}

	// The title is optional, so an absent body is fine.
	var req CreateChecklistRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
			return
		}
	}

	checklist, err := h.checklistService.CreateManual(c.Request.Context(), sess, req.Title)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ChecklistResponse{
		ID:        checklist.ID.Hex(),
		PlanID:    checklist.PlanID.Hex(),
		Title:     checklist.Title,
		Status:    string(checklist.Status),
		Items:     []ChecklistItemResponse{},
		CreatedAt: checklist.CreatedAt,
	})
}

// Get returns the plan's resolved checklist.
func (h *ChecklistHandler) Get(c *gin.Context) {
	sess, ok := getPlanSession(c)
	if !ok {
		return
	}

	view, err := h.checklistService.Get(c.Request.Context(), sess)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapChecklistToResponse(view))
}

// AddItem appends an item to the checklist.
func (h *ChecklistHandler) AddItem(c *gin.Context) {
	sess, ok := getPlanSession(c)
	if !ok {
		return
	}

	var req AddChecklistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	entry, err := h.checklistService.AddItem(c.Request.Context(), sess, req.ItemName, req.CategoryName, req.Qty, req.IsEssential)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ChecklistItemResponse{
		ID:           entry.ID.Hex(),
		ItemName:     req.ItemName,
		CategoryName: req.CategoryName,
		Qty:          entry.Qty,
		IsEssential:  entry.IsEssential,
		Checked:      entry.Checked,
		OrderNo:      entry.OrderNo,
	})
}

// PatchItem applies partial edits to one checklist entry.
func (h *ChecklistHandler) PatchItem(c *gin.Context) {
	sess, ok := getPlanSession(c)
	if !ok {
		return
	}
	itemID, err := primitive.ObjectIDFromHex(c.Param("itemId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	var req PatchChecklistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	entry, err := h.checklistService.PatchItem(c.Request.Context(), sess, itemID, service.ChecklistItemPatch{
		Checked:     req.Checked,
		Qty:         req.Qty,
		OrderNo:     req.OrderNo,
		IsEssential: req.IsEssential,
		Note:        req.Note,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ChecklistItemResponse{
		ID:          entry.ID.Hex(),
		Qty:         entry.Qty,
		IsEssential: entry.IsEssential,
		Checked:     entry.Checked,
		OrderNo:     entry.OrderNo,
		Note:        entry.Note,
	})
}

// RemoveItem soft-deletes one checklist entry.
func (h *ChecklistHandler) RemoveItem(c *gin.Context) {
	sess, ok := getPlanSession(c)
	if !ok {
		return
	}
	itemID, err := primitive.ObjectIDFromHex(c.Param("itemId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	if err := h.checklistService.RemoveItem(c.Request.Context(), sess, itemID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Mapping Helpers ---

// MapChecklistToResponse converts a resolved checklist view to its DTO.
func MapChecklistToResponse(view *service.ChecklistView) ChecklistResponse {
	if view == nil {
		return ChecklistResponse{}
	}
	items := make([]ChecklistItemResponse, 0, len(view.Items))
	for _, item := range view.Items {
		items = append(items, ChecklistItemResponse{
			ID:           item.Entry.ID.Hex(),
			ItemName:     item.ItemName,
			CategoryName: item.CategoryName,
			Qty:          item.Entry.Qty,
			IsEssential:  item.Entry.IsEssential,
			Checked:      item.Entry.Checked,
			OrderNo:      item.Entry.OrderNo,
			Note:         item.Entry.Note,
		})
	}
	return ChecklistResponse{
		ID:        view.Checklist.ID.Hex(),
		PlanID:    view.Checklist.PlanID.Hex(),
		Title:     view.Checklist.Title,
		Status:    string(view.Checklist.Status),
		Items:     items,
		CreatedAt: view.Checklist.CreatedAt,
	}
}
