package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"okuda/tabi-planner/internal/domain"
	"okuda/tabi-planner/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler holds the plan service dependency.
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- Request/Response Structs ---

type CreatePlanRequest struct {
	Destination    string   `json:"destination" binding:"required"`
	Departure      string   `json:"departure" binding:"required"`
	StartDate      string   `json:"startDate" binding:"required"` // YYYY-MM-DD
	Days           int      `json:"days" binding:"required,min=1,max=30"`
	CompanionCount int      `json:"companionCount" binding:"omitempty,min=1"`
	Purpose        string   `json:"purpose"`
	Options        []string `json:"options"`
}

type SelectTransportRequest struct {
	Label string `json:"label" binding:"required"`
}

type SelectLodgingRequest struct {
	CandidateID string `json:"candidateId" binding:"required"`
}

type LodgingCandidateResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	URL      string   `json:"url,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	MinPrice *int     `json:"minPrice,omitempty"`
	Address  string   `json:"address,omitempty"`
	Review   *float64 `json:"review,omitempty"`
	Selected bool     `json:"selected"`
}

type TransportResponse struct {
	Label         string `json:"label"`
	Method        string `json:"method"`
	Cost          *int   `json:"cost,omitempty"`
	Duration      *int   `json:"duration,omitempty"`
	TransitCount  *int   `json:"transitCount,omitempty"`
	DepartureTime string `json:"departureTime,omitempty"`
	ArrivalTime   string `json:"arrivalTime,omitempty"`
	Selected      bool   `json:"selected"`
}

type PlanResponse struct {
	ID             string                     `json:"id"`
	Title          string                     `json:"title"`
	Destination    string                     `json:"destination"`
	Departure      string                     `json:"departure"`
	StartDate      string                     `json:"startDate"`
	Days           int                        `json:"days"`
	CompanionCount int                        `json:"companionCount"`
	Purpose        string                     `json:"purpose,omitempty"`
	Options        []string                   `json:"options,omitempty"`
	Lodging        []LodgingCandidateResponse `json:"lodging"`
	CreatedAt      time.Time                  `json:"createdAt"`
}

type PlanDetailResponse struct {
	PlanResponse
	Transports []TransportResponse `json:"transports"`
	Stage      string              `json:"stage"`
}

type ScheduleEntryResponse struct {
	Time           string `json:"time,omitempty"`
	Activity       string `json:"activity"`
	TransportNotes string `json:"transportNotes,omitempty"`
}

type ScheduleDayResponse struct {
	Day     int                     `json:"day"`
	Details []ScheduleEntryResponse `json:"details"`
}

type CopyPlanResponse struct {
	PlanID string `json:"planId"`
}

// --- Handler Methods ---

// CreatePlan runs the full generation flow and returns the persisted plan.
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Failed to resolve user from token")
		return
	}

	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "startDate must be formatted YYYY-MM-DD")
		return
	}

	plan, err := h.planService.CreateFromGeneration(c.Request.Context(), userID, service.PlanInput{
		Destination:    req.Destination,
		Departure:      req.Departure,
		StartDate:      startDate,
		Days:           req.Days,
		CompanionCount: req.CompanionCount,
		Purpose:        req.Purpose,
		Options:        req.Options,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapPlanToResponse(plan))
}

// GetPlans lists the authenticated user's plans.
func (h *PlanHandler) GetPlans(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Failed to resolve user from token")
		return
	}

	plans, err := h.planService.GetPlans(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response := make([]PlanResponse, 0, len(plans))
	for i := range plans {
		response = append(response, MapPlanToResponse(&plans[i]))
	}
	c.JSON(http.StatusOK, response)
}

// GetPlanDetail returns a plan with its transport options and flow stage.
func (h *PlanHandler) GetPlanDetail(c *gin.Context) {
	sess, ok := getPlanSession(c)
	if !ok {
		return
	}

	detail, err := h.planService.GetPlanDetail(c.Request.Context(), sess)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response := PlanDetailResponse{
		PlanResponse: MapPlanToResponse(detail.Plan),
		Transports:   make([]TransportResponse, 0, len(detail.Transports)),
		Stage:        string(detail.Stage),
	}
	for _, snapshot := range detail.Transports {
		response.Transports = append(response.Transports, MapTransportToResponse(snapshot))
	}
	c.JSON(http.StatusOK, response)
}

// GetSchedule returns the plan's day-by-day itinerary.
func (h *PlanHandler) GetSchedule(c *gin.Context) {
	sess, ok := getPlanSession(c)
	if !ok {
		return
	}

	schedule, err := h.planService.GetSchedule(c.Request.Context(), sess)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	days := make([]ScheduleDayResponse, 0, len(schedule.Days))
	for _, day := range schedule.Days {
		entry := ScheduleDayResponse{Day: day.Day, Details: []ScheduleEntryResponse{}}
		for _, detail := range day.Details {
			entry.Details = append(entry.Details, ScheduleEntryResponse{
				Time:           detail.Time,
				Activity:       detail.Activity,
				TransportNotes: detail.TransportNotes,
			})
		}
		days = append(days, entry)
	}
	c.JSON(http.StatusOK, gin.H{"planId": sess.PlanID.Hex(), "days": days})
}

// SelectTransport marks one transport option as the chosen one.
func (h *PlanHandler) SelectTransport(c *gin.Context) {
	sess, ok := getPlanSession(c)
	if !ok {
		return
	}

	var req SelectTransportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.planService.SelectTransport(c.Request.Context(), sess, domain.TransportLabel(req.Label)); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SelectLodging points the plan at one of its lodging candidates.
func (h *PlanHandler) SelectLodging(c *gin.Context) {
	sess, ok := getPlanSession(c)
	if !ok {
		return
	}

	var req SelectLodgingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.planService.SelectLodging(c.Request.Context(), sess, req.CandidateID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CopyPlan clones a plan under the authenticated user.
func (h *PlanHandler) CopyPlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Failed to resolve user from token")
		return
	}
	sourcePlanID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format")
		return
	}

	newPlanID, err := h.planService.CopyPlan(c.Request.Context(), sourcePlanID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CopyPlanResponse{PlanID: newPlanID.Hex()})
}

// DeletePlan removes a plan and everything derived from it.
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	sess, ok := getPlanSession(c)
	if !ok {
		return
	}

	if err := h.planService.DeletePlan(c.Request.Context(), sess); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Mapping Helpers ---

// MapPlanToResponse converts a domain Plan to its DTO.
func MapPlanToResponse(plan *domain.Plan) PlanResponse {
	if plan == nil {
		return PlanResponse{}
	}
	selectedID := plan.Lodging.ValidSelectedID()
	lodging := make([]LodgingCandidateResponse, 0, len(plan.Lodging.Candidates))
	for _, candidate := range plan.Lodging.Candidates {
		lodging = append(lodging, LodgingCandidateResponse{
			ID:       candidate.ID,
			Name:     candidate.Name,
			URL:      candidate.URL,
			ImageURL: candidate.ImageURL,
			MinPrice: candidate.MinPrice,
			Address:  candidate.Address,
			Review:   candidate.Review,
			Selected: selectedID != nil && *selectedID == candidate.ID,
		})
	}
	return PlanResponse{
		ID:             plan.ID.Hex(),
		Title:          plan.Title,
		Destination:    plan.Destination,
		Departure:      plan.Departure,
		StartDate:      plan.StartDate.Format("2006-01-02"),
		Days:           plan.Days,
		CompanionCount: plan.CompanionCount,
		Purpose:        plan.Purpose,
		Options:        plan.Options,
		Lodging:        lodging,
		CreatedAt:      plan.CreatedAt,
	}
}

// MapTransportToResponse converts a transport snapshot to its DTO.
func MapTransportToResponse(snapshot domain.TransportSnapshot) TransportResponse {
	return TransportResponse{
		Label:         string(snapshot.Label),
		Method:        snapshot.Method,
		Cost:          snapshot.Cost,
		Duration:      snapshot.Duration,
		TransitCount:  snapshot.TransitCount,
		DepartureTime: snapshot.DepartureTime,
		ArrivalTime:   snapshot.ArrivalTime,
		Selected:      snapshot.IsSelected,
	}
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Generation trouble is the upstream's fault (502), invalid selections are the
// caller's (400), and persistence trouble stays a 500.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrGenerationFailed):
		abortWithError(c, http.StatusBadGateway, "Itinerary generation failed, please retry")
	case errors.Is(err, service.ErrSessionInvalid):
		abortWithError(c, http.StatusUnauthorized, "Session is no longer valid, please log in again")
	case errors.Is(err, service.ErrInvalidSelection):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPlanNotFound):
		abortWithError(c, http.StatusNotFound, "Plan not found")
	case errors.Is(err, service.ErrChecklistAlreadyExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrChecklistNotFound), errors.Is(err, service.ErrChecklistItemNotFound),
		errors.Is(err, service.ErrTemplateNotFound), errors.Is(err, service.ErrShareNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPersistenceFailed):
		abortWithError(c, http.StatusInternalServerError, "Could not save changes, nothing was persisted")
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
