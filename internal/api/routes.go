package api

import (
	"net/http"
	"time"

	"okuda/tabi-planner/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	planService service.PlanService,
	checklistService service.ChecklistService,
	templateService service.TemplateService,
	exportService service.ExportService,
) {

	authHandler := NewAuthHandler(authService)
	planHandler := NewPlanHandler(planService)
	checklistHandler := NewChecklistHandler(checklistService)
	shareHandler := NewShareHandler(templateService, exportService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Public shared views: no auth, an opaque token is the only credential.
	shared := router.Group("/shared")
	{
		shared.GET("/:token", shareHandler.ResolveShare)
		shared.GET("/:token/qr", shareHandler.ShareQR)
		shared.GET("/:token/pdf", shareHandler.SharePDF)
	}

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex()})
		})

		planGroup := protected.Group("/plans")
		{
			// POST /api/v1/plans - generate and persist a new plan
			planGroup.POST("", planHandler.CreatePlan)
			planGroup.GET("", planHandler.GetPlans)

			planGroup.GET("/:planId", planHandler.GetPlanDetail)
			planGroup.DELETE("/:planId", planHandler.DeletePlan)
			planGroup.GET("/:planId/schedule", planHandler.GetSchedule)
			planGroup.POST("/:planId/copy", planHandler.CopyPlan)

			// Selection endpoints: idempotent, re-selection is allowed.
			planGroup.PUT("/:planId/transport", planHandler.SelectTransport)
			planGroup.PUT("/:planId/lodging", planHandler.SelectLodging)

			// Packing checklist
			planGroup.POST("/:planId/checklist/generate", checklistHandler.Generate)
			planGroup.POST("/:planId/checklist", checklistHandler.CreateManual)
			planGroup.GET("/:planId/checklist", checklistHandler.Get)
			planGroup.POST("/:planId/checklist/items", checklistHandler.AddItem)
			planGroup.PATCH("/:planId/checklist/items/:itemId", checklistHandler.PatchItem)
			planGroup.DELETE("/:planId/checklist/items/:itemId", checklistHandler.RemoveItem)

			// Publishing
			planGroup.POST("/:planId/publish", shareHandler.Publish)
			planGroup.DELETE("/:planId/publish", shareHandler.Unpublish)
			planGroup.POST("/:planId/cover-upload-url", shareHandler.CoverUploadURL)
		}
	}
}
