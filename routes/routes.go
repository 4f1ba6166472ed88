package routes

import (
	"contract-review-api/controllers"
	"contract-review-api/middleware"
	"contract-review-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Contract Review API is running",
				})
			})

			// Bearer-link access for approvers and CC recipients. The token
			// is the credential; no session is required.
			access := public.Group("/review-access")
			{
				access.GET("/:token", controllers.GetReviewAccess)
				access.POST("/:token/decision", controllers.DecideReview)
				access.POST("/:token/comments", controllers.AddTokenComment)
			}
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)

			// User provisioning (admin only)
			users := protected.Group("/users")
			users.Use(middleware.RequireRole(models.RoleIDAdmin))
			{
				users.POST("", controllers.CreateUser)
			}

			// Contract reviews
			reviews := protected.Group("/reviews")
			{
				reviews.GET("", controllers.GetReviews)
				reviews.GET("/:id", controllers.GetReview)
				reviews.POST("", controllers.CreateReview)

				reviews.POST("/:id/request-approval", controllers.RequestApproval)
				reviews.POST("/:id/preview-token", controllers.PreviewToken)

				reviews.GET("/:id/activity", controllers.GetActivityLog)
				reviews.GET("/:id/comments", controllers.GetComments)
				reviews.POST("/:id/comments", controllers.AddComment)
			}
		}
	}
}
