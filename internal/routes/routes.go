package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"telepsychiatry-server/internal/config"
	"telepsychiatry-server/internal/handlers"
	"telepsychiatry-server/internal/middleware"
	"telepsychiatry-server/internal/models"
	"telepsychiatry-server/internal/scheduling"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, scheduler *scheduling.Service) {
	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(scheduler)
	messageHandler := handlers.NewMessageHandler(db)
	sessionNoteHandler := handlers.NewSessionNoteHandler(db)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		userRoutes := private.Group("/users")
		{
			// Accessible by all authenticated users so patients can pick a provider
			userRoutes.GET("/psychiatrists", userHandler.GetPsychiatrists)

			// Psychiatrists manage their own bookable schedule
			userRoutes.PUT("/availability", middleware.RoleAuthMiddleware(models.RolePsychiatrist), userHandler.UpdateAvailability)

			adminRoutes := userRoutes.Group("")
			adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
			{
				adminRoutes.GET("", userHandler.GetAllUsers)
				adminRoutes.GET("/:id", userHandler.GetUserByID)
				adminRoutes.PUT("/:id", userHandler.UpdateUser)
				adminRoutes.DELETE("/:id", userHandler.DeleteUser)
			}
		}

		appointmentRoutes := private.Group("/appointments")
		{
			// Patients book for themselves; a psychiatrist's calendar fills only
			// through patient bookings
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.BookAppointment)

			appointmentRoutes.GET("/available-days/:psychiatristId", appointmentHandler.GetAvailableDays)
			appointmentRoutes.GET("/booked-slots/:psychiatristId", appointmentHandler.GetBookedSlots)

			// Cancellation is party-only, enforced in the service
			appointmentRoutes.PUT("/cancel/:id", appointmentHandler.CancelAppointment)

			appointmentRoutes.GET("/patient", middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.GetPatientAppointments)
			appointmentRoutes.GET("/psychiatrist", middleware.RoleAuthMiddleware(models.RolePsychiatrist), appointmentHandler.GetPsychiatristAppointments)
		}

		messageRoutes := private.Group("/messages")
		{
			messageRoutes.POST("/send", messageHandler.SendMessage)
			messageRoutes.GET("", messageHandler.GetMessages)
			messageRoutes.GET("/conversation/:userId", messageHandler.GetConversation)
			messageRoutes.PATCH("/:id/read", messageHandler.MarkMessageAsRead)
		}

		sessionNoteRoutes := private.Group("/session-notes")
		{
			sessionNoteRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePsychiatrist), sessionNoteHandler.CreateSessionNote)
			sessionNoteRoutes.GET("", sessionNoteHandler.GetSessionNotes)
			sessionNoteRoutes.GET("/:id", sessionNoteHandler.GetSessionNoteByID)
			sessionNoteRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RolePsychiatrist), sessionNoteHandler.UpdateSessionNote)
			sessionNoteRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RolePsychiatrist), sessionNoteHandler.DeleteSessionNote)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
