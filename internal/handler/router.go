package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/motbook/motbook-api/internal/middleware"
	"github.com/motbook/motbook-api/internal/models"
	"github.com/motbook/motbook-api/internal/service"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Auth         *AuthHandler
	Garages      *GarageHandler
	Availability *AvailabilityHandler
	Schedules    *ScheduleHandler
	Bookings     *BookingHandler
	Vehicles     *VehicleHandler
	Admin        *AdminHandler

	AuthService *service.AuthService
	Metrics     *service.MetricsService
}

// RegisterRoutes wires every endpoint under the API prefix. Availability
// and garage reads are public; everything that writes requires a token,
// with role checks layered per route group.
func RegisterRoutes(r *gin.Engine, prefix string, deps Deps) {
	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", deps.Auth.Register)
		auth.POST("/login", deps.Auth.Login)
		auth.GET("/me", middleware.JWT(deps.AuthService), deps.Auth.Me)
	}

	garages := api.Group("/garages")
	{
		garages.GET("", deps.Garages.List)
		garages.GET("/:id", deps.Garages.Get)
		garages.GET("/:id/availability", deps.Availability.Day)
		garages.GET("/:id/availability/range", deps.Availability.Range)
		garages.GET("/:id/schedule", deps.Schedules.GetWeekly)

		owned := garages.Group("", middleware.JWT(deps.AuthService),
			middleware.RequireRoles(models.RoleGarageOwner, models.RoleAdmin))
		{
			owned.POST("", deps.Garages.Create)
			owned.PATCH("/:id", deps.Garages.Update)
			owned.PUT("/:id/schedule", deps.Schedules.SetWeekly)
			owned.GET("/:id/schedule/exceptions", deps.Schedules.ListExceptions)
			owned.PUT("/:id/schedule/exceptions", deps.Schedules.SetException)
			owned.DELETE("/:id/schedule/exceptions", deps.Schedules.DeleteException)
			owned.POST("/:id/schedule/blocks", deps.Schedules.BlockSlot)
			owned.DELETE("/:id/schedule/blocks", deps.Schedules.UnblockSlot)
			owned.PUT("/:id/schedule/holiday-overrides", deps.Schedules.SetHolidayOverride)
		}
	}

	vehicles := api.Group("/vehicles", middleware.JWT(deps.AuthService))
	{
		vehicles.POST("", middleware.RequireRoles(models.RoleCustomer), deps.Vehicles.Create)
		vehicles.GET("", deps.Vehicles.List)
		vehicles.DELETE("/:id", deps.Vehicles.Delete)
	}

	bookings := api.Group("/bookings", middleware.JWT(deps.AuthService))
	{
		bookings.POST("", middleware.RequireRoles(models.RoleCustomer), deps.Bookings.Create)
		bookings.GET("", deps.Bookings.List)
		bookings.GET("/:id", deps.Bookings.Get)
		bookings.PATCH("/:id/status", deps.Bookings.Transition)
		bookings.PATCH("/:id/payment", middleware.RequireRoles(models.RoleGarageOwner, models.RoleAdmin), deps.Bookings.UpdatePayment)
		bookings.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), deps.Bookings.Delete)
		bookings.GET("/:id/reminders", deps.Bookings.Reminders)
	}

	admin := api.Group("/admin", middleware.JWT(deps.AuthService), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/exports/bookings.csv", deps.Admin.ExportBookingsCSV)
		admin.GET("/exports/bookings.pdf", deps.Admin.ExportBookingsPDF)
		admin.GET("/email-log", deps.Admin.EmailLog)
		admin.POST("/holidays", deps.Admin.SeedHoliday)
		admin.POST("/dispatch", deps.Admin.TriggerDispatch)
	}

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
}
