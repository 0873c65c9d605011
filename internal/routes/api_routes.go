package routes

import (
	"github.com/gin-gonic/gin"
)

func APIRoutes(r *gin.Engine, d Deps) {
	api := r.Group("/api")
	{
		api.POST("/login", d.Auth.Login)
		api.POST("/add_user", d.Auth.AddUser)
		api.PUT("/update_user", d.Auth.UpdateUser)
		api.DELETE("/delete_user/:userId", d.Auth.DeleteUser)
		api.GET("/get_users", d.Auth.ListUsers)

		api.POST("/location", d.Telemetry.SubmitLocation)
		api.POST("/speed", d.Telemetry.SubmitSpeed)
		api.POST("/log_event", d.Telemetry.LogEvent)

		api.GET("/get_user_details", d.Query.GetUserDetails)
		api.GET("/get_trips_data", d.Query.GetTripsData)
		api.GET("/get_speed_data", d.Query.GetSpeedData)
		api.GET("/get_events", d.Query.GetEvents)
	}
}
