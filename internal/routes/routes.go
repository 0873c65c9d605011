package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"driveassist/internal/controllers"
	"driveassist/internal/middleware"
)

// Deps bundles the constructed controllers for route registration.
type Deps struct {
	Auth      *controllers.AuthController
	Telemetry *controllers.TelemetryController
	Query     *controllers.QueryController
	Live      *controllers.LiveController
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(ginlog.SetLogger())
	r.Use(middleware.RequestID())

	APIRoutes(r, d)
	WebSocketRoutes(r, d)

	return r
}
