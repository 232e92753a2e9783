package routes

import (
	"coursegen/controllers"

	"github.com/gin-gonic/gin"
)

// SetupCourseRoutes registers /course. generate guards the expensive
// generation endpoint (rate limiting); it may be nil.
func SetupCourseRoutes(router *gin.RouterGroup, ctrl *controllers.CourseController, generate gin.HandlerFunc) {
	course := router.Group("/course")
	{
		course.POST("", withGuard(generate, ctrl.CreateCourse)...)
		course.GET("/all", ctrl.ListCourses)
		course.GET("/:id", ctrl.GetCourse)
		course.DELETE("/:id", ctrl.DeleteCourse)
	}
}

func withGuard(guard gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	if guard == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{guard, handler}
}
